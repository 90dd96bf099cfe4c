package ui

import (
	"fmt"
	"strings"

	"github.com/mkuiper/sqlbrowse/internal/protocol"
)

// RenderInstances formats discovered instances as bordered cards for
// interactive terminals.
func RenderInstances(instances []protocol.Instance) string {
	width := GetTerminalWidth()
	var b strings.Builder

	for i, inst := range instances {
		if i > 0 {
			b.WriteString("\n")
		}

		var card strings.Builder
		card.WriteString(TitleStyle.Render(fmt.Sprintf("%s\\%s", inst.Server, inst.Name)))
		card.WriteString("\n")
		card.WriteString(renderDetail("Version", inst.Version))

		if inst.TCPPort >= 0 {
			card.WriteString(renderDetail("TCP Port", fmt.Sprintf("%d", inst.TCPPort)))
		}
		if inst.PipeName != "" {
			card.WriteString(renderDetail("Pipe", inst.PipeName))
		}
		if inst.IsClustered {
			card.WriteString(renderDetail("Clustered", "yes"))
		}
		for _, via := range inst.Via {
			card.WriteString(renderDetail("VIA", fmt.Sprintf("%s:%d", via.NIC, via.Port)))
		}
		if inst.RPCName != "" {
			card.WriteString(renderDetail("RPC", inst.RPCName))
		}

		b.WriteString(InstanceBoxStyle(width).Render(strings.TrimRight(card.String(), "\n")))
		b.WriteString("\n")
	}

	return b.String()
}

func renderDetail(key, value string) string {
	return KeyStyle.Render(key+":") + " " + ValueStyle.Render(value) + "\n"
}

// PlainInstances formats discovered instances as unstyled text, one block per
// instance, suitable for pipes and scripts.
func PlainInstances(instances []protocol.Instance) string {
	var b strings.Builder

	for _, inst := range instances {
		fmt.Fprintf(&b, "%s\\%s\n", inst.Server, inst.Name)
		fmt.Fprintf(&b, "  version:   %s\n", inst.Version)
		if inst.TCPPort >= 0 {
			fmt.Fprintf(&b, "  tcp_port:  %d\n", inst.TCPPort)
		}
		if inst.PipeName != "" {
			fmt.Fprintf(&b, "  pipe:      %s\n", inst.PipeName)
		}
		fmt.Fprintf(&b, "  clustered: %v\n", inst.IsClustered)
		for _, via := range inst.Via {
			fmt.Fprintf(&b, "  via:       %s:%d\n", via.NIC, via.Port)
		}
	}

	return b.String()
}

// RenderDacPort formats a successful DAC port lookup.
func RenderDacPort(server string, instance string, port int) string {
	if !IsInteractive() {
		return fmt.Sprintf("%d\n", port)
	}

	width := GetTerminalWidth()
	content := SuccessTitleStyle.Render(SuccessMarker+" DAC port resolved") + "\n\n" +
		renderDetail("Server", server) +
		renderDetail("Instance", instance) +
		strings.TrimRight(renderDetail("DAC Port", fmt.Sprintf("%d", port)), "\n")
	return ResultBoxStyle(width).Render(content) + "\n"
}

// RenderNoResults formats the "nothing answered" notice with troubleshooting
// hints. hints may be empty.
func RenderNoResults(what string, hints []string) string {
	if !IsInteractive() {
		return fmt.Sprintf("no %s found\n", what)
	}

	var b strings.Builder
	b.WriteString(WarningStyle.Render(fmt.Sprintf("⚠ No %s found", what)))
	b.WriteString("\n")

	if len(hints) > 0 {
		b.WriteString("\n")
		b.WriteString(TroubleshootingTitleStyle.Render("Troubleshooting:"))
		b.WriteString("\n")
		for _, hint := range hints {
			b.WriteString(TroubleshootingItemStyle.Render("  - " + hint))
			b.WriteString("\n")
		}
	}

	return b.String()
}
