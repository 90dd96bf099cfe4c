package tui

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mkuiper/sqlbrowse/internal/browser"
	"github.com/mkuiper/sqlbrowse/internal/protocol"
)

// Messages for async operations
type scanStartMsg struct{}
type scanCompleteMsg struct {
	instances []protocol.Instance
	err       error
}

// browseKeyMap defines key bindings for the browse screen
type browseKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// manualModeKeyMap defines key bindings for manual address entry mode
type manualModeKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (m manualModeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{m.Confirm, m.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (m manualModeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.Confirm, m.Cancel},
	}
}

// scanningKeyMap defines key bindings while a scan is in flight
type scanningKeyMap struct {
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (s scanningKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{s.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (s scanningKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{s.Quit},
	}
}

// instanceItem wraps a discovered Instance for use with bubbles/list
type instanceItem struct {
	inst protocol.Instance
}

// Implement list.Item interface
func (i instanceItem) FilterValue() string {
	// Filter by host or instance name
	return i.inst.Server + " " + i.inst.Name
}

// Title returns the instance identity for list display
func (i instanceItem) Title() string {
	return fmt.Sprintf("%s\\%s", i.inst.Server, i.inst.Name)
}

// Description returns instance details for list display
func (i instanceItem) Description() string {
	port := "no tcp"
	if i.inst.TCPPort >= 0 {
		port = fmt.Sprintf("tcp %d", i.inst.TCPPort)
	}
	return fmt.Sprintf("%s • %s", i.inst.Version, port)
}

// instanceDelegate is a custom list delegate for rendering instance cards
type instanceDelegate struct {
	width int
}

func (d instanceDelegate) Height() int { return 8 } // Card height including borders

func (d instanceDelegate) Spacing() int { return 1 } // Spacing between cards

func (d instanceDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d instanceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(instanceItem)
	if !ok {
		return
	}

	inst := it.inst
	selected := index == m.Index()

	name := fmt.Sprintf("%s\\%s", inst.Server, inst.Name)

	// Build content lines
	var content strings.Builder

	// Add selection indicator to the instance name
	if selected {
		content.WriteString(SelectedMenuItemStyle.Render("→ " + name))
	} else {
		content.WriteString("  " + name)
	}
	content.WriteString("\n\n")

	// Instance details
	content.WriteString(fmt.Sprintf("  Version:   %s\n", inst.Version))
	if inst.TCPPort >= 0 {
		content.WriteString(fmt.Sprintf("  TCP Port:  %d\n", inst.TCPPort))
	} else {
		content.WriteString("  TCP Port:  not listening\n")
	}
	if inst.PipeName != "" {
		content.WriteString(fmt.Sprintf("  Pipe:      %s\n", inst.PipeName))
	} else {
		content.WriteString("  Pipe:      -\n")
	}

	clustered := "No"
	if inst.IsClustered {
		clustered = "Yes"
	}
	statusStyle := lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	content.WriteString(fmt.Sprintf("  Clustered: %s", statusStyle.Render(clustered)))

	// Create responsive card style
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(1, 2).
		MarginLeft(2)

	// Calculate card width (leave room for margins and borders)
	cardWidth := d.width - 6 // 2 for margin-left, 4 for border + padding
	if cardWidth < MinTerminalWidth-6 {
		cardWidth = MinTerminalWidth - 6
	}
	if cardWidth > MaxContentWidth-6 {
		cardWidth = MaxContentWidth - 6
	}

	cardStyle = cardStyle.Width(cardWidth)

	// Highlight selected card
	if selected {
		cardStyle = cardStyle.BorderForeground(HighlightColor)
	}

	fmt.Fprint(w, cardStyle.Render(content.String()))
}

// BrowseModel represents the instance browse screen state
type BrowseModel struct {
	// Scan state
	Browser      *browser.Browser
	Target       net.IP
	Scanning     bool
	InstanceList list.Model
	Err          error

	// Manual address entry state
	ManualMode bool
	AddrInput  textinput.Model

	// UI state
	Width         int
	Height        int
	Spinner       spinner.Model
	ProgressBar   progress.Model
	ScanStartTime time.Time
	Help          help.Model
	Keys          browseKeyMap
	ManualKeys    manualModeKeyMap
	ScanningKeys  scanningKeyMap
}

// NewBrowseModel creates a browse screen that sweeps target on startup.
func NewBrowseModel(b *browser.Browser, target net.IP) BrowseModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	// Initialize address input
	addrInput := textinput.New()
	addrInput.Placeholder = "192.168.1.50"
	addrInput.CharLimit = 45 // Enough for an IPv6 address
	addrInput.Width = 45

	// Initialize progress bar
	progressBar := progress.New(progress.WithDefaultGradient())
	progressBar.Width = 40

	// Initialize instance list with custom delegate
	delegate := instanceDelegate{width: MinTerminalWidth}
	instanceList := list.New([]list.Item{}, delegate, 0, 0)
	instanceList.Title = "Discovered Instances"
	instanceList.SetShowStatusBar(false)
	instanceList.SetFilteringEnabled(true)
	instanceList.Styles.Title = TitleStyle

	// Initialize help
	h := help.New()

	// Initialize key bindings for normal mode
	keys := browseKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Manual: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "query address"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
	}

	// Initialize key bindings for manual entry mode
	manualKeys := manualModeKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "query"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}

	// Initialize key bindings for scanning mode
	scanningKeys := scanningKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}

	return BrowseModel{
		Browser:      b,
		Target:       target,
		Scanning:     false,
		InstanceList: instanceList,
		ManualMode:   false,
		AddrInput:    addrInput,
		Spinner:      s,
		ProgressBar:  progressBar,
		Help:         h,
		Keys:         keys,
		ManualKeys:   manualKeys,
		ScanningKeys: scanningKeys,
	}
}

// Init initializes the browse model
func (m BrowseModel) Init() tea.Cmd {
	// Start scanning immediately - send start message then begin scan
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		scanInstances(m.Browser, m.Target),
		m.Spinner.Tick,
	)
}

// Update handles messages and updates the model
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManualMode(msg)
		}
		return m.updateNormalMode(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		// Update list size
		m.InstanceList.SetWidth(msg.Width - 4)
		m.InstanceList.SetHeight(msg.Height - 10) // Leave room for header/footer

	case scanStartMsg:
		m.Scanning = true
		m.ScanStartTime = time.Now()

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		// Convert instances to list items
		items := make([]list.Item, len(msg.instances))
		for i, inst := range msg.instances {
			items[i] = instanceItem{inst: inst}
		}
		m.InstanceList.SetItems(items)

	case spinner.TickMsg:
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	// Update list if not in manual mode or scanning
	if !m.ManualMode && !m.Scanning {
		m.InstanceList, cmd = m.InstanceList.Update(msg)
	}

	return m, cmd
}

// updateNormalMode handles keyboard input in normal instance list mode
func (m BrowseModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "r":
		// Rescan the current target
		m.InstanceList.SetItems([]list.Item{})
		m.Err = nil
		return m, tea.Batch(
			func() tea.Msg { return scanStartMsg{} },
			scanInstances(m.Browser, m.Target),
			m.Spinner.Tick,
		)

	case "m":
		// Switch to manual address entry mode
		m.ManualMode = true
		m.AddrInput.SetValue("")
		m.AddrInput.Focus()
	}

	// Let the list handle up/down navigation
	return m, nil
}

// updateManualMode handles keyboard input in manual address entry mode
func (m BrowseModel) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "ctrl+c", "esc":
		// Cancel manual entry
		m.ManualMode = false
		m.AddrInput.SetValue("")
		m.AddrInput.Blur()
		return m, nil

	case "enter":
		value := m.AddrInput.Value()
		if value != "" {
			ip := net.ParseIP(value)
			if ip == nil {
				m.Err = fmt.Errorf("invalid address: %s", value)
				m.ManualMode = false
				m.AddrInput.SetValue("")
				m.AddrInput.Blur()
				return m, nil
			}

			// Retarget and scan
			m.Target = ip
			m.ManualMode = false
			m.AddrInput.SetValue("")
			m.AddrInput.Blur()
			m.InstanceList.SetItems([]list.Item{})
			m.Err = nil
			return m, tea.Batch(
				func() tea.Msg { return scanStartMsg{} },
				scanInstances(m.Browser, ip),
				m.Spinner.Tick,
			)
		}
	}

	// Update the text input
	m.AddrInput, cmd = m.AddrInput.Update(msg)
	return m, cmd
}

// View renders the browse screen
func (m BrowseModel) View() string {
	// Use default width if not set
	width := m.Width
	if width == 0 {
		width = 72
	}

	// Build main content area
	var content string
	if m.ManualMode {
		content = m.renderManualEntry()
	} else if m.Scanning {
		content = m.renderScanning(width)
	} else {
		content = m.renderResults()
	}

	// Determine context-sensitive help text using bubbles/help
	var helpText string
	if m.ManualMode {
		helpText = m.Help.View(m.ManualKeys)
	} else if m.Scanning {
		helpText = m.Help.View(m.ScanningKeys)
	} else {
		helpText = m.Help.View(m.Keys)
	}

	// Wrap with application container (full-screen layout with height)
	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

// renderScanning renders a centered scanning progress display
func (m BrowseModel) renderScanning(width int) string {
	elapsed := time.Since(m.ScanStartTime)
	elapsedSec := int(elapsed.Seconds())

	// Progress against the browser's collection window
	window := int(m.Browser.Timeout.Seconds())
	if window == 0 {
		window = 1
	}
	progressPercent := min(100, (elapsedSec*100)/window)
	progressFloat := float64(progressPercent) / 100.0

	// Build content components
	title := fmt.Sprintf("%s QUERYING BROWSER SERVICES", m.Spinner.View())
	subtitle := fmt.Sprintf("Asking %s for SQL Server instances...", m.Target)

	// ViewAs already includes percentage display
	progressBar := m.ProgressBar.ViewAs(progressFloat)
	elapsedText := fmt.Sprintf("Elapsed: %ds", elapsedSec)

	content := lipgloss.JoinVertical(lipgloss.Center,
		"", // Top spacing
		TitleStyle.Render(title),
		"",
		SubtitleStyle.Render(subtitle),
		"",
		progressBar,
		"",
		SubtitleStyle.Render(elapsedText),
		"", // Bottom spacing
	)

	// Height = 0 means "no vertical constraint" - let content determine height
	return lipgloss.Place(width, 0, lipgloss.Center, lipgloss.Top, content)
}

// renderResults renders the instance list or "nothing answered" message
func (m BrowseModel) renderResults() string {
	var b strings.Builder

	b.WriteString("\n")

	if m.Err != nil {
		// Error state
		b.WriteString(RenderError(fmt.Sprintf("Scan failed: %v", m.Err)))
		b.WriteString("\n\n")

		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Verify the target address is reachable\n")
		b.WriteString("    • Check that UDP port 1434 is not filtered\n")
		b.WriteString("    • Try a directed broadcast for the local subnet\n")

	} else if len(m.InstanceList.Items()) == 0 {
		// Nothing answered before the deadline
		b.WriteString("  ")
		warningStyle := lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
		b.WriteString(warningStyle.Render("⚠ No browser service answered"))
		b.WriteString("\n\n")

		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Ensure the SQL Server Browser service is running\n")
		b.WriteString("    • Check that UDP port 1434 is not filtered\n")
		b.WriteString("    • Try a longer timeout (use 'r' to rescan)\n")
		b.WriteString("    • Query a specific host with 'm'\n")
		b.WriteString("\n")

	} else {
		// Instances found - render the list
		b.WriteString(m.InstanceList.View())
	}

	return b.String()
}

// min returns the minimum of two integers
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// renderManualEntry renders the manual address entry dialog
func (m BrowseModel) renderManualEntry() string {
	var b strings.Builder

	b.WriteString(RenderSubtitle("Enter a host or broadcast address to query"))
	b.WriteString("\n\n")

	// Input box using textinput component
	b.WriteString("  Address: ")
	b.WriteString(m.AddrInput.View())
	b.WriteString("\n\n")

	return b.String()
}

// scanInstances builds a command that sweeps target and reports the result.
func scanInstances(b *browser.Browser, target net.IP) tea.Cmd {
	return func() tea.Msg {
		var (
			instances []protocol.Instance
			err       error
		)
		if target.IsMulticast() || target.Equal(net.IPv4bcast) || isDirectedBroadcast(target) {
			instances, err = b.ListAllInstances(context.Background(), target)
		} else {
			instances, err = b.ListInstances(context.Background(), target, "")
		}
		return scanCompleteMsg{
			instances: instances,
			err:       err,
		}
	}
}

// isDirectedBroadcast is a heuristic: a trailing .255 octet almost always
// means a /24 directed broadcast, which is what people type in practice.
func isDirectedBroadcast(ip net.IP) bool {
	v4 := ip.To4()
	return v4 != nil && v4[3] == 0xff
}

// Run starts the interactive browse screen against target.
func Run(b *browser.Browser, target net.IP) error {
	model := NewBrowseModel(b, target)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
