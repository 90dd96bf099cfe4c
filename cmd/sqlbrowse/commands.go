package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkuiper/sqlbrowse/internal/browser"
	"github.com/mkuiper/sqlbrowse/internal/codec"
	"github.com/mkuiper/sqlbrowse/internal/config"
	"github.com/mkuiper/sqlbrowse/internal/logging"
	"github.com/mkuiper/sqlbrowse/internal/protocol"
	"github.com/mkuiper/sqlbrowse/internal/tui"
	"github.com/mkuiper/sqlbrowse/internal/ui"
)

// Query command flags. Zero values mean "not set"; defaults come from the
// config registry preferences, flags override them when given.
var (
	timeoutSeconds int
	browserPort    int
	codepageName   string
	multicastHops  int
	noSave         bool
)

func init() {
	// Common flags for query commands (persistent on root)
	rootCmd.PersistentFlags().IntVar(&timeoutSeconds, "timeout", 0, "Response-collection window in seconds (default from config)")
	rootCmd.PersistentFlags().IntVar(&browserPort, "port", 0, "Browser service UDP port (default from config)")
	rootCmd.PersistentFlags().StringVar(&codepageName, "codepage", "", "Wire codepage of target browser services (default from config)")
	rootCmd.PersistentFlags().IntVar(&multicastHops, "hops", 0, "Hop limit for multicast sweeps (default from config)")

	// Add subcommands directly to root
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(instancesCmd)
	rootCmd.AddCommand(dacportCmd)
	rootCmd.AddCommand(browseCmd)
}

// newBrowser builds a browser client from config preferences and flag
// overrides.
func newBrowser(cmd *cobra.Command) (*browser.Browser, error) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	prefs := registry.Preferences

	codepage := prefs.Codepage
	if cmd.Flags().Changed("codepage") {
		codepage = codepageName
	}
	var c *codec.Codec
	if codepage == "" || codepage == codec.DefaultCodepage {
		c = codec.Default()
	} else {
		c, err = codec.ForName(codepage)
		if err != nil {
			return nil, fmt.Errorf("invalid codepage %q: %w", codepage, err)
		}
	}

	b := browser.NewWithCodec(c, logging.GetLogger())

	if cmd.Flags().Changed("timeout") {
		b.Timeout = time.Duration(timeoutSeconds) * time.Second
	} else if prefs.TimeoutSeconds > 0 {
		b.Timeout = time.Duration(prefs.TimeoutSeconds) * time.Second
	}

	if cmd.Flags().Changed("port") {
		b.Port = browserPort
	} else if prefs.BrowserPort > 0 {
		b.Port = prefs.BrowserPort
	}

	if cmd.Flags().Changed("hops") {
		b.MulticastHops = multicastHops
	} else if prefs.MulticastHops > 0 {
		b.MulticastHops = prefs.MulticastHops
	}

	return b, nil
}

// parseTarget parses an address argument into an IP.
func parseTarget(arg string) (net.IP, error) {
	ip := net.ParseIP(arg)
	if ip == nil {
		return nil, fmt.Errorf("invalid address %q (hostnames are not supported, use an IP)", arg)
	}
	return ip, nil
}

// isSweepAddress reports whether addr fans out to multiple hosts, which
// decides between a collect-all sweep and a single-host query.
func isSweepAddress(addr net.IP) bool {
	if addr.IsMulticast() || addr.Equal(net.IPv4bcast) {
		return true
	}
	// Trailing .255 is almost always a /24 directed broadcast
	v4 := addr.To4()
	return v4 != nil && v4[3] == 0xff
}

var scanHints = []string{
	"Ensure the SQL Server Browser service is running on target hosts",
	"Check that UDP port 1434 is not filtered by a firewall",
	"Try a directed broadcast for the local subnet (e.g. 192.168.1.255)",
	"Try increasing --timeout for slow networks",
}

// scanCmd sweeps an address for instances
var scanCmd = &cobra.Command{
	Use:   "scan [address]",
	Short: "Scan for SQL Server instances",
	Long: `Sweep an address for SQL Server instances.

Sends a discovery request and collects every reply that arrives within the
timeout window. The address may be a broadcast address, a multicast group,
or a single host. With no address, the limited broadcast 255.255.255.255
is used.

Results are remembered in the config registry for later reference unless
--no-save is given.`,
	Example: `  # Sweep the local network
  sqlbrowse scan

  # Sweep a specific subnet
  sqlbrowse scan 192.168.1.255

  # Ask one host for all of its instances
  sqlbrowse scan 192.168.1.50

  # Slow network
  sqlbrowse scan --timeout 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&noSave, "no-save", false, "Do not record results in the config registry")
}

func runScan(cmd *cobra.Command, args []string) error {
	target := net.IPv4bcast
	if len(args) == 1 {
		var err error
		target, err = parseTarget(args[0])
		if err != nil {
			return err
		}
	}

	b, err := newBrowser(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("Scanning %s (timeout: %s)...\n\n", target, b.Timeout)

	var instances []protocol.Instance
	if isSweepAddress(target) {
		instances, err = b.ListAllInstances(context.Background(), target)
	} else {
		instances, err = b.ListInstances(context.Background(), target, "")
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(instances) == 0 {
		fmt.Print(ui.RenderNoResults("instances", scanHints))
		return nil
	}

	fmt.Printf("Found %d instance(s):\n\n", len(instances))
	if ui.IsInteractive() {
		fmt.Print(ui.RenderInstances(instances))
	} else {
		fmt.Print(ui.PlainInstances(instances))
	}

	if !noSave {
		if err := recordResults(instances); err != nil {
			// Recording is best-effort; the scan itself succeeded
			logging.Warn("failed to record scan results: " + err.Error())
		}
	}

	fmt.Println("\nUse 'sqlbrowse instances <address>' to query a single host")
	fmt.Println("Use 'sqlbrowse dacport <address> <name>' to resolve an admin port")

	return nil
}

// recordResults stores the scan outcome in the config registry, grouped by
// reporting host.
func recordResults(instances []protocol.Instance) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	byHost := make(map[string][]*config.InstanceMeta)
	for _, inst := range instances {
		port := 0
		if inst.TCPPort >= 0 {
			port = inst.TCPPort
		}
		byHost[inst.Server] = append(byHost[inst.Server], &config.InstanceMeta{
			Name:    inst.Name,
			Version: inst.Version,
			TCPPort: port,
		})
	}
	for host, metas := range byHost {
		registry.RecordScan(host, metas)
	}

	return registry.Save()
}

// instancesCmd queries a single host
var instancesCmd = &cobra.Command{
	Use:   "instances <address> [name]",
	Short: "List instances on a single host",
	Long: `Query one host's browser service for its instances.

With only an address, every instance on the host is listed; the call waits
out the full timeout window since the service may answer with several
datagrams. With an instance name, only that instance is requested and the
call returns as soon as the reply arrives.`,
	Example: `  # All instances on a host
  sqlbrowse instances 192.168.1.50

  # One specific instance
  sqlbrowse instances 192.168.1.50 SQLEXPRESS`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInstances,
}

func runInstances(cmd *cobra.Command, args []string) error {
	target, err := parseTarget(args[0])
	if err != nil {
		return err
	}
	name := ""
	if len(args) == 2 {
		name = args[1]
	}

	b, err := newBrowser(cmd)
	if err != nil {
		return err
	}

	instances, err := b.ListInstances(context.Background(), target, name)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(instances) == 0 {
		what := "instances"
		if name != "" {
			what = fmt.Sprintf("instance named %q", name)
		}
		fmt.Print(ui.RenderNoResults(what, scanHints))
		return nil
	}

	if ui.IsInteractive() {
		fmt.Print(ui.RenderInstances(instances))
	} else {
		fmt.Print(ui.PlainInstances(instances))
	}

	return nil
}

// dacportCmd resolves a dedicated admin connection port
var dacportCmd = &cobra.Command{
	Use:   "dacport <address> <name>",
	Short: "Resolve the DAC port of a named instance",
	Long: `Resolve the dedicated admin connection (DAC) port of a named instance.

The DAC is a reserved diagnostic connection that works even when a server
refuses normal connections. This command asks the host's browser service
which TCP port the instance's DAC listener is on.`,
	Example: `  # Resolve the DAC port of SQLEXPRESS
  sqlbrowse dacport 192.168.1.50 SQLEXPRESS

  # Pipe the bare port number into a script
  sqlbrowse dacport 192.168.1.50 SQLEXPRESS | xargs -I{} sqlcmd -S tcp:192.168.1.50,{} -A`,
	Args: cobra.ExactArgs(2),
	RunE: runDacPort,
}

func runDacPort(cmd *cobra.Command, args []string) error {
	target, err := parseTarget(args[0])
	if err != nil {
		return err
	}
	name := args[1]

	b, err := newBrowser(cmd)
	if err != nil {
		return err
	}

	port, ok, err := b.DacPort(context.Background(), target, name)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("no DAC port reported for %q on %s (instance unknown, or nothing answered in time)", name, target)
	}

	fmt.Print(ui.RenderDacPort(target.String(), name, port))
	return nil
}

// browseCmd launches the interactive browse screen
var browseCmd = &cobra.Command{
	Use:   "browse [address]",
	Short: "Launch the interactive browse screen",
	Long: `Launch an interactive TUI for exploring discovered instances.

The browse screen sweeps the target on startup, shows the replies as cards,
and supports rescanning ('r') and querying a different address ('m') without
leaving the screen.`,
	Example: `  # Browse the local network
  sqlbrowse browse
  # Or simply (browse is default):
  sqlbrowse

  # Browse a specific subnet
  sqlbrowse browse 192.168.1.255`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !ui.IsInteractive() {
		return fmt.Errorf("browse requires a terminal; use 'sqlbrowse scan' for scripted output")
	}

	target := net.IPv4bcast
	if len(args) == 1 {
		var err error
		target, err = parseTarget(args[0])
		if err != nil {
			return err
		}
	}

	b, err := newBrowser(cmd)
	if err != nil {
		return err
	}

	if err := tui.Run(b, target); err != nil {
		return fmt.Errorf("browse error: %w", err)
	}

	return nil
}
