// Package config provides user configuration management for the sqlbrowse tools.
//
// This package manages a YAML-based configuration file that stores user-defined
// metadata for discovered SQL Server hosts, including nicknames, last scan
// results, and scan preferences. The configuration follows OS-specific
// conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/sqlbrowse/config.yaml or $HOME/.config/sqlbrowse/config.yaml
//   - macOS: $HOME/.config/sqlbrowse/config.yaml
//   - Windows: %LOCALAPPDATA%\sqlbrowse\config.yaml
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Record what a scan found
//	registry.SetServerNickname("192.168.1.50", "Build Server")
//	registry.RecordScan("192.168.1.50", []*config.InstanceMeta{
//	    {Name: "SQLEXPRESS", Version: "12.0.2000.8", TCPPort: 1433},
//	})
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
