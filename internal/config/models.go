package config

import "time"

// Registry represents the entire user configuration file.
// This stores user-defined metadata for servers and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Servers     map[string]*Server `yaml:"servers,omitempty"` // Keyed by reported host name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Server represents user-defined metadata for a single SQL Server host.
// This is keyed by the host's reported name in the Registry.
type Server struct {
	Nickname  string          `yaml:"nickname,omitempty"`  // User-friendly name
	LastSeen  time.Time       `yaml:"last_seen,omitempty"` // Last time a scan saw this host
	Instances []*InstanceMeta `yaml:"instances,omitempty"` // Instances reported by the last scan
}

// InstanceMeta is the subset of a discovered instance worth remembering
// between runs. This is purely client-side information.
type InstanceMeta struct {
	Name    string `yaml:"name"`               // Instance name (e.g., "SQLEXPRESS")
	Version string `yaml:"version,omitempty"`  // Reported server version string
	TCPPort int    `yaml:"tcp_port,omitempty"` // TCP port, 0 when the instance did not report one
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`        // Response-collection window for each query
	MulticastHops  int    `yaml:"multicast_hops"`         // Hop limit for multicast sweeps
	Codepage       string `yaml:"codepage"`               // Wire codepage of target browser services
	BrowserPort    int    `yaml:"browser_port,omitempty"` // Override for the browser UDP port
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Servers: make(map[string]*Server),
		Preferences: &Preferences{
			TimeoutSeconds: 1,
			MulticastHops:  1,
			Codepage:       "windows-1252",
			BrowserPort:    1434,
		},
	}
}

// GetServer retrieves server metadata by address.
// Returns nil if the server doesn't exist in the registry.
func (r *Registry) GetServer(addr string) *Server {
	return r.Servers[addr]
}

// EnsureServer ensures a server entry exists in the registry.
// If the server doesn't exist, creates a new entry with default values.
// Returns the server entry (existing or newly created).
func (r *Registry) EnsureServer(addr string) *Server {
	if r.Servers == nil {
		r.Servers = make(map[string]*Server)
	}

	if server, exists := r.Servers[addr]; exists {
		return server
	}

	server := &Server{}
	r.Servers[addr] = server
	return server
}

// RecordScan replaces the remembered instance list for a server and stamps
// the scan time.
func (r *Registry) RecordScan(addr string, instances []*InstanceMeta) {
	server := r.EnsureServer(addr)
	server.LastSeen = time.Now()
	server.Instances = instances
}

// SetServerNickname sets a user-friendly nickname for a server.
func (r *Registry) SetServerNickname(addr, nickname string) {
	server := r.EnsureServer(addr)
	server.Nickname = nickname
}
