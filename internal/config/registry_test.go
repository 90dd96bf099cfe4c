package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	// Should not be empty
	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	// Should contain "sqlbrowse"
	if !contains(configDir, "sqlbrowse") {
		t.Errorf("GetConfigDir() = %v, should contain 'sqlbrowse'", configDir)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		if !contains(configDir, "AppData") && !contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	// Should end with config.yaml
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}

	t.Logf("Config path: %s", configPath)
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.Servers == nil {
		t.Error("NewRegistry().Servers should not be nil")
	}

	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}

	if reg.Preferences.TimeoutSeconds != 1 {
		t.Errorf("NewRegistry().Preferences.TimeoutSeconds = %v, want 1", reg.Preferences.TimeoutSeconds)
	}

	if reg.Preferences.MulticastHops != 1 {
		t.Errorf("NewRegistry().Preferences.MulticastHops = %v, want 1", reg.Preferences.MulticastHops)
	}

	if reg.Preferences.Codepage != "windows-1252" {
		t.Errorf("NewRegistry().Preferences.Codepage = %v, want windows-1252", reg.Preferences.Codepage)
	}

	if reg.Preferences.BrowserPort != 1434 {
		t.Errorf("NewRegistry().Preferences.BrowserPort = %v, want 1434", reg.Preferences.BrowserPort)
	}
}

func TestRegistryEnsureServer(t *testing.T) {
	reg := NewRegistry()

	// First call should create the entry
	server1 := reg.EnsureServer("192.168.1.50")
	if server1 == nil {
		t.Fatal("EnsureServer() returned nil")
	}

	// Second call should return same entry
	server2 := reg.EnsureServer("192.168.1.50")
	if server1 != server2 {
		t.Error("EnsureServer() should return same instance for same address")
	}

	// Different address should create new entry
	server3 := reg.EnsureServer("192.168.1.51")
	if server1 == server3 {
		t.Error("EnsureServer() should create new instance for different address")
	}
}

func TestRegistryRecordScan(t *testing.T) {
	reg := NewRegistry()

	instances := []*InstanceMeta{
		{Name: "SQLEXPRESS", Version: "12.0.2000.8", TCPPort: 1433},
		{Name: "MSSQLSERVER", Version: "15.0.2000.5"},
	}

	before := time.Now()
	reg.RecordScan("192.168.1.50", instances)
	after := time.Now()

	server := reg.GetServer("192.168.1.50")
	if server == nil {
		t.Fatal("Server should exist after RecordScan()")
	}

	if len(server.Instances) != 2 {
		t.Fatalf("Instances count = %d, want 2", len(server.Instances))
	}

	if server.Instances[0].Name != "SQLEXPRESS" || server.Instances[0].TCPPort != 1433 {
		t.Errorf("Instances[0] = %+v, want SQLEXPRESS on 1433", server.Instances[0])
	}

	if server.LastSeen.Before(before) || server.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", server.LastSeen, before, after)
	}

	// A later scan replaces the remembered list
	reg.RecordScan("192.168.1.50", []*InstanceMeta{{Name: "ONLY"}})
	if got := len(reg.GetServer("192.168.1.50").Instances); got != 1 {
		t.Errorf("Instances count after rescan = %d, want 1", got)
	}
}

func TestRegistrySetServerNickname(t *testing.T) {
	reg := NewRegistry()

	reg.SetServerNickname("192.168.1.50", "Build Server")

	server := reg.GetServer("192.168.1.50")
	if server == nil {
		t.Fatal("Server should exist after SetServerNickname()")
	}

	if server.Nickname != "Build Server" {
		t.Errorf("Nickname = %v, want 'Build Server'", server.Nickname)
	}
}

func TestRegistryYAMLRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "sqlbrowse-config-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	testConfigPath := filepath.Join(tmpDir, "config.yaml")

	// Create and populate registry
	reg := NewRegistry()
	reg.SetServerNickname("192.168.1.50", "Build Server")
	reg.RecordScan("192.168.1.50", []*InstanceMeta{
		{Name: "SQLEXPRESS", Version: "12.0.2000.8", TCPPort: 1433},
	})

	data, err := yaml.Marshal(reg)
	if err != nil {
		t.Fatalf("Failed to marshal registry: %v", err)
	}

	if err := os.WriteFile(testConfigPath, data, 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	raw, err := os.ReadFile(testConfigPath)
	if err != nil {
		t.Fatalf("Failed to read test config: %v", err)
	}

	var loaded Registry
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		t.Fatalf("Failed to load registry: %v", err)
	}

	server := loaded.GetServer("192.168.1.50")
	if server == nil {
		t.Fatal("Server should exist in loaded registry")
	}

	if server.Nickname != "Build Server" {
		t.Errorf("Loaded nickname = %v, want 'Build Server'", server.Nickname)
	}

	if len(server.Instances) != 1 || server.Instances[0].Name != "SQLEXPRESS" {
		t.Fatalf("Loaded instances = %+v, want one SQLEXPRESS entry", server.Instances)
	}

	if server.Instances[0].TCPPort != 1433 {
		t.Errorf("Loaded TCP port = %d, want 1433", server.Instances[0].TCPPort)
	}
}

// Helper functions

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		(len(s) > 0 && (s[:len(substr)] == substr || contains(s[1:], substr))))
}

// Benchmark tests

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}

func BenchmarkEnsureServer(b *testing.B) {
	reg := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.EnsureServer("192.168.1.50")
	}
}
