package logging

import "testing"

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	// Nop logger discards everything; these must not panic
	Info("should be discarded")
	Debug("should be discarded")
	Warn("should be discarded")
}

func TestInitializeLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		t.Run(level, func(t *testing.T) {
			if err := Initialize(level); err != nil {
				t.Fatalf("Initialize(%q) error = %v", level, err)
			}
			if GetLogger() == nil {
				t.Fatal("GetLogger() returned nil after Initialize")
			}
		})
	}

	// Restore silent default for other tests
	logger = nil
	t.Setenv(LogLevelEnvVar, "")
	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
}

func TestGetLoggerFallsBackToNop(t *testing.T) {
	logger = nil
	if GetLogger() == nil {
		t.Fatal("GetLogger() should fall back to a nop logger")
	}
}
