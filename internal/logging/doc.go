// Package logging provides structured logging for the sqlbrowse tools.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the module.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (datagram traffic, parse decisions)
//   - Info: Normal operations (requests sent, instances discovered)
//   - Warn: Non-fatal issues (suspicious field lengths, discarded replies)
//   - Error: Fatal issues (socket failures, startup errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Instance discovered",
//	    zap.String("server", "DBHOST"),
//	    zap.String("instance", "SQLEXPRESS"),
//	    zap.Int("tcp_port", 1433),
//	)
//
// # Configuration
//
// CLI commands are silent by default; verbosity is opt-in through the
// SQLBROWSE_LOG_LEVEL environment variable:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Output Format
//
// Logs are written to stdout in console format (human-readable):
//
//	2026-08-25T10:30:45.123-0800  DEBUG  datagram received
//	  peer=192.168.1.50:1434
//	  length=87
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
