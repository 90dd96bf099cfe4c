// Package ui renders terminal output for the sqlbrowse CLI commands.
//
// Unlike the interactive browse TUI, these components follow a "run once and
// exit" pattern: they render query results compellingly but don't require
// user interaction. Every renderer degrades to plain text when stdout is not
// a terminal, so piping command output into scripts keeps working.
//
// # Components
//
//   - RenderInstances / PlainInstances: instance cards or script-friendly text
//   - RenderDacPort: single-result box for DAC port lookups
//   - RenderNoResults: "nothing answered" notice with troubleshooting hints
//
// # Logging Integration
//
// This package expects logging to be controlled via the SQLBROWSE_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the curated UI output to be displayed cleanly. Set SQLBROWSE_LOG_LEVEL to
// "debug", "info", "warn", or "error" to enable logging output.
package ui
