// Package tui implements the interactive browse screen for discovered
// SQL Server instances.
//
// Built using the Bubble Tea framework, it follows the Elm architecture with
// immutable state updates and a clean Model-Update-View pattern. The browse
// screen sweeps a target address for instances, renders the replies as cards,
// and lets the user rescan or retarget without leaving the screen.
//
// # Framework Components
//
// The TUI leverages Bubble Tea framework components throughout:
//   - bubbles/spinner: Scan-in-flight indicator
//   - bubbles/textinput: Manual address entry
//   - bubbles/progress: Progress against the collection window
//   - bubbles/list: Instance list with filtering
//   - bubbles/help: Context-aware help system
//   - lipgloss: Styling and layout
//
// All screens render through a unified container pattern
// (RenderApplicationContainer) for consistent layout with header, content
// area, and context-sensitive footer.
//
// # Usage Example
//
//	b := browser.New(logging.GetLogger())
//	if err := tui.Run(b, net.IPv4bcast); err != nil {
//	    log.Fatal(err)
//	}
//
// # Key Bindings
//
// Key bindings are context-aware:
//   - Browse: ↑/↓ navigate, r rescan, m query address, q quit
//   - Manual entry: Enter query, ESC cancel
//   - Scanning: q quit
//
// Help text automatically updates based on screen state.
//
// # State Management
//
// The TUI maintains immutable state with explicit updates:
//   - Models contain all state (no global variables)
//   - Update() returns new model + commands
//   - View() is pure function of model state
//   - Commands represent async operations (the scan itself)
//
// # Thread Safety
//
// The Bubble Tea framework ensures thread safety through message passing.
// All model updates occur in a single goroutine, preventing race conditions.
package tui
