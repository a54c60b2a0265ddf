// Package viz provides the terminal earthquake player.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: the player, driving a [control.Surface]
//   - [MapView]: a render.Renderer painting markers on a world map
//   - [Canvas]: Braille-based pixel canvas with per-cell age colors
//   - Theme selection with 3 built-in color schemes
//
// # Key Bindings
//
//	Space - Play/Pause
//	+ / - - Faster/Slower
//	L     - Toggle loop
//	M     - Cumulative/window mode
//	[ ]   - Back/forward one day
//	↑ ↓   - Time range (days ago)
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
