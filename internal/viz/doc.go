// Package viz renders traces for a terminal.
//
//   - [RenderTable]: one row per record, absent values shown as n/a
//   - [RenderSummary]: end point and error figures of a run
//   - [Chart]: asciigraph plot of the approximation against the exact solution
//   - [Viewer]: Bubble Tea program that scrolls a trace
//   - [Prompt]: huh form that asks for a problem
//
// Styling is applied only when [Options.Styled] is set, which callers derive
// from [IsTerminal].
//
// # Viewer Key Bindings
//
//	↑/↓ k/j - Move through records
//	c       - Toggle chart
//	t       - Cycle color themes
//	q / esc - Quit
package viz
