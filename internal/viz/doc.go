// Package viz renders deposition surfaces and ensemble series in the
// terminal.
//
//   - [Canvas]: Braille pixel canvas used to draw column height profiles
//   - [PlotSeries]: asciigraph plots of width and mean height
//   - [Model]: Bubble Tea view of one realization growing batch by batch
//
// # Key Bindings
//
//	Space - Pause/Resume growth
//	N     - Deposit one schedule batch
//	R     - Restart the realization
//	?     - Show help overlay
//	Q     - Quit
package viz
