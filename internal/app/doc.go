// Package app wires syncer together and runs it.
//
// Run performs these steps in order:
//
//  1. Load ~/.config/syncer/config.toml (plus SYNCER_* overrides) and apply CLI overrides
//  2. Open the log file; everything logs there because the TUI owns the terminal
//  3. Wait for the Chromium DevTools endpoint, retrying while the browser starts
//  4. Build the page host, the action executor and the offset controller
//  5. Open the SQLite state store, or keep offset state in memory if that fails
//  6. Start the detect poller feeding state.Store
//  7. Run the UI until the user quits or the context is cancelled
//
// # Poller
//
// The poller only ever issues read-only detect requests. After a failure it
// waits twice as long as before, up to 30 seconds, so a closed browser does
// not get hammered; the first success resets the interval.
package app
