// Package ui is the Bubble Tea control surface for syncer.
//
// # Layout
//
// One screen: a header with the logo, the ON AIR light and the current mode
// (LIVE, DELAYED or HELD); a large delay readout; a few rows describing the
// detected element and the last action; an optional log panel; and a footer
// with key hints. ? opens a help overlay listing every binding.
//
// # Readout
//
// The readout shows the delay as -SS.Ds. It shows --.-s while no player is
// detected and ERR after an action fails, until the next action succeeds.
// Rejected moves (catching up while already live, delaying past what has
// been broadcast since detection) leave the readout alone and only show a
// notice.
//
// # Actions
//
// Every key that talks to the page runs through the Controller in a tea.Cmd.
// While one is in flight the surface is busy and further action keys are
// dropped, so the page only ever sees one mutation at a time. Theme, log
// panel, help and quit keys always work.
//
// # Hold ticker
//
// While the stream is held the displayed delay grows with wall-clock time, so
// the model re-renders every 100ms. Each tick carries the generation it was
// started with; leaving the hold bumps the generation, which lets the old
// chain die on its next tick. A hold, resume, hold sequence therefore never
// runs two chains at once. No ticker runs outside a hold.
//
// # Background poll
//
// The app poller keeps a state.Store fresh with read-only detections. The
// model reads it on every poll tick to refresh element flags and to report
// an unreachable browser. The delay always comes from the controller.
package ui
