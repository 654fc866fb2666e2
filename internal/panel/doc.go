// Package panel holds the touch panel's interaction state.
//
// A Session tracks the global power mode (taps switch devices ON or OFF
// depending on it) and ignores repeated taps on the same button inside the
// bounce window. Accepted taps are dispatched through a power.Dispatcher.
// Rendering lives elsewhere; this package only decides what a tap means.
package panel
