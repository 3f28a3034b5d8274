// Package osreg binds accelerators to the platform hotkey API. On Linux it
// needs cgo and an X11 display; build with -tags nox11 for sessions that
// have neither, which leaves the app running without a global hotkey.
package osreg
