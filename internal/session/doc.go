// Package session computes statistics over trading-session windows.
//
// Sessions are implicit in the bar stream: a bar flagged as opening a new
// trading day starts a session. The previous-session window is discovered
// by walking backward from the current bar across that marker twice. Over
// a window the package accumulates volume-weighted running sums to derive
// the session VWAP, its standard deviation and symmetric ±kσ bands, and a
// value area (high/low/point-of-control) from the volume-at-price
// distribution.
package session
