package loginkit

import "log"

// warnf reports a non-fatal internal condition. The engine never fails a
// login because of an observability or cache problem; it logs and moves on.
func warnf(format string, args ...any) {
	log.Printf("loginkit: "+format, args...)
}
