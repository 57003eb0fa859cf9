package engine

import "time"

// Clock supplies the timestamps recorded on bundle transitions. Swappable
// so tests can pin and advance the clock deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current wall time.
func (SystemClock) Now() time.Time { return time.Now() }
