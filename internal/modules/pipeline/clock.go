package pipeline

import "time"

// Clock abstracts wall-clock time and delays so cache TTLs and the courtesy
// inter-ticker delay are testable without real waits.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the real wall clock
func SystemClock() Clock {
	return systemClock{}
}
