package clock

import "time"

// Clock supplies match start times and elapsed durations
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t
func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// ElapsedMinutes returns whole minutes elapsed since start, never negative
func ElapsedMinutes(c Clock, start time.Time) int {
	d := c.Since(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}
