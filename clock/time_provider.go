package clock

import "time"

// TimeProvider abstracts the time source so schedulers and animations
// can run against a controllable clock in tests
type TimeProvider interface {
	Now() time.Time
}

// SystemTime provides the real system time with monotonic clock readings
type SystemTime struct{}

// NewSystemTime creates a monotonic time provider
func NewSystemTime() *SystemTime {
	return &SystemTime{}
}

// Now returns the current time with monotonic clock reading
func (p *SystemTime) Now() time.Time {
	return time.Now()
}
