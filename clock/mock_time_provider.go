package clock

import (
	"sync"
	"time"
)

// MockTimeProvider is a manually driven time source for deterministic
// tests: time stands still until a test moves it
type MockTimeProvider struct {
	mu  sync.RWMutex
	now time.Time
}

// NewMockTimeProvider creates a mock clock frozen at startTime
func NewMockTimeProvider(startTime time.Time) *MockTimeProvider {
	return &MockTimeProvider{now: startTime}
}

// Now returns the mocked instant
func (m *MockTimeProvider) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// SetTime jumps the clock to t
func (m *MockTimeProvider) SetTime(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
