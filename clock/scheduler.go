package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Task is an opaque handle to a scheduled callback.
// Cancel is the only operation; a cancelled task never fires again.
type Task struct {
	sched     *Scheduler
	deadline  time.Time
	period    time.Duration // 0 for one-shot
	fn        func()
	cancelled bool
}

// Cancel removes the task from its scheduler.
// Safe to call repeatedly and from within the task's own callback.
func (t *Task) Cancel() {
	if t == nil || t.sched == nil {
		return
	}
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	t.cancelled = true
}

// Scheduler owns recurring and one-shot tasks and fires them from Tick.
// It never spawns goroutines on its own: callbacks run on whatever
// logical thread pumps Tick, so task bodies need no locking against
// each other. Deadlines reschedule from the previous deadline, not
// from fire time, so periodic tasks do not drift.
type Scheduler struct {
	time  TimeProvider
	mu    sync.Mutex
	tasks []*Task

	ticks atomic.Uint64
}

// NewScheduler creates a scheduler over the given time source.
// A nil provider defaults to system time.
func NewScheduler(tp TimeProvider) *Scheduler {
	if tp == nil {
		tp = NewSystemTime()
	}
	return &Scheduler{time: tp}
}

// Every registers fn to fire every d, first firing one period from now.
func (s *Scheduler) Every(d time.Duration, fn func()) *Task {
	return s.add(s.time.Now().Add(d), d, fn)
}

// After registers fn to fire once, d from now. A zero or negative d
// fires on the next Tick.
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	return s.add(s.time.Now().Add(d), 0, fn)
}

func (s *Scheduler) add(deadline time.Time, period time.Duration, fn func()) *Task {
	t := &Task{sched: s, deadline: deadline, period: period, fn: fn}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
	return t
}

// Active returns the number of live (not cancelled, not expired) tasks
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// CancelAll cancels every outstanding task
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		t.cancelled = true
	}
	s.tasks = s.tasks[:0]
}

// Tick fires every task due at or before now. Periodic tasks that fell
// multiple periods behind fire once per missed period, keeping their
// deadline grid fixed. Returns the number of callbacks fired.
func (s *Scheduler) Tick(now time.Time) int {
	fired := 0
	for {
		fn := s.nextDue(now)
		if fn == nil {
			break
		}
		fn()
		fired++
	}
	if fired > 0 {
		s.ticks.Add(uint64(fired))
		s.compact()
	}
	return fired
}

// nextDue pops the earliest due callback under the lock; the caller
// invokes it unlocked so callbacks may schedule or cancel freely.
func (s *Scheduler) nextDue(now time.Time) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due *Task
	for _, t := range s.tasks {
		if t.cancelled || t.deadline.After(now) {
			continue
		}
		if due == nil || t.deadline.Before(due.deadline) {
			due = t
		}
	}
	if due == nil {
		return nil
	}
	if due.period > 0 {
		due.deadline = due.deadline.Add(due.period)
	} else {
		due.cancelled = true
	}
	return due.fn
}

// compact drops cancelled tasks from the slice
func (s *Scheduler) compact() {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = live
}

// Fired returns the total number of callbacks fired since creation
func (s *Scheduler) Fired() uint64 {
	return s.ticks.Load()
}

// Run pumps Tick on a real-time ticker until stop closes. Hosts that
// drive their own frame loop should call Tick directly instead.
func (s *Scheduler) Run(stop <-chan struct{}, resolution time.Duration) {
	if resolution <= 0 {
		resolution = 10 * time.Millisecond
	}
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Tick(s.time.Now())
		}
	}
}
