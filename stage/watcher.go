package stage

// Watcher fires its callback once, the first time the watched region
// intersects the viewport. Stop cancels a watcher that has not fired.
type Watcher struct {
	st       *Stage
	regionID string
	fn       func(r *Region)
	fired    bool
	stopped  bool
}

// Stop cancels the watcher. Safe to call repeatedly and after firing.
func (w *Watcher) Stop() {
	if w == nil || w.st == nil {
		return
	}
	w.st.mu.Lock()
	defer w.st.mu.Unlock()
	w.stopped = true
}

// Active reports whether the watcher is still waiting to fire
func (w *Watcher) Active() bool {
	if w == nil || w.st == nil {
		return false
	}
	w.st.mu.Lock()
	defer w.st.mu.Unlock()
	return !w.fired && !w.stopped
}
