package stage

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/framewraith/retrofx/clock"
)

// ErrNotAttached is returned by Render when no screen is attached
var ErrNotAttached = errors.New("stage: no screen attached")

// HandlerID is an opaque handle to a registered input handler
type HandlerID uint64

// MouseHandler receives mouse events dispatched to the stage
type MouseHandler func(ev *tcell.EventMouse)

// KeyHandler receives key events dispatched to the stage
type KeyHandler func(ev *tcell.EventKey)

type handler struct {
	mouse MouseHandler
	key   KeyHandler
}

// smoothScrollDuration is the tween length for animated scrolling
const smoothScrollDuration = 400 * time.Millisecond

// scrollTween animates the viewport offset toward a target row
type scrollTween struct {
	from, to float64
	start    time.Time
	duration time.Duration
}

// Stage is the render surface the effect layer mutates: a scrollable
// content plane of regions with z-ordered overlay layers on top. It
// is the terminal stand-in for a document: layers are the persistent
// markers effects insert, regions are the elements they target, and
// attachment to a screen is the "ready" signal deferred work waits on.
type Stage struct {
	mu sync.Mutex

	width, height int
	screen        tcell.Screen
	attached      bool
	readyFns      []func()

	time      clock.TimeProvider
	rng       *rand.Rand
	lastFrame time.Time

	layers  []*Layer
	regions []*Region

	contentHeight int
	scrollY       float64
	tween         *scrollTween
	smooth        bool

	watchers []*Watcher

	handlers    map[HandlerID]*handler
	nextHandler HandlerID
}

// New creates a headless stage of the given size. Attach binds it to
// a screen later; headless stages composite but never render.
func New(width, height int) *Stage {
	return &Stage{
		width:    width,
		height:   height,
		time:     clock.NewSystemTime(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		handlers: make(map[HandlerID]*handler),
	}
}

// SetTimeProvider replaces the time source. Intended for tests; call
// before the first Advance.
func (s *Stage) SetTimeProvider(tp clock.TimeProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tp != nil {
		s.time = tp
	}
}

// SetRandSource reseeds the stage's randomness for deterministic tests
func (s *Stage) SetRandSource(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rand.New(rand.NewSource(seed))
}

// Size returns the stage dimensions
func (s *Stage) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Attach binds the stage to a screen and flushes deferred OnReady
// callbacks. The screen's size wins over the constructed size.
// Attach(nil) marks the stage ready without a screen; composite and
// the frame pump work, Render reports ErrNotAttached.
func (s *Stage) Attach(screen tcell.Screen) {
	s.mu.Lock()
	s.screen = screen
	if screen != nil {
		if w, h := screen.Size(); w > 0 && h > 0 {
			s.width, s.height = w, h
		}
	}
	s.attached = true
	pending := s.readyFns
	s.readyFns = nil
	s.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// Detach unbinds the screen; the stage goes back to headless and new
// OnReady callbacks queue again
func (s *Stage) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen = nil
	s.attached = false
}

// Attached reports whether a screen is bound
func (s *Stage) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// OnReady runs fn immediately if the stage is attached, otherwise
// defers it until Attach
func (s *Stage) OnReady(fn func()) {
	s.mu.Lock()
	if !s.attached {
		s.readyFns = append(s.readyFns, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// --- Layers ---

// AddLayer inserts a layer unless one with the same ID already exists.
// Returns false on the duplicate, keeping insertion idempotent by ID.
func (s *Stage) AddLayer(l *Layer) bool {
	if l == nil || l.ID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.layers {
		if existing.ID == l.ID {
			return false
		}
	}
	s.layers = append(s.layers, l)
	sort.SliceStable(s.layers, func(i, j int) bool { return s.layers[i].Z < s.layers[j].Z })
	return true
}

// HasLayer reports whether a layer with the ID exists
func (s *Stage) HasLayer(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.layers {
		if l.ID == id {
			return true
		}
	}
	return false
}

// RemoveLayer removes the layer with the ID; missing IDs are ignored
func (s *Stage) RemoveLayer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.layers {
		if l.ID == id {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return
		}
	}
}

// Layers returns the IDs of all layers in z order
func (s *Stage) Layers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.layers))
	for i, l := range s.layers {
		ids[i] = l.ID
	}
	return ids
}

// --- Regions ---

// AddRegion inserts a region; a region with a duplicate ID is rejected
func (s *Stage) AddRegion(r *Region) bool {
	if r == nil || r.ID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.regions {
		if existing.ID == r.ID {
			return false
		}
	}
	if r.W <= 0 {
		r.W = runewidth.StringWidth(r.Text)
	}
	if r.H <= 0 {
		r.H = 1
	}
	s.regions = append(s.regions, r)
	if bottom := r.Y + r.H; bottom > s.contentHeight {
		s.contentHeight = bottom
	}
	return true
}

// Find resolves a region by ID; ok is false when nothing matches
func (s *Stage) Find(id string) (*Region, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.regions {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// FindTag returns every region carrying the tag, in insertion order
func (s *Stage) FindTag(tag string) []*Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Region
	for _, r := range s.regions {
		if r.HasTag(tag) {
			out = append(out, r)
		}
	}
	return out
}

// RemoveRegion removes the region with the ID; missing IDs are ignored
func (s *Stage) RemoveRegion(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.regions {
		if r.ID == id {
			s.regions = append(s.regions[:i], s.regions[i+1:]...)
			return
		}
	}
}

// RegionAt resolves the topmost region under a screen coordinate,
// accounting for the current scroll offset
func (s *Stage) RegionAt(x, y int) (*Region, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cy := y + int(math.Round(s.scrollY))
	for i := len(s.regions) - 1; i >= 0; i-- {
		if s.regions[i].contains(x, cy) {
			return s.regions[i], true
		}
	}
	return nil, false
}

// --- Viewport ---

// ScrollOffset returns the current viewport row offset
func (s *Stage) ScrollOffset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(math.Round(s.scrollY))
}

// SetSmoothScroll switches ScrollTo between instant and eased mode
func (s *Stage) SetSmoothScroll(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.smooth = enabled
}

// SmoothScroll reports whether ScrollTo is in eased mode
func (s *Stage) SmoothScroll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.smooth
}

// ScrollTo moves the viewport to row y. In smooth mode this starts an
// eased tween; otherwise the move is instant. Watchers are evaluated
// after the move.
func (s *Stage) ScrollTo(y int) {
	s.mu.Lock()
	smooth := s.smooth
	s.mu.Unlock()
	if smooth {
		s.SmoothScrollTo(y)
		return
	}
	s.mu.Lock()
	s.tween = nil
	s.scrollY = s.clampScroll(float64(y))
	s.mu.Unlock()
	s.checkWatchers()
}

// SmoothScrollTo starts an eased scroll toward row y, advanced by the
// frame pump. A tween already in flight is replaced.
func (s *Stage) SmoothScrollTo(y int) {
	s.mu.Lock()
	target := s.clampScroll(float64(y))
	if target == s.scrollY {
		s.tween = nil
		s.mu.Unlock()
		return
	}
	s.tween = &scrollTween{
		from:     s.scrollY,
		to:       target,
		start:    s.time.Now(),
		duration: smoothScrollDuration,
	}
	s.mu.Unlock()
}

// Scrolling reports whether a scroll tween is in flight
func (s *Stage) Scrolling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tween != nil
}

// clampScroll keeps the offset within the scrollable content, caller holds mu
func (s *Stage) clampScroll(y float64) float64 {
	max := float64(s.contentHeight - s.height)
	if max < 0 {
		max = 0
	}
	if y < 0 {
		y = 0
	}
	if y > max {
		y = max
	}
	return y
}

// easeOutCubic maps t in [0,1] to an eased fraction
func easeOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// --- Watchers ---

// WatchVisibility registers a callback fired once when the region
// first intersects the viewport. The check runs immediately, so a
// region already on screen fires before WatchVisibility returns.
func (s *Stage) WatchVisibility(regionID string, fn func(r *Region)) *Watcher {
	w := &Watcher{st: s, regionID: regionID, fn: fn}
	s.mu.Lock()
	s.watchers = append(s.watchers, w)
	s.mu.Unlock()
	s.checkWatchers()
	return w
}

// ActiveWatchers returns the count of watchers still waiting to fire
func (s *Stage) ActiveWatchers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.watchers {
		if !w.fired && !w.stopped {
			n++
		}
	}
	return n
}

// checkWatchers fires watchers whose regions intersect the viewport.
// Callbacks run unlocked; spent watchers are dropped from the slice.
func (s *Stage) checkWatchers() {
	s.mu.Lock()
	top := int(math.Round(s.scrollY))
	bottom := top + s.height

	type firing struct {
		fn func(r *Region)
		r  *Region
	}
	var due []firing
	live := s.watchers[:0]
	for _, w := range s.watchers {
		if w.stopped || w.fired {
			continue
		}
		var target *Region
		for _, r := range s.regions {
			if r.ID == w.regionID {
				target = r
				break
			}
		}
		if target != nil && target.intersects(top, bottom) {
			w.fired = true
			due = append(due, firing{fn: w.fn, r: target})
			continue
		}
		live = append(live, w)
	}
	for i := len(live); i < len(s.watchers); i++ {
		s.watchers[i] = nil
	}
	s.watchers = live
	s.mu.Unlock()

	for _, f := range due {
		if f.fn != nil {
			f.fn(f.r)
		}
	}
}

// --- Input ---

// OnMouse registers a mouse handler and returns its ID for removal
func (s *Stage) OnMouse(fn MouseHandler) HandlerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextHandler++
	id := s.nextHandler
	s.handlers[id] = &handler{mouse: fn}
	return id
}

// OnKey registers a key handler and returns its ID for removal
func (s *Stage) OnKey(fn KeyHandler) HandlerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextHandler++
	id := s.nextHandler
	s.handlers[id] = &handler{key: fn}
	return id
}

// RemoveHandler detaches a handler; unknown IDs are ignored
func (s *Stage) RemoveHandler(id HandlerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, id)
}

// HandlerCount returns the number of registered input handlers
func (s *Stage) HandlerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// Dispatch routes a tcell event to every matching handler
func (s *Stage) Dispatch(ev tcell.Event) {
	s.mu.Lock()
	hs := make([]*handler, 0, len(s.handlers))
	for _, h := range s.handlers {
		hs = append(hs, h)
	}
	s.mu.Unlock()

	switch e := ev.(type) {
	case *tcell.EventMouse:
		for _, h := range hs {
			if h.mouse != nil {
				h.mouse(e)
			}
		}
	case *tcell.EventKey:
		for _, h := range hs {
			if h.key != nil {
				h.key(e)
			}
		}
	case *tcell.EventResize:
		s.mu.Lock()
		if w, h := e.Size(); w > 0 && h > 0 {
			s.width, s.height = w, h
		}
		s.mu.Unlock()
	}
}

// --- Frame pump ---

// Advance steps one frame: the scroll tween, each layer's animator,
// then visibility watchers. The host's frame loop calls this once per
// frame alongside the scheduler's Tick.
func (s *Stage) Advance(now time.Time) {
	s.mu.Lock()
	var dt time.Duration
	if !s.lastFrame.IsZero() {
		dt = now.Sub(s.lastFrame)
	}
	s.lastFrame = now

	if tw := s.tween; tw != nil {
		frac := float64(now.Sub(tw.start)) / float64(tw.duration)
		if frac >= 1 {
			s.scrollY = tw.to
			s.tween = nil
		} else if frac > 0 {
			s.scrollY = tw.from + (tw.to-tw.from)*easeOutCubic(frac)
		}
	}

	animators := make([]*Layer, len(s.layers))
	copy(animators, s.layers)
	s.mu.Unlock()

	for _, l := range animators {
		if l.Animate != nil {
			l.Animate(now, dt)
		}
	}
	s.checkWatchers()
}

// Composite paints the current frame: region content with filters,
// then overlay layers in z order. The returned buffer is freshly
// allocated each call.
func (s *Stage) Composite() [][]Cell {
	s.mu.Lock()
	buf := newBuffer(s.width, s.height)
	offset := int(math.Round(s.scrollY))

	for _, r := range s.regions {
		s.drawRegion(buf, r, offset)
	}
	for _, r := range s.regions {
		if r.Filter != FilterNone {
			applyFilter(r.Filter, buf, r.X, r.Y-offset, r.X+r.W, r.Y-offset+r.H, s.rng)
		}
	}

	overlays := make([]*Layer, len(s.layers))
	copy(overlays, s.layers)
	s.mu.Unlock()

	for _, l := range overlays {
		if l.Draw != nil {
			l.Draw(buf)
		}
	}
	return buf
}

// drawRegion writes the region's text into the buffer, caller holds mu
func (s *Stage) drawRegion(buf [][]Cell, r *Region, offset int) {
	x, y := r.X, r.Y-offset
	for _, ch := range r.Text {
		if ch == '\n' {
			x = r.X
			y++
			continue
		}
		w := runewidth.RuneWidth(ch)
		if y >= 0 && y < len(buf) && x >= 0 && x < len(buf[y]) {
			buf[y][x] = Cell{Ch: ch, Style: r.Style}
		}
		x += w
	}
}

// Render composites and flushes the frame to the attached screen
func (s *Stage) Render() error {
	s.mu.Lock()
	screen := s.screen
	s.mu.Unlock()
	if screen == nil {
		return ErrNotAttached
	}

	buf := s.Composite()
	for y, row := range buf {
		for x, c := range row {
			screen.SetContent(x, y, c.Ch, nil, c.Style)
		}
	}
	screen.Show()
	return nil
}

// Run drives the stage against its attached screen: a frame ticker
// advancing and rendering, and an event poller feeding Dispatch. It
// returns when stop closes or the screen reports an interrupt.
func (s *Stage) Run(stop <-chan struct{}, sch *clock.Scheduler, frameInterval time.Duration) error {
	s.mu.Lock()
	screen := s.screen
	tp := s.time
	s.mu.Unlock()
	if screen == nil {
		return ErrNotAttached
	}
	if frameInterval <= 0 {
		frameInterval = 33 * time.Millisecond
	}

	eventChan := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(eventChan)
				return
			}
			eventChan <- ev
		}
	}()

	frameTicker := time.NewTicker(frameInterval)
	defer frameTicker.Stop()

	for {
		select {
		case <-stop:
			return nil
		case ev, ok := <-eventChan:
			if !ok {
				return nil
			}
			s.Dispatch(ev)
		case <-frameTicker.C:
			now := tp.Now()
			if sch != nil {
				sch.Tick(now)
			}
			s.Advance(now)
			if err := s.Render(); err != nil {
				return err
			}
		}
	}
}
