package stage

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/framewraith/retrofx/clock"
)

// TestAddLayerIdempotent verifies duplicate layer IDs are rejected
func TestAddLayerIdempotent(t *testing.T) {
	st := New(80, 24)

	if !st.AddLayer(&Layer{ID: "overlay"}) {
		t.Fatal("First AddLayer should succeed")
	}
	if st.AddLayer(&Layer{ID: "overlay"}) {
		t.Error("Duplicate AddLayer should be rejected")
	}
	if len(st.Layers()) != 1 {
		t.Errorf("Expected 1 layer, got %d", len(st.Layers()))
	}

	st.RemoveLayer("overlay")
	if st.HasLayer("overlay") {
		t.Error("Layer should be gone after RemoveLayer")
	}
}

// TestLayerZOrder verifies layers composite lowest z first
func TestLayerZOrder(t *testing.T) {
	st := New(10, 2)

	var order []string
	st.AddLayer(&Layer{ID: "top", Z: 10, Draw: func(buf [][]Cell) { order = append(order, "top") }})
	st.AddLayer(&Layer{ID: "bottom", Z: 1, Draw: func(buf [][]Cell) { order = append(order, "bottom") }})

	st.Composite()
	if len(order) != 2 || order[0] != "bottom" || order[1] != "top" {
		t.Errorf("Expected draw order [bottom top], got %v", order)
	}
}

// TestFindMissingRegion verifies Find reports ok=false without error
func TestFindMissingRegion(t *testing.T) {
	st := New(80, 24)
	if _, ok := st.Find("nope"); ok {
		t.Error("Find on missing ID should return ok=false")
	}
}

// TestFindTag verifies tag queries return matching regions in order
func TestFindTag(t *testing.T) {
	st := New(80, 24)
	st.AddRegion(&Region{ID: "a", Tags: []string{"button"}, Y: 0, Text: "A"})
	st.AddRegion(&Region{ID: "b", Tags: []string{"counter"}, Y: 1, Text: "B"})
	st.AddRegion(&Region{ID: "c", Tags: []string{"button"}, Y: 2, Text: "C"})

	got := st.FindTag("button")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("Expected [a c], got %v", got)
	}
}

// TestRegionTextComposite verifies region text lands in the buffer
func TestRegionTextComposite(t *testing.T) {
	st := New(20, 3)
	st.AddRegion(&Region{ID: "msg", X: 2, Y: 1, Text: "HI"})

	buf := st.Composite()
	if buf[1][2].Ch != 'H' || buf[1][3].Ch != 'I' {
		t.Errorf("Expected HI at row 1 col 2, got %q %q", buf[1][2].Ch, buf[1][3].Ch)
	}
}

// TestWatcherFiresOnceOnVisibility verifies the visibility callback
// fires exactly once when the region scrolls into view
func TestWatcherFiresOnceOnVisibility(t *testing.T) {
	st := New(80, 10)
	st.AddRegion(&Region{ID: "deep", Y: 50, Text: "below the fold"})

	fired := 0
	st.WatchVisibility("deep", func(r *Region) { fired++ })
	if fired != 0 {
		t.Fatal("Watcher fired while region off-screen")
	}

	st.ScrollTo(45)
	if fired != 1 {
		t.Fatalf("Expected 1 fire after scroll into view, got %d", fired)
	}

	// Scrolling away and back must not re-fire
	st.ScrollTo(0)
	st.ScrollTo(45)
	if fired != 1 {
		t.Errorf("Watcher re-fired, total %d", fired)
	}
}

// TestWatcherImmediateWhenVisible verifies an on-screen region fires
// its watcher during registration
func TestWatcherImmediateWhenVisible(t *testing.T) {
	st := New(80, 24)
	st.AddRegion(&Region{ID: "here", Y: 3, Text: "visible"})

	fired := false
	st.WatchVisibility("here", func(r *Region) { fired = true })
	if !fired {
		t.Error("Watcher should fire immediately for a visible region")
	}
}

// TestWatcherStop verifies a stopped watcher never fires
func TestWatcherStop(t *testing.T) {
	st := New(80, 10)
	st.AddRegion(&Region{ID: "deep", Y: 50, Text: "x"})

	fired := false
	w := st.WatchVisibility("deep", func(r *Region) { fired = true })
	w.Stop()

	st.ScrollTo(50)
	if fired {
		t.Error("Stopped watcher fired")
	}
	if st.ActiveWatchers() != 0 {
		t.Errorf("Expected 0 active watchers, got %d", st.ActiveWatchers())
	}
}

// TestSmoothScrollReachesTarget verifies the tween lands exactly on
// the target and then stops
func TestSmoothScrollReachesTarget(t *testing.T) {
	mock := clock.NewMockTimeProvider(time.Unix(0, 0))
	st := New(80, 10)
	st.SetTimeProvider(mock)
	st.AddRegion(&Region{ID: "tall", Y: 99, Text: "x"})

	st.SmoothScrollTo(40)
	if !st.Scrolling() {
		t.Fatal("Expected tween in flight")
	}

	// Halfway through the tween the offset is strictly between ends
	mock.Advance(smoothScrollDuration / 2)
	st.Advance(mock.Now())
	mid := st.ScrollOffset()
	if mid <= 0 || mid >= 40 {
		t.Errorf("Expected mid-tween offset in (0,40), got %d", mid)
	}

	mock.Advance(smoothScrollDuration)
	st.Advance(mock.Now())
	if st.ScrollOffset() != 40 {
		t.Errorf("Expected final offset 40, got %d", st.ScrollOffset())
	}
	if st.Scrolling() {
		t.Error("Tween should be finished")
	}
}

// TestScrollClamped verifies offsets clamp to the scrollable content
func TestScrollClamped(t *testing.T) {
	st := New(80, 10)
	st.AddRegion(&Region{ID: "bottom", Y: 29, Text: "x"})

	st.ScrollTo(500)
	if st.ScrollOffset() != 20 {
		t.Errorf("Expected clamp to 20, got %d", st.ScrollOffset())
	}
	st.ScrollTo(-5)
	if st.ScrollOffset() != 0 {
		t.Errorf("Expected clamp to 0, got %d", st.ScrollOffset())
	}
}

// TestOnReadyDeferredUntilAttach verifies the ready gate
func TestOnReadyDeferredUntilAttach(t *testing.T) {
	st := New(80, 24)

	ran := false
	st.OnReady(func() { ran = true })
	if ran {
		t.Fatal("OnReady ran before attach")
	}

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("SimulationScreen init failed: %v", err)
	}
	defer screen.Fini()

	st.Attach(screen)
	if !ran {
		t.Error("OnReady did not run on attach")
	}

	// Already attached: runs inline
	ran2 := false
	st.OnReady(func() { ran2 = true })
	if !ran2 {
		t.Error("OnReady should run immediately when attached")
	}
}

// TestRenderWithoutScreen verifies headless Render errors cleanly
func TestRenderWithoutScreen(t *testing.T) {
	st := New(80, 24)
	if err := st.Render(); err != ErrNotAttached {
		t.Errorf("Expected ErrNotAttached, got %v", err)
	}
}

// TestHandlerRegistryDetach verifies handler add/remove bookkeeping
func TestHandlerRegistryDetach(t *testing.T) {
	st := New(80, 24)

	hits := 0
	id := st.OnKey(func(ev *tcell.EventKey) { hits++ })
	st.Dispatch(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone))
	if hits != 1 {
		t.Fatalf("Expected 1 key dispatch, got %d", hits)
	}

	st.RemoveHandler(id)
	st.Dispatch(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone))
	if hits != 1 {
		t.Errorf("Handler fired after removal, hits=%d", hits)
	}
	if st.HandlerCount() != 0 {
		t.Errorf("Expected 0 handlers, got %d", st.HandlerCount())
	}
}

// TestRegionAtAccountsForScroll verifies hit testing in content space
func TestRegionAtAccountsForScroll(t *testing.T) {
	st := New(80, 10)
	st.AddRegion(&Region{ID: "btn", X: 5, Y: 30, W: 10, H: 1, Text: "PRESS"})
	st.AddRegion(&Region{ID: "filler", Y: 99, Text: "x"})

	if _, ok := st.RegionAt(6, 2); ok {
		t.Error("Hit before scrolling should miss")
	}
	st.ScrollTo(28)
	r, ok := st.RegionAt(6, 2)
	if !ok || r.ID != "btn" {
		t.Errorf("Expected btn at screen (6,2) after scroll, got %v ok=%v", r, ok)
	}
}

// TestFilterSnapshotRestore verifies Filter reads/writes behave like a
// plain property so callers can snapshot and restore it
func TestFilterSnapshotRestore(t *testing.T) {
	st := New(80, 24)
	st.AddRegion(&Region{ID: "title", Text: "RETRO", Filter: FilterDim})

	r, _ := st.Find("title")
	prior := r.Filter
	r.Filter = FilterGlitch
	r.Filter = prior
	if r.Filter != FilterDim {
		t.Errorf("Expected restored filter %q, got %q", FilterDim, r.Filter)
	}
}

// TestInvertFilterApplied verifies the filter mutates composited cells
func TestInvertFilterApplied(t *testing.T) {
	st := New(20, 3)
	st.AddRegion(&Region{ID: "msg", X: 0, Y: 0, Text: "X", Filter: FilterInvert})

	buf := st.Composite()
	_, _, attrs := buf[0][0].Style.Decompose()
	if attrs&tcell.AttrReverse == 0 {
		t.Error("Expected reverse attribute on inverted cell")
	}
}
