package render

import (
	"sync"
	"testing"
	"time"

	"github.com/san-kum/quakeplay/internal/playback"
	"github.com/san-kum/quakeplay/internal/quake"
)

func newTestController(t *testing.T) (*playback.Controller, *playback.ManualScheduler) {
	t.Helper()
	sched := playback.NewManualScheduler()
	opts := playback.DefaultOptions()
	opts.Clock = func() time.Time { return time.UnixMilli(nowMs) }
	opts.Scheduler = sched
	events := quake.NewCollection([]quake.Event{
		{ID: "a", Magnitude: 3, MagnitudeKnown: true, OccurredAtMs: nowMs - 3*24*3600*1000},
		{ID: "b", Magnitude: 5, MagnitudeKnown: true, OccurredAtMs: nowMs - 3600*1000},
	})
	return playback.New(events, opts), sched
}

func TestBridgeRedrawClearsFirst(t *testing.T) {
	ctrl, _ := newTestController(t)
	col := &Collector{}
	b := NewBridge(ctrl, col)

	b.Redraw()
	if got := len(col.Markers()); got != 1 {
		t.Fatalf("expected 1 marker at origin, got %d", got)
	}

	b.Redraw()
	if got := len(col.Markers()); got != 1 {
		t.Errorf("redraw should not accumulate markers, got %d", got)
	}
	if col.Clears() != 2 {
		t.Errorf("expected 2 clears, got %d", col.Clears())
	}
}

func TestBridgeAttachFollowsController(t *testing.T) {
	ctrl, sched := newTestController(t)
	col := &Collector{}
	b := NewBridge(ctrl, col)
	detach := b.Attach()

	if b.Frames() != 1 {
		t.Fatalf("attach should draw the initial frame")
	}

	ctrl.ScrubTo(nowMs)
	if got := len(col.Markers()); got != 2 {
		t.Fatalf("expected 2 markers after scrub, got %d", got)
	}

	ctrl.Play()
	sched.Fire(time.UnixMilli(nowMs))
	if b.Frames() != 4 {
		t.Errorf("expected a frame per change, got %d", b.Frames())
	}

	detach()
	ctrl.Pause()
	if b.Frames() != 4 {
		t.Errorf("detached bridge should not redraw")
	}
	if len(b.Last()) != len(col.Markers()) {
		t.Errorf("last frame out of sync with renderer")
	}
}

func TestBridgeIgnoresStaleNotification(t *testing.T) {
	ctrl, _ := newTestController(t)
	col := &Collector{}
	b := NewBridge(ctrl, col)

	stale := ctrl.State()
	ctrl.ScrubTo(nowMs)
	b.changed(stale)

	if got := len(col.Markers()); got != 2 {
		t.Errorf("expected the current frame with 2 markers, got %d", got)
	}
}

func TestBridgeLastFrameIsNewest(t *testing.T) {
	ctrl, _ := newTestController(t)
	col := &Collector{}
	b := NewBridge(ctrl, col)
	detach := b.Attach()
	defer detach()

	origin := ctrl.State().CursorMs
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(2)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if (g+i)%2 == 0 {
					ctrl.ScrubTo(nowMs)
				} else {
					ctrl.ScrubTo(origin)
				}
			}
		}(g)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				b.Redraw()
			}
		}()
	}
	wg.Wait()

	want := ComputeVisibleMarkers(ctrl.Events().Events(), ctrl.State(), nowMs)
	if got := b.Last(); len(got) != len(want) {
		t.Errorf("last frame has %d markers, current state has %d", len(got), len(want))
	}
}
