package render

import (
	"sync"

	"github.com/san-kum/quakeplay/internal/playback"
)

// Bridge redraws a Renderer from a playback controller. Every redraw is a
// full clear followed by the complete marker set.
type Bridge struct {
	mu       sync.Mutex
	ctrl     *playback.Controller
	renderer Renderer
	last     []MarkerSpec
	frames   int
}

func NewBridge(ctrl *playback.Controller, r Renderer) *Bridge {
	return &Bridge{ctrl: ctrl, renderer: r}
}

// Redraw recomputes markers for the controller's current state. The state
// is read under the bridge lock, so the last frame painted is never older
// than one painted before it.
func (b *Bridge) Redraw() []MarkerSpec {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.ctrl.State()
	markers := ComputeVisibleMarkers(b.ctrl.Events().Events(), st, b.ctrl.Now().UnixMilli())
	b.renderer.Clear()
	for _, m := range markers {
		b.renderer.Draw(m)
	}
	b.last = markers
	b.frames++
	return markers
}

// Attach redraws now and after every state change. The returned function
// detaches the bridge.
func (b *Bridge) Attach() func() {
	b.Redraw()
	return b.ctrl.Subscribe(b.changed)
}

// changed redraws from the controller rather than from the notified state,
// which may already be stale when it arrives.
func (b *Bridge) changed(playback.State) {
	b.Redraw()
}

// Last returns the markers of the most recent frame.
func (b *Bridge) Last() []MarkerSpec {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]MarkerSpec, len(b.last))
	copy(out, b.last)
	return out
}

func (b *Bridge) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}
