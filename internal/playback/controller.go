package playback

import (
	"sync"
	"time"

	"github.com/san-kum/quakeplay/internal/quake"
)

type Options struct {
	Mode      Mode
	SpeedMs   int64
	Looping   bool
	WindowMs  int64
	Clock     func() time.Time
	Scheduler Scheduler
}

func DefaultOptions() Options {
	return Options{
		Mode:      Cumulative,
		SpeedMs:   DefaultSpeedMs,
		WindowMs:  DefaultWindowMs,
		Clock:     time.Now,
		Scheduler: RealScheduler{},
	}
}

// Controller owns the playback state and the single tick source that
// advances it. All methods are safe for concurrent use; observers run after
// the internal lock is released.
type Controller struct {
	mu     sync.Mutex
	events *quake.Collection
	clock  func() time.Time
	sched  Scheduler

	state    State
	originMs int64
	width    int64
	initial  int64

	// ticker is non-nil exactly when one tick source is live.
	ticker Ticker
	gen    uint64
	rearm  bool

	startLabel string
	endLabel   string

	observers map[int]func(State)
	nextObs   int
}

// New initializes the cursor from the data bounds: cumulative mode starts at
// the earliest event, window mode at [earliest, earliest+width].
func New(events *quake.Collection, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	if opts.SpeedMs < MinSpeedMs {
		opts.SpeedMs = DefaultSpeedMs
	}
	if opts.WindowMs <= 0 {
		opts.WindowMs = DefaultWindowMs
	}
	if events == nil {
		events = quake.Empty()
	}

	now := opts.Clock().UnixMilli()
	origin, _, ok := events.Bounds()
	if !ok {
		origin = now
	}

	c := &Controller{
		events:     events,
		clock:      opts.Clock,
		sched:      opts.Scheduler,
		originMs:   origin,
		width:      opts.WindowMs,
		initial:    opts.WindowMs,
		startLabel: FormatDate(origin),
		endLabel:   FormatDate(now),
		observers:  make(map[int]func(State)),
		state: State{
			Mode:    opts.Mode,
			SpeedMs: opts.SpeedMs,
			Looping: opts.Looping,
		},
	}
	c.resetToOrigin()
	return c
}

// Events returns the collection the controller plays back.
func (c *Controller) Events() *quake.Collection { return c.events }

// Now is the controller's wall clock.
func (c *Controller) Now() time.Time { return c.clock() }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Labels() Labels {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Labels{
		Start:   c.startLabel,
		End:     c.endLabel,
		Current: FormatDate(c.state.CursorMs),
		Speed:   SpeedLabel(c.state.SpeedMs),
	}
}

// Visible returns the events shown under the current state.
func (c *Controller) Visible() []quake.Event {
	return c.State().Filter(c.events.Events())
}

// Subscribe registers fn to run after every state change. The returned
// function removes it.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Controller) Play()                 { c.Dispatch(Play{}) }
func (c *Controller) Pause()                { c.Dispatch(Pause{}) }
func (c *Controller) Toggle()               { c.Dispatch(Toggle{}) }
func (c *Controller) SetSpeed(ms int64)     { c.Dispatch(SetSpeed{Ms: ms}) }
func (c *Controller) SetLoop(on bool)       { c.Dispatch(SetLoop{On: on}) }
func (c *Controller) ScrubTo(ms int64)      { c.Dispatch(ScrubTo{Ms: ms}) }
func (c *Controller) ScrubDaysAgo(days int) { c.Dispatch(ScrubDaysAgo{Days: days}) }
func (c *Controller) SetMode(m Mode)        { c.Dispatch(SetMode{Mode: m}) }
func (c *Controller) Step()                 { c.Dispatch(Step{}) }
func (c *Controller) Close()                { c.Pause() }
func (c *Controller) Dispatch(cmd Command)  { c.update(func() bool { cmd.apply(c); return true }) }

// update runs fn under the lock and notifies observers when fn reports a change.
func (c *Controller) update(fn func() bool) {
	c.mu.Lock()
	changed := fn()
	st := c.state
	var obs []func(State)
	if changed {
		obs = make([]func(State), 0, len(c.observers))
		for _, o := range c.observers {
			obs = append(obs, o)
		}
	}
	c.mu.Unlock()
	for _, o := range obs {
		o(st)
	}
}

func (c *Controller) startTicker() {
	c.stopTicker()
	c.gen++
	gen := c.gen
	c.ticker = c.sched.Every(time.Duration(c.state.SpeedMs)*time.Millisecond, func(now time.Time) {
		c.onTick(gen, now)
	})
	c.state.Playing = true
}

func (c *Controller) stopTicker() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	c.rearm = false
}

func (c *Controller) onTick(gen uint64, now time.Time) {
	c.update(func() bool {
		if gen != c.gen || c.ticker == nil || !c.state.Playing {
			return false
		}
		c.advance(now.UnixMilli())
		if c.rearm && c.ticker != nil {
			c.ticker.Reset(time.Duration(c.state.SpeedMs) * time.Millisecond)
			c.rearm = false
		}
		return true
	})
}

// advance moves the cursor one step and applies the end-of-data policy.
func (c *Controller) advance(nowMs int64) {
	if c.state.Mode == Window {
		c.state.WindowStartMs += StepMs
		c.state.WindowEndMs += StepMs
		c.state.CursorMs = c.state.WindowEndMs
	} else {
		c.state.CursorMs += StepMs
	}

	if c.state.CursorMs <= nowMs {
		return
	}
	if c.state.Looping {
		c.width = c.initial
		c.resetToOrigin()
		if c.state.Mode != Window || c.state.WindowEndMs+StepMs <= nowMs {
			return
		}
		// The data fits inside one window, so a loop would repeat the same
		// frame forever. Show the window ending at now and stop instead.
		c.state.WindowEndMs = nowMs
		c.state.WindowStartMs = nowMs - c.width
		c.state.CursorMs = nowMs
	}
	c.stopTicker()
	c.state.Playing = false
}

func (c *Controller) resetToOrigin() {
	if c.state.Mode == Window {
		c.state.WindowStartMs = c.originMs
		c.state.WindowEndMs = c.originMs + c.width
		c.state.CursorMs = c.state.WindowEndMs
		return
	}
	c.state.CursorMs = c.originMs
}

func (c *Controller) moveCursor(ms int64) {
	c.state.CursorMs = ms
	if c.state.Mode == Window {
		c.state.WindowEndMs = ms
		c.state.WindowStartMs = ms - c.width
	}
}
