package playback

// Command is one input to the state machine. Commands are applied under the
// controller lock through Controller.Dispatch.
type Command interface {
	apply(c *Controller)
}

type (
	Play         struct{}
	Pause        struct{}
	Toggle       struct{}
	Step         struct{}
	SetSpeed     struct{ Ms int64 }
	SetLoop      struct{ On bool }
	ScrubTo      struct{ Ms int64 }
	ScrubDaysAgo struct{ Days int }
	SetMode      struct{ Mode Mode }
)

func (Play) apply(c *Controller) {
	if c.state.Playing && c.ticker != nil {
		return
	}
	c.startTicker()
}

func (Pause) apply(c *Controller) {
	c.stopTicker()
	c.state.Playing = false
}

func (Toggle) apply(c *Controller) {
	if c.state.Playing {
		Pause{}.apply(c)
		return
	}
	Play{}.apply(c)
}

// Step advances one tick by hand, using the controller clock as "now".
func (Step) apply(c *Controller) {
	c.advance(c.clock().UnixMilli())
}

// SetSpeed only changes future ticks: a live ticker fires once more at its
// old interval and is re-armed from inside that tick.
func (s SetSpeed) apply(c *Controller) {
	ms := s.Ms
	if ms < MinSpeedMs {
		ms = MinSpeedMs
	}
	c.state.SpeedMs = ms
	if c.ticker != nil {
		c.rearm = true
	}
}

func (s SetLoop) apply(c *Controller) {
	c.state.Looping = s.On
}

func (s ScrubTo) apply(c *Controller) {
	c.moveCursor(s.Ms)
	if !c.state.Playing {
		c.stopTicker()
	}
}

// ScrubDaysAgo anchors the view to wall-clock now. Cumulative mode puts the
// cursor days*24h in the past; window mode shows [now-days, now].
func (s ScrubDaysAgo) apply(c *Controller) {
	now := c.clock().UnixMilli()
	from := now - int64(s.Days)*StepMs
	if c.state.Mode == Window {
		c.width = now - from
		c.state.WindowStartMs = from
		c.state.WindowEndMs = now
		c.state.CursorMs = now
	} else {
		c.state.CursorMs = from
	}
	c.startLabel = FormatDate(from)
	if !c.state.Playing {
		c.stopTicker()
	}
}

// SetMode switches visibility semantics, keeping the cursor where it is.
func (s SetMode) apply(c *Controller) {
	if c.state.Mode == s.Mode {
		return
	}
	c.state.Mode = s.Mode
	if s.Mode == Window {
		c.moveCursor(c.state.CursorMs)
		return
	}
	c.state.WindowStartMs = 0
	c.state.WindowEndMs = 0
}
