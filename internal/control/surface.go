package control

import (
	"sync"

	"github.com/san-kum/quakeplay/internal/playback"
)

// Slider ranges as exposed by the page controls.
const (
	SpeedMin   = 100
	SpeedMax   = 1900
	SpeedSpan  = 2000
	RangeMin   = 0
	RangeMax   = 30
	SpeedNudge = 100
)

// Surface maps UI inputs onto a playback controller. It holds no playback
// state of its own beyond the last slider positions. It is safe for
// concurrent use; mu orders slider updates with the controller calls they
// make, so observers must not call back into the Surface.
type Surface struct {
	ctrl *playback.Controller

	mu    sync.Mutex
	speed int
	days  int
}

func NewSurface(ctrl *playback.Controller) *Surface {
	st := ctrl.State()
	return &Surface{
		ctrl:  ctrl,
		speed: SliderForSpeed(st.SpeedMs),
		days:  RangeMax,
	}
}

func (s *Surface) Controller() *playback.Controller { return s.ctrl }

// PlayButton toggles playback.
func (s *Surface) PlayButton() { s.ctrl.Toggle() }

// SpeedSlider takes a raw slider value; larger values mean faster playback.
func (s *Surface) SpeedSlider(value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSpeed(value)
}

func (s *Surface) setSpeed(value int) {
	s.speed = clamp(value, SpeedMin, SpeedMax)
	s.ctrl.SetSpeed(SpeedForSlider(s.speed))
}

func (s *Surface) LoopCheckbox(checked bool) { s.ctrl.SetLoop(checked) }

// TimeRange anchors the view a number of days before now. In window mode the
// window becomes [now-days, now], so nothing older than daysAgo is visible.
// In cumulative mode only the cursor moves to now-days, which shows
// everything up to that point, older events included.
func (s *Surface) TimeRange(daysAgo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRange(daysAgo)
}

// ShiftRange moves the time range slider by delta days.
func (s *Surface) ShiftRange(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRange(s.days + delta)
}

func (s *Surface) setRange(daysAgo int) {
	s.days = clamp(daysAgo, RangeMin, RangeMax)
	s.ctrl.ScrubDaysAgo(s.days)
}

// Timeline moves the cursor to an absolute time.
func (s *Surface) Timeline(ms int64) { s.ctrl.ScrubTo(ms) }

// Faster and Slower nudge the speed slider for keyboard use.
func (s *Surface) Faster() { s.nudgeSpeed(SpeedNudge) }
func (s *Surface) Slower() { s.nudgeSpeed(-SpeedNudge) }

func (s *Surface) nudgeSpeed(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSpeed(s.speed + delta)
}

// ToggleLoop flips the loop checkbox.
func (s *Surface) ToggleLoop() { s.ctrl.SetLoop(!s.ctrl.State().Looping) }

// ToggleMode switches between cumulative and window playback.
func (s *Surface) ToggleMode() {
	if s.ctrl.State().Mode == playback.Window {
		s.ctrl.SetMode(playback.Cumulative)
		return
	}
	s.ctrl.SetMode(playback.Window)
}

func (s *Surface) SpeedValue() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

func (s *Surface) RangeValue() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.days
}

func (s *Surface) Labels() playback.Labels { return s.ctrl.Labels() }

// SpeedForSlider converts a slider value to a tick interval in ms.
func SpeedForSlider(value int) int64 {
	return int64(SpeedSpan - clamp(value, SpeedMin, SpeedMax))
}

// SliderForSpeed is the inverse of SpeedForSlider.
func SliderForSpeed(ms int64) int {
	return clamp(SpeedSpan-int(ms), SpeedMin, SpeedMax)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
