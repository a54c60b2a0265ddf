package control

import (
	"strconv"
	"strings"

	"github.com/san-kum/quakeplay/internal/playback"
)

// Control names accepted by Handle.
const (
	Play      = "play"
	Pause     = "pause"
	Toggle    = "toggle"
	Speed     = "speed"
	Loop      = "loop"
	TimeRange = "timeRange"
	Timeline  = "timeline"
	Mode      = "mode"
	Step      = "step"
)

// Input is a UI event in transport form.
type Input struct {
	Control string `json:"control" yaml:"control"`
	Value   string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Controls lists the names Handle understands.
func Controls() []string {
	return []string{Play, Pause, Toggle, Speed, Loop, TimeRange, Timeline, Mode, Step}
}

// Handle applies one input. A bad input leaves the controller untouched.
func (s *Surface) Handle(in Input) error {
	v := strings.TrimSpace(in.Value)
	switch strings.TrimSpace(in.Control) {
	case Play:
		if v == "" {
			s.PlayButton()
			return nil
		}
		on, err := strconv.ParseBool(v)
		if err != nil {
			return &InputError{Input: in, Wrapped: ErrBadValue}
		}
		if on {
			s.ctrl.Play()
		} else {
			s.ctrl.Pause()
		}
	case Pause:
		s.ctrl.Pause()
	case Toggle:
		s.PlayButton()
	case Speed:
		n, err := strconv.Atoi(v)
		if err != nil {
			return &InputError{Input: in, Wrapped: ErrBadValue}
		}
		s.SpeedSlider(n)
	case Loop:
		on, err := strconv.ParseBool(v)
		if err != nil {
			return &InputError{Input: in, Wrapped: ErrBadValue}
		}
		s.LoopCheckbox(on)
	case TimeRange:
		n, err := strconv.Atoi(v)
		if err != nil {
			return &InputError{Input: in, Wrapped: ErrBadValue}
		}
		s.TimeRange(n)
	case Timeline:
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return &InputError{Input: in, Wrapped: ErrBadValue}
		}
		s.Timeline(ms)
	case Mode:
		m, err := playback.ParseMode(v)
		if err != nil {
			return &InputError{Input: in, Wrapped: ErrBadValue}
		}
		s.ctrl.SetMode(m)
	case Step:
		s.ctrl.Step()
	default:
		return &InputError{Input: in, Wrapped: ErrUnknownControl}
	}
	return nil
}
