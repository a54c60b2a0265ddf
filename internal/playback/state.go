package playback

import (
	"fmt"
	"strings"
	"time"

	"github.com/san-kum/quakeplay/internal/policy"
	"github.com/san-kum/quakeplay/internal/quake"
)

const (
	// StepMs is how far the cursor moves on every tick.
	StepMs = policy.DayMs

	DefaultSpeedMs  int64 = 1000
	MinSpeedMs      int64 = 50
	DefaultWindowMs       = 7 * policy.DayMs
)

// Mode selects what "visible" means.
type Mode int

const (
	// Cumulative shows every event up to the cursor.
	Cumulative Mode = iota
	// Window shows events inside a sliding [start, end] range.
	Window
)

func (m Mode) String() string {
	switch m {
	case Window:
		return "window"
	default:
		return "cumulative"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cumulative":
		return Cumulative, nil
	case "window", "sliding":
		return Window, nil
	}
	return Cumulative, fmt.Errorf("unknown playback mode: %s", s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// State is a snapshot of the playback state machine.
type State struct {
	Mode          Mode  `json:"mode"`
	CursorMs      int64 `json:"cursor"`
	WindowStartMs int64 `json:"window_start,omitempty"`
	WindowEndMs   int64 `json:"window_end,omitempty"`
	SpeedMs       int64 `json:"speed_ms"`
	Looping       bool  `json:"looping"`
	Playing       bool  `json:"playing"`
}

// Visible reports whether e is shown under this state.
func (s State) Visible(e quake.Event) bool {
	if s.Mode == Window {
		return s.WindowStartMs <= e.OccurredAtMs && e.OccurredAtMs <= s.WindowEndMs
	}
	return e.OccurredAtMs <= s.CursorMs
}

// Filter applies Visible to events, keeping feed order.
func (s State) Filter(events []quake.Event) []quake.Event {
	out := make([]quake.Event, 0, len(events))
	for _, e := range events {
		if s.Visible(e) {
			out = append(out, e)
		}
	}
	return out
}

// Labels are the human-readable strings shown next to the controls.
type Labels struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Current string `json:"current"`
	Speed   string `json:"speed"`
}

// FormatDate renders a timestamp as a UTC calendar date.
func FormatDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}

func SpeedLabel(speedMs int64) string {
	switch {
	case speedMs < 750:
		return "Fast"
	case speedMs > 1250:
		return "Slow"
	default:
		return "Normal"
	}
}
