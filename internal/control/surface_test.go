package control

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/san-kum/quakeplay/internal/playback"
	"github.com/san-kum/quakeplay/internal/quake"
)

const day = playback.StepMs

var testNow = time.UnixMilli(40 * day)

func newSurface(t *testing.T) (*Surface, *playback.ManualScheduler) {
	t.Helper()
	sched := playback.NewManualScheduler()
	opts := playback.DefaultOptions()
	opts.Clock = func() time.Time { return testNow }
	opts.Scheduler = sched
	events := quake.NewCollection([]quake.Event{
		{ID: "a", OccurredAtMs: 20 * day},
		{ID: "b", OccurredAtMs: 35 * day},
	})
	return NewSurface(playback.New(events, opts)), sched
}

func TestSpeedSliderMapping(t *testing.T) {
	tests := []struct {
		value    int
		expected int64
	}{
		{100, 1900},
		{1000, 1000},
		{1900, 100},
		{0, 1900},
		{5000, 100},
	}

	for _, tt := range tests {
		s, _ := newSurface(t)
		s.SpeedSlider(tt.value)
		if got := s.Controller().State().SpeedMs; got != tt.expected {
			t.Errorf("slider %d: expected %d ms, got %d", tt.value, tt.expected, got)
		}
	}
}

func TestSliderForSpeedInverse(t *testing.T) {
	for v := SpeedMin; v <= SpeedMax; v += 100 {
		if got := SliderForSpeed(SpeedForSlider(v)); got != v {
			t.Errorf("round trip of %d gave %d", v, got)
		}
	}
}

func TestPlayButtonToggles(t *testing.T) {
	s, sched := newSurface(t)
	s.PlayButton()
	if !s.Controller().State().Playing || sched.Active() != 1 {
		t.Fatalf("expected playing with one ticker")
	}
	s.PlayButton()
	if s.Controller().State().Playing || sched.Active() != 0 {
		t.Fatalf("expected stopped with no ticker")
	}
}

func TestTimeRangeClamps(t *testing.T) {
	s, _ := newSurface(t)
	s.TimeRange(45)
	if s.RangeValue() != RangeMax {
		t.Errorf("expected clamp to %d, got %d", RangeMax, s.RangeValue())
	}
	if got := s.Controller().State().CursorMs; got != testNow.UnixMilli()-RangeMax*day {
		t.Errorf("unexpected cursor %d", got)
	}

	s.TimeRange(-3)
	if got := s.Controller().State().CursorMs; got != testNow.UnixMilli() {
		t.Errorf("0 days ago should put the cursor at now, got %d", got)
	}
}

func TestLabelsStartFromDataBounds(t *testing.T) {
	s, _ := newSurface(t)
	labels := s.Labels()
	if labels.Start != playback.FormatDate(20*day) {
		t.Errorf("unexpected start label %q", labels.Start)
	}
	if labels.End != playback.FormatDate(testNow.UnixMilli()) {
		t.Errorf("unexpected end label %q", labels.End)
	}
	s.Faster()
	if s.SpeedValue() != 1100 {
		t.Errorf("expected nudge to 1100, got %d", s.SpeedValue())
	}
}

func TestHandleInputs(t *testing.T) {
	s, sched := newSurface(t)

	steps := []Input{
		{Control: Speed, Value: "1500"},
		{Control: Loop, Value: "true"},
		{Control: Timeline, Value: "1814400000"},
		{Control: Mode, Value: "window"},
		{Control: Play},
	}
	for _, in := range steps {
		if err := s.Handle(in); err != nil {
			t.Fatalf("handle %v: %v", in, err)
		}
	}

	st := s.Controller().State()
	if st.SpeedMs != 500 || !st.Looping || !st.Playing || st.Mode != playback.Window {
		t.Errorf("unexpected state: %+v", st)
	}
	if st.CursorMs != 21*day {
		t.Errorf("expected cursor at day 21, got %d", st.CursorMs)
	}
	if sched.Active() != 1 {
		t.Errorf("expected one ticker, got %d", sched.Active())
	}

	if err := s.Handle(Input{Control: Play, Value: "false"}); err != nil {
		t.Fatal(err)
	}
	if s.Controller().State().Playing {
		t.Errorf("play=false should pause")
	}
}

func TestHandleErrors(t *testing.T) {
	s, _ := newSurface(t)
	before := s.Controller().State()

	err := s.Handle(Input{Control: "volume", Value: "11"})
	if !errors.Is(err, ErrUnknownControl) {
		t.Errorf("expected ErrUnknownControl, got %v", err)
	}

	err = s.Handle(Input{Control: Speed, Value: "fast"})
	if !errors.Is(err, ErrBadValue) {
		t.Errorf("expected ErrBadValue, got %v", err)
	}
	var ie *InputError
	if !errors.As(err, &ie) || ie.Input.Control != Speed {
		t.Errorf("expected InputError for speed, got %v", err)
	}

	if s.Controller().State() != before {
		t.Errorf("bad inputs must not change state")
	}
}

func TestShiftRange(t *testing.T) {
	s, _ := newSurface(t)
	s.TimeRange(3)
	s.ShiftRange(-1)
	if s.RangeValue() != 2 {
		t.Errorf("expected 2 days, got %d", s.RangeValue())
	}
	s.ShiftRange(-5)
	if s.RangeValue() != RangeMin {
		t.Errorf("expected clamp to %d, got %d", RangeMin, s.RangeValue())
	}
	if got := s.Controller().State().CursorMs; got != testNow.UnixMilli() {
		t.Errorf("expected cursor at now, got %d", got)
	}
}

func TestSurfaceConcurrentInputs(t *testing.T) {
	s, _ := newSurface(t)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				switch (g + i) % 5 {
				case 0:
					s.Faster()
				case 1:
					s.Slower()
				case 2:
					s.ShiftRange(1)
				case 3:
					s.Handle(Input{Control: Speed, Value: "700"})
				default:
					s.TimeRange(i % RangeMax)
				}
			}
		}(g)
	}
	wg.Wait()

	if got, want := s.Controller().State().SpeedMs, SpeedForSlider(s.SpeedValue()); got != want {
		t.Errorf("slider and controller disagree: %d ms vs %d ms", got, want)
	}
	if v := s.RangeValue(); v < RangeMin || v > RangeMax {
		t.Errorf("range slider escaped bounds: %d", v)
	}
}
