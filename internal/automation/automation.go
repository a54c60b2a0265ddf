// Package automation runs scripted playback scenarios headlessly.
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/quakeplay/internal/control"
	"github.com/san-kum/quakeplay/internal/playback"
	"github.com/san-kum/quakeplay/internal/policy"
	"github.com/san-kum/quakeplay/internal/quake"
	"github.com/san-kum/quakeplay/internal/render"
)

// ErrExpectation indicates a step whose expect block did not hold.
var ErrExpectation = errors.New("automation: expectation failed")

// Scenario defines a scripted playback session
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Now         string         `yaml:"now"`
	Mode        string         `yaml:"mode"`
	SpeedMs     int64          `yaml:"speed_ms"`
	Loop        bool           `yaml:"loop"`
	WindowDays  int            `yaml:"window_days"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep applies an optional input, then fires Ticks ticks, moving the
// clock forward by Advance first.
type ScenarioStep struct {
	Control string        `yaml:"control"`
	Value   string        `yaml:"value"`
	Ticks   int           `yaml:"ticks"`
	Advance time.Duration `yaml:"advance"`
	Expect  *Expectation  `yaml:"expect"`
}

// Expectation checks the frame produced by a step. Nil fields are not checked.
type Expectation struct {
	Playing *bool   `yaml:"playing"`
	Markers *int    `yaml:"markers"`
	Date    *string `yaml:"date"`
}

// Frame summarizes the render state after one step.
type Frame struct {
	Step    int
	Label   string
	State   playback.State
	Labels  playback.Labels
	Markers int
	Counts  map[policy.Color]int
}

func (f Frame) String() string {
	status := "stopped"
	if f.State.Playing {
		status = "playing"
	}
	return fmt.Sprintf("%3d %-22s %s %-8s %4d markers  red=%d orange=%d yellow=%d white=%d",
		f.Step, f.Label, f.Labels.Current, status, f.Markers,
		f.Counts[policy.Red], f.Counts[policy.Orange], f.Counts[policy.Yellow], f.Counts[policy.White])
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// RunScenario replays the scenario against events with a manual clock and
// scheduler and returns one frame per step plus the initial frame.
func RunScenario(ctx context.Context, scenario *Scenario, events *quake.Collection) ([]Frame, error) {
	now := time.Now()
	if scenario.Now != "" {
		t, err := time.Parse(time.RFC3339, scenario.Now)
		if err != nil {
			return nil, fmt.Errorf("scenario now: %w", err)
		}
		now = t
	}
	clock := &manualClock{now: now}
	sched := playback.NewManualScheduler()

	opts := playback.DefaultOptions()
	mode, err := playback.ParseMode(scenario.Mode)
	if err != nil {
		return nil, err
	}
	opts.Mode = mode
	opts.Looping = scenario.Loop
	opts.Clock = clock.Now
	opts.Scheduler = sched
	if scenario.SpeedMs > 0 {
		opts.SpeedMs = scenario.SpeedMs
	}
	if scenario.WindowDays > 0 {
		opts.WindowMs = int64(scenario.WindowDays) * playback.StepMs
	}

	ctrl := playback.New(events, opts)
	defer ctrl.Close()
	surface := control.NewSurface(ctrl)
	bridge := render.NewBridge(ctrl, &render.Collector{})

	frames := make([]Frame, 0, len(scenario.Steps)+1)
	frames = append(frames, snapshot(0, "start", ctrl, bridge.Redraw()))

	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return frames, err
		}

		label := step.Control
		if step.Control != "" {
			if err := surface.Handle(control.Input{Control: step.Control, Value: step.Value}); err != nil {
				return frames, fmt.Errorf("step %d: %w", i+1, err)
			}
			if step.Value != "" {
				label += "=" + step.Value
			}
		}
		clock.Advance(step.Advance)
		for n := 0; n < step.Ticks; n++ {
			sched.Fire(clock.Now())
		}
		if step.Ticks > 0 {
			if label != "" {
				label += " "
			}
			label += fmt.Sprintf("tick x%d", step.Ticks)
		}

		frame := snapshot(i+1, label, ctrl, bridge.Redraw())
		frames = append(frames, frame)
		if err := step.Expect.check(frame); err != nil {
			return frames, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return frames, nil
}

func snapshot(step int, label string, ctrl *playback.Controller, markers []render.MarkerSpec) Frame {
	return Frame{
		Step:    step,
		Label:   label,
		State:   ctrl.State(),
		Labels:  ctrl.Labels(),
		Markers: len(markers),
		Counts:  render.Counts(markers),
	}
}

func (e *Expectation) check(f Frame) error {
	if e == nil {
		return nil
	}
	if e.Playing != nil && *e.Playing != f.State.Playing {
		return fmt.Errorf("%w: playing=%v, want %v", ErrExpectation, f.State.Playing, *e.Playing)
	}
	if e.Markers != nil && *e.Markers != f.Markers {
		return fmt.Errorf("%w: %d markers, want %d", ErrExpectation, f.Markers, *e.Markers)
	}
	if e.Date != nil && *e.Date != f.Labels.Current {
		return fmt.Errorf("%w: date %s, want %s", ErrExpectation, f.Labels.Current, *e.Date)
	}
	return nil
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
