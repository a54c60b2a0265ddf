// Package policy maps earthquake age to a display color and magnitude to a
// circle radius.
package policy

import "math"

// Age bucket upper bounds in milliseconds.
const (
	HourMs  int64 = 3_600_000
	DayMs   int64 = 86_400_000
	WeekMs  int64 = 604_800_000
	MonthMs int64 = 2_592_000_000
)

const (
	// MagnitudeScale converts magnitude to a radius in metres.
	MagnitudeScale = 50000.0
	// MinRadius is the smallest radius ever handed to a renderer, in metres.
	MinRadius = 5000.0
)

type Color string

const (
	None   Color = ""
	Red    Color = "red"
	Orange Color = "orange"
	Yellow Color = "yellow"
	White  Color = "white"
)

// Colors lists every renderable color from youngest to oldest.
var Colors = []Color{Red, Orange, Yellow, White}

// Visible reports whether markers of this color are drawn at all.
func (c Color) Visible() bool { return c != None }

// Rank orders colors by age bucket, 0 being the youngest. None ranks last.
func (c Color) Rank() int {
	for i, v := range Colors {
		if v == c {
			return i
		}
	}
	return len(Colors)
}

func (c Color) String() string {
	if c == None {
		return "none"
	}
	return string(c)
}

// ColorForAge buckets an age. Bounds are exclusive and tested in ascending
// order, so an age sitting exactly on a bound belongs to the older bucket.
func ColorForAge(ageMs int64) Color {
	switch {
	case ageMs < HourMs:
		return Red
	case ageMs < DayMs:
		return Orange
	case ageMs < WeekMs:
		return Yellow
	case ageMs < MonthMs:
		return White
	default:
		return None
	}
}

// Radius returns mag*MagnitudeScale, clamped up to MinRadius for unknown,
// negative, NaN or very small magnitudes.
func Radius(mag float64, known bool) float64 {
	if !known || math.IsNaN(mag) || math.IsInf(mag, 0) {
		return MinRadius
	}
	r := mag * MagnitudeScale
	if r < MinRadius {
		return MinRadius
	}
	return r
}
