// Package render turns the playback state into marker specs and pushes them
// to a pluggable Renderer.
package render

import (
	"fmt"
	"strconv"
	"time"

	"github.com/san-kum/quakeplay/internal/playback"
	"github.com/san-kum/quakeplay/internal/policy"
	"github.com/san-kum/quakeplay/internal/quake"
)

// TimeLayout is the localized timestamp used in popups.
const TimeLayout = "1/2/2006, 3:04:05 PM"

// MarkerSpec is one circle marker to draw.
type MarkerSpec struct {
	ID           string       `json:"id,omitempty"`
	Lat          float64      `json:"lat"`
	Lng          float64      `json:"lng"`
	Color        policy.Color `json:"color"`
	Radius       float64      `json:"radius"`
	PopupText    string       `json:"popup"`
	Magnitude    float64      `json:"mag"`
	OccurredAtMs int64        `json:"time"`
}

// Renderer is the drawing surface. Clear drops every marker drawn so far.
type Renderer interface {
	Clear()
	Draw(m MarkerSpec)
}

// ComputeVisibleMarkers selects the events visible under state and styles
// them by age. Age is measured from the cursor, capped at nowMs.
func ComputeVisibleMarkers(events []quake.Event, state playback.State, nowMs int64) []MarkerSpec {
	ref := state.CursorMs
	if ref > nowMs {
		ref = nowMs
	}
	out := make([]MarkerSpec, 0, len(events))
	for _, e := range events {
		if !state.Visible(e) {
			continue
		}
		color := policy.ColorForAge(ref - e.OccurredAtMs)
		if !color.Visible() {
			continue
		}
		out = append(out, MarkerSpec{
			ID:           e.ID,
			Lat:          e.Latitude,
			Lng:          e.Longitude,
			Color:        color,
			Radius:       policy.Radius(e.Magnitude, e.MagnitudeKnown),
			PopupText:    PopupText(e, time.Local),
			Magnitude:    e.Magnitude,
			OccurredAtMs: e.OccurredAtMs,
		})
	}
	return out
}

// PopupText formats the popup for e with timestamps in loc.
func PopupText(e quake.Event, loc *time.Location) string {
	mag := "unknown"
	if e.MagnitudeKnown {
		mag = strconv.FormatFloat(e.Magnitude, 'f', -1, 64)
	}
	place := e.Place
	if place == "" {
		place = "unknown"
	}
	if loc == nil {
		loc = time.Local
	}
	ts := e.OccurredAt().In(loc).Format(TimeLayout)
	return fmt.Sprintf("Magnitude: %s\nPlace: %s\nTime: %s", mag, place, ts)
}

// Counts tallies markers by color.
func Counts(markers []MarkerSpec) map[policy.Color]int {
	counts := make(map[policy.Color]int, len(policy.Colors))
	for _, m := range markers {
		counts[m.Color]++
	}
	return counts
}
