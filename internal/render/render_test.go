package render

import (
	"strings"
	"testing"
	"time"

	"github.com/san-kum/quakeplay/internal/playback"
	"github.com/san-kum/quakeplay/internal/policy"
	"github.com/san-kum/quakeplay/internal/quake"
)

const nowMs int64 = 1_700_000_000_000

func TestComputeVisibleMarkersEndToEnd(t *testing.T) {
	events := []quake.Event{
		{ID: "a", Latitude: 10, Longitude: 20, Magnitude: 2.5, MagnitudeKnown: true, OccurredAtMs: nowMs - 1_800_000, Place: "near A"},
		{ID: "b", Latitude: -5, Longitude: 140, Magnitude: 4, MagnitudeKnown: true, OccurredAtMs: nowMs - 200_000_000, Place: "near B"},
	}
	state := playback.State{Mode: playback.Cumulative, CursorMs: nowMs}

	markers := ComputeVisibleMarkers(events, state, nowMs)
	if len(markers) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(markers))
	}
	if markers[0].Color != policy.Red || markers[1].Color != policy.Yellow {
		t.Errorf("unexpected colors: %s, %s", markers[0].Color, markers[1].Color)
	}
	if markers[0].Radius != 2.5*50000 || markers[1].Radius != 4*50000 {
		t.Errorf("unexpected radii: %v, %v", markers[0].Radius, markers[1].Radius)
	}
	if markers[0].Lat != 10 || markers[0].Lng != 20 {
		t.Errorf("coordinates not carried: %+v", markers[0])
	}
}

func TestComputeVisibleMarkersAgeFromCursor(t *testing.T) {
	events := []quake.Event{
		{ID: "a", Magnitude: 1, MagnitudeKnown: true, OccurredAtMs: nowMs - 10*policy.DayMs},
	}

	// cursor just after the event: fresh
	st := playback.State{CursorMs: nowMs - 10*policy.DayMs + 1000}
	m := ComputeVisibleMarkers(events, st, nowMs)
	if len(m) != 1 || m[0].Color != policy.Red {
		t.Fatalf("expected red at cursor, got %+v", m)
	}

	// cursor in the future is capped at now
	st.CursorMs = nowMs + 40*policy.DayMs
	m = ComputeVisibleMarkers(events, st, nowMs)
	if len(m) != 1 || m[0].Color != policy.White {
		t.Fatalf("expected white with capped cursor, got %+v", m)
	}
}

func TestComputeVisibleMarkersSkipsHidden(t *testing.T) {
	events := []quake.Event{
		{ID: "old", OccurredAtMs: nowMs - policy.MonthMs - 1},
		{ID: "future", OccurredAtMs: nowMs + policy.DayMs},
		{ID: "ok", OccurredAtMs: nowMs - policy.HourMs},
	}
	st := playback.State{CursorMs: nowMs}
	m := ComputeVisibleMarkers(events, st, nowMs)
	if len(m) != 1 || m[0].ID != "ok" {
		t.Fatalf("expected only ok, got %+v", m)
	}
	if m[0].Radius != policy.MinRadius {
		t.Errorf("unknown magnitude should use min radius, got %v", m[0].Radius)
	}
}

func TestComputeVisibleMarkersWindow(t *testing.T) {
	events := []quake.Event{
		{ID: "before", OccurredAtMs: nowMs - 9*policy.DayMs},
		{ID: "inside", OccurredAtMs: nowMs - 3*policy.DayMs},
	}
	st := playback.State{
		Mode:          playback.Window,
		WindowStartMs: nowMs - 7*policy.DayMs,
		WindowEndMs:   nowMs,
		CursorMs:      nowMs,
	}
	m := ComputeVisibleMarkers(events, st, nowMs)
	if len(m) != 1 || m[0].ID != "inside" || m[0].Color != policy.Yellow {
		t.Fatalf("unexpected window markers: %+v", m)
	}
}

func TestPopupText(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	e := quake.Event{Magnitude: 4.2, MagnitudeKnown: true, Place: "10km N of Somewhere", OccurredAtMs: at.UnixMilli()}

	got := PopupText(e, time.UTC)
	want := "Magnitude: 4.2\nPlace: 10km N of Somewhere\nTime: 3/5/2024, 2:07:09 PM"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	got = PopupText(quake.Event{OccurredAtMs: at.UnixMilli()}, time.UTC)
	if !strings.HasPrefix(got, "Magnitude: unknown\nPlace: unknown\n") {
		t.Errorf("missing fields should print unknown, got %q", got)
	}
}

func TestCounts(t *testing.T) {
	counts := Counts([]MarkerSpec{{Color: policy.Red}, {Color: policy.Red}, {Color: policy.White}})
	if counts[policy.Red] != 2 || counts[policy.White] != 1 || counts[policy.Orange] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
