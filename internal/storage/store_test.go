package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/quakeplay/internal/feed"
)

const sampleFeed = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "us1", "geometry": {"type": "Point", "coordinates": [139.7, 35.6, 10]},
     "properties": {"mag": 5.1, "place": "Tokyo, Japan", "time": 1700000000000}},
    {"type": "Feature", "id": "ak2", "geometry": {"type": "Point", "coordinates": [-150.1, 61.2, 30]},
     "properties": {"mag": null, "place": "", "time": 1700000500000}}
  ]
}`

func sampleResult(t *testing.T, fetchedAt time.Time) *feed.Result {
	t.Helper()
	events, err := feed.Parse([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("parse sample: %v", err)
	}
	return &feed.Result{Events: events, Raw: []byte(sampleFeed), FetchedAt: fetchedAt, URL: "http://example.test/feed"}
}

func TestStoreLayout(t *testing.T) {
	dataDir := t.TempDir()
	st := New(dataDir)
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dataDir, "other"), 0755); err != nil {
		t.Fatal(err)
	}

	id, err := st.Save(sampleResult(t, time.Now()))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	for _, name := range []string{"metadata.json", "feed.geojson", "events.csv"} {
		if _, err := os.Stat(filepath.Join(dataDir, SnapshotsDir, id, name)); err != nil {
			t.Errorf("expected %s under snapshots/%s: %v", name, id, err)
		}
	}

	snaps, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || snaps[0].ID != id {
		t.Errorf("expected only the saved snapshot, got %+v", snaps)
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	id, err := st.Save(sampleResult(t, time.Now()))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty snapshot id")
	}

	meta, err := st.Load(id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Events != 2 || meta.FirstMs != 1700000000000 || meta.LastMs != 1700000500000 {
		t.Errorf("unexpected metadata: %+v", meta)
	}

	col, err := st.LoadFeed(id)
	if err != nil {
		t.Fatalf("load feed: %v", err)
	}
	if col.Len() != 2 {
		t.Errorf("expected 2 events from raw feed, got %d", col.Len())
	}

	events, err := st.LoadEvents(id)
	if err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 csv events, got %d", len(events))
	}
	if events[0].ID != "us1" || !events[0].MagnitudeKnown || events[0].Magnitude != 5.1 {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].MagnitudeKnown {
		t.Errorf("null magnitude should stay unknown: %+v", events[1])
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	st := New(t.TempDir())
	old, _ := st.Save(sampleResult(t, time.Now().Add(-time.Hour)))
	recent, _ := st.Save(sampleResult(t, time.Now()))

	snaps, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 || snaps[0].ID != recent || snaps[1].ID != old {
		t.Errorf("unexpected order: %+v", snaps)
	}

	latest, err := st.Latest()
	if err != nil || latest != recent {
		t.Errorf("expected latest %s, got %s (%v)", recent, latest, err)
	}
}

func TestStoreMissing(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nothing-here"))

	snaps, err := st.List()
	if err != nil || len(snaps) != 0 {
		t.Errorf("expected empty list, got %v, %v", snaps, err)
	}
	if _, err := st.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.Latest(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from Latest, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	id, err := st.Save(sampleResult(t, time.Now()))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := st.ExportJSON(id, path); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatal(err)
	}
	if data.Count != 2 || data.Snapshot.ID != id || data.Events[0].Place != "Tokyo, Japan" {
		t.Errorf("unexpected export: %+v", data)
	}
}

func TestExportCSV(t *testing.T) {
	st := New(t.TempDir())
	id, err := st.Save(sampleResult(t, time.Now()))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportCSV(id, &buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != "id,time,latitude,longitude,mag,place" {
		t.Errorf("unexpected csv: %q", buf.String())
	}
}

func TestReadCSVSkipsBadRows(t *testing.T) {
	in := "id,time,latitude,longitude,mag,place\n" +
		"a,notatime,1,2,3,x\n" +
		"b,100,1,2,,somewhere\n" +
		"c,200\n"
	events, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].ID != "b" || events[0].MagnitudeKnown {
		t.Errorf("unexpected events: %+v", events)
	}
}
