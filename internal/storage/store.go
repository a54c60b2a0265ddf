// Package storage keeps fetched feeds on disk so playback can be replayed
// offline.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/quakeplay/internal/feed"
	"github.com/san-kum/quakeplay/internal/quake"
)

// SnapshotsDir is the directory under the data dir holding one
// subdirectory per snapshot.
const SnapshotsDir = "snapshots"

const (
	metadataFile = "metadata.json"
	feedFile     = "feed.geojson"
	eventsFile   = "events.csv"
)

// ErrNotFound indicates a snapshot id with no metadata on disk.
var ErrNotFound = errors.New("storage: snapshot not found")

type Store struct {
	baseDir string
}

// New returns a store keeping snapshots in dataDir/snapshots/<id>/.
func New(dataDir string) *Store {
	return &Store{baseDir: filepath.Join(dataDir, SnapshotsDir)}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type SnapshotMetadata struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
	Events    int       `json:"events"`
	Skipped   int       `json:"skipped"`
	FirstMs   int64     `json:"first_ms"`
	LastMs    int64     `json:"last_ms"`
}

// Save writes the raw feed, its metadata and a CSV projection of the events
// under a fresh snapshot id.
func (s *Store) Save(res *feed.Result) (string, error) {
	id := uuid.NewString()
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	meta := SnapshotMetadata{
		ID:        id,
		URL:       res.URL,
		FetchedAt: res.FetchedAt,
		Events:    res.Events.Len(),
		Skipped:   res.Events.Skipped(),
	}
	meta.FirstMs, meta.LastMs, _ = res.Events.Bounds()

	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, feedFile), res.Raw, 0644); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(dir, eventsFile))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := WriteCSV(f, res.Events.Events()); err != nil {
		return "", err
	}
	return id, nil
}

// List returns every readable snapshot, newest first.
func (s *Store) List() ([]SnapshotMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SnapshotMetadata{}, nil
		}
		return nil, err
	}

	snaps := make([]SnapshotMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		snaps = append(snaps, *meta)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].FetchedAt.After(snaps[j].FetchedAt) })
	return snaps, nil
}

func (s *Store) Load(id string) (*SnapshotMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	var meta SnapshotMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Latest returns the id of the most recent snapshot.
func (s *Store) Latest() (string, error) {
	snaps, err := s.List()
	if err != nil {
		return "", err
	}
	if len(snaps) == 0 {
		return "", ErrNotFound
	}
	return snaps[0].ID, nil
}

// LoadFeed re-parses the raw feed stored with a snapshot.
func (s *Store) LoadFeed(id string) (*quake.Collection, error) {
	if _, err := s.Load(id); err != nil {
		return nil, err
	}
	return feed.LoadFile(filepath.Join(s.baseDir, id, feedFile))
}

// LoadEvents reads the CSV projection of a snapshot.
func (s *Store) LoadEvents(id string) ([]quake.Event, error) {
	f, err := os.Open(filepath.Join(s.baseDir, id, eventsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

var csvHeader = []string{"id", "time", "latitude", "longitude", "mag", "place"}

// WriteCSV writes events one per row. Unknown magnitudes are left empty.
func WriteCSV(w io.Writer, events []quake.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range events {
		mag := ""
		if e.MagnitudeKnown {
			mag = strconv.FormatFloat(e.Magnitude, 'f', -1, 64)
		}
		row := []string{
			e.ID,
			strconv.FormatInt(e.OccurredAtMs, 10),
			strconv.FormatFloat(e.Latitude, 'f', 6, 64),
			strconv.FormatFloat(e.Longitude, 'f', 6, 64),
			mag,
			e.Place,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses rows written by WriteCSV, skipping rows that do not parse.
func ReadCSV(r io.Reader) ([]quake.Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []quake.Event{}, nil
	}

	events := make([]quake.Event, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < len(csvHeader) {
			continue
		}
		ms, err := strconv.ParseInt(rec[1], 10, 64)
		if err != nil {
			continue
		}
		lat, err1 := strconv.ParseFloat(rec[2], 64)
		lng, err2 := strconv.ParseFloat(rec[3], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		e := quake.Event{ID: rec[0], OccurredAtMs: ms, Latitude: lat, Longitude: lng, Place: rec[5]}
		if mag, err := strconv.ParseFloat(rec[4], 64); err == nil {
			e.Magnitude, e.MagnitudeKnown = mag, true
		}
		events = append(events, e)
	}
	return events, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
