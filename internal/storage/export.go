package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/quakeplay/internal/quake"
)

type ExportData struct {
	Snapshot SnapshotMetadata `json:"snapshot"`
	Count    int              `json:"count"`
	Events   []quake.Event    `json:"events"`
}

// ExportJSON writes a snapshot's events as indented JSON to path, or to
// stdout when path is empty.
func (s *Store) ExportJSON(id, path string) error {
	meta, err := s.Load(id)
	if err != nil {
		return err
	}
	events, err := s.LoadEvents(id)
	if err != nil {
		return err
	}
	data := ExportData{Snapshot: *meta, Count: len(events), Events: events}

	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV copies a snapshot's events to w as CSV.
func (s *Store) ExportCSV(id string, w io.Writer) error {
	events, err := s.LoadEvents(id)
	if err != nil {
		return err
	}
	return WriteCSV(w, events)
}

// FromCollection is a convenience for exporting an in-memory collection.
func FromCollection(c *quake.Collection) ExportData {
	events := c.Events()
	out := make([]quake.Event, len(events))
	copy(out, events)
	return ExportData{Count: len(out), Events: out}
}
