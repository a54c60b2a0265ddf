package quake

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	geojson "github.com/paulmach/go.geojson"
)

// Event is one earthquake record as projected from the feed.
type Event struct {
	ID             string  `json:"id,omitempty"`
	Latitude       float64 `json:"lat"`
	Longitude      float64 `json:"lng"`
	Magnitude      float64 `json:"mag"`
	MagnitudeKnown bool    `json:"mag_known"`
	OccurredAtMs   int64   `json:"time"`
	Place          string  `json:"place,omitempty"`
}

// OccurredAt returns the event time as a time.Time.
func (e Event) OccurredAt() time.Time {
	return time.UnixMilli(e.OccurredAtMs)
}

// FromFeature projects a single feed feature. The feed stores coordinates as
// [lng, lat, depth]; depth is ignored. A null magnitude is kept as unknown.
func FromFeature(f *geojson.Feature) (Event, error) {
	if f == nil || f.Geometry == nil || !f.Geometry.IsPoint() {
		return Event{}, ErrMissingGeometry
	}
	coords := f.Geometry.Point
	if len(coords) < 2 {
		return Event{}, ErrShortCoordinates
	}

	ms, ok := numberProp(f.Properties, "time")
	if !ok {
		return Event{}, ErrMissingTime
	}

	ev := Event{
		ID:           featureID(f),
		Longitude:    coords[0],
		Latitude:     coords[1],
		OccurredAtMs: int64(ms),
	}
	if mag, ok := numberProp(f.Properties, "mag"); ok {
		ev.Magnitude = mag
		ev.MagnitudeKnown = true
	}
	if place, ok := f.Properties["place"].(string); ok {
		ev.Place = place
	}
	return ev, nil
}

// Load projects feed features one to one, in feed order. Malformed features
// are logged and skipped; the count is kept on the collection.
func Load(features []*geojson.Feature) *Collection {
	return load(len(features), func(i int) (*geojson.Feature, error) {
		return features[i], nil
	})
}

// LoadRaw decodes each raw feature on its own, so one undecodable record is
// skipped like any other malformed feature instead of failing the whole feed.
func LoadRaw(raws []json.RawMessage) *Collection {
	return load(len(raws), func(i int) (*geojson.Feature, error) {
		f, err := geojson.UnmarshalFeature(raws[i])
		if err != nil {
			return nil, &RecordError{Index: i, ID: rawID(raws[i]), Wrapped: fmt.Errorf("%w: %v", ErrUndecodable, err)}
		}
		return f, nil
	})
}

func load(n int, feature func(i int) (*geojson.Feature, error)) *Collection {
	events := make([]Event, 0, n)
	skipped := 0
	for i := 0; i < n; i++ {
		f, err := feature(i)
		if err == nil {
			var ev Event
			if ev, err = FromFeature(f); err == nil {
				events = append(events, ev)
				continue
			}
			rerr := &RecordError{Index: i, Wrapped: err}
			if f != nil {
				rerr.ID = featureID(f)
			}
			err = rerr
		}
		log.Printf("skipping feature %d: %v", i, err)
		skipped++
	}
	c := NewCollection(events)
	c.skipped = skipped
	return c
}

// rawID pulls the id out of a feature the geojson decoder rejected.
func rawID(raw json.RawMessage) string {
	var head struct {
		ID interface{} `json:"id"`
	}
	if json.Unmarshal(raw, &head) != nil || head.ID == nil {
		return ""
	}
	return fmt.Sprintf("%v", head.ID)
}

func numberProp(props map[string]interface{}, key string) (float64, bool) {
	if props == nil {
		return 0, false
	}
	switch v := props[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

func featureID(f *geojson.Feature) string {
	switch id := f.ID.(type) {
	case nil:
		return ""
	case string:
		return id
	default:
		return fmt.Sprintf("%v", id)
	}
}
