// Package quake holds the earthquake records of one feed fetch.
//
// The package defines:
//
//   - [Event]: one immutable earthquake record
//   - [Collection]: the ordered, read-only set of events for a session
//   - [Load]: projection of GeoJSON feed features into a [Collection]
//   - [Region]: great-circle area filter backed by S2
//
// # Example
//
//	fc, _ := geojson.UnmarshalFeatureCollection(body)
//	events := quake.Load(fc.Features)
//	lo, hi, ok := events.Bounds()
//
// # Thread Safety
//
// A Collection is never mutated after construction and may be shared freely.
package quake
