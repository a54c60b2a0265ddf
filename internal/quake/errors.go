package quake

import "errors"

// Domain errors for feed record projection.
var (
	// ErrMissingGeometry indicates a feature without a point geometry.
	ErrMissingGeometry = errors.New("quake: feature has no point geometry")

	// ErrShortCoordinates indicates a point with fewer than two coordinates.
	ErrShortCoordinates = errors.New("quake: point needs [lng, lat] coordinates")

	// ErrUndecodable indicates a feature the GeoJSON decoder rejected, such as
	// a point with null or non-numeric coordinates.
	ErrUndecodable = errors.New("quake: feature is not valid GeoJSON")

	// ErrMissingTime indicates a feature without a numeric time property.
	ErrMissingTime = errors.New("quake: feature has no time property")

	// ErrBadRegion indicates a region with a non-positive radius or invalid center.
	ErrBadRegion = errors.New("quake: invalid region")
)

// RecordError wraps a projection failure with the feature's position in the feed.
type RecordError struct {
	Index   int
	ID      string
	Wrapped error
}

func (e *RecordError) Error() string {
	if e.ID != "" {
		return e.ID + ": " + e.Wrapped.Error()
	}
	return e.Wrapped.Error()
}

func (e *RecordError) Unwrap() error {
	return e.Wrapped
}
