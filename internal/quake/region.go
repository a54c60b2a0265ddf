package quake

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean earth radius used to turn kilometres into angles.
const EarthRadiusKm = 6371.0088

// Region is a spherical cap around a center point.
type Region struct {
	Center s2.LatLng
	Radius s1.Angle
}

func NewRegion(lat, lng, radiusKm float64) (Region, error) {
	center := s2.LatLngFromDegrees(lat, lng)
	if !center.IsValid() || radiusKm <= 0 {
		return Region{}, fmt.Errorf("%w: center (%.4f, %.4f) radius %.1fkm", ErrBadRegion, lat, lng, radiusKm)
	}
	return Region{Center: center, Radius: s1.Angle(radiusKm / EarthRadiusKm)}, nil
}

// ParseRegion accepts a "lat,lng" center.
func ParseRegion(near string, radiusKm float64) (Region, error) {
	parts := strings.Split(near, ",")
	if len(parts) != 2 {
		return Region{}, fmt.Errorf("%w: expected lat,lng, got %q", ErrBadRegion, near)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Region{}, fmt.Errorf("%w: latitude: %v", ErrBadRegion, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Region{}, fmt.Errorf("%w: longitude: %v", ErrBadRegion, err)
	}
	return NewRegion(lat, lng, radiusKm)
}

func (r Region) Contains(e Event) bool {
	p := s2.LatLngFromDegrees(e.Latitude, e.Longitude)
	return r.Center.Distance(p) <= r.Radius
}

// DistanceKm is the great-circle distance from the region center to e.
func (r Region) DistanceKm(e Event) float64 {
	p := s2.LatLngFromDegrees(e.Latitude, e.Longitude)
	return r.Center.Distance(p).Radians() * EarthRadiusKm
}
