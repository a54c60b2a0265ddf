package viz

import (
	"math"
	"sync"

	"github.com/san-kum/quakeplay/internal/render"
)

const metresPerDegree = 111320.0

// MapView is a Renderer drawing markers onto an equirectangular braille
// world map. Draw calls may arrive from the playback goroutine, so access is
// serialized.
type MapView struct {
	mu      sync.Mutex
	canvas  *Canvas
	markers int
	grid    bool
}

func NewMapView(w, h int) *MapView {
	v := &MapView{canvas: NewCanvas(w, h), grid: true}
	v.drawGraticule()
	return v
}

// Resize replaces the canvas; the next frame redraws it.
func (v *MapView) Resize(w, h int) {
	if w < 8 || h < 4 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.canvas = NewCanvas(w, h)
	v.markers = 0
	v.drawGraticule()
}

func (v *MapView) ToggleGrid() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.grid = !v.grid
}

func (v *MapView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.canvas.Clear()
	v.markers = 0
	v.drawGraticule()
}

func (v *MapView) Draw(m render.MarkerSpec) {
	v.mu.Lock()
	defer v.mu.Unlock()
	x, y := v.project(m.Lat, m.Lng)
	v.canvas.FillCircle(x, y, v.pixelRadius(m.Radius), m.Color)
	v.markers++
}

// Markers reports how many markers the current frame holds.
func (v *MapView) Markers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.markers
}

func (v *MapView) Render(theme Theme) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.canvas.Render(theme, theme.gridStyle())
}

func (v *MapView) String() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.canvas.String()
}

// project maps lat/lng to sub-pixel coordinates.
func (v *MapView) project(lat, lng float64) (int, int) {
	pw, ph := float64(v.canvas.PixelWidth()-1), float64(v.canvas.PixelHeight()-1)
	x := (lng + 180) / 360 * pw
	y := (90 - lat) / 180 * ph
	return int(math.Round(x)), int(math.Round(y))
}

func (v *MapView) pixelRadius(metres float64) int {
	deg := metres / metresPerDegree
	return int(deg * float64(v.canvas.PixelWidth()) / 360)
}

// drawGraticule dots meridians and parallels every 30 degrees.
func (v *MapView) drawGraticule() {
	if !v.grid {
		return
	}
	pw, ph := v.canvas.PixelWidth(), v.canvas.PixelHeight()
	for lng := -180.0; lng <= 180; lng += 30 {
		x, _ := v.project(0, lng)
		for y := 0; y < ph; y += 4 {
			v.canvas.Set(x, y)
		}
	}
	for lat := -60.0; lat <= 60; lat += 30 {
		_, y := v.project(lat, 0)
		for x := 0; x < pw; x += 4 {
			v.canvas.Set(x, y)
		}
	}
}
