// Package export writes frames and activity series as standalone SVG.
package export

import (
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"github.com/san-kum/quakeplay/internal/policy"
	"github.com/san-kum/quakeplay/internal/render"
)

// MetresPerDegree is the length of one degree of latitude.
const MetresPerDegree = 111320.0

// Fill colors per age bucket.
var fills = map[policy.Color]string{
	policy.Red:    "#ff3b30",
	policy.Orange: "#ff9500",
	policy.Yellow: "#ffcc00",
	policy.White:  "#f2f2f2",
}

// SVG is a Renderer that accumulates markers on an equirectangular world
// map and writes them as one SVG document.
type SVG struct {
	mu      sync.Mutex
	Width   int
	Height  int
	Title   string
	markers []render.MarkerSpec
}

func NewSVG(width, height int) *SVG {
	if width <= 0 {
		width = 1440
	}
	if height <= 0 {
		height = width / 2
	}
	return &SVG{Width: width, Height: height}
}

func (s *SVG) Clear() {
	s.mu.Lock()
	s.markers = s.markers[:0]
	s.mu.Unlock()
}

func (s *SVG) Draw(m render.MarkerSpec) {
	s.mu.Lock()
	s.markers = append(s.markers, m)
	s.mu.Unlock()
}

// Project maps lat/lng to pixel coordinates.
func (s *SVG) Project(lat, lng float64) (x, y float64) {
	x = (lng + 180) / 360 * float64(s.Width)
	y = (90 - lat) / 180 * float64(s.Height)
	return x, y
}

// PixelRadius converts a marker radius in metres to pixels, never below one.
func (s *SVG) PixelRadius(metres float64) float64 {
	r := metres / MetresPerDegree * float64(s.Width) / 360
	if r < 1 {
		r = 1
	}
	return r
}

// String renders the current frame. Older markers are drawn first so
// recent events stay on top.
func (s *SVG) String() string {
	s.mu.Lock()
	markers := make([]render.MarkerSpec, len(s.markers))
	copy(markers, s.markers)
	s.mu.Unlock()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, s.Width, s.Height, s.Width, s.Height))

	if s.Title != "" {
		sb.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(s.Title)))
	}
	s.writeGraticule(&sb)

	sb.WriteString(`<g stroke-width="1" fill-opacity="0.6">` + "\n")
	for rank := len(policy.Colors) - 1; rank >= 0; rank-- {
		for _, m := range markers {
			if m.Color.Rank() != rank {
				continue
			}
			x, y := s.Project(m.Lat, m.Lng)
			fill := fills[m.Color]
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" stroke="%s" fill="%s"><title>%s</title></circle>
`, x, y, s.PixelRadius(m.Radius), fill, fill, html.EscapeString(m.PopupText)))
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// WriteTo writes the current frame to w.
func (s *SVG) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

func (s *SVG) writeGraticule(sb *strings.Builder) {
	sb.WriteString(`<g stroke="#1f3a2a" stroke-width="0.5">` + "\n")
	for lng := -180; lng <= 180; lng += 30 {
		x, _ := s.Project(0, float64(lng))
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="0" x2="%.1f" y2="%d"/>
`, x, x, s.Height))
	}
	for lat := -90; lat <= 90; lat += 30 {
		_, y := s.Project(float64(lat), 0)
		sb.WriteString(fmt.Sprintf(`<line x1="0" y1="%.1f" x2="%d" y2="%.1f"/>
`, y, s.Width, y))
	}
	sb.WriteString("</g>\n")
}

// SeriesToSVG plots a series (for example daily event counts) as a line.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minY, maxY := values[0], values[0]
	for _, v := range values {
		if v < minY {
			minY = v
		}
		if v > maxY {
			maxY = v
		}
	}
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY
	stepX := float64(width) / float64(len(values)-1)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, v := range values {
		x := float64(i) * stepX
		y := float64(height) - (v-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
