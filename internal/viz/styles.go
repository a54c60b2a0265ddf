package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/quakeplay/internal/playback"
	"github.com/san-kum/quakeplay/internal/policy"
)

var (
	// Help overlay panel
	helpPanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(1, 2)

	// One-off notices such as a failed fetch
	NoticeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	metricLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))

	keyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)
)

// Blocks for the activity sparkline, low to high.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

func (t Theme) header() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(t.Grid)
}

func (t Theme) metric() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
}

func (t Theme) status(playing bool) string {
	if playing {
		return lipgloss.NewStyle().Bold(true).Foreground(t.Success).Render("▶ PLAYING")
	}
	return lipgloss.NewStyle().Bold(true).Foreground(t.Warning).Render("❚❚ PAUSED")
}

// ageColor colours the slice of time [startMs, endMs) as a marker at the
// slice's newest instant up to the cursor would be coloured. ok is false for
// slices that start after the cursor.
func (t Theme) ageColor(startMs, endMs, cursorMs int64) (c lipgloss.Color, ok bool) {
	if startMs > cursorMs {
		return "", false
	}
	newest := endMs
	if newest > cursorMs {
		newest = cursorMs
	}
	age := policy.ColorForAge(cursorMs - newest)
	if !age.Visible() {
		return t.Muted, true
	}
	return t.Marker(age), true
}

// AgeBar draws [fromMs, toMs] as width cells. Cells the cursor has passed
// take the colour a marker of that age would get, so the newest stretch is
// red and fades back through the buckets; later cells are empty.
func AgeBar(fromMs, toMs, cursorMs int64, width int, theme Theme) string {
	if width <= 0 {
		return ""
	}
	span := toMs - fromMs
	if span <= 0 {
		span = 1
	}
	empty := lipgloss.NewStyle().Foreground(theme.Muted)

	var b strings.Builder
	for i := 0; i < width; i++ {
		start := fromMs + span*int64(i)/int64(width)
		end := fromMs + span*int64(i+1)/int64(width)
		c, ok := theme.ageColor(start, end, cursorMs)
		if !ok {
			b.WriteString(empty.Render("░"))
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(c).Render("█"))
	}
	return b.String()
}

// ActivitySparkline draws daily event counts, the first day starting at
// fromMs. Each block is the busiest day of its bucket and is coloured by the
// age of the bucket's newest day at the cursor.
func ActivitySparkline(daily []float64, fromMs, cursorMs int64, width int, theme Theme) string {
	if len(daily) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	buckets := bucketDays(len(daily), width)
	peaks := make([]float64, len(buckets))
	top := 0.0
	for i, bk := range buckets {
		for _, v := range daily[bk[0]:bk[1]] {
			peaks[i] = max(peaks[i], v)
		}
		top = max(top, peaks[i])
	}
	if top == 0 {
		top = 1
	}

	empty := lipgloss.NewStyle().Foreground(theme.Muted)
	var b strings.Builder
	for i, bk := range buckets {
		idx := int(peaks[i] / top * float64(len(sparkBlocks)-1))
		block := string(sparkBlocks[idx])

		start := fromMs + int64(bk[1]-1)*playback.StepMs
		c, ok := theme.ageColor(start, start+playback.StepMs, cursorMs)
		if !ok {
			b.WriteString(empty.Render(block))
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(c).Render(block))
	}
	return b.String()
}

// bucketDays splits n days into at most width contiguous [from, to) ranges
// covering every day, newest included.
func bucketDays(n, width int) [][2]int {
	if width > n {
		width = n
	}
	out := make([][2]int, width)
	for i := range out {
		out[i] = [2]int{i * n / width, (i + 1) * n / width}
	}
	return out
}

func rule(width int, theme Theme) string {
	if width < 0 {
		width = 0
	}
	return lipgloss.NewStyle().Foreground(theme.Grid).Render(strings.Repeat("─", width))
}
