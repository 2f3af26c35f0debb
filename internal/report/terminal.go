package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Blue,
	asciigraph.Green,
	asciigraph.Red,
	asciigraph.Magenta,
	asciigraph.Yellow,
}

// Terminal draws each panel as an ASCII chart.
func Terminal(w io.Writer, panels []Panel, width, height int) error {
	for _, panel := range panels {
		data := make([][]float64, 0, len(panel.Series))
		names := make([]string, 0, len(panel.Series))
		colors := make([]asciigraph.AnsiColor, 0, len(panel.Series))
		for i, s := range panel.Series {
			if len(s.Values) == 0 || !allFinite(s.Values) {
				continue
			}
			data = append(data, s.Values)
			names = append(names, s.Name)
			colors = append(colors, seriesColors[i%len(seriesColors)])
		}
		if len(data) == 0 {
			continue
		}

		graph := asciigraph.PlotMany(data,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.SeriesColors(colors...),
			asciigraph.Caption(fmt.Sprintf("%s (%s)", panel.Label, strings.Join(names, ", "))),
		)
		if _, err := fmt.Fprintf(w, "%s\n\n", graph); err != nil {
			return err
		}
	}
	return nil
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(22)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	skipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffaa00"))
)

// Summary prints fit percentages per method and channel, skipped methods
// and run metrics.
func Summary(w io.Writer, fits map[string][]float64, skipped map[string]string, metrics map[string]float64) error {
	var b strings.Builder

	b.WriteString(headerStyle.Render("model fit [%]  (Ca, T)"))
	b.WriteString("\n")
	for _, method := range sortedKeys(fits) {
		vals := make([]string, len(fits[method]))
		for i, v := range fits[method] {
			vals[i] = fmt.Sprintf("%6.2f", v)
		}
		b.WriteString(labelStyle.Render(method))
		b.WriteString(valueStyle.Render(strings.Join(vals, "  ")))
		b.WriteString("\n")
	}
	for _, method := range sortedKeys(skipped) {
		b.WriteString(labelStyle.Render(method))
		b.WriteString(skipStyle.Render("skipped: " + skipped[method]))
		b.WriteString("\n")
	}

	if len(metrics) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("run metrics"))
		b.WriteString("\n")
		for _, name := range sortedKeys(metrics) {
			b.WriteString(labelStyle.Render(name))
			b.WriteString(valueStyle.Render(fmt.Sprintf("%.4f", metrics[name])))
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
