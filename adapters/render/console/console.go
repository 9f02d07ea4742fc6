// Package console displays figure handles as styled text tables
package console

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"wdiviz/domain/chart"
	apperrors "wdiviz/internal/errors"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// barWidth is the length of the longest text bar
const barWidth = 30

var (
	titleColor    = lipgloss.Color("#101F38")
	borderColor   = lipgloss.Color("#dce0e5")
	positiveColor = lipgloss.Color("#B40426")
	negativeColor = lipgloss.Color("#3B4CC0")
	barColor      = lipgloss.Color("#87CEEB")
)

// Renderer writes a text rendition of every figure to w
type Renderer struct {
	w      io.Writer
	styles *lipgloss.Renderer
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	bar    lipgloss.Style
}

// NewRenderer creates a console renderer writing to w
func NewRenderer(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		w:      w,
		styles: r,
		title:  r.NewStyle().Bold(true).Foreground(titleColor).MarginTop(1),
		header: r.NewStyle().Bold(true).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		bar:    r.NewStyle().Foreground(barColor),
	}
}

// Name identifies the renderer in run reports
func (r *Renderer) Name() string {
	return "console"
}

// Render prints the figure title followed by its data
func (r *Renderer) Render(ctx context.Context, fig *chart.Figure) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fig.Validate(); err != nil {
		return apperrors.RenderError(r.Name(), err)
	}

	var body string
	switch fig.Kind {
	case chart.KindHeatmap:
		body = r.heatmap(fig)
	case chart.KindBar:
		body = r.bars(fig)
	case chart.KindLine:
		body = r.lines(fig)
	case chart.KindPie:
		body = r.pie(fig)
	case chart.KindHistogram:
		body = r.histogram(fig)
	default:
		return apperrors.RenderError(r.Name(), fmt.Errorf("figure %s: unsupported kind %q", fig.ID, fig.Kind))
	}

	return r.print(fig.Style.Title, body)
}

func (r *Renderer) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.styles.NewStyle().Foreground(borderColor)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.header
			}
			return r.cell
		})
}

func format(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// textBar scales v against peak into a run of block characters
func (r *Renderer) textBar(v, peak float64) string {
	if peak <= 0 || math.IsNaN(v) || v <= 0 {
		return ""
	}
	n := int(math.Round(v / peak * barWidth))
	return r.bar.Render(strings.Repeat("█", n))
}

func (r *Renderer) heatmap(fig *chart.Figure) string {
	t := r.newTable(append([]string{""}, fig.Grid.XLabels...)...)
	for i, label := range fig.Grid.YLabels {
		row := []string{label}
		for _, v := range fig.Grid.Values[i] {
			row = append(row, fmt.Sprintf(annotateFormat(fig), v))
		}
		t.Row(row...)
	}
	values := fig.Grid.Values
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow || col == 0 {
			return r.header
		}
		v := values[row][col-1]
		switch {
		case math.IsNaN(v):
			return r.cell
		case v >= 0:
			return r.cell.Foreground(positiveColor)
		default:
			return r.cell.Foreground(negativeColor)
		}
	})
	return t.Render()
}

func annotateFormat(fig *chart.Figure) string {
	if fig.Style.AnnotateFormat == "" {
		return "%.2f"
	}
	return fig.Style.AnnotateFormat
}

func (r *Renderer) bars(fig *chart.Figure) string {
	headers := []string{fig.Encoding.X}
	for _, s := range fig.Series {
		headers = append(headers, s.Name)
	}
	t := r.newTable(headers...)
	for i, category := range fig.Categories {
		row := []string{category}
		for _, s := range fig.Series {
			row = append(row, format(s.Points[i].Y))
		}
		t.Row(row...)
	}
	return t.Render()
}

func (r *Renderer) lines(fig *chart.Figure) string {
	headers := []string{fig.Encoding.X}
	seen := map[float64]bool{}
	var xs []float64
	for _, s := range fig.Series {
		headers = append(headers, s.Name)
		for _, p := range s.Points {
			if !seen[p.X] {
				seen[p.X] = true
				xs = append(xs, p.X)
			}
		}
	}
	sort.Float64s(xs)

	t := r.newTable(headers...)
	for _, x := range xs {
		row := []string{strconv.FormatFloat(x, 'f', -1, 64)}
		for _, s := range fig.Series {
			cell := "-"
			for _, p := range s.Points {
				if p.X == x {
					cell = format(p.Y)
					break
				}
			}
			row = append(row, cell)
		}
		t.Row(row...)
	}
	return t.Render()
}

func (r *Renderer) pie(fig *chart.Figure) string {
	percents := fig.Percentages()
	peak := 0.0
	for _, p := range percents {
		peak = math.Max(peak, p)
	}

	t := r.newTable(fig.Encoding.X, fig.Encoding.Y, "Share", "")
	for i, s := range fig.Slices {
		t.Row(s.Label, format(s.Value), fmt.Sprintf(percentFormat(fig), percents[i]), r.textBar(percents[i], peak))
	}
	return t.Render()
}

func percentFormat(fig *chart.Figure) string {
	if fig.PercentFormat == "" {
		return "%.1f%%"
	}
	return fig.PercentFormat
}

func (r *Renderer) histogram(fig *chart.Figure) string {
	peak := 0.0
	for _, b := range fig.Bins {
		peak = math.Max(peak, float64(b.Count))
	}

	t := r.newTable("Bin", fig.Style.YLabel, "")
	for _, b := range fig.Bins {
		label := fmt.Sprintf("%.4g - %.4g", b.Min, b.Max)
		t.Row(label, strconv.Itoa(b.Count), r.textBar(float64(b.Count), peak))
	}
	return t.Render()
}
