package console

import (
	"context"
	"fmt"
	"strconv"

	"wdiviz/domain/indicators"
	apperrors "wdiviz/internal/errors"
	"wdiviz/ports"

	"github.com/charmbracelet/lipgloss"
)

// HeadRows is how many rows of each table are previewed
const HeadRows = 5

// WriteTables previews the cleaned and transposed tables and prints the
// describe block of every indicator
func (r *Renderer) WriteTables(ctx context.Context, tables ports.Tables) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tables.Cleaned != nil {
		if err := r.Table("Cleaned data", tables.Cleaned.Head(HeadRows)); err != nil {
			return err
		}
	}
	if tables.Transposed != nil {
		if err := r.Table("Transposed data", tables.Transposed.Head(HeadRows)); err != nil {
			return err
		}
	}
	return r.Summaries(tables.Summaries)
}

// Table prints rows under title. The first row is the header.
func (r *Renderer) Table(title string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	t := r.newTable(rows[0]...)
	for _, row := range rows[1:] {
		t.Row(row...)
	}
	return r.print(title, t.Render())
}

// Summaries prints one describe table per indicator
func (r *Renderer) Summaries(summaries []indicators.SeriesSummary) error {
	for _, s := range summaries {
		t := r.newTable("Year", "count", "mean", "std", "min", "25%", "50%", "75%", "max")
		for _, year := range s.Years {
			d := s.Stats[year]
			t.Row(year, strconv.Itoa(d.Count),
				format(d.Mean), format(d.Std), format(d.Min),
				format(d.Q25), format(d.Median), format(d.Q75), format(d.Max))
		}
		if err := r.print(s.Series, t.Render()); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) print(title, body string) error {
	out := lipgloss.JoinVertical(lipgloss.Left, r.title.Render(title), body)
	if _, err := fmt.Fprintln(r.w, out); err != nil {
		return apperrors.RenderError(r.Name(), err)
	}
	return nil
}
