// Package report writes the record of a run as Markdown, and as a standalone
// HTML page converted from that Markdown.
package report

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"wdiviz/domain/run"
	"wdiviz/internal"
	apperrors "wdiviz/internal/errors"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// File names written into the output directory
const (
	MarkdownFile = "report.md"
	HTMLFile     = "report.html"
)

// Writer exports run reports into a directory
type Writer struct {
	dir    string
	html   bool
	logger *internal.Logger
}

// NewWriter creates a report writer. With withHTML set, an HTML page is written
// next to the Markdown file.
func NewWriter(dir string, withHTML bool, logger *internal.Logger) *Writer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Writer{dir: dir, html: withHTML, logger: logger}
}

// Write renders rep and returns the paths written
func (w *Writer) Write(ctx context.Context, rep *run.RunReport) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := rep.Validate(); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, apperrors.ExportError(w.dir, err)
	}

	md := Markdown(rep)
	mdPath := filepath.Join(w.dir, MarkdownFile)
	if err := os.WriteFile(mdPath, md, 0o644); err != nil {
		return nil, apperrors.ExportError(mdPath, err)
	}
	written := []string{mdPath}

	if w.html {
		htmlPath := filepath.Join(w.dir, HTMLFile)
		page := HTML(md, "WDI run "+rep.RunID.String())
		if err := os.WriteFile(htmlPath, page, 0o644); err != nil {
			return written, apperrors.ExportError(htmlPath, err)
		}
		written = append(written, htmlPath)
	}

	w.logger.Info("[Report] run %s report written to %s", rep.RunID, w.dir)
	return written, nil
}

// HTML converts a Markdown document into a complete HTML page
func HTML(md []byte, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: title,
	})
	return markdown.ToHTML(md, p, renderer)
}

// Markdown renders the run summary, statistics, matrix, figures and failures
func Markdown(rep *run.RunReport) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# WDI run %s\n\n", rep.RunID)
	fmt.Fprintf(&b, "- Source: `%s`\n", rep.Source)
	if !rep.Fingerprint.Fingerprint.IsEmpty() {
		fmt.Fprintf(&b, "- Source hash: `%s`\n", rep.Fingerprint.SourceHash.Short())
		fmt.Fprintf(&b, "- Fingerprint: `%s`\n", rep.Fingerprint.Fingerprint.Short())
	}
	fmt.Fprintf(&b, "- Started: %s\n", rep.StartedAt)
	if !rep.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- Finished: %s\n", rep.FinishedAt)
	}
	fmt.Fprintf(&b, "- Cleaned rows: %d\n", rep.CleanedRows)
	fmt.Fprintf(&b, "- Transposed rows: %d\n", rep.TransposedRows)
	overall := rep.Pipeline.Overall
	fmt.Fprintf(&b, "- Stages: %d ok, %d failed\n\n", overall.Successful, overall.Failed)

	writeIndicators(&b, rep)
	writeSummaries(&b, rep)
	writeMatrix(&b, rep)
	writeFigures(&b, rep)
	writeStages(&b, rep)
	writeFailures(&b, rep)

	return []byte(b.String())
}

func writeIndicators(b *strings.Builder, rep *run.RunReport) {
	if len(rep.Indicators) == 0 {
		return
	}
	fmt.Fprintf(b, "## Indicators (%s)\n\n", strings.Join(rep.Years, ", "))
	missing := make(map[string]bool, len(rep.Missing))
	for _, m := range rep.Missing {
		missing[m] = true
	}
	for _, name := range rep.Indicators {
		if missing[name] {
			fmt.Fprintf(b, "- %s (no rows)\n", name)
		} else {
			fmt.Fprintf(b, "- %s\n", name)
		}
	}
	b.WriteString("\n")
}

func writeSummaries(b *strings.Builder, rep *run.RunReport) {
	if len(rep.Summaries) == 0 {
		return
	}
	b.WriteString("## Descriptive statistics\n\n")
	for _, s := range rep.Summaries {
		fmt.Fprintf(b, "### %s\n\n", cell(s.Series))
		writeRow(b, "Year", "count", "mean", "std", "min", "25%", "50%", "75%", "max")
		writeRule(b, 9)
		for _, year := range s.Years {
			d := s.Stats[year]
			writeRow(b, year, strconv.Itoa(d.Count),
				number(d.Mean), number(d.Std), number(d.Min),
				number(d.Q25), number(d.Median), number(d.Q75), number(d.Max))
		}
		b.WriteString("\n")
	}
}

func writeMatrix(b *strings.Builder, rep *run.RunReport) {
	m := rep.Matrix
	if m == nil || m.Size() == 0 {
		return
	}
	b.WriteString("## Correlation matrix\n\n")
	header := []string{""}
	for _, l := range m.Labels {
		header = append(header, cell(l))
	}
	writeRow(b, header...)
	writeRule(b, len(header))
	for i, l := range m.Labels {
		row := []string{cell(l)}
		for j := range m.Labels {
			row = append(row, fixed(m.R[i][j]))
		}
		writeRow(b, row...)
	}
	b.WriteString("\n")
}

func writeFigures(b *strings.Builder, rep *run.RunReport) {
	b.WriteString("## Figures\n\n")
	if len(rep.Figures) == 0 {
		b.WriteString("No figures were built.\n\n")
		return
	}
	writeRow(b, "Figure", "Kind", "Title", "Outputs")
	writeRule(b, 4)
	for _, f := range rep.Figures {
		outputs := make([]string, len(f.Outputs))
		for i, o := range f.Outputs {
			outputs[i] = "`" + filepath.Base(o) + "`"
		}
		writeRow(b, f.ID.String(), string(f.Kind), cell(f.Title), strings.Join(outputs, ", "))
	}
	b.WriteString("\n")
}

func writeStages(b *strings.Builder, rep *run.RunReport) {
	b.WriteString("## Stages\n\n")
	writeRow(b, "Stage", "Status", "Duration (ms)")
	writeRule(b, 3)
	for _, r := range rep.Pipeline.Results {
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		writeRow(b, string(r.StageName), status, strconv.FormatInt(r.Duration, 10))
	}
	b.WriteString("\n")
}

func writeFailures(b *strings.Builder, rep *run.RunReport) {
	b.WriteString("## Failures\n\n")
	failures := rep.Failures()
	if len(failures) == 0 {
		b.WriteString("None.\n")
		return
	}
	for _, f := range failures {
		fmt.Fprintf(b, "- **%s**: %s\n", f.StageName, cell(f.Error))
	}
}

func writeRow(b *strings.Builder, cells ...string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}

func writeRule(b *strings.Builder, n int) {
	b.WriteString("|")
	b.WriteString(strings.Repeat(" --- |", n))
	b.WriteString("\n")
}

// cell keeps a value on one table row
func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}

func number(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', 6, 64)
}

func fixed(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
