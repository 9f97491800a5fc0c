package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/dshills/panel/internal/language"
	"github.com/dshills/panel/internal/review"
)

// TextWriter outputs human-readable tables.
type TextWriter struct{}

func (t *TextWriter) WriteReport(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	writeTextReport(ew, report)
	return ew.err
}

func (t *TextWriter) WriteBatch(w io.Writer, batch *review.Batch) error {
	ew := &errWriter{w: w}
	ew.printf("panel batch review %s\n", batch.RunID)
	if batch.Root != "" {
		ew.printf("Root: %s\n", batch.Root)
	}
	ew.println(strings.Repeat("─", 60))

	rows := make([][]string, 0, len(batch.Files))
	for _, f := range batch.Files {
		if f.Report == nil {
			rows = append(rows, []string{f.Path, "-", "-", "-", "-", "-", "error: " + f.Error})
			continue
		}
		c := f.Report.Counts
		status := "ok"
		if n := len(f.Report.Failures()); n > 0 {
			status = fmt.Sprintf("%d reviewer(s) failed", n)
		}
		rows = append(rows, []string{f.Path, itoa(c.Critical), itoa(c.High), itoa(c.Medium), itoa(c.Low), itoa(c.Info), status})
	}
	c := batch.Counts()
	rows = append(rows, []string{"TOTAL", itoa(c.Critical), itoa(c.High), itoa(c.Medium), itoa(c.Low), itoa(c.Info), fmt.Sprintf("%d file(s)", len(batch.Files))})
	ew.table([]string{"File", "Critical", "High", "Medium", "Low", "Info", "Status"}, rows)

	for _, f := range batch.Files {
		if f.Report == nil || f.Report.TotalIssues == 0 && len(f.Report.Failures()) == 0 {
			continue
		}
		ew.println("")
		writeTextReport(ew, f.Report)
	}
	return ew.err
}

func writeTextReport(ew *errWriter, r *review.Report) {
	ew.printf("panel review: %s", r.SubjectName)
	if r.Language != "" && r.Language != language.Unknown {
		ew.printf(" (%s)", language.Info(r.Language).Name)
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))
	ew.printf("Findings: %d total", r.TotalIssues)
	if r.TotalIssues > 0 {
		ew.printf(" (%d critical, %d high, %d medium, %d low, %d info)",
			r.Counts.Critical, r.Counts.High, r.Counts.Medium, r.Counts.Low, r.Counts.Info)
	}
	ew.println("")

	reviewers := make([][]string, 0, len(r.Outcomes))
	for _, n := range r.Outcomes {
		o := n.Outcome
		if o.OK() {
			reviewers = append(reviewers, []string{n.Name, "ok", itoa(len(o.Findings)), o.Summary})
		} else {
			reviewers = append(reviewers, []string{n.Name, "failed", "-", fmt.Sprintf("%s: %s", o.Kind, o.Message)})
		}
	}
	ew.table([]string{"Reviewer", "Status", "Findings", "Summary"}, reviewers)

	findings := r.Findings()
	if len(findings) == 0 {
		if len(r.Failures()) == 0 {
			ew.println("\nNo issues found. Looks good!")
		}
		return
	}

	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, []string{
			severityIcon(f.Severity) + " " + strings.ToUpper(string(f.Severity)),
			f.Location(),
			f.ProducedBy,
			f.Description,
			f.Recommendation,
		})
	}
	ew.println("")
	ew.table([]string{"Severity", "Line", "Reviewer", "Issue", "Recommendation"}, rows)

	if len(r.TopRecommendations) > 0 {
		ew.println("\nTop recommendations:")
		for i, rec := range r.TopRecommendations {
			lines := wrapText(rec, 70)
			ew.printf("  %d. %s\n", i+1, lines[0])
			for _, l := range lines[1:] {
				ew.printf("     %s\n", l)
			}
		}
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func (ew *errWriter) table(header []string, rows [][]string) {
	if ew.err != nil {
		return
	}
	tbl := tablewriter.NewWriter(ew.w)
	cols := make([]any, len(header))
	for i, h := range header {
		cols[i] = h
	}
	tbl.Header(cols...)
	for _, row := range rows {
		if err := tbl.Append(row); err != nil {
			ew.err = fmt.Errorf("building table: %w", err)
			return
		}
	}
	if err := tbl.Render(); err != nil {
		ew.err = fmt.Errorf("rendering table: %w", err)
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

func severityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return "[!!!]"
	case review.SeverityHigh:
		return "[!!]"
	case review.SeverityMedium:
		return "[!]"
	case review.SeverityLow:
		return "[-]"
	case review.SeverityInfo:
		return "[i]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
