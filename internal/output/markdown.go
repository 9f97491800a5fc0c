package output

import (
	"io"
	"strings"

	"github.com/dshills/panel/internal/language"
	"github.com/dshills/panel/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) WriteReport(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	ew.printf("## panel code review: `%s`\n\n", report.SubjectName)
	writeMarkdownReport(ew, report, "###")
	return ew.err
}

func (m *MarkdownWriter) WriteBatch(w io.Writer, batch *review.Batch) error {
	ew := &errWriter{w: w}
	c := batch.Counts()

	ew.printf("## panel code review\n\n")
	ew.printf("Reviewed %d file(s), %d issue(s) found.\n\n", len(batch.Files), c.Total())
	ew.printf("| File | Critical | High | Medium | Low | Info |\n")
	ew.printf("|------|----------|------|--------|-----|------|\n")
	for _, f := range batch.Files {
		if f.Report == nil {
			ew.printf("| `%s` | - | - | - | - | - |\n", f.Path)
			continue
		}
		fc := f.Report.Counts
		ew.printf("| `%s` | %d | %d | %d | %d | %d |\n", f.Path, fc.Critical, fc.High, fc.Medium, fc.Low, fc.Info)
	}
	ew.printf("| **Total** | **%d** | **%d** | **%d** | **%d** | **%d** |\n\n", c.Critical, c.High, c.Medium, c.Low, c.Info)

	if errs := batch.Errors(); len(errs) > 0 {
		ew.printf("**Could not review:**\n\n")
		for _, f := range errs {
			ew.printf("- `%s`: %s\n", f.Path, f.Error)
		}
		ew.printf("\n")
	}

	for _, f := range batch.Files {
		if f.Report == nil || f.Report.TotalIssues == 0 && len(f.Report.Failures()) == 0 {
			continue
		}
		ew.printf("### `%s`\n\n", f.Path)
		writeMarkdownReport(ew, f.Report, "####")
	}
	return ew.err
}

func writeMarkdownReport(ew *errWriter, r *review.Report, heading string) {
	ew.printf("| Severity | Count |\n")
	ew.printf("|----------|-------|\n")
	for _, s := range review.Severities {
		ew.printf("| %s %s | %d |\n", mdSeverityIcon(s), titleCase(string(s)), r.Counts.Of(s))
	}
	ew.printf("| **Total** | **%d** |\n\n", r.TotalIssues)

	ew.printf("| Reviewer | Result |\n")
	ew.printf("|----------|--------|\n")
	for _, n := range r.Outcomes {
		o := n.Outcome
		if o.OK() {
			ew.printf("| %s | %d finding(s). %s |\n", n.Name, len(o.Findings), mdCell(o.Summary))
		} else {
			ew.printf("| %s | :x: %s: %s |\n", n.Name, o.Kind, mdCell(o.Message))
		}
	}
	ew.printf("\n")

	findings := r.Findings()
	if len(findings) == 0 {
		if len(r.Failures()) == 0 {
			ew.println("No issues found. :white_check_mark:")
		}
		return
	}

	if len(r.TopRecommendations) > 0 {
		ew.printf("%s Top recommendations\n\n", heading)
		for i, rec := range r.TopRecommendations {
			ew.printf("%d. %s\n", i+1, strings.ReplaceAll(rec, "\n", " "))
		}
		ew.printf("\n")
	}

	fence := fenceLang(r.Language)
	for _, sev := range review.Severities {
		var group []review.Finding
		for _, f := range findings {
			if f.Severity == sev {
				group = append(group, f)
			}
		}
		if len(group) == 0 {
			continue
		}

		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n", mdSeverityIcon(sev), strings.ToUpper(string(sev)), len(group))
		for _, f := range group {
			ew.printf("**%s** · %s · %s\n\n", f.Location(), f.ProducedBy, f.Category)
			ew.printf("%s\n\n", f.Description)
			if f.Snippet != nil && strings.TrimSpace(*f.Snippet) != "" {
				ew.printf("```%s\n%s\n```\n\n", fence, *f.Snippet)
			}
			ew.printf("**Recommendation:**\n\n")
			if looksLikeCode(f.Recommendation) {
				ew.printf("```%s\n%s\n```\n\n", fence, f.Recommendation)
			} else {
				ew.printf("> %s\n\n", strings.ReplaceAll(f.Recommendation, "\n", "\n> "))
			}
			ew.printf("---\n\n")
		}
		ew.printf("</details>\n\n")
	}
}

func mdCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return ":rotating_light:"
	case review.SeverityHigh:
		return ":red_circle:"
	case review.SeverityMedium:
		return ":orange_circle:"
	case review.SeverityLow:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}

func looksLikeCode(s string) bool {
	codeIndicators := []string{
		"func ", "return ", ":=", "=>", "->", "();", "{\n", "def ", "import ",
	}
	for _, indicator := range codeIndicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}

func fenceLang(t language.Tag) string {
	if t == language.Unknown {
		return ""
	}
	return string(t)
}
