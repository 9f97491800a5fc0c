package output

import (
	"github.com/dshills/panel/internal/language"
	"github.com/dshills/panel/internal/review"
)

func sampleReport() *review.Report {
	line := 12
	snippet := "cursor.execute('SELECT * FROM t WHERE id=' + id)"
	r := review.BuildReport("app/db.py", []review.NamedOutcome{
		{Name: "Security", Outcome: review.Succeeded([]review.Finding{{
			Severity:       review.SeverityCritical,
			Category:       "security",
			Line:           &line,
			Snippet:        &snippet,
			Description:    "SQL built by string concatenation",
			Recommendation: "Use parameterized queries",
			ProducedBy:     "Security",
		}}, "One injection risk", 0)},
		{Name: "Performance", Outcome: review.Succeeded([]review.Finding{{
			Severity:       review.SeverityLow,
			Category:       "performance",
			Description:    "Query inside loop",
			Recommendation: "Batch the lookups",
			ProducedBy:     "Performance",
		}}, "", 0)},
		{Name: "Style", Outcome: review.Failed("Style", review.Timeout, "reviewer did not finish before the deadline")},
	})
	r.Language = language.Python
	r.RunID = "01HZXTESTRUNID0000000000"
	return r
}

func emptyReport() *review.Report {
	return review.BuildReport("clean.go", []review.NamedOutcome{
		{Name: "Security", Outcome: review.Succeeded(nil, "Nothing found", 0)},
	})
}

func sampleBatch() *review.Batch {
	return &review.Batch{
		RunID: "01HZXBATCH",
		Root:  "app",
		Files: []review.FileResult{
			{Path: "app/clean.go", Report: emptyReport()},
			{Path: "app/db.py", Report: sampleReport()},
			{Path: "app/huge.js", Error: "file exceeds 1048576 bytes"},
		},
	}
}
