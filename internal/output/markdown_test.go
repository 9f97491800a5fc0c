package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestMarkdownWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).WriteReport(&buf, emptyReport()); err != nil {
		t.Fatalf("WriteReport error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "## panel code review: `clean.go`") {
		t.Error("Missing heading")
	}
	if !strings.Contains(out, "No issues found") {
		t.Error("Expected 'No issues found' for empty report")
	}
	if !strings.Contains(out, "| **Total** | **0** |") {
		t.Error("Expected total count of 0")
	}
}

func TestMarkdownWriter_WithFindings(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).WriteReport(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteReport error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"| :rotating_light: Critical | 1 |",
		"| **Total** | **2** |",
		"| Style | :x: Timeout:",
		"<summary>:rotating_light: CRITICAL (1)</summary>",
		"**L12** · Security · security",
		"```python\ncursor.execute(",
		"> Use parameterized queries",
		"1. Use parameterized queries",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestMarkdownWriter_Batch(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).WriteBatch(&buf, sampleBatch()); err != nil {
		t.Fatalf("WriteBatch error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Reviewed 3 file(s), 2 issue(s) found.",
		"| `app/db.py` | 1 | 0 | 0 | 1 | 0 |",
		"| `app/huge.js` | - | - | - | - | - |",
		"- `app/huge.js`: file exceeds",
		"### `app/db.py`",
		"#### Top recommendations",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "### `app/clean.go`") {
		t.Error("clean files should not get a section")
	}
}

func TestMdCell(t *testing.T) {
	if got := mdCell("a|b\nc"); got != `a\|b c` {
		t.Errorf("mdCell = %q", got)
	}
}
