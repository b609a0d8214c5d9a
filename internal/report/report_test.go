package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleReport() *Report {
	r := New("run-1", "Anatomie H1", "/books/anatomie.json", "abc123", time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	r.Finished = r.Started.Add(2 * time.Second)
	r.Scope = Scope{Start: 2, End: 7, StartPage: "3", EndPage: "8", StartFound: true, EndFound: true}
	r.BodyStory, r.BodyStoryName, r.BodyWords = 1, "body", 812

	labels := NewPassResult("heading-labels", Normalize, 0)
	labels.Found, labels.Changed = 3, 2
	labels.Add("already-correct", 1)
	labels.Add("glued", 2)
	labels.Sample("p4: %q", "zin.\n\nIn de praktijk: ")
	r.Add(labels)

	nested := NewPassResult("nested-lists", QA, 0)
	r.Add(nested)
	return r
}

func TestPassResult_SampleLimit(t *testing.T) {
	p := NewPassResult("soft-hyphens", Normalize, 2)
	for i := 0; i < 5; i++ {
		p.Sample("sample %d", i)
	}
	if len(p.Samples) != 2 || p.Dropped != 3 {
		t.Errorf("expected 2 samples and 3 dropped, got %d and %d", len(p.Samples), p.Dropped)
	}
}

func TestPassResult_SampleEscapes(t *testing.T) {
	p := NewPassResult("x", Normalize, 0)
	p.Sample("a\nb")
	if p.Samples[0] != `a\nb` {
		t.Errorf("expected escaped sample, got %q", p.Samples[0])
	}
}

func TestPassResult_Counters(t *testing.T) {
	p := NewPassResult("x", Normalize, 0)
	p.Add("direct", 1)
	p.Add("style", 1)
	p.Add("direct", 2)
	if p.Count("direct") != 3 || p.Count("style") != 1 || p.Count("missing") != 0 {
		t.Errorf("unexpected counters %v", p.Extra)
	}
	if p.Extra[0].Name != "direct" {
		t.Errorf("expected first-touched order, got %v", p.Extra)
	}
}

func TestPassResult_Aborted(t *testing.T) {
	p := NewPassResult("x", Normalize, 0)
	p.Changed = 4
	p.Aborted(errors.New("story unavailable"))
	if p.Changed != 0 || p.Abort == "" || !p.HasIssues() {
		t.Errorf("expected aborted pass with zero progress, got %+v", p)
	}
}

func TestOutcome(t *testing.T) {
	r := sampleReport()
	if got := r.Outcome(); got != Clean {
		t.Fatalf("expected clean, got %s", got)
	}
	r.Passes[0].Failed = 1
	if got := r.Outcome(); got != Issues {
		t.Fatalf("expected issues, got %s", got)
	}
	r.Passes[1].Violate(Violation{Paragraph: 3, Style: "Bullet lvl2", Page: "4", Snippet: "item"})
	if got := r.Outcome(); got != Failed || r.Passed() {
		t.Fatalf("expected failed, got %s", got)
	}

	fatal := New("run-2", "x", "", "", time.Now())
	fatal.Fatal = "no body story"
	if fatal.Outcome() != Failed {
		t.Error("expected fatal run to fail")
	}
}

func TestRender_SectionOrder(t *testing.T) {
	out := sampleReport().Render()
	order := []string{
		"DOCUMENT=Anatomie H1",
		"DOCUMENT_SHA256=abc123",
		"SCOPE_START=2",
		"SCOPE_END=7",
		"BODY_STORY_INDEX=1",
		"[heading-labels]\nKIND=normalize\nTOTAL_MATCHES=3\nCHANGED=2\nREMOVED=0\nFAILED=0\nALREADY_CORRECT=1\nGLUED=2\n",
		"[nested-lists]\nKIND=qa\nTOTAL_MATCHES=0",
		"# SAMPLES",
		`  - p4: "zin.\\n\\nIn de praktijk: "`,
		"OUTCOME=clean",
		"RESULT=PASS\n",
	}
	pos := 0
	for _, want := range order {
		i := strings.Index(out[pos:], want)
		if i < 0 {
			t.Fatalf("expected %q after offset %d in:\n%s", want, pos, out)
		}
		pos += i + len(want)
	}
	if !strings.HasSuffix(out, "RESULT=PASS\n") {
		t.Error("expected RESULT line last")
	}
}

func TestRender_Deterministic(t *testing.T) {
	if sampleReport().Render() != sampleReport().Render() {
		t.Error("expected identical renders")
	}
}

func TestRender_FailListsEveryViolation(t *testing.T) {
	r := sampleReport()
	qa := r.Pass("nested-lists")
	for i := 0; i < 20; i++ {
		qa.Violate(Violation{Paragraph: i, Style: "Bullet lvl2"})
	}
	out := r.Render()
	if n := strings.Count(out, "  ! paragraph="); n != 20 {
		t.Errorf("expected 20 violation lines, got %d", n)
	}
	if !strings.Contains(out, "RESULT=FAIL\n") || !strings.Contains(out, "TOTAL_VIOLATIONS=20") {
		t.Errorf("expected failing result, got:\n%s", out)
	}
}

func TestParseCounters(t *testing.T) {
	counters := ParseCounters(sampleReport().Render())
	if counters["heading-labels"]["TOTAL_MATCHES"] != 3 {
		t.Errorf("expected 3 matches, got %v", counters["heading-labels"])
	}
	if counters["heading-labels"]["GLUED"] != 2 {
		t.Errorf("expected GLUED=2, got %v", counters["heading-labels"])
	}
	if _, ok := counters["nested-lists"]["VIOLATIONS"]; !ok {
		t.Error("expected VIOLATIONS counter for QA pass")
	}
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	r := sampleReport()
	path, err := Write(dir, r)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "anatomie-h1__20260501T100000Z__run-1.report.txt" {
		t.Errorf("unexpected file name %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != r.Render() {
		t.Error("expected written file to equal render")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the report in dir, got %d entries", len(entries))
	}
}
