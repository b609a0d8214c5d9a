package engine

import (
	"strings"
	"testing"

	"github.com/gafniasaf/bookgen/internal/layout"
)

func TestMarkdownLoader_Structure(t *testing.T) {
	input := `# 1.1 De cel

Een **cel** is de kleinste eenheid.

- eerste
  - genest
-
- derde

1. stap

---

> Let op: dit is een kader.

## 1.2 Weefsel
`
	doc, err := (&MarkdownLoader{}).Load(strings.NewReader(input), "anatomie.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "anatomie" {
		t.Errorf("expected name %q, got %q", "anatomie", doc.Name)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(doc.Pages))
	}

	paras := bodyParagraphs(t, doc)
	want := []struct {
		style, text, page string
	}{
		{"Heading 1", "1.1 De cel", "1"},
		{"Body", "Een cel is de kleinste eenheid.", "1"},
		{"Bullet", "eerste", "1"},
		{"Bullet lvl2", "genest", "1"},
		{"Bullet", "", "1"},
		{"Bullet", "derde", "1"},
		{"Numbered List", "stap", "1"},
		{"Heading 2", "1.2 Weefsel", "2"},
	}
	if len(paras) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d", len(want), len(paras))
	}
	for i, w := range want {
		p := paras[i]
		if p.StyleName() != w.style || p.Contents() != w.text {
			t.Errorf("paragraph %d: expected %s %q, got %s %q", i, w.style, w.text, p.StyleName(), p.Contents())
		}
		if got := pageOf(t, doc, p); got != w.page {
			t.Errorf("paragraph %d: expected page %q, got %q", i, w.page, got)
		}
	}

	if !paras[1].IsBold(layout.Range{Start: 4, End: 7}) {
		t.Errorf("expected strong text to be bold, got %v", paras[1].BoldRanges())
	}

	if len(doc.Stories) != 2 || doc.Stories[1].Name != CalloutStory {
		t.Fatalf("expected callout story, got %d stories", len(doc.Stories))
	}
	callouts, _ := doc.Stories[1].Paragraphs()
	if len(callouts) != 1 || callouts[0].Contents() != "Let op: dit is een kader." {
		t.Fatalf("unexpected callouts: %d", len(callouts))
	}
	if callouts[0].StyleName() != "Callout" {
		t.Errorf("expected Callout style, got %q", callouts[0].StyleName())
	}
	if got := pageOf(t, doc, callouts[0]); got != "2" {
		t.Errorf("expected callout on page 2, got %q", got)
	}
}

func TestMarkdownLoader_SoftBreaks(t *testing.T) {
	doc, err := (&MarkdownLoader{}).Load(strings.NewReader("eerste regel\ntweede regel\n"), "x.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	paras := bodyParagraphs(t, doc)
	if len(paras) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paras))
	}
	if paras[0].Contents() != "eerste regel tweede regel" {
		t.Errorf("expected soft break as space, got %q", paras[0].Contents())
	}
}

func TestMarkdownLoader_EmptyInput(t *testing.T) {
	doc, err := (&MarkdownLoader{}).Load(strings.NewReader(""), "leeg.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 0 {
		t.Errorf("expected no pages, got %d", len(doc.Pages))
	}
	if len(bodyParagraphs(t, doc)) != 0 {
		t.Errorf("expected no paragraphs")
	}
}
