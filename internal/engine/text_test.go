package engine

import (
	"strings"
	"testing"
)

func TestTextLoader_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	doc, err := (&TextLoader{}).Load(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Name != "notes" {
		t.Errorf("expected name %q, got %q", "notes", doc.Name)
	}
	paras := bodyParagraphs(t, doc)
	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(paras))
	}

	want := []string{
		"First paragraph line one.\nFirst paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	for i, w := range want {
		if paras[i].Contents() != w {
			t.Errorf("paragraph[%d]: expected %q, got %q", i, w, paras[i].Contents())
		}
	}
}

func TestTextLoader_FormFeedPages(t *testing.T) {
	input := "Pagina een.\n\nNog een.\fPagina twee.\f"
	doc, err := (&TextLoader{}).Load(strings.NewReader(input), "book.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(doc.Pages))
	}
	paras := bodyParagraphs(t, doc)
	wantPages := []string{"1", "1", "2"}
	for i, w := range wantPages {
		if got := pageOf(t, doc, paras[i]); got != w {
			t.Errorf("paragraph[%d]: expected page %q, got %q", i, w, got)
		}
	}
}

func TestTextLoader_EmptyInput(t *testing.T) {
	doc, err := (&TextLoader{}).Load(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "empty" {
		t.Errorf("expected name %q, got %q", "empty", doc.Name)
	}
	if n := len(bodyParagraphs(t, doc)); n != 0 {
		t.Errorf("expected 0 paragraphs for empty input, got %d", n)
	}
}

func TestSplitParagraphs_JoinsWrappedLines(t *testing.T) {
	got, err := splitParagraphs("De cel is\nklein.\r\n\r\n  \nTweede.", " ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "De cel is klein." || got[1] != "Tweede." {
		t.Errorf("unexpected paragraphs: %q", got)
	}
}
