package textutil

import (
	"strings"
	"testing"
	"time"
)

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"one  two", "one two"},
		{"\tone\n\ntwo \u00a0three ", "one two three"},
	}
	for _, tt := range tests {
		if got := CollapseWhitespace(tt.in); got != tt.want {
			t.Errorf("CollapseWhitespace(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestNormalize_ComposesAccents(t *testing.T) {
	// "e" followed by a combining diaeresis.
	got := Normalize("  clie\u0308nt  ")
	if got != "cli\u00ebnt" {
		t.Errorf("expected composed form, got %q", got)
	}
}

func TestWordCount(t *testing.T) {
	if n := WordCount("De cel is de kleinste\neenheid."); n != 6 {
		t.Errorf("expected 6 words, got %d", n)
	}
	if n := WordCount(" \n\t "); n != 0 {
		t.Errorf("expected 0 words for whitespace, got %d", n)
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank(" \n\t") {
		t.Error("expected whitespace to be blank")
	}
	if IsBlank(" x ") {
		t.Error("expected text not to be blank")
	}
}

func TestEscapeControl(t *testing.T) {
	got := EscapeControl("a\nb\tc\u00add\\e")
	want := `a\nb\tc\u00ADd\\e`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if strings.ContainsAny(got, "\n\t") {
		t.Error("escaped output must not contain raw control characters")
	}
}

func TestSnippet_Truncates(t *testing.T) {
	s := strings.Repeat("abcdefghij", 20)
	got := Snippet(s, 120)
	if len([]rune(got)) != 120 {
		t.Fatalf("expected 120 runes, got %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got[len(got)-5:])
	}
	if short := Snippet("  kort  ", 120); short != "kort" {
		t.Errorf("expected trimmed snippet, got %q", short)
	}
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("CET", 3600))
	if got := Timestamp(ts); got != "20260304T040607Z" {
		t.Errorf("expected UTC timestamp, got %q", got)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Anatomie & Fysiologie N4", "anatomie-fysiologie-n4"},
		{"  Cliënt--zorg  ", "client-zorg"},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
	if got := Slugify(strings.Repeat("ab-", 40)); len(got) > 50 || strings.HasSuffix(got, "-") {
		t.Errorf("expected slug capped at 50 without trailing dash, got %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"chapter.json", "chapter.json"},
		{"../../etc/passwd", "passwd"},
		{`C:\books\hoofdstuk 1.docx`, "hoofdstuk 1.docx"},
		{"..", "unnamed"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestContentHash(t *testing.T) {
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got := ContentHash([]byte("hello world")); got != want {
		t.Errorf("expected hash %q, got %q", want, got)
	}
}
