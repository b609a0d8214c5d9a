package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gafniasaf/bookgen/internal/layout"
)

func testEngine() *Engine {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func bodyParagraphs(t *testing.T, doc *layout.Document) []*layout.Paragraph {
	t.Helper()
	if len(doc.Stories) == 0 {
		t.Fatalf("expected at least one story")
	}
	paras, err := doc.Stories[0].Paragraphs()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return paras
}

func pageOf(t *testing.T, doc *layout.Document, p *layout.Paragraph) string {
	t.Helper()
	off, ok := layout.PageOffsetOf(p)
	if !ok {
		return ""
	}
	return doc.PageName(off)
}

func TestForFile(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"book.json", "*engine.JSONLoader"},
		{"book.DOCX", "*engine.DOCXLoader"},
		{"book.md", "*engine.MarkdownLoader"},
		{"book.markdown", "*engine.MarkdownLoader"},
		{"book.htm", "*engine.HTMLLoader"},
		{"book.pdf", "*engine.PDFLoader"},
		{"book.txt", "*engine.TextLoader"},
		{"book.csv", "*engine.CSVLoader"},
	}
	for _, tt := range tests {
		l, err := ForFile(tt.name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got := typeName(l); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}

	if _, err := ForFile("book.indd"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := SaverFor("book.md"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat for markdown saver, got %v", err)
	}
	if !CanSave("x.json") || !CanSave("x.docx") || CanSave("x.pdf") {
		t.Errorf("unexpected CanSave results")
	}
	if !IsSupportedExtension("Chapter.HTML") || IsSupportedExtension("chapter.idml") {
		t.Errorf("unexpected IsSupportedExtension results")
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *JSONLoader:
		return "*engine.JSONLoader"
	case *DOCXLoader:
		return "*engine.DOCXLoader"
	case *MarkdownLoader:
		return "*engine.MarkdownLoader"
	case *HTMLLoader:
		return "*engine.HTMLLoader"
	case *PDFLoader:
		return "*engine.PDFLoader"
	case *TextLoader:
		return "*engine.TextLoader"
	case *CSVLoader:
		return "*engine.CSVLoader"
	}
	return "unknown"
}

func TestEngine_LoadSetsIdentity(t *testing.T) {
	e := testEngine()
	doc, err := e.Load(strings.NewReader("Eerste alinea.\n\nTweede alinea.\n"), "hoofdstuk-1.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "hoofdstuk-1" {
		t.Errorf("expected name %q, got %q", "hoofdstuk-1", doc.Name)
	}
	if doc.Format != ".txt" {
		t.Errorf("expected format .txt, got %q", doc.Format)
	}
	if len(doc.Checksum) != 64 {
		t.Errorf("expected hex sha256 checksum, got %q", doc.Checksum)
	}
	if doc.Modified() {
		t.Errorf("expected freshly loaded document to be unmodified")
	}
}

func TestEngine_OpenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := testEngine().Open(ctx, "missing.json"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func snapshotFixture() *layout.Document {
	doc := layout.New("anatomie")
	for _, name := range []string{"i", "1", "2"} {
		doc.AddPage(name)
	}
	body := doc.AddStory("Body")
	f0 := body.AddFrame(1)
	f1 := body.AddFrame(2)
	body.AddParagraph(f0, "Heading 1", "1.1 De cel")
	p := body.AddParagraph(f1, "Body", "In de praktijk: let op.")
	p.SetBold(layout.Range{Start: 0, End: 15})
	p.SetSingleWordJustification(layout.FullyJustified)
	p.SetQuirks(layout.Quirks{IgnoreDirect: true})
	locked := body.AddParagraph(-1, "Body", "overset")
	locked.Lock()

	side := doc.AddStory("Sidebar")
	uf := side.AddUnplacedFrame()
	side.AddParagraph(uf, "Caption", "los")
	side.SetUnavailable(errors.New("story is being edited"))

	doc.Style("Body").SetSingleWordJustification(layout.CenterAligned)
	doc.Style("Caption").Lock()
	return doc
}

func TestJSON_RoundTrip(t *testing.T) {
	e := testEngine()
	path := filepath.Join(t.TempDir(), "anatomie.json")
	if err := e.SaveAs(snapshotFixture(), path); err != nil {
		t.Fatalf("save: %v", err)
	}

	doc, err := e.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(doc.Pages) != 3 || doc.PageName(0) != "i" {
		t.Fatalf("expected pages [i 1 2], got %d pages", len(doc.Pages))
	}
	if len(doc.Stories) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(doc.Stories))
	}

	paras := bodyParagraphs(t, doc)
	if len(paras) != 3 {
		t.Fatalf("expected 3 body paragraphs, got %d", len(paras))
	}
	if got := pageOf(t, doc, paras[1]); got != "2" {
		t.Errorf("expected paragraph 1 on page 2, got %q", got)
	}
	if _, ok := layout.PageOffsetOf(paras[2]); ok {
		t.Errorf("expected overset paragraph to have no page")
	}
	if !paras[1].IsBold(layout.Range{Start: 0, End: 15}) {
		t.Errorf("expected bold label to survive, got %v", paras[1].BoldRanges())
	}
	if j, ok := paras[1].LocalJustification(); !ok || j != layout.FullyJustified {
		t.Errorf("expected local fully_justified, got %v (%v)", j, ok)
	}
	if !paras[1].Quirks().IgnoreDirect {
		t.Errorf("expected quirks to survive")
	}
	if !paras[2].Locked() {
		t.Errorf("expected lock to survive")
	}
	if paras[0].SingleWordJustification() != layout.LeftAligned {
		t.Errorf("expected heading to stay left aligned")
	}
	if st, _ := doc.LookupStyle("Body"); st.SingleWordJustification() != layout.CenterAligned {
		t.Errorf("expected Body style center_align, got %v", st.SingleWordJustification())
	}
	if st, _ := doc.LookupStyle("Caption"); !st.Locked() {
		t.Errorf("expected Caption style lock to survive")
	}

	side := doc.Stories[1]
	if _, err := side.Paragraphs(); !errors.Is(err, layout.ErrStoryUnavailable) {
		t.Errorf("expected unavailable sidebar, got %v", err)
	}
	if side.Len() != 1 {
		t.Errorf("expected sidebar contents to survive, got %d paragraphs", side.Len())
	}
	if frames := side.Frames(); len(frames) != 1 || frames[0].Placed {
		t.Errorf("expected one unplaced frame, got %+v", frames)
	}
}

func TestJSON_RejectsFrameOutsideDocument(t *testing.T) {
	src := `{"pages":["1"],"stories":[{"name":"Body","frames":[{"page":4}],"paragraphs":[]}]}`
	if _, err := (&JSONLoader{}).Load(strings.NewReader(src), "x.json"); err == nil {
		t.Fatalf("expected error for frame on missing page")
	}
}

func TestEngine_CloseSavesModified(t *testing.T) {
	e := testEngine()
	path := filepath.Join(t.TempDir(), "book.json")
	if err := e.SaveAs(snapshotFixture(), path); err != nil {
		t.Fatalf("save: %v", err)
	}
	before, _ := os.ReadFile(path)

	doc, err := e.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := e.Close(doc, false); err != nil {
		t.Fatalf("close unmodified: %v", err)
	}
	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Errorf("expected unmodified close to leave file untouched")
	}

	paras := bodyParagraphs(t, doc)
	if err := paras[0].SetContents("1.1 De cel en het weefsel"); err != nil {
		t.Fatalf("set contents: %v", err)
	}
	if err := e.Close(doc, true); err != nil {
		t.Fatalf("discard close: %v", err)
	}
	after, _ = os.ReadFile(path)
	if string(before) != string(after) {
		t.Errorf("expected discarded changes to leave file untouched")
	}

	if err := e.Close(doc, false); err != nil {
		t.Fatalf("close modified: %v", err)
	}
	reloaded, err := e.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := bodyParagraphs(t, reloaded)[0].Contents(); got != "1.1 De cel en het weefsel" {
		t.Errorf("expected saved contents, got %q", got)
	}
}

func TestEngine_CloseReadOnlyFormat(t *testing.T) {
	e := testEngine()
	doc, err := e.Load(strings.NewReader("tekst\u00ad\n"), "book.txt")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	doc.Path = "book.txt"
	bodyParagraphs(t, doc)[0].SetContents("tekst")
	if err := e.Close(doc, false); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDOCX_RoundTrip(t *testing.T) {
	doc := layout.New("hoofdstuk")
	doc.AddPage("1")
	doc.AddPage("2")
	body := doc.AddStory("Body")
	f0 := body.AddFrame(0)
	f1 := body.AddFrame(1)
	body.AddParagraph(f0, "Heading 1", "1.1 De cel")
	p := body.AddParagraph(f0, "Body", "In de praktijk: let op\tnu.")
	p.SetBold(layout.Range{Start: 0, End: 15})
	body.AddParagraph(f1, "Bullet", "eerste regel\ntweede regel")
	body.AddParagraph(f1, "Bullet", "")

	e := testEngine()
	path := filepath.Join(t.TempDir(), "hoofdstuk.docx")
	if err := e.SaveAs(doc, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := e.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	paras := bodyParagraphs(t, got)
	if len(paras) != 4 {
		t.Fatalf("expected 4 paragraphs, got %d", len(paras))
	}
	wantStyles := []string{"Heading 1", "Body", "Bullet", "Bullet"}
	wantText := []string{"1.1 De cel", "In de praktijk: let op\tnu.", "eerste regel\ntweede regel", ""}
	wantPages := []string{"1", "1", "2", "2"}
	for i, p := range paras {
		if p.StyleName() != wantStyles[i] {
			t.Errorf("paragraph %d: expected style %q, got %q", i, wantStyles[i], p.StyleName())
		}
		if p.Contents() != wantText[i] {
			t.Errorf("paragraph %d: expected %q, got %q", i, wantText[i], p.Contents())
		}
		if pg := pageOf(t, got, p); pg != wantPages[i] {
			t.Errorf("paragraph %d: expected page %q, got %q", i, wantPages[i], pg)
		}
	}
	bold := paras[1].BoldRanges()
	if len(bold) != 1 || bold[0] != (layout.Range{Start: 0, End: 15}) {
		t.Errorf("expected bold [0,15), got %v", bold)
	}
}

func TestDOCX_DefaultStyle(t *testing.T) {
	doc := layout.New("x")
	doc.AddPage("1")
	body := doc.AddStory("Body")
	body.AddParagraph(body.AddFrame(0), "", "zonder stijl")

	path := filepath.Join(t.TempDir(), "x.docx")
	e := testEngine()
	if err := e.SaveAs(doc, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := e.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s := bodyParagraphs(t, got)[0].StyleName(); s != DefaultDOCXStyle {
		t.Errorf("expected %q, got %q", DefaultDOCXStyle, s)
	}
}
