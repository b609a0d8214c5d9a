// Package engine opens documents from disk into the layout model and writes
// them back. Each file format has a Loader; formats that can be written also
// have a Saver.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gafniasaf/bookgen/internal/layout"
	"github.com/gafniasaf/bookgen/internal/textutil"
)

// ErrUnsupportedFormat is returned when no loader or saver handles a file
// extension.
var ErrUnsupportedFormat = errors.New("engine: unsupported format")

// Loader converts raw document bytes into a layout document.
type Loader interface {
	Load(r io.Reader, filename string) (*layout.Document, error)
}

// Saver writes a layout document in one file format.
type Saver interface {
	Save(w io.Writer, doc *layout.Document) error
}

// SupportedExtensions lists file extensions that can be opened.
var SupportedExtensions = map[string]bool{
	".json":     true,
	".docx":     true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".txt":      true,
	".csv":      true,
}

// ForFile returns the appropriate loader for a filename.
func ForFile(filename string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONLoader{}, nil
	case ".docx":
		return &DOCXLoader{}, nil
	case ".md", ".markdown":
		return &MarkdownLoader{}, nil
	case ".html", ".htm":
		return &HTMLLoader{}, nil
	case ".pdf":
		return &PDFLoader{}, nil
	case ".txt":
		return &TextLoader{}, nil
	case ".csv":
		return &CSVLoader{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// SaverFor returns the saver for a filename.
func SaverFor(filename string) (Saver, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONSaver{}, nil
	case ".docx":
		return &DOCXSaver{}, nil
	default:
		return nil, fmt.Errorf("%w: cannot save %s", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// CanSave reports whether documents of this extension can be written back.
func CanSave(filename string) bool {
	_, err := SaverFor(filename)
	return err == nil
}

// Engine opens and closes documents.
type Engine struct {
	// PDFFallback runs pdftotext when the PDF library cannot extract text.
	PDFFallback bool

	log *slog.Logger
}

// New creates an Engine.
func New(log *slog.Logger) *Engine {
	return &Engine{log: log}
}

func (e *Engine) loader(filename string) (Loader, error) {
	l, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	if pl, ok := l.(*PDFLoader); ok {
		pl.FallbackPdftotext = e.PDFFallback
	}
	return l, nil
}

// Load reads a document from r. The result carries the checksum of the raw
// bytes and starts unmodified.
func (e *Engine) Load(r io.Reader, filename string) (*layout.Document, error) {
	l, err := e.loader(filename)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	doc, err := l.Load(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	if doc.Name == "" {
		doc.Name = docName(filename)
	}
	doc.Format = strings.ToLower(filepath.Ext(filename))
	doc.Checksum = textutil.ContentHash(data)
	doc.MarkClean()
	return doc, nil
}

// Open loads the document at path.
func (e *Engine) Open(ctx context.Context, path string) (*layout.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	doc, err := e.Load(f, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	doc.Path = path
	e.log.Debug("document opened",
		"path", path,
		"format", doc.Format,
		"pages", len(doc.Pages),
		"stories", len(doc.Stories),
	)
	return doc, nil
}

// Close releases the document. Unless discard is set, a modified document is
// saved back to its source path first.
func (e *Engine) Close(doc *layout.Document, discard bool) error {
	if discard || !doc.Modified() {
		return nil
	}
	if doc.Path == "" {
		return fmt.Errorf("close %s: document has no path", doc.Name)
	}
	return e.SaveAs(doc, doc.Path)
}

// SaveAs writes the document to path through the saver for its extension.
// The file is replaced atomically.
func (e *Engine) SaveAs(doc *layout.Document, path string) error {
	s, err := SaverFor(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bookgen-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := s.Save(tmp, doc); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	doc.MarkClean()
	e.log.Info("document saved", "path", path, "format", filepath.Ext(path))
	return nil
}

func docName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
