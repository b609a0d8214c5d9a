package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gafniasaf/bookgen/internal/textutil"
)

// Outcome classifies a finished run.
type Outcome string

const (
	Clean  Outcome = "clean"  // Ran without recorded problems
	Issues Outcome = "issues" // Ran with per-item failures or aborted passes
	Failed Outcome = "failed" // Hard failure: QA violations or a fatal condition
)

// Scope describes the located chapter range.
type Scope struct {
	Start      int
	End        int
	StartPage  string
	EndPage    string
	StartFound bool
	EndFound   bool
}

// Report is the run report of one document.
type Report struct {
	RunID    string
	Document string
	Path     string
	Checksum string
	Started  time.Time
	Finished time.Time

	Scope Scope

	BodyStory     int // -1 until a body story was selected
	BodyStoryName string
	BodyWords     int

	Passes []*PassResult
	Fatal  string
}

// New returns an empty report for a document.
func New(runID, document, path, checksum string, started time.Time) *Report {
	return &Report{
		RunID:     runID,
		Document:  document,
		Path:      path,
		Checksum:  checksum,
		Started:   started,
		BodyStory: -1,
	}
}

// Add appends a pass result.
func (r *Report) Add(p *PassResult) {
	r.Passes = append(r.Passes, p)
}

// Pass returns the result of the named pass, or nil.
func (r *Report) Pass(name string) *PassResult {
	for _, p := range r.Passes {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Violations returns the total number of QA findings.
func (r *Report) Violations() int {
	n := 0
	for _, p := range r.Passes {
		if p.Kind == QA {
			n += len(p.Violations)
		}
	}
	return n
}

// Outcome classifies the run from its passes and fatal reason.
func (r *Report) Outcome() Outcome {
	if r.Fatal != "" || r.Violations() > 0 {
		return Failed
	}
	for _, p := range r.Passes {
		if p.HasIssues() {
			return Issues
		}
	}
	return Clean
}

// Passed reports whether the run is not a hard failure.
func (r *Report) Passed() bool {
	return r.Outcome() != Failed
}

// Render returns the report text. Sections always appear in this order:
// identity, scope, body story, counters per pass, samples per pass, result.
func (r *Report) Render() string {
	var b strings.Builder
	line := func(key string, value any) {
		fmt.Fprintf(&b, "%s=%s\n", key, textutil.EscapeControl(fmt.Sprint(value)))
	}

	b.WriteString("# BOOKGEN RUN REPORT\n")
	line("RUN_ID", r.RunID)
	line("DOCUMENT", r.Document)
	line("DOCUMENT_PATH", r.Path)
	line("DOCUMENT_SHA256", r.Checksum)
	line("STARTED", formatTime(r.Started))
	line("FINISHED", formatTime(r.Finished))

	b.WriteString("\n# SCOPE\n")
	line("SCOPE_START", r.Scope.Start)
	line("SCOPE_END", r.Scope.End)
	line("SCOPE_START_PAGE", r.Scope.StartPage)
	line("SCOPE_END_PAGE", r.Scope.EndPage)
	line("START_ANCHOR_FOUND", r.Scope.StartFound)
	line("END_ANCHOR_FOUND", r.Scope.EndFound)

	b.WriteString("\n# BODY STORY\n")
	line("BODY_STORY_INDEX", r.BodyStory)
	line("BODY_STORY_NAME", r.BodyStoryName)
	line("BODY_STORY_WORDS", r.BodyWords)

	b.WriteString("\n# COUNTERS\n")
	for _, p := range r.Passes {
		fmt.Fprintf(&b, "[%s]\n", p.Name)
		line("KIND", p.Kind)
		line("TOTAL_MATCHES", p.Found)
		line("CHANGED", p.Changed)
		line("REMOVED", p.Removed)
		line("FAILED", p.Failed)
		if p.Kind == QA {
			line("VIOLATIONS", len(p.Violations))
		}
		for _, c := range p.Extra {
			line(counterKey(c.Name), c.Value)
		}
		if p.Abort != "" {
			line("ABORTED", p.Abort)
		}
	}

	b.WriteString("\n# SAMPLES\n")
	for _, p := range r.Passes {
		fmt.Fprintf(&b, "[%s] samples=%d dropped=%d\n", p.Name, len(p.Samples), p.Dropped)
		for _, s := range p.Samples {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
		for _, v := range p.Violations {
			fmt.Fprintf(&b, "  ! %s\n", v)
		}
	}

	b.WriteString("\n# RESULT\n")
	outcome := r.Outcome()
	line("OUTCOME", outcome)
	line("TOTAL_VIOLATIONS", r.Violations())
	if r.Fatal != "" {
		line("FATAL", r.Fatal)
	}
	if outcome == Failed {
		b.WriteString("RESULT=FAIL\n")
	} else {
		b.WriteString("RESULT=PASS\n")
	}
	return b.String()
}

func counterKey(name string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(name))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// FileName returns the report file name: document slug, UTC start time and
// run ID, so runs of the same document in the same second keep their own file.
func (r *Report) FileName() string {
	slug := textutil.Slugify(r.Document)
	if slug == "" {
		slug = "document"
	}
	started := r.Started
	if started.IsZero() {
		started = time.Now()
	}
	name := slug + "__" + textutil.Timestamp(started)
	if id := textutil.Slugify(r.RunID); id != "" {
		name += "__" + id
	}
	return name + ".report.txt"
}

// Write renders the report into dir and returns the file path. The file is
// written to a temporary name first and renamed into place.
func Write(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, r.FileName())

	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(r.Render()); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename report: %w", err)
	}
	return path, nil
}

// ParseCounters reads the counter section of a rendered report back into
// pass name -> key -> value, for tooling that gates on report contents.
func ParseCounters(text string) map[string]map[string]int {
	out := make(map[string]map[string]int)
	section := ""
	var pass string
	for _, ln := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(ln, "# "):
			section = ln
			pass = ""
		case section != "# COUNTERS":
		case strings.HasPrefix(ln, "[") && strings.HasSuffix(ln, "]"):
			pass = strings.Trim(ln, "[]")
			out[pass] = make(map[string]int)
		case pass != "":
			key, val, ok := strings.Cut(ln, "=")
			if !ok {
				continue
			}
			if n, err := strconv.Atoi(val); err == nil {
				out[pass][key] = n
			}
		}
	}
	return out
}
