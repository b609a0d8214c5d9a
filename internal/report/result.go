// Package report collects pass results into the run report and renders it
// as line-oriented text.
package report

import (
	"fmt"

	"github.com/gafniasaf/bookgen/internal/textutil"
)

// Kind distinguishes normalization passes from QA scans.
type Kind string

const (
	Normalize Kind = "normalize"
	QA        Kind = "qa"
)

// DefaultSampleLimit bounds the samples kept per pass.
const DefaultSampleLimit = 15

// Counter is a pass-specific named counter. Counters render in the order
// they were first touched.
type Counter struct {
	Name  string
	Value int
}

// Violation is one QA finding. Snippet is expected to be escaped already.
type Violation struct {
	Paragraph int
	Style     string
	Page      string // Printed page name, empty when unresolved
	Snippet   string
}

func (v Violation) String() string {
	page := v.Page
	if page == "" {
		page = "?"
	}
	return fmt.Sprintf("paragraph=%d page=%s style=\"%s\" text=\"%s\"", v.Paragraph, page, textutil.EscapeControl(v.Style), v.Snippet)
}

// PassResult is the outcome of one pass.
type PassResult struct {
	Name    string
	Kind    Kind
	Found   int
	Changed int
	Removed int
	Failed  int
	Extra   []Counter

	Samples    []string
	Dropped    int // Samples discarded once the limit was reached
	Violations []Violation

	Abort string // Set when the pass could not run at all

	limit int
}

// NewPassResult returns an empty result keeping at most limit samples.
func NewPassResult(name string, kind Kind, limit int) *PassResult {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}
	return &PassResult{Name: name, Kind: kind, limit: limit}
}

// Sample records a formatted sample if the limit allows.
func (r *PassResult) Sample(format string, args ...any) {
	if len(r.Samples) >= r.limit {
		r.Dropped++
		return
	}
	r.Samples = append(r.Samples, textutil.EscapeControl(fmt.Sprintf(format, args...)))
}

// Add increments a named counter.
func (r *PassResult) Add(name string, n int) {
	for i := range r.Extra {
		if r.Extra[i].Name == name {
			r.Extra[i].Value += n
			return
		}
	}
	r.Extra = append(r.Extra, Counter{Name: name, Value: n})
}

// Count returns the value of a named counter.
func (r *PassResult) Count(name string) int {
	for _, c := range r.Extra {
		if c.Name == name {
			return c.Value
		}
	}
	return 0
}

// Violate records a QA finding. Every violation is kept.
func (r *PassResult) Violate(v Violation) {
	r.Violations = append(r.Violations, v)
	r.Found++
}

// Aborted marks the pass as unable to run and zeroes its progress.
func (r *PassResult) Aborted(err error) {
	r.Abort = err.Error()
	r.Changed, r.Removed = 0, 0
}

// Progress returns the number of edits the pass made.
func (r *PassResult) Progress() int {
	return r.Changed + r.Removed
}

// HasIssues reports recorded per-item failures or an abort.
func (r *PassResult) HasIssues() bool {
	return r.Failed > 0 || r.Abort != ""
}
