package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gafniasaf/bookgen/internal/chapter"
	"github.com/gafniasaf/bookgen/internal/layout"
	"github.com/gafniasaf/bookgen/internal/passes"
	"github.com/gafniasaf/bookgen/internal/report"
	"github.com/gafniasaf/bookgen/internal/selector"
	"github.com/gafniasaf/bookgen/internal/styles"
	"github.com/google/uuid"
)

var (
	// ErrNoBodyStory is fatal: no story holds any in-scope text.
	ErrNoBodyStory = errors.New("pipeline: no body story found")

	// ErrQAFailed is wrapped by *QAError when a QA scan found violations.
	ErrQAFailed = errors.New("pipeline: QA scans found violations")

	// ErrPrecondition is returned when a pass is run out of order.
	ErrPrecondition = errors.New("pipeline: pass precondition not met")

	// ErrUnknownPass is returned for a pass name the runner does not have.
	ErrUnknownPass = errors.New("pipeline: unknown pass")
)

// QAError reports a hard QA failure. It is raised after every scan ran and
// the report was complete.
type QAError struct {
	Violations int
	Passes     []string // Scans with at least one violation
}

func (e *QAError) Error() string {
	return fmt.Sprintf("QA failed: %d violation(s) in %s", e.Violations, strings.Join(e.Passes, ", "))
}

func (e *QAError) Unwrap() error { return ErrQAFailed }

// Pass describes one step of a run.
type Pass struct {
	Name     string
	Kind     report.Kind
	Requires []string // Passes that must have run first
	Run      passes.Func
}

// DefaultPasses returns the production pass order: normalization first,
// then QA scans.
func DefaultPasses() []Pass {
	return []Pass{
		{Name: passes.NameHeadingLabels, Kind: report.Normalize, Run: passes.HeadingLabels},
		{Name: passes.NameHeadingBold, Kind: report.Normalize, Requires: []string{passes.NameHeadingLabels}, Run: passes.HeadingBold},
		{Name: passes.NameTrailingEmpty, Kind: report.Normalize, Run: passes.TrailingEmpty},
		{Name: passes.NameSoftHyphens, Kind: report.Normalize, Run: passes.SoftHyphens},
		{Name: passes.NameJustification, Kind: report.Normalize, Run: passes.Justification},
		{Name: passes.NameNestedLists, Kind: report.QA, Run: passes.NestedLists},
		{Name: passes.NameEmptyListItems, Kind: report.QA, Run: passes.EmptyListItems},
	}
}

// ValidateOrder checks that names are unique, every requirement comes
// earlier and no normalization pass follows a QA scan.
func ValidateOrder(ps []Pass) error {
	seen := make(map[string]bool, len(ps))
	qa := false
	for _, p := range ps {
		if p.Name == "" || p.Run == nil {
			return fmt.Errorf("pass %q: name and run function are required", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("pass %q: listed twice", p.Name)
		}
		for _, req := range p.Requires {
			if !seen[req] {
				return fmt.Errorf("pass %q: requires %q to run first", p.Name, req)
			}
		}
		switch p.Kind {
		case report.QA:
			qa = true
		case report.Normalize:
			if qa {
				return fmt.Errorf("pass %q: normalization after QA scans", p.Name)
			}
		default:
			return fmt.Errorf("pass %q: unknown kind %q", p.Name, p.Kind)
		}
		seen[p.Name] = true
	}
	return nil
}

// Options configure a Runner.
type Options struct {
	StartAnchor string
	EndAnchor   string
	Passes      passes.Options
	ReportDir   string

	RunID string           // Generated when empty
	Now   func() time.Time // Defaults to time.Now

	// OnPass is called after every pass with its result.
	OnPass func(*report.PassResult)
}

// Runner drives one run over one document: locate the chapter, select the
// body story, run the passes in order and write the report. A Runner is not
// safe for concurrent use.
type Runner struct {
	doc    *layout.Document
	passes []Pass
	opts   Options
	log    *slog.Logger

	rep      *report.Report
	target   passes.Target
	prepared bool
	prepErr  error
	done     map[string]bool
	path     string
}

// NewRunner validates the pass list and returns a Runner. A nil list means
// DefaultPasses.
func NewRunner(doc *layout.Document, ps []Pass, opts Options, log *slog.Logger) (*Runner, error) {
	if ps == nil {
		ps = DefaultPasses()
	}
	if err := ValidateOrder(ps); err != nil {
		return nil, err
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ReportDir == "" {
		opts.ReportDir = "."
	}
	return &Runner{
		doc:    doc,
		passes: ps,
		opts:   opts,
		log:    log.With("run_id", opts.RunID, "document", doc.Name),
		rep:    report.New(opts.RunID, doc.Name, doc.Path, doc.Checksum, opts.Now()),
		done:   make(map[string]bool, len(ps)),
	}, nil
}

// Report returns the report being built.
func (r *Runner) Report() *report.Report { return r.rep }

// Passes returns the pass names in run order.
func (r *Runner) Passes() []string {
	names := make([]string, len(r.passes))
	for i, p := range r.passes {
		names[i] = p.Name
	}
	return names
}

// Prepare locates the chapter and selects the body story. It runs once; later
// calls return the first result.
func (r *Runner) Prepare(ctx context.Context) error {
	if r.prepared {
		return r.prepErr
	}
	r.prepared = true
	r.prepErr = r.prepare(ctx)
	if r.prepErr != nil && r.rep.Fatal == "" {
		r.rep.Fatal = r.prepErr.Error()
	}
	return r.prepErr
}

func (r *Runner) prepare(ctx context.Context) error {
	loc, err := chapter.Locate(ctx, r.doc, r.opts.StartAnchor, r.opts.EndAnchor)
	if err != nil {
		return err
	}
	r.rep.Scope = report.Scope{
		Start:      loc.Scope.Start,
		End:        loc.Scope.End,
		StartPage:  loc.StartPage,
		EndPage:    loc.EndPage,
		StartFound: loc.StartFound,
		EndFound:   loc.EndFound,
	}
	if !loc.StartFound || !loc.EndFound {
		r.log.Warn("chapter anchor not found, using document bounds",
			"start_found", loc.StartFound,
			"end_found", loc.EndFound,
		)
	}
	r.log.Info("chapter located", "scope", loc.Scope.String(), "start_page", loc.StartPage, "end_page", loc.EndPage)

	sel := selector.Select(ctx, r.doc, &loc.Scope)
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, i := range sel.Unreadable {
		r.log.Warn("story unreadable during selection", "story", i)
	}
	if !sel.Found() {
		r.log.Error("no body story", "stories", len(r.doc.Stories))
		return ErrNoBodyStory
	}
	story := r.doc.Stories[sel.Index]
	r.rep.BodyStory = sel.Index
	r.rep.BodyStoryName = story.Name
	r.rep.BodyWords = sel.Words
	r.log.Info("body story selected", "story", sel.Index, "name", story.Name, "words", sel.Words)

	r.target = passes.Target{
		Doc:   r.doc,
		Story: story,
		Scope: loc.Scope,
		Roles: styles.Build(r.doc),
	}
	return nil
}

// RunPass runs a single pass. Its requirements must have run, and a QA scan
// runs only after every normalization pass.
func (r *Runner) RunPass(ctx context.Context, name string) (*report.PassResult, error) {
	idx := -1
	for i, p := range r.passes {
		if p.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPass, name)
	}
	p := r.passes[idx]
	if r.done[name] {
		return nil, fmt.Errorf("%w: %s already ran", ErrPrecondition, name)
	}
	for _, req := range p.Requires {
		if !r.done[req] {
			return nil, fmt.Errorf("%w: %s requires %s", ErrPrecondition, name, req)
		}
	}
	if p.Kind == report.QA {
		for _, other := range r.passes[:idx] {
			if other.Kind == report.Normalize && !r.done[other.Name] {
				return nil, fmt.Errorf("%w: %s runs after %s", ErrPrecondition, name, other.Name)
			}
		}
	}
	if err := r.Prepare(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	res := p.Run(ctx, r.target, r.opts.Passes)
	res.Name, res.Kind = p.Name, p.Kind
	r.rep.Add(res)
	r.done[name] = true

	r.log.Info("pass complete",
		"pass", res.Name,
		"kind", res.Kind,
		"found", res.Found,
		"changed", res.Changed,
		"removed", res.Removed,
		"failed", res.Failed,
		"violations", len(res.Violations),
		"duration", time.Since(start),
	)
	if res.Abort != "" {
		r.log.Warn("pass aborted", "pass", res.Name, "reason", res.Abort)
	}
	if r.opts.OnPass != nil {
		r.opts.OnPass(res)
	}
	return res, nil
}

// Run prepares and runs every remaining pass in order. QA violations are
// returned as *QAError once all scans finished.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.Prepare(ctx); err != nil {
		return err
	}
	for _, p := range r.passes {
		if r.done[p.Name] {
			continue
		}
		if err := ctx.Err(); err != nil {
			r.fatal(fmt.Errorf("cancelled before %s: %w", p.Name, err))
			return err
		}
		if _, err := r.RunPass(ctx, p.Name); err != nil {
			r.fatal(err)
			return err
		}
	}

	if n := r.rep.Violations(); n > 0 {
		qe := &QAError{Violations: n}
		for _, res := range r.rep.Passes {
			if res.Kind == report.QA && len(res.Violations) > 0 {
				qe.Passes = append(qe.Passes, res.Name)
			}
		}
		return qe
	}
	return nil
}

func (r *Runner) fatal(err error) {
	if r.rep.Fatal == "" {
		r.rep.Fatal = err.Error()
	}
}

// Finalize stamps the finish time and writes the report. It writes once;
// later calls return the same path.
func (r *Runner) Finalize() (string, error) {
	if r.path != "" {
		return r.path, nil
	}
	r.rep.Finished = r.opts.Now()
	path, err := report.Write(r.opts.ReportDir, r.rep)
	if err != nil {
		r.log.Error("report write failed", "error", err)
		return "", err
	}
	r.path = path
	r.log.Info("report written",
		"path", path,
		"outcome", r.rep.Outcome(),
		"violations", r.rep.Violations(),
	)
	return path, nil
}

// Execute runs every pass and always writes the report, including when a
// pass panics. The panic is returned as an error.
func (r *Runner) Execute(ctx context.Context) (path string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pipeline panic: %v", rec)
			r.fatal(err)
			r.log.Error("pass panicked", "error", err)
		}
		p, ferr := r.Finalize()
		path = p
		if ferr != nil {
			if err == nil {
				err = ferr
			} else {
				err = errors.Join(err, ferr)
			}
		}
	}()
	return "", r.Run(ctx)
}
