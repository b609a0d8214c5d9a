// Package chapter locates the page range of the current chapter from two
// anchor expressions.
package chapter

import (
	"context"
	"fmt"

	"github.com/gafniasaf/bookgen/internal/layout"
	"github.com/gafniasaf/bookgen/internal/search"
)

// Default anchors: the first numbered section of this chapter and of the next.
const (
	DefaultStartAnchor = `^1\.1(?:\s|$)`
	DefaultEndAnchor   = `^2\.1(?:\s|$)`
)

// Result is a located chapter range.
type Result struct {
	Scope      layout.Scope
	StartFound bool
	EndFound   bool
	StartPage  string // Printed name of the first page in scope
	EndPage    string // Printed name of the last page in scope
}

// Locate searches the whole document for the anchors. The start anchor's
// earliest page opens the chapter; the page before the first end anchor
// after it closes the chapter. End anchors on or before the start page are
// skipped, so a table-of-contents entry for the next chapter does not close
// this one. Missing anchors fall back to the first and last page. Only an
// invalid expression is an error.
func Locate(ctx context.Context, doc *layout.Document, startAnchor, endAnchor string) (Result, error) {
	if startAnchor == "" {
		startAnchor = DefaultStartAnchor
	}
	if endAnchor == "" {
		endAnchor = DefaultEndAnchor
	}
	for _, expr := range []string{startAnchor, endAnchor} {
		if err := search.Grep(expr).Validate(); err != nil {
			return Result{}, fmt.Errorf("chapter anchor: %w", err)
		}
	}

	last := doc.LastPage()
	if last < 0 {
		last = 0
	}
	res := Result{Scope: layout.Scope{Start: 0, End: last}}

	target := search.Target{Doc: doc}
	starts, err := search.FindAll(ctx, target, search.Grep(startAnchor))
	if err != nil {
		return Result{}, fmt.Errorf("search start anchor: %w", err)
	}
	if page, ok := firstPage(starts, -1); ok {
		res.Scope.Start = page
		res.StartFound = true
	}

	ends, err := search.FindAll(ctx, target, search.Grep(endAnchor))
	if err != nil {
		return Result{}, fmt.Errorf("search end anchor: %w", err)
	}
	if page, ok := firstPage(ends, res.Scope.Start); ok {
		res.Scope.End = page - 1
		res.EndFound = true
	}
	if res.Scope.End < res.Scope.Start {
		res.Scope.End = last
		res.EndFound = false
	}

	res.StartPage = doc.PageName(res.Scope.Start)
	res.EndPage = doc.PageName(res.Scope.End)
	return res, nil
}

// firstPage returns the lowest page offset greater than after among matches
// that resolve to a page.
func firstPage(ms []search.Match, after int) (int, bool) {
	best, found := 0, false
	for _, m := range ms {
		if !m.OnPage || m.Page <= after {
			continue
		}
		if !found || m.Page < best {
			best, found = m.Page, true
		}
	}
	return best, found
}
