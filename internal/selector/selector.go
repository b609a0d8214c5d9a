// Package selector picks the story holding a chapter's main body text.
package selector

import (
	"context"

	"github.com/gafniasaf/bookgen/internal/layout"
	"github.com/gafniasaf/bookgen/internal/textutil"
)

// NotFound is the Index of a Selection without a body story.
const NotFound = -1

// Selection is the outcome of Select.
type Selection struct {
	Index      int   // Winning story index, or NotFound
	Words      int   // Word count of the winner
	Counts     []int // Per-story word counts, by story index
	Unreadable []int // Stories whose paragraphs could not be enumerated
}

// Found reports whether a body story was selected.
func (s Selection) Found() bool { return s.Index != NotFound }

// Select counts words per story over paragraphs that resolve to a page,
// restricted to scope when it is non-nil. The story with the strictly
// greatest count wins; ties go to the lower index. The heuristic has no
// confidence threshold, so a body split across two similar stories picks
// the first.
func Select(ctx context.Context, doc *layout.Document, scope *layout.Scope) Selection {
	sel := Selection{Index: NotFound, Counts: make([]int, len(doc.Stories))}
	for i, s := range doc.Stories {
		if ctx.Err() != nil {
			break
		}
		paras, err := s.Paragraphs()
		if err != nil {
			sel.Unreadable = append(sel.Unreadable, i)
			continue
		}
		n := 0
		for _, p := range paras {
			off, ok := layout.PageOffsetOf(p)
			if !ok {
				continue
			}
			if scope != nil && !scope.Contains(off) {
				continue
			}
			n += textutil.WordCount(p.Contents())
		}
		sel.Counts[i] = n
		if n > sel.Words {
			sel.Index, sel.Words = i, n
		}
	}
	return sel
}
