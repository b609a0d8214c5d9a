package layout

import "fmt"

// Scope is an inclusive range of page offsets.
type Scope struct {
	Start int
	End   int
}

// FullScope covers every page of d.
func FullScope(d *Document) Scope {
	end := d.LastPage()
	if end < 0 {
		end = 0
	}
	return Scope{Start: 0, End: end}
}

// Contains reports whether the page offset lies within the scope.
func (s Scope) Contains(offset int) bool {
	return offset >= s.Start && offset <= s.End
}

// Includes reports whether the paragraph resolves to a page within the scope.
func (s Scope) Includes(p *Paragraph) bool {
	off, ok := PageOffsetOf(p)
	return ok && s.Contains(off)
}

func (s Scope) String() string {
	return fmt.Sprintf("[%d, %d]", s.Start, s.End)
}
