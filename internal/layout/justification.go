package layout

import (
	"fmt"
	"strings"
)

// Justification is the alignment applied to a line holding a single word.
type Justification int

const (
	LeftAligned Justification = iota
	CenterAligned
	RightAligned
	FullyJustified
)

var justificationNames = []string{
	LeftAligned:    "left_align",
	CenterAligned:  "center_align",
	RightAligned:   "right_align",
	FullyJustified: "fully_justified",
}

func (j Justification) String() string {
	if j < 0 || int(j) >= len(justificationNames) {
		return fmt.Sprintf("justification(%d)", int(j))
	}
	return justificationNames[j]
}

// ParseJustification accepts the names produced by String, case-insensitively.
func ParseJustification(s string) (Justification, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range justificationNames {
		if s == name {
			return Justification(i), nil
		}
	}
	return 0, fmt.Errorf("layout: unknown justification %q", s)
}
