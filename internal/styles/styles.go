// Package styles infers the structural role of a paragraph from its free-text
// style name. The substring heuristics live here and nowhere else.
package styles

import (
	"strings"

	"github.com/gafniasaf/bookgen/internal/layout"
)

// Role is the structural role of a paragraph style.
type Role int

const (
	Body Role = iota
	Heading
	Caption
	List
	NestedList
)

func (r Role) String() string {
	switch r {
	case Heading:
		return "heading"
	case Caption:
		return "caption"
	case List:
		return "list"
	case NestedList:
		return "nested_list"
	default:
		return "body"
	}
}

// IsList reports whether the role is any kind of list item.
func (r Role) IsList() bool { return r == List || r == NestedList }

var (
	listMarkers    = []string{"bullet", "lijst", "list", "opsomming"}
	levelMarkers   = []string{"lvl", "level", "niveau", "nested"}
	headingMarkers = []string{"heading", "kop", "titel", "title"}
	captionMarkers = []string{"caption", "bijschrift", "onderschrift"}
)

// Classify maps one style name to a role. List detection wins over the
// heading and caption markers, so "Bullet Title" is a list style.
func Classify(name string) Role {
	n := strings.ToLower(name)
	switch {
	case containsAny(n, listMarkers):
		if containsAny(n, levelMarkers) {
			return NestedList
		}
		return List
	case containsAny(n, captionMarkers):
		return Caption
	case containsAny(n, headingMarkers):
		return Heading
	}
	return Body
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Map is the style-name to role mapping of one document.
type Map struct {
	roles map[string]Role
}

// Build classifies every style name used by any paragraph of doc, plus every
// style the document defines. Stories that cannot be enumerated are skipped.
func Build(doc *layout.Document) *Map {
	m := &Map{roles: make(map[string]Role)}
	for _, name := range doc.StyleNames() {
		m.add(name)
	}
	for _, s := range doc.Stories {
		paras, err := s.Paragraphs()
		if err != nil {
			continue
		}
		for _, p := range paras {
			m.add(p.StyleName())
		}
	}
	return m
}

func (m *Map) add(name string) {
	if _, ok := m.roles[name]; !ok {
		m.roles[name] = Classify(name)
	}
}

// Role returns the role of a style name. Names not seen while building are
// classified on the fly.
func (m *Map) Role(name string) Role {
	if m == nil {
		return Classify(name)
	}
	if r, ok := m.roles[name]; ok {
		return r
	}
	return Classify(name)
}

// Of returns the role of a paragraph's applied style.
func (m *Map) Of(p *layout.Paragraph) Role {
	return m.Role(p.StyleName())
}

// Len returns the number of classified style names.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.roles)
}
