// Package mutate implements the structural edits applied to a document.
// Every operation takes the full text and returns the full next text with
// the outline and all registries rewritten together.
package mutate

import (
	"fmt"
	"strings"

	"github.com/starford/nexusmap/internal/apperr"
	"github.com/starford/nexusmap/internal/identity"
	"github.com/starford/nexusmap/internal/outline"
)

// Block reasons reported for targets a mutation refused.
const (
	ReasonHasChildren = "has children"
	ReasonNotFound    = "not found"
	ReasonDuplicate   = "duplicate target"
)

// Blocked is a target a mutation refused, with the reason.
type Blocked struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// snapshot pairs the text being edited with a parse of exactly that text.
// resolve maps ids from the caller's tree onto it.
type snapshot struct {
	text  string
	tree  *outline.Forest
	given *outline.Forest
}

// load parses text. tree is the caller's parse; when it was built from a
// different snapshot its ids are rebound to the current one.
func load(text string, tree *outline.Forest) (*snapshot, error) {
	text = outline.Normalize(text)
	if tree != nil && strings.Join(tree.Lines(), "\n") == text {
		return &snapshot{text: text, tree: tree}, nil
	}
	cur, err := outline.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidDocument, err)
	}
	return &snapshot{text: text, tree: cur, given: tree}, nil
}

func (s *snapshot) resolve(id string) (*outline.Node, bool) {
	if s.given == nil {
		return s.tree.Node(id)
	}
	n, ok := s.given.Node(id)
	if !ok {
		return nil, false
	}
	return identity.Rebind(s.given, s.tree, n)
}

func (s *snapshot) lines() []string {
	return strings.Split(s.text, "\n")
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperr.ErrInvalidMutation, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperr.ErrNotFound, fmt.Sprintf(format, args...))
}
