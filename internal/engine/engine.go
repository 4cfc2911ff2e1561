// Package engine is the mutation API consumed by editors and services. It
// is stateless: every call reads the text it is given and returns the next
// full text.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/nexusmap/internal/apperr"
	"github.com/starford/nexusmap/internal/identity"
	"github.com/starford/nexusmap/internal/mutate"
	"github.com/starford/nexusmap/internal/outline"
	"github.com/starford/nexusmap/internal/registry"
)

// DefaultMaxDocumentSize bounds the text accepted by the engine.
const DefaultMaxDocumentSize = 4 << 20

// Engine exposes parsing, identity allocation, registry access and the
// structural mutators.
type Engine struct {
	logger  *slog.Logger
	maxSize int
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for mutation records.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMaxDocumentSize sets the largest document, in bytes, the engine
// accepts. Zero keeps the default.
func WithMaxDocumentSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSize = n
		}
	}
}

// WithClock sets the time source stamped on new test definitions.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{logger: slog.Default(), maxSize: DefaultMaxDocumentSize, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckSize rejects text larger than the configured limit.
func (e *Engine) CheckSize(text string) error {
	if len(text) > e.maxSize {
		return fmt.Errorf("%w: document is %d bytes, limit %d", apperr.ErrInvalidDocument, len(text), e.maxSize)
	}
	return nil
}

// Parse builds the outline forest of text.
func (e *Engine) Parse(text string) (*outline.Forest, error) {
	if err := e.CheckSize(text); err != nil {
		return nil, err
	}
	return outline.Parse(text)
}

// EnsureRunningNumbers assigns numbers of family to the target lines.
func (e *Engine) EnsureRunningNumbers(text, family string, targets []int) (string, map[int]int, error) {
	if err := e.CheckSize(text); err != nil {
		return text, nil, err
	}
	return identity.EnsureRunningNumbers(text, family, targets)
}

// LoadRegistry decodes the block named name. A malformed block decodes to
// the zero value together with a *registry.DecodeError.
func LoadRegistry[T any](text, name string) (T, bool, error) {
	return registry.Load[T](text, name)
}

// SaveRegistry writes value into the block named name.
func SaveRegistry[T any](text, name string, value T) (string, error) {
	return registry.Save(text, name, value)
}

// BulkDelete deletes the target nodes, refusing any that have children.
func (e *Engine) BulkDelete(text string, tree *outline.Forest, ids []string) (string, mutate.DeleteResult, error) {
	if err := e.CheckSize(text); err != nil {
		return text, mutate.DeleteResult{}, err
	}
	out, res, err := mutate.BulkDelete(text, tree, ids)
	if err == nil {
		e.logger.Debug("bulk delete",
			slog.Int("requested", len(ids)),
			slog.Int("deleted", res.DeletedCount),
			slog.Int("blocked", len(res.Blocked)))
	}
	return out, res, err
}

// ToggleFlowFlag flips the flow flag of a node and its descendants.
func (e *Engine) ToggleFlowFlag(text string, tree *outline.Forest, id string) (string, mutate.ToggleResult, error) {
	if err := e.CheckSize(text); err != nil {
		return text, mutate.ToggleResult{}, err
	}
	return mutate.ToggleFlowFlag(text, tree, id)
}

// DeleteFlowSubtree removes a whole flow and its registries.
func (e *Engine) DeleteFlowSubtree(text, fid string) (string, mutate.FlowDeleteResult, error) {
	if err := e.CheckSize(text); err != nil {
		return text, mutate.FlowDeleteResult{}, err
	}
	out, res, err := mutate.DeleteFlowSubtree(text, fid)
	if err == nil {
		e.logger.Debug("flow deleted", slog.String("fid", fid), slog.Int("lines", res.RemovedLines))
	}
	return out, res, err
}
