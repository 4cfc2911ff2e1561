package engine

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// Buffer is the shared text a document is edited through. ReplaceAll must
// apply the new text as a single transaction.
type Buffer interface {
	Get() string
	ReplaceAll(next string) error
}

// Transact reads the whole buffer, computes the next text and writes it
// back in one ReplaceAll. When fn returns the text unchanged nothing is
// written.
func Transact[R any](buf Buffer, fn func(text string) (string, R, error)) (R, error) {
	text := buf.Get()
	next, res, err := fn(text)
	if err != nil {
		return res, err
	}
	if next == text {
		return res, nil
	}
	if err := buf.ReplaceAll(next); err != nil {
		return res, err
	}
	return res, nil
}

// MemoryBuffer is an in-process Buffer. Every replacement gets a new
// revision id.
type MemoryBuffer struct {
	mu       sync.RWMutex
	text     string
	revision string
}

// NewMemoryBuffer creates a buffer holding text.
func NewMemoryBuffer(text string) *MemoryBuffer {
	return &MemoryBuffer{text: text, revision: ulid.Make().String()}
}

// Get returns the current text.
func (b *MemoryBuffer) Get() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// ReplaceAll swaps the whole text.
func (b *MemoryBuffer) ReplaceAll(next string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = next
	b.revision = ulid.Make().String()
	return nil
}

// Revision returns the id of the last replacement.
func (b *MemoryBuffer) Revision() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revision
}
