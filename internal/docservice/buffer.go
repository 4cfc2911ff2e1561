package docservice

import (
	"github.com/oklog/ulid/v2"

	"github.com/starford/nexusmap/internal/storage"
)

// fileBuffer is an engine.Buffer over one vault document. The text is read
// once by the service; ReplaceAll writes through atomically and stamps a
// revision.
type fileBuffer struct {
	store    storage.Provider
	path     string
	text     string
	revision string
}

func (b *fileBuffer) Get() string { return b.text }

func (b *fileBuffer) ReplaceAll(next string) error {
	if err := b.store.Write(b.path, []byte(next)); err != nil {
		return err
	}
	b.text = next
	b.revision = ulid.Make().String()
	return nil
}
