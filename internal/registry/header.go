package registry

// HeaderBlock carries the document header.
const HeaderBlock = "nexus-doc"

// Document kinds.
const (
	KindNote    = "note"
	KindDiagram = "diagram"
	KindGrid    = "grid"
)

// Header identifies what a document is.
type Header struct {
	Kind    string `json:"kind"`
	Version int    `json:"version,omitempty"`
}

// DocumentKind returns the header kind, "note" when absent or unreadable.
func DocumentKind(text string) string {
	h, found, err := Load[Header](text, HeaderBlock)
	if err != nil || !found || h.Kind == "" {
		return KindNote
	}
	return h.Kind
}
