package mutate

import (
	"github.com/starford/nexusmap/internal/identity"
	"github.com/starford/nexusmap/internal/outline"
	"github.com/starford/nexusmap/internal/registry"
)

// ResizeExpanded sets the size multipliers of the expanded node carrying
// expid. Both must lie in [1, 8].
func ResizeExpanded(text string, expid, width, height int) (string, error) {
	if width < registry.MinMultiplier || width > registry.MaxMultiplier ||
		height < registry.MinMultiplier || height > registry.MaxMultiplier {
		return text, invalid("size %dx%d outside %d..%d", width, height, registry.MinMultiplier, registry.MaxMultiplier)
	}
	snap, err := load(text, nil)
	if err != nil {
		return text, err
	}
	if _, ok := identity.Lookup(snap.tree, outline.MarkerExpandedID, expid); !ok {
		return text, notFound("expanded node %d", expid)
	}

	name := registry.ExpandedMetadataBlock(expid)
	meta, _, err := registry.Load[registry.ExpandedMetadata](text, name)
	if err != nil {
		return text, invalid("metadata block %s is unreadable", name)
	}
	meta.WidthMultiplier = width
	meta.HeightMultiplier = height
	return registry.Save(text, name, meta)
}
