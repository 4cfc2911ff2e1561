package registry

import (
	"fmt"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Expanded block name prefixes; the suffix is the expid running number.
const (
	ExpandedMetadataPrefix = "expanded-metadata-"
	ExpandedGridPrefix     = "expanded-grid-"
)

// Size multiplier bounds for expanded nodes.
const (
	MinMultiplier = 1
	MaxMultiplier = 8
)

// ExpandedMetadataBlock names the metadata block for an expid.
func ExpandedMetadataBlock(expid int) string {
	return fmt.Sprintf("%s%d", ExpandedMetadataPrefix, expid)
}

// ExpandedGridBlock names the grid block for an expid.
func ExpandedGridBlock(expid int) string {
	return fmt.Sprintf("%s%d", ExpandedGridPrefix, expid)
}

// ExpandedIDFromBlock extracts the expid from a block name with prefix.
func ExpandedIDFromBlock(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ExpandedTab is one tab of an expanded screen.
type ExpandedTab struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ExpandedSection is one section, optionally inside a tab.
type ExpandedSection struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	TabID string `json:"tabId,omitempty"`
}

// ExpandedMetadata describes the UI composition of an expanded node.
type ExpandedMetadata struct {
	DataObjectID           string            `json:"dataObjectId,omitempty"`
	DataObjectAttributeIDs []string          `json:"dataObjectAttributeIds,omitempty"`
	WidthMultiplier        int               `json:"widthMultiplier,omitempty"`
	HeightMultiplier       int               `json:"heightMultiplier,omitempty"`
	Tabs                   []ExpandedTab     `json:"tabs,omitempty"`
	Sections               []ExpandedSection `json:"sections,omitempty"`
}

// Validate checks the metadata shape.
func (m ExpandedMetadata) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.WidthMultiplier, validation.Min(MinMultiplier), validation.Max(MaxMultiplier)),
		validation.Field(&m.HeightMultiplier, validation.Min(MinMultiplier), validation.Max(MaxMultiplier)),
		validation.Field(&m.DataObjectID, validation.When(len(m.DataObjectAttributeIDs) > 0, validation.Required)),
	)
}

// Width returns the width multiplier, defaulting to 1.
func (m ExpandedMetadata) Width() int {
	if m.WidthMultiplier < MinMultiplier {
		return MinMultiplier
	}
	return m.WidthMultiplier
}

// Height returns the height multiplier, defaulting to 1.
func (m ExpandedMetadata) Height() int {
	if m.HeightMultiplier < MinMultiplier {
		return MinMultiplier
	}
	return m.HeightMultiplier
}

// GridNode is one cell of an expanded grid.
type GridNode struct {
	Key                    string   `json:"key"`
	Row                    int      `json:"row"`
	Col                    int      `json:"col"`
	RowSpan                int      `json:"rowSpan,omitempty"`
	ColSpan                int      `json:"colSpan,omitempty"`
	Label                  string   `json:"label,omitempty"`
	DataObjectID           string   `json:"dataObjectId,omitempty"`
	DataObjectAttributeIDs []string `json:"dataObjectAttributeIds,omitempty"`
}

// Validate checks the grid cell shape.
func (g GridNode) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.Key, validation.Required),
		validation.Field(&g.Row, validation.Min(0)),
		validation.Field(&g.Col, validation.Min(0)),
		validation.Field(&g.DataObjectID, validation.When(len(g.DataObjectAttributeIDs) > 0, validation.Required)),
	)
}
