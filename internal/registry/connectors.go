package registry

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ConnectorLabelsBlock holds labels for direct parent -> child edges.
const ConnectorLabelsBlock = "flow-connector-labels"

const connectorSep = "__"

var colorRe = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ConnectorLabel is the label and colour drawn on one edge.
type ConnectorLabel struct {
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// Validate checks the label shape.
func (l ConnectorLabel) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Label, validation.Required, validation.Length(1, 200)),
		validation.Field(&l.Color, validation.Match(colorRe)),
	)
}

// ConnectorLabels is keyed by "<fromNodeId>__<toNodeId>".
type ConnectorLabels map[string]ConnectorLabel

// ConnectorKey builds the registry key for an edge.
func ConnectorKey(from, to string) string {
	return from + connectorSep + to
}

// SplitConnectorKey splits a registry key into its endpoints.
func SplitConnectorKey(key string) (from, to string, ok bool) {
	from, to, ok = strings.Cut(key, connectorSep)
	if !ok || from == "" || to == "" {
		return "", "", false
	}
	return from, to, true
}
