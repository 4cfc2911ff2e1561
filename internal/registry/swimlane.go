package registry

import (
	"encoding/json"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SwimlanePrefix prefixes the swimlane block of a flow; the suffix is the
// full fid marker value, e.g. "flowtab-swimlane-flowtab-3".
const SwimlanePrefix = "flowtab-swimlane-"

// SwimlaneBlock names the swimlane block for a flow id.
func SwimlaneBlock(fid string) string {
	return SwimlanePrefix + fid
}

// FlowIDFromSwimlane extracts the flow id from a swimlane block name.
func FlowIDFromSwimlane(name string) (string, bool) {
	if !strings.HasPrefix(name, SwimlanePrefix) {
		return "", false
	}
	fid := strings.TrimPrefix(name, SwimlanePrefix)
	return fid, fid != ""
}

// Lane is one horizontal band of a swimlane diagram.
type Lane struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Stage is one vertical column of a swimlane diagram.
type Stage struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Placement puts one node in a lane and stage.
type Placement struct {
	LaneID string `json:"laneId"`
	Stage  int    `json:"stage"`
}

// Swimlane is the placement registry of one flow. Connectors are derived
// from the outline and are never stored here.
type Swimlane struct {
	Lanes        []Lane               `json:"lanes"`
	Stages       []Stage              `json:"stages"`
	Placement    map[string]Placement `json:"placement"`
	PinnedTagIDs []string             `json:"pinnedTagIds,omitempty"`
}

// Validate checks lane ids are set and placements name known lanes.
func (s Swimlane) Validate() error {
	lanes := make([]any, 0, len(s.Lanes))
	for _, l := range s.Lanes {
		lanes = append(lanes, l.ID)
	}
	return validation.ValidateStruct(&s,
		validation.Field(&s.Lanes, validation.Each(validation.By(func(v any) error {
			l, _ := v.(Lane)
			return validation.Validate(l.ID, validation.Required)
		}))),
		validation.Field(&s.Placement, validation.Each(validation.By(func(v any) error {
			p, _ := v.(Placement)
			return validation.ValidateStruct(&p,
				validation.Field(&p.LaneID, validation.Required, validation.In(lanes...)),
				validation.Field(&p.Stage, validation.Min(0)),
			)
		}))),
	)
}

// LaneLabel returns the label of a lane id.
func (s Swimlane) LaneLabel(id string) string {
	for _, l := range s.Lanes {
		if l.ID == id {
			return l.Label
		}
	}
	return ""
}

// HasConnectorsField reports whether a raw swimlane body stores a
// "connectors" key.
func HasConnectorsField(body string) bool {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return false
	}
	_, ok := raw["connectors"]
	return ok
}
