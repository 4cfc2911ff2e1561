package registry

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FlowNodesBlock holds flow-node typing, matched by content fingerprint.
const FlowNodesBlock = "flow-nodes"

// FlowNodeType is the diagram role of a flow node.
type FlowNodeType string

// Flow node types.
const (
	FlowStep       FlowNodeType = "step"
	FlowValidation FlowNodeType = "validation"
	FlowBranch     FlowNodeType = "branch"
	FlowLoop       FlowNodeType = "loop"
	FlowTime       FlowNodeType = "time"
)

// FlowNodeTypes lists every valid type.
var FlowNodeTypes = []FlowNodeType{FlowStep, FlowValidation, FlowBranch, FlowLoop, FlowTime}

// FlowNodeEntry types one flow node. Content and ParentPath form the
// fingerprint; LineIndex records where the entry last resolved.
type FlowNodeEntry struct {
	RunningNumber int          `json:"runningNumber"`
	Content       string       `json:"content"`
	ParentPath    []string     `json:"parentPath"`
	LineIndex     int          `json:"lineIndex"`
	Type          FlowNodeType `json:"type"`
}

// Validate checks the entry shape.
func (e FlowNodeEntry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.RunningNumber, validation.Required, validation.Min(1)),
		validation.Field(&e.Content, validation.Required),
		validation.Field(&e.LineIndex, validation.Min(0)),
		validation.Field(&e.Type, validation.In(flowTypeValues()...)),
	)
}

// FlowNodes is the flow-node type registry.
type FlowNodes struct {
	NextRunningNumber int             `json:"nextRunningNumber"`
	Entries           []FlowNodeEntry `json:"entries"`
}

// Entry returns the entry with the given running number.
func (r *FlowNodes) Entry(rn int) (*FlowNodeEntry, bool) {
	for i := range r.Entries {
		if r.Entries[i].RunningNumber == rn {
			return &r.Entries[i], true
		}
	}
	return nil, false
}

// Allocate reserves the next running number. Numbers are never reused.
func (r *FlowNodes) Allocate() int {
	next := r.NextRunningNumber
	for _, e := range r.Entries {
		if e.RunningNumber >= next {
			next = e.RunningNumber + 1
		}
	}
	if next < 1 {
		next = 1
	}
	r.NextRunningNumber = next + 1
	return next
}

func flowTypeValues() []any {
	out := make([]any, len(FlowNodeTypes))
	for i, t := range FlowNodeTypes {
		out[i] = t
	}
	return out
}
