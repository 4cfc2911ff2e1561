package registry

import validation "github.com/go-ozzo/ozzo-validation/v4"

// Flowtab registry block names.
const (
	FlowtabReferencesBlock = "flowtab-process-references"
	GotoTargetsBlock       = "process-goto-targets"
)

// Flowtab reference kinds.
const (
	ReferenceWhole = "whole"
	ReferenceInner = "inner"
)

// FlowtabReference links a flow-tab node to a process node elsewhere in the
// outline.
type FlowtabReference struct {
	Kind                  string `json:"kind"`
	RootProcessNodeID     string `json:"rootProcessNodeId"`
	TargetNodeID          string `json:"targetNodeId,omitempty"`
	ExpandedRunningNumber int    `json:"expandedRunningNumber,omitempty"`
	GridNodeKey           string `json:"gridNodeKey,omitempty"`
}

// Validate checks the reference shape. Inner references need a target.
func (r FlowtabReference) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind, validation.Required, validation.In(ReferenceWhole, ReferenceInner)),
		validation.Field(&r.RootProcessNodeID, validation.Required),
		validation.Field(&r.TargetNodeID, validation.When(r.Kind == ReferenceInner, validation.Required)),
	)
}

// NodeIDs returns every node id the reference names.
func (r FlowtabReference) NodeIDs() []string {
	out := []string{r.RootProcessNodeID}
	if r.TargetNodeID != "" {
		out = append(out, r.TargetNodeID)
	}
	return out
}

// FlowtabReferences is keyed by the referencing node id.
type FlowtabReferences map[string]FlowtabReference

// GotoTargets maps a process node id to the node it jumps to.
type GotoTargets map[string]string
