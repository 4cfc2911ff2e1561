package engine

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/nexusmap/internal/apperr"
	"github.com/starford/nexusmap/internal/mutate"
	"github.com/starford/nexusmap/internal/registry"
)

// Mutation operations.
const (
	OpEnsureRunningNumbers = "ensureRunningNumbers"
	OpBulkDelete           = "bulkDelete"
	OpToggleFlowFlag       = "toggleFlowFlag"
	OpDeleteFlowSubtree    = "deleteFlowSubtree"
	OpRenameNode           = "renameNode"
	OpMoveSubtree          = "moveSubtree"
	OpResizeExpanded       = "resizeExpanded"
	OpSetConnectorLabel    = "setConnectorLabel"
	OpSetFlowNodeType      = "setFlowNodeType"
	OpAddTest              = "addTest"
)

// Mutation is a serialisable mutation request. Node ids refer to a parse
// of the text the mutation is applied to.
type Mutation struct {
	Op         string   `json:"op"`
	IDs        []string `json:"ids,omitempty"`
	ID         string   `json:"id,omitempty"`
	FlowID     string   `json:"fid,omitempty"`
	Family     string   `json:"family,omitempty"`
	Lines      []int    `json:"lines,omitempty"`
	Title      string   `json:"title,omitempty"`
	Direction  string   `json:"direction,omitempty"`
	ExpandedID int      `json:"expid,omitempty"`
	Width      int      `json:"width,omitempty"`
	Height     int      `json:"height,omitempty"`
	From       string   `json:"from,omitempty"`
	To         string   `json:"to,omitempty"`
	Label      string   `json:"label,omitempty"`
	Color      string   `json:"color,omitempty"`
	Type       string   `json:"type,omitempty"`
	Name       string   `json:"name,omitempty"`
	FlowRootID string   `json:"flowRootId,omitempty"`
	FlowNodeID string   `json:"flowNodeId,omitempty"`
}

// Validate checks the fields each operation needs.
func (m Mutation) Validate() error {
	op := func(ops ...string) bool {
		for _, o := range ops {
			if m.Op == o {
				return true
			}
		}
		return false
	}
	return validation.ValidateStruct(&m,
		validation.Field(&m.Op, validation.Required, validation.In(
			OpEnsureRunningNumbers, OpBulkDelete, OpToggleFlowFlag, OpDeleteFlowSubtree, OpRenameNode,
			OpMoveSubtree, OpResizeExpanded, OpSetConnectorLabel, OpSetFlowNodeType, OpAddTest)),
		validation.Field(&m.IDs, validation.When(op(OpBulkDelete), validation.Required)),
		validation.Field(&m.ID, validation.When(op(OpToggleFlowFlag, OpRenameNode, OpMoveSubtree, OpSetFlowNodeType), validation.Required)),
		validation.Field(&m.FlowID, validation.When(op(OpDeleteFlowSubtree), validation.Required)),
		validation.Field(&m.Family, validation.When(op(OpEnsureRunningNumbers), validation.Required)),
		validation.Field(&m.Lines, validation.When(op(OpEnsureRunningNumbers), validation.Required)),
		validation.Field(&m.Title, validation.When(op(OpRenameNode), validation.Required)),
		validation.Field(&m.Direction, validation.When(op(OpMoveSubtree), validation.Required, validation.In(string(mutate.Up), string(mutate.Down)))),
		validation.Field(&m.ExpandedID, validation.When(op(OpResizeExpanded), validation.Required, validation.Min(1))),
		validation.Field(&m.From, validation.When(op(OpSetConnectorLabel), validation.Required)),
		validation.Field(&m.To, validation.When(op(OpSetConnectorLabel), validation.Required)),
		validation.Field(&m.Type, validation.When(op(OpSetFlowNodeType), validation.Required)),
		validation.Field(&m.Name, validation.When(op(OpAddTest), validation.Required)),
		validation.Field(&m.FlowRootID, validation.When(op(OpAddTest), validation.Required)),
	)
}

// Apply runs m against text and returns the next text and the operation's
// result value.
func (e *Engine) Apply(text string, m Mutation) (string, any, error) {
	if err := m.Validate(); err != nil {
		return text, nil, fmt.Errorf("%w: %w", apperr.ErrInvalidMutation, err)
	}
	if err := e.CheckSize(text); err != nil {
		return text, nil, err
	}

	switch m.Op {
	case OpEnsureRunningNumbers:
		out, assigned, err := e.EnsureRunningNumbers(text, m.Family, m.Lines)
		return out, assigned, err
	case OpBulkDelete:
		out, res, err := e.BulkDelete(text, nil, m.IDs)
		return out, res, err
	case OpToggleFlowFlag:
		out, res, err := e.ToggleFlowFlag(text, nil, m.ID)
		return out, res, err
	case OpDeleteFlowSubtree:
		out, res, err := e.DeleteFlowSubtree(text, m.FlowID)
		return out, res, err
	case OpRenameNode:
		out, err := mutate.RenameNode(text, nil, m.ID, m.Title)
		return out, nil, err
	case OpMoveSubtree:
		out, res, err := mutate.MoveSubtree(text, nil, m.ID, mutate.Direction(m.Direction))
		return out, res, err
	case OpResizeExpanded:
		out, err := mutate.ResizeExpanded(text, m.ExpandedID, m.Width, m.Height)
		return out, nil, err
	case OpSetConnectorLabel:
		out, err := mutate.SetConnectorLabel(text, nil, m.From, m.To, m.Label, m.Color)
		return out, nil, err
	case OpSetFlowNodeType:
		out, rn, err := mutate.SetFlowNodeType(text, nil, m.ID, registry.FlowNodeType(m.Type))
		return out, map[string]int{"runningNumber": rn}, err
	case OpAddTest:
		out, tc, err := mutate.AddTest(text, nil, m.Name, m.FlowRootID, m.FlowNodeID, e.now())
		return out, tc, err
	}
	return text, nil, fmt.Errorf("%w: unknown op %q", apperr.ErrInvalidMutation, m.Op)
}
