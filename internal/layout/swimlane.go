package layout

import (
	"github.com/starford/nexusmap/internal/outline"
	"github.com/starford/nexusmap/internal/registry"
)

// LaneHeaderWidth is the width of the lane label column.
const LaneHeaderWidth = 160

// LaneBand is one horizontal lane of a swimlane grid.
type LaneBand struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Rect  Rect   `json:"rect"`
}

// SwimlaneGrid is the lane by stage placement of one flow tab.
type SwimlaneGrid struct {
	FlowID string          `json:"fid"`
	RootID string          `json:"rootId"`
	Lanes  []LaneBand      `json:"lanes"`
	Stages []string        `json:"stages"`
	Cells  map[string]Rect `json:"cells"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
}

type cell struct{ lane, stage int }

// Swimlane places the flow nodes below the flow-tab root carrying fid on a
// lane by stage grid. Nodes without a stored placement, or placed in an
// unknown lane, land in the first lane at the stage of their depth below the
// root. It reports false when no line carries fid.
func Swimlane(f *outline.Forest, set *registry.Set, fid string) (*SwimlaneGrid, bool) {
	root := flowRoot(f, fid)
	if root == nil {
		return nil, false
	}
	var sl registry.Swimlane
	if set != nil {
		sl = set.Swimlanes[fid]
	}

	lanes := sl.Lanes
	if len(lanes) == 0 {
		lanes = []registry.Lane{{ID: "default", Label: ""}}
	}
	laneIdx := make(map[string]int, len(lanes))
	for i, l := range lanes {
		laneIdx[l.ID] = i
	}
	stages := len(sl.Stages)
	if stages == 0 {
		stages = 1
	}

	g := &SwimlaneGrid{FlowID: fid, RootID: root.ID, Cells: make(map[string]Rect)}
	for _, s := range sl.Stages {
		g.Stages = append(g.Stages, s.Label)
	}

	// Stacked node ids per cell, in document order.
	stacks := make(map[cell][]*outline.Node)
	for _, n := range f.Descendants(root) {
		if !n.IsFlowNode || (n.HubHead() != nil && n.HubHead() != n) {
			continue
		}
		at := cell{lane: 0, stage: min(n.Level-root.Level-1, stages-1)}
		if p, ok := sl.Placement[n.ID]; ok {
			if i, ok := laneIdx[p.LaneID]; ok {
				at = cell{lane: i, stage: min(max(p.Stage, 0), stages-1)}
			}
		}
		stacks[at] = append(stacks[at], n)
	}

	depth := make([]int, len(lanes))
	for at, nodes := range stacks {
		depth[at.lane] = max(depth[at.lane], len(nodes))
	}

	y := 0
	for i, l := range lanes {
		h := max(depth[i], 1)*(NodeHeight+RowGap) + RowGap
		for s := 0; s < stages; s++ {
			for k, n := range stacks[cell{lane: i, stage: s}] {
				r := Rect{
					X: LaneHeaderWidth + ColumnGap + s*(NodeWidth+ColumnGap),
					Y: y + RowGap + k*(NodeHeight+RowGap),
					W: NodeWidth,
					H: NodeHeight,
				}
				for _, v := range outline.Group(n) {
					g.Cells[v.ID] = r
				}
			}
		}
		g.Lanes = append(g.Lanes, LaneBand{ID: l.ID, Label: l.Label, Rect: Rect{Y: y, H: h}})
		y += h
	}

	g.Width = LaneHeaderWidth + ColumnGap + stages*(NodeWidth+ColumnGap)
	g.Height = y
	for i := range g.Lanes {
		g.Lanes[i].Rect.W = g.Width
	}
	return g, true
}

func flowRoot(f *outline.Forest, fid string) *outline.Node {
	for _, n := range f.Nodes {
		if n.Markers.FlowID == fid {
			return n
		}
	}
	return nil
}
