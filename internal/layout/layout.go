// Package layout turns a parsed outline and its registries into 2-D
// geometry. It is a pure function of its inputs.
package layout

import (
	"github.com/starford/nexusmap/internal/outline"
	"github.com/starford/nexusmap/internal/registry"
)

// Base node geometry in canvas units.
const (
	NodeWidth  = 200
	NodeHeight = 40
	ColumnGap  = 60
	RowGap     = 20
)

// Rect is an axis-aligned box.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() int { return r.Y + r.H }

// Geometry maps node ids to their rectangles. Every variant of a hub maps to
// the head's rectangle.
type Geometry struct {
	Rects  map[string]Rect `json:"rects"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
}

type computer struct {
	set    *registry.Set
	out    *Geometry
	cursor int
}

// Compute lays the forest out left to right: depth grows along x, siblings
// stack along y, and each parent is centred on its children.
func Compute(f *outline.Forest, set *registry.Set) *Geometry {
	if set == nil {
		set = &registry.Set{}
	}
	c := &computer{set: set, out: &Geometry{Rects: make(map[string]Rect)}}
	for _, root := range f.Roots {
		c.place(root, 0)
	}
	return c.out
}

// Size returns the box size of n, scaled by its expanded metadata.
func Size(n *outline.Node, set *registry.Set) (w, h int) {
	w, h = NodeWidth, NodeHeight
	if n.Markers.ExpandedID == 0 || set == nil {
		return w, h
	}
	if meta, ok := set.Expanded[n.Markers.ExpandedID]; ok {
		w *= meta.Width()
		h *= meta.Height()
	}
	return w, h
}

func (c *computer) place(n *outline.Node, x int) {
	w, h := Size(n, c.set)
	kids := n.DisplayChildren()

	var y int
	if len(kids) == 0 {
		y = c.cursor
		c.cursor += h + RowGap
	} else {
		top := c.cursor
		for _, k := range kids {
			c.place(k, x+w+ColumnGap)
		}
		bottom := c.cursor - RowGap
		y = max(top, (top+bottom-h)/2)
		if y+h > bottom {
			c.cursor = y + h + RowGap
		}
	}

	r := Rect{X: x, Y: y, W: w, H: h}
	for _, v := range outline.Group(n) {
		c.out.Rects[v.ID] = r
	}
	c.out.Width = max(c.out.Width, r.Right())
	c.out.Height = max(c.out.Height, r.Bottom())
}
