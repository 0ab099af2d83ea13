// Package layout defines the render tree produced from a report definition:
// boxes owning linked lists of child nodes, text runs with baseline tables
// and atomic content nodes.
package layout

import (
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"

	"rptl/style"
)

// Unit is a length in micro-points (1/1000 pt). Integer geometry keeps
// repeated layout passes reproducible.
type Unit int64

// Point is one typographic point.
const Point Unit = 1000

// FromPoints converts points to layout units.
func FromPoints(pt float64) Unit {
	return Unit(math.Round(pt * float64(Point)))
}

// Points converts layout units to points.
func (u Unit) Points() float64 {
	return float64(u) / float64(Point)
}

func (u Unit) String() string {
	return strconv.FormatFloat(u.Points(), 'f', -1, 64) + "pt"
}

// NodeKind is the variant of a render node.
type NodeKind int

const (
	KindBox NodeKind = iota
	KindText
	KindContent
)

func (k NodeKind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindText:
		return "text"
	case KindContent:
		return "content"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// RenderNode is a node of the render tree.
type RenderNode interface {
	ID() uuid.UUID
	Kind() NodeKind
	Name() string
	Style() *style.Resolved
	Parent() *RenderBox
	Prev() RenderNode
	Next() RenderNode

	// Y is the vertical offset inside the parent box, assigned by the
	// alignment pass.
	Y() Unit
	SetY(Unit)
	Height() Unit
	SetHeight(Unit)

	base() *nodeBase
	derive(deep bool) RenderNode
}

type nodeBase struct {
	id     uuid.UUID
	name   string
	style  *style.Resolved
	parent *RenderBox
	prev   RenderNode
	next   RenderNode
	y      Unit
	height Unit
}

func newBase(name string, st *style.Resolved) nodeBase {
	return nodeBase{id: uuid.New(), name: name, style: st}
}

func (n *nodeBase) ID() uuid.UUID          { return n.id }
func (n *nodeBase) Name() string           { return n.name }
func (n *nodeBase) Style() *style.Resolved { return n.style }
func (n *nodeBase) Parent() *RenderBox     { return n.parent }
func (n *nodeBase) Prev() RenderNode       { return n.prev }
func (n *nodeBase) Next() RenderNode       { return n.next }
func (n *nodeBase) Y() Unit                { return n.y }
func (n *nodeBase) SetY(y Unit)            { n.y = y }
func (n *nodeBase) Height() Unit           { return n.height }
func (n *nodeBase) SetHeight(h Unit)       { n.height = h }
func (n *nodeBase) base() *nodeBase        { return n }

// detached copy keeps identity and geometry, drops links
func (n *nodeBase) detached() nodeBase {
	return nodeBase{id: n.id, name: n.name, style: n.style, y: n.y, height: n.height}
}

// Baseline names a horizontal reference line of a text run.
type Baseline int

const (
	BaselineAlphabetic Baseline = iota
	BaselineHanging
	BaselineIdeographic
	BaselineMathematical
	BaselineCentral
	BaselineMiddle
	BaselineBeforeEdge
	BaselineAfterEdge

	BaselineCount = int(BaselineAfterEdge) + 1
)

var baselineNames = [BaselineCount]string{
	"alphabetic", "hanging", "ideographic", "mathematical", "central", "middle", "before-edge", "after-edge",
}

func (b Baseline) String() string {
	if b < 0 || int(b) >= BaselineCount {
		return fmt.Sprintf("Baseline(%d)", int(b))
	}
	return baselineNames[b]
}

// ParseBaseline returns baseline by name.
func ParseBaseline(s string) (Baseline, bool) {
	for i, n := range baselineNames {
		if n == s {
			return Baseline(i), true
		}
	}
	return BaselineAlphabetic, false
}

// BaselineInfo is the baseline table of a text run: position of every named
// baseline measured down from the top of the run's line box, and the
// baseline the run aligns itself by.
type BaselineInfo struct {
	Positions [BaselineCount]Unit
	Dominant  Baseline
}

// Get returns position of baseline b.
func (bi BaselineInfo) Get(b Baseline) Unit {
	return bi.Positions[b]
}

// Height returns distance between before and after edges.
func (bi BaselineInfo) Height() Unit {
	return bi.Positions[BaselineAfterEdge] - bi.Positions[BaselineBeforeEdge]
}

// RenderText is a run of text sharing one style.
type RenderText struct {
	nodeBase
	Text      string
	Baselines BaselineInfo
	// ForceLinebreak ends the current line after this run.
	ForceLinebreak bool
}

// NewText creates detached text node.
func NewText(name, text string, st *style.Resolved, bi BaselineInfo) *RenderText {
	t := &RenderText{nodeBase: newBase(name, st), Text: text, Baselines: bi}
	t.height = bi.Height()
	return t
}

func (t *RenderText) Kind() NodeKind { return KindText }

func (t *RenderText) derive(bool) RenderNode {
	c := *t
	c.nodeBase = t.detached()
	return &c
}

// RenderContent is atomic content without intrinsic baseline: image, shape.
type RenderContent struct {
	nodeBase
	Content     []byte
	ContentType string
	Width       Unit
}

// NewContent creates detached content node of given size.
func NewContent(name string, st *style.Resolved, content []byte, contentType string, width, height Unit) *RenderContent {
	c := &RenderContent{nodeBase: newBase(name, st), Content: content, ContentType: contentType, Width: width}
	c.height = height
	return c
}

func (c *RenderContent) Kind() NodeKind { return KindContent }

// content bytes are never modified after creation and are shared
func (c *RenderContent) derive(bool) RenderNode {
	d := *c
	d.nodeBase = c.detached()
	return &d
}
