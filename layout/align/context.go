// Package align positions inline content of a line on a common baseline.
//
// Every node taking part in a line gets an alignment context for the
// duration of one alignment pass. Contexts are positioned in line
// coordinates: zero is the top of the line box, values grow downwards and
// Shift moves a context by the given delta.
package align

import (
	"rptl/layout"
)

// Context is the alignment view of a single inline node.
type Context interface {
	Node() layout.RenderNode
	// BaselineDistance returns offset of baseline b relative to the node's
	// dominant baseline, translated by the accumulated shift.
	BaselineDistance(b layout.Baseline) layout.Unit
	// Shift translates context vertically by delta.
	Shift(delta layout.Unit)
	BeforeEdge() layout.Unit
	AfterEdge() layout.Unit
}

// NodeContext aligns atomic content without baseline table (images,
// shapes, nested boxes). Its own height is accounted for separately.
type NodeContext struct {
	node  layout.RenderNode
	shift layout.Unit
}

func NewNodeContext(node layout.RenderNode) *NodeContext {
	return &NodeContext{node: node}
}

func (c *NodeContext) Node() layout.RenderNode { return c.node }

func (c *NodeContext) BaselineDistance(layout.Baseline) layout.Unit { return 0 }

func (c *NodeContext) Shift(delta layout.Unit) { c.shift += delta }

func (c *NodeContext) BeforeEdge() layout.Unit { return c.shift }

func (c *NodeContext) AfterEdge() layout.Unit { return c.shift }

// InlineBlockContext aligns content carrying a baseline table.
type InlineBlockContext struct {
	node      layout.RenderNode
	baselines [layout.BaselineCount]layout.Unit
	dominant  layout.Baseline
	shift     layout.Unit
}

// NewInlineBlockContext copies baseline table, later changes of the node do
// not affect the context.
func NewInlineBlockContext(node layout.RenderNode, bi layout.BaselineInfo) *InlineBlockContext {
	return &InlineBlockContext{
		node:      node,
		baselines: bi.Positions,
		dominant:  bi.Dominant,
	}
}

func (c *InlineBlockContext) Node() layout.RenderNode { return c.node }

func (c *InlineBlockContext) BaselineDistance(b layout.Baseline) layout.Unit {
	return c.baselines[b] - c.baselines[c.dominant] + c.shift
}

func (c *InlineBlockContext) Shift(delta layout.Unit) { c.shift += delta }

func (c *InlineBlockContext) BeforeEdge() layout.Unit {
	return c.baselines[layout.BaselineBeforeEdge] + c.shift
}

func (c *InlineBlockContext) AfterEdge() layout.Unit {
	return c.baselines[layout.BaselineAfterEdge] + c.shift
}

// Dominant returns baseline the content aligns itself by.
func (c *InlineBlockContext) Dominant() layout.Baseline { return c.dominant }

// NewContext picks context variant for node: text runs align by their
// baseline table, everything else is atomic.
func NewContext(node layout.RenderNode) Context {
	if t, ok := node.(*layout.RenderText); ok {
		return NewInlineBlockContext(t, t.Baselines)
	}
	return NewNodeContext(node)
}
