package layout

import (
	"fmt"
	"iter"

	"github.com/google/uuid"

	"rptl/style"
)

// BoxKind tells what a render box stands for.
type BoxKind int

const (
	BoxRoot BoxKind = iota
	BoxSection
	BoxBand
	BoxParagraph
	BoxSubFlow
	BoxProgressMarker
	BoxPlaceholder
)

var boxKindNames = [...]string{"root", "section", "band", "paragraph", "sub-flow", "progress-marker", "placeholder"}

func (k BoxKind) String() string {
	if k < 0 || int(k) >= len(boxKindNames) {
		return fmt.Sprintf("BoxKind(%d)", int(k))
	}
	return boxKindNames[k]
}

// RenderBox owns an ordered linked list of child nodes.
type RenderBox struct {
	nodeBase
	BoxKind BoxKind
	// Origin describes the report node box was created for, diagnostics only.
	Origin string
	// Lines is the number of lines of a paragraph after alignment.
	Lines int

	first RenderNode
	last  RenderNode
	count int
}

// NewBox creates detached empty box.
func NewBox(kind BoxKind, name string, st *style.Resolved) *RenderBox {
	return &RenderBox{nodeBase: newBase(name, st), BoxKind: kind}
}

// NewRoot creates root of a render tree.
func NewRoot(name string) *RenderBox {
	return NewBox(BoxRoot, name, nil)
}

func (b *RenderBox) Kind() NodeKind { return KindBox }

// IsProgressMarker reports whether box reserves a slot for pending content.
func (b *RenderBox) IsProgressMarker() bool {
	return b.BoxKind == BoxProgressMarker
}

func (b *RenderBox) First() RenderNode { return b.first }
func (b *RenderBox) Last() RenderNode  { return b.last }
func (b *RenderBox) ChildCount() int   { return b.count }

// Children iterates over direct children. Current child may be removed
// during iteration.
func (b *RenderBox) Children() iter.Seq[RenderNode] {
	return func(yield func(RenderNode) bool) {
		for n := b.first; n != nil; {
			next := n.Next()
			if !yield(n) {
				return
			}
			n = next
		}
	}
}

func (b *RenderBox) adopt(n RenderNode) *nodeBase {
	nb := n.base()
	if nb.parent != nil {
		panic(fmt.Sprintf("render node %s is already attached to %s", nb.id, nb.parent.id))
	}
	if nb == &b.nodeBase {
		panic("render box cannot contain itself")
	}
	nb.parent = b
	b.count++
	return nb
}

func (b *RenderBox) owned(n RenderNode) *nodeBase {
	nb := n.base()
	if nb.parent != b {
		panic(fmt.Sprintf("render node %s is not a child of %s", nb.id, b.id))
	}
	return nb
}

// AppendChild adds detached node as the last child.
func (b *RenderBox) AppendChild(n RenderNode) {
	nb := b.adopt(n)
	nb.prev = b.last
	nb.next = nil
	if b.last != nil {
		b.last.base().next = n
	} else {
		b.first = n
	}
	b.last = n
}

// InsertAfter puts detached node n right after child ref, ref nil means
// in front of all children.
func (b *RenderBox) InsertAfter(ref, n RenderNode) {
	if ref == nil {
		b.insertFirst(n)
		return
	}
	rb := b.owned(ref)
	nb := b.adopt(n)
	nb.prev = ref
	nb.next = rb.next
	if rb.next != nil {
		rb.next.base().prev = n
	} else {
		b.last = n
	}
	rb.next = n
}

// InsertBefore puts detached node n right before child ref, ref nil means
// after all children.
func (b *RenderBox) InsertBefore(ref, n RenderNode) {
	if ref == nil {
		b.AppendChild(n)
		return
	}
	rb := b.owned(ref)
	if rb.prev == nil {
		b.insertFirst(n)
		return
	}
	b.InsertAfter(rb.prev, n)
}

func (b *RenderBox) insertFirst(n RenderNode) {
	nb := b.adopt(n)
	nb.prev = nil
	nb.next = b.first
	if b.first != nil {
		b.first.base().prev = n
	} else {
		b.last = n
	}
	b.first = n
}

// Remove detaches child n.
func (b *RenderBox) Remove(n RenderNode) {
	nb := b.owned(n)
	if nb.prev != nil {
		nb.prev.base().next = nb.next
	} else {
		b.first = nb.next
	}
	if nb.next != nil {
		nb.next.base().prev = nb.prev
	} else {
		b.last = nb.prev
	}
	nb.parent, nb.prev, nb.next = nil, nil, nil
	b.count--
}

// Replace puts detached node n in place of child old, old becomes detached.
func (b *RenderBox) Replace(old, n RenderNode) {
	ob := b.owned(old)
	prev := ob.prev
	b.Remove(old)
	b.InsertAfter(prev, n)
}

// Splice moves all children of src in place of child old, old becomes
// detached and src is left empty.
func (b *RenderBox) Splice(old RenderNode, src *RenderBox) {
	prev := b.owned(old).prev
	b.Remove(old)
	for n := src.first; n != nil; {
		next := n.Next()
		src.Remove(n)
		b.InsertAfter(prev, n)
		prev = n
		n = next
	}
}

// Derive returns a copy of the box sharing node identities with the
// original. Deep copy duplicates the whole subtree, shallow one produces an
// empty box.
func (b *RenderBox) Derive(deep bool) *RenderBox {
	return b.derive(deep).(*RenderBox)
}

func (b *RenderBox) derive(deep bool) RenderNode {
	c := &RenderBox{
		nodeBase: b.detached(),
		BoxKind:  b.BoxKind,
		Origin:   b.Origin,
		Lines:    b.Lines,
	}
	if deep {
		for n := b.first; n != nil; n = n.Next() {
			c.AppendChild(n.derive(true))
		}
	}
	return c
}

// Find looks up node by id in the subtree of root, root included.
func Find(root RenderNode, id uuid.UUID) RenderNode {
	if root.ID() == id {
		return root
	}
	box, ok := root.(*RenderBox)
	if !ok {
		return nil
	}
	for n := box.first; n != nil; n = n.Next() {
		if found := Find(n, id); found != nil {
			return found
		}
	}
	return nil
}

// FindBox looks up box by id in the subtree of root.
func FindBox(root *RenderBox, id uuid.UUID) *RenderBox {
	box, _ := Find(root, id).(*RenderBox)
	return box
}

// Walk visits subtree of n depth first in document order. Walk stops when
// fn returns false.
func Walk(n RenderNode, fn func(RenderNode, int) bool) bool {
	return walk(n, 0, fn)
}

func walk(n RenderNode, depth int, fn func(RenderNode, int) bool) bool {
	if !fn(n, depth) {
		return false
	}
	if box, ok := n.(*RenderBox); ok {
		for c := box.first; c != nil; c = c.Next() {
			if !walk(c, depth+1, fn) {
				return false
			}
		}
	}
	return true
}
