// Package pagination keeps track of report group sizes for the page break
// decisions. Page break algorithm itself lives with the output drivers.
package pagination

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

type groupFrame struct {
	path     string
	items    int // rows in the open items bracket
	total    int // rows in all items brackets of the group
	groups   int // closed sub-groups
	children int // entered sub-groups
	inItems  bool
}

// GroupSizeRecorder counts items and sub-groups at every nesting level of
// report groups during one processing pass. Misuse of Enter/Leave brackets
// means traversal is broken and panics.
//
// Sizes of closed groups are remembered by group position, so the next pass
// over the same data can ask for a prediction before a group is complete.
type GroupSizeRecorder struct {
	stack       []groupFrame
	top         int     // entered top level groups
	itemCounts  [][]int // per depth, one entry per closed items bracket
	groupCounts [][]int // per depth, one entry per closed group
	sizes       map[string]int
}

// NewGroupSizeRecorder returns recorder in its initial state. Zero value is
// ready to use as well.
func NewGroupSizeRecorder() *GroupSizeRecorder {
	return &GroupSizeRecorder{}
}

func (r *GroupSizeRecorder) current(op string) *groupFrame {
	if len(r.stack) == 0 {
		panic(fmt.Sprintf("group size recorder: %s with no open group", op))
	}
	return &r.stack[len(r.stack)-1]
}

func (r *GroupSizeRecorder) itemsFrame(op string) *groupFrame {
	f := r.current(op)
	if !f.inItems {
		panic(fmt.Sprintf("group size recorder: %s outside of items bracket at depth %d", op, len(r.stack)))
	}
	return f
}

// EnterGroup opens new group frame.
func (r *GroupSizeRecorder) EnterGroup() {
	var ordinal int
	parent := ""
	if len(r.stack) == 0 {
		ordinal = r.top
		r.top++
	} else {
		f := &r.stack[len(r.stack)-1]
		if f.inItems {
			panic("group size recorder: group entered inside of items bracket")
		}
		ordinal = f.children
		f.children++
		parent = f.path
	}
	r.stack = append(r.stack, groupFrame{path: parent + "/" + strconv.Itoa(ordinal)})
}

// LeaveGroup closes current group and records its size: rows plus closed
// sub-groups.
func (r *GroupSizeRecorder) LeaveGroup() {
	f := r.current("leave group")
	if f.inItems {
		panic("group size recorder: group left inside of items bracket")
	}
	depth := len(r.stack)
	size := f.total + f.groups
	r.groupCounts = appendAt(r.groupCounts, depth, size)
	if r.sizes == nil {
		r.sizes = make(map[string]int)
	}
	r.sizes[f.path] = size

	r.stack = r.stack[:depth-1]
	if depth > 1 {
		r.stack[depth-2].groups++
	}
}

// EnterItems opens items bracket of the current group.
func (r *GroupSizeRecorder) EnterItems() {
	f := r.current("enter items")
	if f.inItems {
		panic("group size recorder: items bracket is already open")
	}
	f.inItems = true
	f.items = 0
}

// AdvanceItems counts one emitted row.
func (r *GroupSizeRecorder) AdvanceItems() {
	f := r.itemsFrame("advance items")
	f.items++
	f.total++
}

// LeaveItems closes items bracket recording its row count.
func (r *GroupSizeRecorder) LeaveItems() {
	f := r.itemsFrame("leave items")
	r.itemCounts = appendAt(r.itemCounts, len(r.stack), f.items)
	f.items = 0
	f.inItems = false
}

func appendAt(counts [][]int, depth, v int) [][]int {
	for len(counts) < depth {
		counts = append(counts, nil)
	}
	counts[depth-1] = append(counts[depth-1], v)
	return counts
}

// Depth returns number of open groups.
func (r *GroupSizeRecorder) Depth() int {
	return len(r.stack)
}

// InItems reports whether items bracket of the current group is open.
func (r *GroupSizeRecorder) InItems() bool {
	return len(r.stack) > 0 && r.stack[len(r.stack)-1].inItems
}

// CurrentItems returns number of rows emitted in the open items bracket.
func (r *GroupSizeRecorder) CurrentItems() int {
	if !r.InItems() {
		return 0
	}
	return r.stack[len(r.stack)-1].items
}

// ItemCounts returns row counts of closed items brackets at depth (1 based).
func (r *GroupSizeRecorder) ItemCounts(depth int) []int {
	return countsAt(r.itemCounts, depth)
}

// GroupCounts returns sizes of closed groups at depth (1 based).
func (r *GroupSizeRecorder) GroupCounts(depth int) []int {
	return countsAt(r.groupCounts, depth)
}

func countsAt(counts [][]int, depth int) []int {
	if depth < 1 || depth > len(counts) {
		return nil
	}
	return slices.Clone(counts[depth-1])
}

// PredictedGroupSize returns size of the current group as recorded by an
// earlier pass: its rows plus its closed sub-groups, the same figure
// GroupCounts reports.
func (r *GroupSizeRecorder) PredictedGroupSize() (int, bool) {
	if len(r.stack) == 0 {
		return 0, false
	}
	size, ok := r.sizes[r.stack[len(r.stack)-1].path]
	return size, ok
}

// Clone returns deep copy sharing nothing with the original.
func (r *GroupSizeRecorder) Clone() *GroupSizeRecorder {
	c := &GroupSizeRecorder{
		stack:       slices.Clone(r.stack),
		top:         r.top,
		itemCounts:  cloneCounts(r.itemCounts),
		groupCounts: cloneCounts(r.groupCounts),
		sizes:       maps.Clone(r.sizes),
	}
	return c
}

func cloneCounts(counts [][]int) [][]int {
	if counts == nil {
		return nil
	}
	out := make([][]int, len(counts))
	for i := range counts {
		out[i] = slices.Clone(counts[i])
	}
	return out
}

// Reset returns recorder to its initial state forgetting everything.
func (r *GroupSizeRecorder) Reset() {
	r.Rewind()
	clear(r.sizes)
}

// Rewind prepares recorder for another pass over the same data: open state
// and counts are dropped, recorded group sizes are kept for predictions.
func (r *GroupSizeRecorder) Rewind() {
	r.stack = r.stack[:0]
	r.top = 0
	r.itemCounts = r.itemCounts[:0]
	r.groupCounts = r.groupCounts[:0]
}

// Equal reports whether both recorders have the same open state and counts.
func (r *GroupSizeRecorder) Equal(o *GroupSizeRecorder) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.top == o.top &&
		slices.Equal(r.stack, o.stack) &&
		slices.EqualFunc(r.itemCounts, o.itemCounts, slices.Equal[[]int]) &&
		slices.EqualFunc(r.groupCounts, o.groupCounts, slices.Equal[[]int]) &&
		maps.Equal(r.sizes, o.sizes)
}

func (r *GroupSizeRecorder) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "depth=%d", len(r.stack))
	if r.InItems() {
		fmt.Fprintf(&sb, " items=%d", r.CurrentItems())
	}
	for i := range max(len(r.itemCounts), len(r.groupCounts)) {
		fmt.Fprintf(&sb, " [%d: items=%v groups=%v]", i+1, r.ItemCounts(i+1), r.GroupCounts(i+1))
	}
	return sb.String()
}

// Attempt runs fn against a clone of rec. When fn accepts, the clone is
// returned to replace rec, otherwise rec is returned untouched.
func Attempt(rec *GroupSizeRecorder, fn func(*GroupSizeRecorder) bool) (*GroupSizeRecorder, bool) {
	c := rec.Clone()
	if fn(c) {
		return c, true
	}
	return rec, false
}
