package pagination

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type op func(*GroupSizeRecorder)

var (
	enterGroup = (*GroupSizeRecorder).EnterGroup
	leaveGroup = (*GroupSizeRecorder).LeaveGroup
	enterItems = (*GroupSizeRecorder).EnterItems
	advance    = (*GroupSizeRecorder).AdvanceItems
	leaveItems = (*GroupSizeRecorder).LeaveItems
)

func run(r *GroupSizeRecorder, ops ...op) *GroupSizeRecorder {
	for _, o := range ops {
		o(r)
	}
	return r
}

func items(k int) []op {
	ops := []op{enterItems}
	for range k {
		ops = append(ops, advance)
	}
	return append(ops, leaveItems)
}

func TestRecorderStackBalance(t *testing.T) {
	for _, tc := range []struct{ n, m, k int }{{1, 1, 3}, {2, 3, 0}, {3, 2, 5}} {
		r := NewGroupSizeRecorder()
		for range tc.n {
			enterGroup(r)
		}
		for range tc.m {
			run(r, items(tc.k)...)
		}
		if r.Depth() != tc.n {
			t.Errorf("%+v: depth = %d", tc, r.Depth())
		}
		for range tc.n {
			leaveGroup(r)
		}

		want := make([]int, tc.m)
		for i := range want {
			want[i] = tc.k
		}
		if diff := cmp.Diff(want, r.ItemCounts(tc.n)); diff != "" {
			t.Errorf("%+v: item counts mismatch (-want +got):\n%s", tc, diff)
		}
		for d := 1; d < tc.n; d++ {
			if got := r.ItemCounts(d); len(got) != 0 {
				t.Errorf("%+v: unexpected items at depth %d: %v", tc, d, got)
			}
			if diff := cmp.Diff([]int{1}, r.GroupCounts(d)); diff != "" {
				t.Errorf("%+v: group counts at depth %d (-want +got):\n%s", tc, d, diff)
			}
		}
		if diff := cmp.Diff([]int{tc.m * tc.k}, r.GroupCounts(tc.n)); diff != "" {
			t.Errorf("%+v: innermost group size (-want +got):\n%s", tc, diff)
		}
		if r.Depth() != 0 || r.InItems() {
			t.Errorf("%+v: recorder must be closed", tc)
		}
	}
}

func TestRecorderCloneIndependence(t *testing.T) {
	prefixes := map[string][]op{
		"fresh":     nil,
		"mid-group": {enterGroup, enterGroup},
		"mid-items": {enterGroup, enterItems, advance},
		"closed":    append(append([]op{enterGroup}, items(2)...), leaveGroup),
	}
	for name, prefix := range prefixes {
		t.Run(name, func(t *testing.T) {
			r := run(NewGroupSizeRecorder(), prefix...)
			snapshot := run(NewGroupSizeRecorder(), prefix...)

			c := r.Clone()
			if !c.Equal(r) {
				t.Fatalf("clone differs from original: %s vs %s", c, r)
			}

			// drive clone through the full operation set
			if !c.InItems() {
				if c.Depth() == 0 {
					enterGroup(c)
				}
				enterItems(c)
			}
			run(c, advance, advance, leaveItems, enterGroup, enterItems, advance, leaveItems, leaveGroup, leaveGroup)

			if !r.Equal(snapshot) {
				t.Errorf("original modified through clone: %s, want %s", r, snapshot)
			}
			if r.Depth() != snapshot.Depth() || r.InItems() != snapshot.InItems() || r.CurrentItems() != snapshot.CurrentItems() {
				t.Errorf("original bracket state changed")
			}

			before := c.Clone()
			if r.InItems() {
				advance(r)
			} else {
				enterGroup(r)
			}
			if !c.Equal(before) {
				t.Errorf("clone modified through original")
			}
		})
	}
}

func TestRecorderMisuse(t *testing.T) {
	cases := map[string][]op{
		"advance without items":    {enterGroup, advance},
		"leave items without open": {enterGroup, leaveItems},
		"leave group without open": {leaveGroup},
		"items without group":      {enterItems},
		"items twice":              {enterGroup, enterItems, enterItems},
		"leave group in items":     {enterGroup, enterItems, leaveGroup},
		"enter group in items":     {enterGroup, enterItems, enterGroup},
	}
	for name, ops := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic")
				}
			}()
			run(NewGroupSizeRecorder(), ops...)
		})
	}
}

func TestRecorderResetAndRewind(t *testing.T) {
	pass := func(r *GroupSizeRecorder) {
		enterGroup(r)
		run(r, items(4)...)
		leaveGroup(r)
	}

	var r GroupSizeRecorder
	enterGroup(&r)
	if _, ok := r.PredictedGroupSize(); ok {
		t.Fatalf("no prediction expected on the first pass")
	}
	run(&r, items(4)...)
	leaveGroup(&r)

	r.Rewind()
	if r.Depth() != 0 || len(r.ItemCounts(1)) != 0 {
		t.Fatalf("rewind must drop counts: %s", &r)
	}
	enterGroup(&r)
	if n, ok := r.PredictedGroupSize(); !ok || n != 4 {
		t.Errorf("prediction = %d/%v, want 4", n, ok)
	}
	leaveGroup(&r)

	r.Reset()
	if !r.Equal(NewGroupSizeRecorder()) {
		t.Errorf("reset recorder differs from a new one: %s", &r)
	}
	enterGroup(&r)
	if _, ok := r.PredictedGroupSize(); ok {
		t.Errorf("reset must forget recorded sizes")
	}
	leaveGroup(&r)

	fresh := NewGroupSizeRecorder()
	pass(fresh)
	r.Reset()
	pass(&r)
	if !r.Equal(fresh) {
		t.Errorf("reused recorder %s differs from fresh %s", &r, fresh)
	}
}

func TestAttempt(t *testing.T) {
	r := run(NewGroupSizeRecorder(), enterGroup, enterItems, advance)

	got, ok := Attempt(r, func(c *GroupSizeRecorder) bool {
		run(c, advance, advance)
		return false
	})
	if ok || got != r || r.CurrentItems() != 1 {
		t.Fatalf("rejected attempt must keep original, items = %d", r.CurrentItems())
	}

	got, ok = Attempt(r, func(c *GroupSizeRecorder) bool {
		advance(c)
		return true
	})
	if !ok || got == r || got.CurrentItems() != 2 || r.CurrentItems() != 1 {
		t.Fatalf("accepted attempt must return advanced clone")
	}
}

func TestRecorderPredictedGroupSize(t *testing.T) {
	// outer group holding two sub-groups of 2 and 3 rows
	pass := func(r *GroupSizeRecorder, check func()) {
		enterGroup(r)
		check()
		for _, k := range []int{2, 3} {
			enterGroup(r)
			run(r, items(k)...)
			leaveGroup(r)
		}
		leaveGroup(r)
	}

	r := NewGroupSizeRecorder()
	pass(r, func() {})
	r.Rewind()
	pass(r, func() {
		if n, ok := r.PredictedGroupSize(); !ok || n != 2 {
			t.Errorf("outer prediction = %d/%v, want 2 closed sub-groups", n, ok)
		}
	})
	if diff := cmp.Diff([]int{2}, r.GroupCounts(1)); diff != "" {
		t.Errorf("outer size mismatch (-want +got):\n%s", diff)
	}

	r.Rewind()
	enterGroup(r)
	enterGroup(r)
	enterGroup(r)
	if _, ok := r.PredictedGroupSize(); ok {
		t.Errorf("group never seen before must have no prediction")
	}
}
