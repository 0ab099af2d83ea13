package layout

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func names(b *RenderBox) []string {
	var out []string
	for n := range b.Children() {
		out = append(out, n.Name())
	}
	return out
}

// backward walk must agree with forward one
func checkLinks(t *testing.T, b *RenderBox) {
	t.Helper()
	var forward, backward []RenderNode
	for n := b.First(); n != nil; n = n.Next() {
		forward = append(forward, n)
		if n.Parent() != b {
			t.Errorf("node %s has wrong parent", n.Name())
		}
	}
	for n := b.Last(); n != nil; n = n.Prev() {
		backward = append([]RenderNode{n}, backward...)
	}
	if len(forward) != len(backward) || len(forward) != b.ChildCount() {
		t.Fatalf("list broken: forward %d, backward %d, count %d", len(forward), len(backward), b.ChildCount())
	}
	for i := range forward {
		if forward[i] != backward[i] {
			t.Fatalf("list broken at %d", i)
		}
	}
}

func TestBoxListOperations(t *testing.T) {
	root := NewRoot("root")
	a := NewBox(BoxSection, "a", nil)
	b := NewBox(BoxSection, "b", nil)
	c := NewBox(BoxSection, "c", nil)
	d := NewBox(BoxSection, "d", nil)

	root.AppendChild(a)
	root.AppendChild(c)
	root.InsertAfter(a, b)
	root.InsertBefore(a, d)
	checkLinks(t, root)
	if diff := cmp.Diff([]string{"d", "a", "b", "c"}, names(root)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	root.Remove(d)
	root.Remove(c)
	checkLinks(t, root)
	if diff := cmp.Diff([]string{"a", "b"}, names(root)); diff != "" {
		t.Errorf("order after remove mismatch (-want +got):\n%s", diff)
	}
	if d.Parent() != nil || d.Next() != nil || d.Prev() != nil {
		t.Errorf("removed node keeps links")
	}

	root.Replace(a, d)
	checkLinks(t, root)
	if diff := cmp.Diff([]string{"d", "b"}, names(root)); diff != "" {
		t.Errorf("order after replace mismatch (-want +got):\n%s", diff)
	}

	src := NewBox(BoxSubFlow, "src", nil)
	src.AppendChild(a)
	src.AppendChild(c)
	root.Splice(d, src)
	checkLinks(t, root)
	checkLinks(t, src)
	if diff := cmp.Diff([]string{"a", "c", "b"}, names(root)); diff != "" {
		t.Errorf("order after splice mismatch (-want +got):\n%s", diff)
	}
	if src.ChildCount() != 0 {
		t.Errorf("splice source is not empty")
	}

	// removal while iterating
	for n := range root.Children() {
		root.Remove(n)
	}
	checkLinks(t, root)
	if root.First() != nil || root.Last() != nil {
		t.Errorf("box is not empty")
	}
}

func TestBoxMisusePanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"append attached", func() {
			p, n := NewRoot("p"), NewBox(BoxBand, "n", nil)
			p.AppendChild(n)
			NewRoot("q").AppendChild(n)
		}},
		{"remove foreign", func() {
			NewRoot("p").Remove(NewBox(BoxBand, "n", nil))
		}},
		{"self", func() {
			p := NewRoot("p")
			p.AppendChild(p)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestDeriveKeepsIdentity(t *testing.T) {
	root := NewRoot("root")
	sec := NewBox(BoxSection, "sec", nil)
	root.AppendChild(sec)
	text := NewText("t", "hello", nil, BaselineInfo{})
	sec.AppendChild(text)
	sec.SetHeight(FromPoints(12))

	derived := root.Derive(true)
	if derived == root || derived.ID() != root.ID() {
		t.Fatalf("derived root must be a new object with the same id")
	}
	dsec := FindBox(derived, sec.ID())
	if dsec == nil || dsec == sec {
		t.Fatalf("derived section is not found or not copied")
	}
	if dsec.Height() != FromPoints(12) {
		t.Errorf("geometry not copied")
	}
	dtext, ok := Find(derived, text.ID()).(*RenderText)
	if !ok || dtext.Text != "hello" || dtext == text {
		t.Fatalf("derived text is not found or not copied")
	}

	// mutations of derived tree do not touch original
	dsec.Remove(dtext)
	dsec.AppendChild(NewBox(BoxProgressMarker, "", nil))
	if sec.ChildCount() != 1 || sec.First() != RenderNode(text) {
		t.Errorf("original tree modified through derived one")
	}

	shallow := root.Derive(false)
	if shallow.ChildCount() != 0 {
		t.Errorf("shallow derive copied children")
	}
}

func TestDump(t *testing.T) {
	root := NewRoot("report")
	sec := NewBox(BoxSection, "", nil)
	sec.Origin = "page-header"
	root.AppendChild(sec)
	text := NewText("label", "Orders", nil, BaselineInfo{})
	text.ForceLinebreak = true
	sec.AppendChild(text)
	sec.AppendChild(NewContent("logo", nil, []byte{1, 2, 3}, "image/png", 0, FromPoints(10)))

	got := Dump(root, DumpOptions{})
	want := `root "report"
  section <page-header>
    text "label"
      break=true
      text: "Orders"
    content image/png "logo"
      bytes=3
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}

	withGeometry := Dump(root, DumpOptions{Geometry: true, IDs: true})
	if !strings.Contains(withGeometry, "height=10pt") || !strings.Contains(withGeometry, "id="+root.ID().String()) {
		t.Errorf("geometry or ids missing:\n%s", withGeometry)
	}
}

func TestUnits(t *testing.T) {
	if FromPoints(12.5) != 12500 {
		t.Errorf("FromPoints(12.5) = %d", FromPoints(12.5))
	}
	if got := Unit(1500).String(); got != "1.5pt" {
		t.Errorf("String() = %q", got)
	}
}

func TestBaselineTableOfReturnedValue(t *testing.T) {
	// 10pt font, 1.2 line height
	if got := DefaultMetrics.Baselines(nil).Height(); got != FromPoints(12) {
		t.Errorf("Height() = %v, want 12pt", got)
	}
	if got := DefaultMetrics.Baselines(nil).Get(BaselineAlphabetic); got != FromPoints(9) {
		t.Errorf("alphabetic = %v, want 9pt", got)
	}
}
