package process

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"rptl/layout"
	"rptl/pagination"
	"rptl/report"
)

const endToEnd = `<report name="e2e">
  <page-header><label value="Header"/></page-header>
  <group name="kinds" field="kind">
    <group-header><text-field field="kind"/></group-header>
  </group>
  <items %s>
    <text-field name="item" field="item"/>
    <sub-report name="note" inline="true">
      <report><items><label>Note</label></items></report>
    </sub-report>
  </items>
  <page-footer><label value="Footer"/></page-footer>
  <data>
    <row kind="a" item="one"/>
    <row kind="a" item="two"/>
    <row kind="a" item="three"/>
  </data>
</report>`

func newLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func load(t *testing.T, itemsAttrs string) *report.Definition {
	t.Helper()
	d, err := report.NewLoader(newLogger(t)).Load(strings.NewReader(strings.Replace(endToEnd, "%s", itemsAttrs, 1)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Warnings != nil {
		t.Fatalf("unexpected warnings: %v", d.Warnings)
	}
	return d
}

func boxes(root *layout.RenderBox, kind layout.BoxKind) []*layout.RenderBox {
	var out []*layout.RenderBox
	for n := range root.Children() {
		if b, ok := n.(*layout.RenderBox); ok && b.BoxKind == kind {
			out = append(out, b)
		}
	}
	return out
}

func texts(root layout.RenderNode, text string) int {
	var count int
	layout.Walk(root, func(n layout.RenderNode, _ int) bool {
		if t, ok := n.(*layout.RenderText); ok && t.Text == text {
			count++
		}
		return true
	})
	return count
}

func TestEndToEnd(t *testing.T) {
	var (
		snapshot *pagination.GroupSizeRecorder
		derived  *layout.RenderBox
		events   []string
	)
	listener := func(e Event) {
		events = append(events, e.Kind.String())
		if e.Kind == EventItem && e.Recorder.CurrentItems() == 1 {
			snapshot = e.Recorder.Clone()
			derived = e.Builder.Derive().Root()
		}
	}

	res, err := New(load(t, ""), Options{Listener: listener, Stats: true}, newLogger(t)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	sections := boxes(res.Root, layout.BoxSection)
	if len(sections) != 3 || res.Root.ChildCount() != 3 {
		t.Fatalf("root must hold header, group and footer sections:\n%s", layout.Dump(res.Root, layout.DumpOptions{}))
	}
	origins := []string{sections[0].Origin, sections[1].Origin, sections[2].Origin}
	if diff := cmp.Diff([]string{"page-header", "group", "page-footer"}, origins); diff != "" {
		t.Errorf("section origins mismatch (-want +got):\n%s", diff)
	}
	group := sections[1]
	if got := len(boxes(group, layout.BoxSection)); got != 4 {
		t.Errorf("group must hold header and 3 item sections, got %d", got)
	}
	if got := len(boxes(group, layout.BoxProgressMarker)); got != 3 {
		t.Errorf("progress markers = %d, want one per row", got)
	}

	if diff := cmp.Diff([]int{3}, res.Recorder.ItemCounts(1)); diff != "" {
		t.Errorf("item counts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3}, res.Recorder.GroupCounts(1)); diff != "" {
		t.Errorf("group counts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"band", "enter-group", "band", "band", "item", "band", "item", "band", "item", "leave-group", "band"}, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	// speculative continuation on the snapshot must not leak into result
	if snapshot == nil || snapshot.CurrentItems() != 1 {
		t.Fatalf("snapshot was not taken after the first item")
	}
	for range 5 {
		snapshot.AdvanceItems()
	}
	snapshot.LeaveItems()
	snapshot.LeaveGroup()
	if diff := cmp.Diff([]int{6}, snapshot.ItemCounts(1)); diff != "" {
		t.Errorf("snapshot counts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3}, res.Recorder.ItemCounts(1)); diff != "" {
		t.Errorf("original changed by snapshot (-want +got):\n%s", diff)
	}
	if derived.ChildCount() != 2 || layout.FindBox(res.Root, derived.Last().ID()) == nil {
		t.Errorf("derived tree must mirror open state at the snapshot")
	}

	if got := texts(res.Root, "Note"); got != 3 {
		t.Errorf("inline sub-report expanded %d times, want 3", got)
	}
	if res.Stats == nil || res.Stats.TotalResolves() == 0 {
		t.Errorf("resolver stats were requested")
	}
	if res.Root.Height() <= 0 {
		t.Errorf("paragraph alignment did not run")
	}
}

func TestLimitedSubReports(t *testing.T) {
	res, err := New(load(t, ""), Options{LimitedSubReports: true}, newLogger(t)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := texts(res.Root, "Note"); got != 0 {
		t.Errorf("limited sub-reports must not be expanded, found %d", got)
	}
	if len(res.Markers) != 3 {
		t.Fatalf("markers = %d, want 3", len(res.Markers))
	}
	for _, m := range res.Markers {
		if box := layout.FindBox(res.Root, m.InsertionPoint); box == nil || box.BoxKind != layout.BoxPlaceholder {
			t.Errorf("%s must be a placeholder", m.SubReport)
		}
	}
}

func TestInvisibleItemsCollapseMarkers(t *testing.T) {
	for _, tc := range []struct {
		collapse bool
		want     int
	}{{true, 1}, {false, 3}} {
		res, err := New(load(t, `style="visible: false"`), Options{CollapseProgressMarker: tc.collapse}, newLogger(t)).Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		group := boxes(res.Root, layout.BoxSection)[1]
		if got := len(boxes(group, layout.BoxProgressMarker)); got != tc.want {
			t.Errorf("collapse=%v: markers = %d, want %d", tc.collapse, got, tc.want)
		}
		if diff := cmp.Diff([]int{3}, res.Recorder.ItemCounts(1)); diff != "" {
			t.Errorf("invisible rows still count (-want +got):\n%s", diff)
		}
	}
}

func TestResolutionModesAgree(t *testing.T) {
	dump := func(designTime bool) string {
		res, err := New(load(t, ""), Options{DesignTime: designTime}, newLogger(t)).Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return layout.Dump(res.Root, layout.DumpOptions{Geometry: true, Styles: true})
	}
	if diff := cmp.Diff(dump(false), dump(true)); diff != "" {
		t.Errorf("design time tree differs (-runtime +design):\n%s", diff)
	}
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	listener := func(e Event) {
		if e.Kind == EventItem {
			cancel()
		}
	}
	_, err := New(load(t, ""), Options{Listener: listener}, newLogger(t)).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestContent(t *testing.T) {
	d := load(t, "")
	p := &pass{log: zap.NewNop(), def: d}
	p.setRow(1)

	item := d.ItemBand.Elements[0].(*report.Element)
	if v, err := p.Content(item); err != nil || v != "two" {
		t.Errorf("content = %v, %v", v, err)
	}

	img := &report.Element{TypeName: report.TypeImage, Field: "kind"}
	img.Type, _ = d.Types.Lookup(report.TypeImage)
	p.row = report.Row{"kind": "!!"}
	if _, err := p.Content(img); err == nil {
		t.Errorf("bad base64 field must fail")
	}
	p.row = report.Row{"kind": "iVBORw0KGgo="}
	if v, err := p.Content(img); err != nil || len(v.([]byte)) != 8 {
		t.Errorf("image content = %v, %v", v, err)
	}
}
