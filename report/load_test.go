package report

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"rptl/style"
)

const sampleReport = `<?xml version="1.0" encoding="UTF-8"?>
<report name="orders" style="font-size: 11pt">
  <stylesheet>
    label { font-family: Mono }
    .title { bold: true; font-size: 16pt }
    number-field.total { underline: true }
  </stylesheet>
  <page-header>
    <label class="title" value="Orders"/>
  </page-header>
  <group name="customer" field="customer">
    <group-header><text-field field="customer"/></group-header>
    <group-footer><number-field class="total" field="amount" style="italic: true"/></group-footer>
  </group>
  <items style="line-height: 1.5">
    <text-field name="item" field="item"/>
    <number-field field="amount"/>
    <sub-report name="notes" inline="true">
      <report>
        <items><label>Note</label></items>
      </report>
    </sub-report>
  </items>
  <page-footer>
    <band name="inner"><label>Page</label></band>
    <image data="iVBORw0KGgo="/>
  </page-footer>
  <data>
    <row customer="alpha" item="pen" amount="3"/>
    <row customer="alpha" item="ink" amount="5"/>
    <row customer="beta" item="pad" amount="1"/>
  </data>
</report>`

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	return NewLoader(zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))))
}

func TestLoad(t *testing.T) {
	d, err := newTestLoader(t).Load(strings.NewReader(sampleReport))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Warnings != nil {
		t.Errorf("unexpected warnings: %v", d.Warnings)
	}
	if d.Name != "orders" {
		t.Errorf("name = %q", d.Name)
	}

	if d.PageHeader == nil || d.PageFooter == nil || d.ItemBand == nil {
		t.Fatalf("bands are missing: %+v", d)
	}
	if d.Group == nil || d.Group.Field != "customer" || d.Group.Header == nil || d.Group.Footer == nil {
		t.Fatalf("group is not loaded: %+v", d.Group)
	}
	if d.ItemBand.Parent() != Section(d.Group) {
		t.Errorf("items band must be enclosed by innermost group")
	}

	if diff := cmp.Diff([]string{"customer", "item", "amount"}, d.Data.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if d.Data.Len() != 3 || d.Data.Row(2)["item"] != "pad" {
		t.Errorf("unexpected data: %+v", d.Data.Rows)
	}

	title := d.PageHeader.Elements[0].(*Element)
	if v, _ := title.Style.Get(style.Bold); v != true {
		t.Errorf("class rule was not applied to title: %s", title.Style)
	}
	if v, _ := title.Type.Defaults.Get(style.FontFamily); v != "Mono" {
		t.Errorf("type rule was not applied to label defaults: %s", title.Type.Defaults)
	}

	total := d.Group.Footer.Elements[0].(*Element)
	if got := total.Style.String(); got != "italic: true; underline: true" {
		t.Errorf("total style = %q", got)
	}
	if total.Content(Row{"amount": "8"}) != "8" {
		t.Errorf("field content is not taken from row")
	}

	sr := d.ItemBand.Elements[2].(*SubReport)
	if !sr.Inline || sr.Definition == nil || sr.Definition.Name != "notes" {
		t.Fatalf("sub-report is not loaded: %+v", sr)
	}
	if !sr.Definition.IsSubReport() || sr.Definition.StyleParent() != style.Styled(sr) {
		t.Errorf("sub-report definition is not linked to its element")
	}
	note := sr.Definition.ItemBand.Elements[0].(*Element)
	if note.Value != "Note" {
		t.Errorf("text content = %q", note.Value)
	}
	// sub-report has its own copy of type defaults
	if note.Type == title.Type {
		t.Errorf("sub-report shares type registry with master")
	}

	img := d.PageFooter.Elements[1].(*Element)
	if len(img.Data) != 8 || img.Type.Content != ContentImage {
		t.Errorf("image data = %v", img.Data)
	}
	if _, ok := d.PageFooter.Elements[0].(*Band); !ok {
		t.Errorf("nested band expected")
	}
}

func TestLoadWarnings(t *testing.T) {
	const doc = `<report>
  <stylesheet>widget { bold: true } label { glow: 1 }</stylesheet>
  <items style="font-size: huge">
    <gizmo/>
    <label/>
  </items>
  <extra/>
</report>`
	d, err := newTestLoader(t).Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	warnings := multierr.Errors(d.Warnings)
	if len(warnings) != 5 {
		t.Fatalf("expected 5 warnings, got %d: %v", len(warnings), d.Warnings)
	}
	if !strings.Contains(d.Warnings.Error(), "/report/items") {
		t.Errorf("warnings must carry node path: %v", d.Warnings)
	}
	// implicit default group encloses items band
	if d.Group == nil || d.Group.Name != "default" || d.ItemBand.Parent() != Section(d.Group) {
		t.Errorf("implicit group was not created")
	}
	if got := len(d.ItemBand.Elements); got != 1 {
		t.Errorf("unknown element must be skipped, have %d elements", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", "no markup here"},
		{"wrong root", "<document/>"},
		{"empty sub-report", `<report><items><sub-report name="x"/></items></report>`},
		{"bad image", `<report><items><image data="***"/></items></report>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newTestLoader(t).Load(strings.NewReader(tt.doc)); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestWalkAndDepth(t *testing.T) {
	inner := &Group{Name: "inner", Field: "b"}
	d := &Definition{
		Name:     "nested",
		Group:    &Group{Name: "outer", Field: "a", Group: inner, Header: &Band{Kind: BandGroupHeader}},
		ItemBand: &Band{Kind: BandItems, Elements: []Node{&Element{TypeName: TypeLabel, Value: "x"}}},
	}
	if err := d.Link(); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if inner.Depth() != 2 || d.Group.Depth() != 1 {
		t.Errorf("depth = %d/%d, want 2/1", d.Group.Depth(), inner.Depth())
	}

	var names []string
	Walk(d, func(n Node) bool {
		names = append(names, n.StyleName())
		return true
	})
	want := []string{"report", "group", "band", "group", "band", "label"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}

	bad := &Definition{ItemBand: &Band{Elements: []Node{&Element{TypeName: "widget"}}}}
	if err := bad.Link(); err == nil {
		t.Errorf("expected unknown type error")
	}
}
