package style

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type testNode struct {
	name     string
	parent   *testNode
	own      *Sheet
	defaults *Sheet
}

func (n *testNode) StyleParent() Styled {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *testNode) SpecifiedStyle() *Sheet { return n.own }
func (n *testNode) DefaultStyle() *Sheet   { return n.defaults }
func (n *testNode) StyleName() string      { return n.name }

func newTestResolver(t *testing.T, options ...func(*Resolver)) *Resolver {
	t.Helper()
	return NewResolver(zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))), options...)
}

// root(font-size 14, bg red) > band(bold) > label
func newChain() (root, band, label *testNode) {
	red, _ := ParseColor("red")
	root = &testNode{name: "root", own: NewSheet().
		Set(FontSize, Length{Value: 14, Unit: UnitPt}).
		Set(BackgroundColor, red)}
	band = &testNode{name: "band", parent: root, own: NewSheet().Set(Bold, true)}
	label = &testNode{name: "label", parent: band, own: NewSheet()}
	return
}

func TestResolveInheritance(t *testing.T) {
	_, band, label := newChain()
	r := newTestResolver(t)

	got, err := r.Resolve(label)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if fs, _ := got.Length(FontSize); fs != (Length{Value: 14, Unit: UnitPt}) {
		t.Errorf("font-size = %v, want 14pt inherited from root", fs)
	}
	if !got.Bool(Bold) {
		t.Errorf("bold not inherited from band")
	}
	// background-color is not inheritable and has no default
	if got.IsSet(BackgroundColor) {
		t.Errorf("background-color leaked from root: %v", got)
	}

	// band itself sees root's inheritable keys, and its own non-inheritable ones
	band.own.Set(VerticalAlign, AlignTop)
	got, err = r.Resolve(band)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Text(VerticalAlign) != AlignTop {
		t.Errorf("vertical-align = %q, want own value", got.Text(VerticalAlign))
	}
	if got.IsSet(BackgroundColor) {
		t.Errorf("background-color leaked from root into band")
	}
}

func TestResolvePrecedence(t *testing.T) {
	blue, _ := ParseColor("blue")
	green, _ := ParseColor("green")

	root := &testNode{name: "root", own: NewSheet().Set(TextColor, blue)}
	label := &testNode{
		name:     "label",
		parent:   root,
		own:      NewSheet(),
		defaults: NewSheet().Set(TextColor, green).Set(TextAlign, "center").Set(BackgroundColor, green),
	}
	r := newTestResolver(t)

	got, err := r.Resolve(label)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// inherited value wins over type default
	if c, _ := got.Color(TextColor); c != blue {
		t.Errorf("text-color = %s, want inherited %s", c.Hex(), blue.Hex())
	}
	if got.Text(TextAlign) != "center" {
		t.Errorf("text-align = %q, want type default", got.Text(TextAlign))
	}
	if c, ok := got.Color(BackgroundColor); !ok || c != green {
		t.Errorf("background-color = %v, want type default", c)
	}
	// global default fills what remains
	if got.Float(LineHeight) != 1.2 {
		t.Errorf("line-height = %v, want global default", got.Float(LineHeight))
	}

	// own declaration wins over everything
	label.own.Set(TextColor, green)
	r.Invalidate()
	got, err = r.Resolve(label)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c, _ := got.Color(TextColor); c != green {
		t.Errorf("text-color = %s, want own %s", c.Hex(), green.Hex())
	}
}

func TestResolveIdempotent(t *testing.T) {
	for _, designTime := range []bool{false, true} {
		_, _, label := newChain()
		r := newTestResolver(t, WithDesignTime(designTime))

		first, err := r.Resolve(label)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		for range 3 {
			again, err := r.Resolve(label)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if !first.Equal(again) {
				t.Errorf("design-time=%v: repeated resolution differs: %v != %v", designTime, first, again)
			}
		}
	}
}

func TestResolveModesAgree(t *testing.T) {
	root, band, label := newChain()
	sibling := &testNode{name: "text", parent: band, own: NewSheet().Set(Italic, true)}
	nested := &testNode{name: "sub", parent: band, own: NewSheet().Set(FontFamily, "Mono")}
	deep := &testNode{name: "deep", parent: nested, own: NewSheet()}

	runtime := newTestResolver(t)
	design := newTestResolver(t, WithDesignTime(true))

	for _, el := range []*testNode{root, band, label, sibling, nested, deep, label, deep} {
		a, err := runtime.Resolve(el)
		if err != nil {
			t.Fatalf("runtime Resolve(%s): %v", el.name, err)
		}
		b, err := design.Resolve(el)
		if err != nil {
			t.Fatalf("design Resolve(%s): %v", el.name, err)
		}
		if !a.Equal(b) {
			t.Errorf("%s: runtime %v != design-time %v", el.name, a, b)
		}
	}

	res, err := runtime.Resolve(deep)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := res.Text(FontFamily); got != "Mono" {
		t.Errorf("font-family = %q, want inherited from nested section", got)
	}
}

func TestResolveSiblingIsolation(t *testing.T) {
	_, band, label := newChain()
	other := &testNode{name: "other", parent: band, own: NewSheet()}
	label.own.Set(Italic, true).Set(FontSize, Length{Value: 20, Unit: UnitPt})

	r := newTestResolver(t)
	if _, err := r.Resolve(label); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got, err := r.Resolve(other)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Bool(Italic) {
		t.Errorf("italic of sibling leaked")
	}
	if fs, _ := got.Length(FontSize); fs.Value != 14 {
		t.Errorf("font-size = %v, want 14pt", fs)
	}
}

func TestResolveRuntimeCacheInvalidation(t *testing.T) {
	_, band, label := newChain()
	r := newTestResolver(t, WithStats())

	if _, err := r.Resolve(label); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// section sheet change is picked up by change counter
	band.own.Set(Underline, true)
	got, err := r.Resolve(label)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !got.Bool(Underline) {
		t.Errorf("underline change of section was not picked up")
	}

	if _, err := r.Resolve(label); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if hits := r.Stats().CacheHits("band", "label"); hits != 1 {
		t.Errorf("cache hits = %d, want 1\n%s", hits, r.Stats())
	}
	if got := r.Stats().Resolves("label"); got != 3 {
		t.Errorf("resolves = %d, want 3", got)
	}
}

func TestResolveDesignTimeSeesAncestorEdits(t *testing.T) {
	root, _, label := newChain()
	r := newTestResolver(t, WithDesignTime(true), WithStats())

	if _, err := r.Resolve(label); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	root.own.Set(FontFamily, "Sans")
	got, err := r.Resolve(label)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Text(FontFamily) != "Sans" {
		t.Errorf("font-family = %q, want edit of root", got.Text(FontFamily))
	}
	if hits := r.Stats().TotalCacheHits(); hits != 0 {
		t.Errorf("design-time resolver used cache %d times", hits)
	}
	if walks, sections := r.Stats().Walks(); walks != 2 || sections != 4 {
		t.Errorf("walks = %d/%d, want 2/4", walks, sections)
	}
}

func TestResolveCyclicAncestry(t *testing.T) {
	a := &testNode{name: "a", own: NewSheet()}
	b := &testNode{name: "b", parent: a, own: NewSheet()}
	a.parent = b
	label := &testNode{name: "label", parent: b, own: NewSheet()}

	for _, designTime := range []bool{false, true} {
		r := newTestResolver(t, WithDesignTime(designTime))
		_, err := r.Resolve(label)
		if !errors.Is(err, ErrCyclicAncestry) {
			t.Errorf("design-time=%v: error = %v, want ErrCyclicAncestry", designTime, err)
		}
	}
}

func TestResolveRoot(t *testing.T) {
	red, _ := ParseColor("#f00")
	root := &testNode{name: "root", own: NewSheet().Set(BackgroundColor, red)}
	got, err := newTestResolver(t).Resolve(root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := map[string]string{}
	for _, k := range Keys() {
		if k.Default != nil {
			want[k.Name] = FormatValue(k.Default)
		}
	}
	want[BackgroundColor.Name] = "#ff0000"

	have := map[string]string{}
	for k, v := range got.All() {
		have[k.Name] = FormatValue(v)
	}
	if diff := cmp.Diff(want, have); diff != "" {
		t.Errorf("resolved root mismatch (-want +got):\n%s", diff)
	}
	if c, ok := got.Color(TextColor); !ok || c != (colorful.Color{}) {
		t.Errorf("text-color = %v, want black default", c)
	}
}

func TestResolveRelativeFontSize(t *testing.T) {
	pt := func(v float64) Length { return Length{Value: v, Unit: UnitPt} }

	cases := []struct {
		name     string
		root     any // font-size of root, nil when unset
		band     any
		label    any
		defaults any // label type default
		want     Length
	}{
		{name: "em of parent", root: pt(20), label: Length{Value: 2, Unit: UnitEm}, want: pt(40)},
		{name: "percent of parent", root: pt(20), label: Length{Value: 50, Unit: UnitPercent}, want: pt(10)},
		{name: "compounds down the chain", root: pt(20), band: Length{Value: 150, Unit: UnitPercent},
			label: Length{Value: 2, Unit: UnitEm}, want: pt(60)},
		{name: "inherited computed size", root: pt(8), band: Length{Value: 2, Unit: UnitEm}, want: pt(16)},
		{name: "global default base", label: Length{Value: 1.5, Unit: UnitEm}, want: pt(15)},
		{name: "type default is relative too", root: pt(12), defaults: Length{Value: 2, Unit: UnitEm}, want: pt(24)},
		{name: "absolute kept", root: pt(20), label: pt(7), want: pt(7)},
	}
	for _, designTime := range []bool{false, true} {
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				root := &testNode{name: "root", own: NewSheet().Set(FontSize, tc.root)}
				band := &testNode{name: "band", parent: root, own: NewSheet().Set(FontSize, tc.band)}
				label := &testNode{name: "label", parent: band, own: NewSheet().Set(FontSize, tc.label),
					defaults: NewSheet().Set(FontSize, tc.defaults)}

				r := newTestResolver(t, WithDesignTime(designTime))
				for range 2 {
					got, err := r.Resolve(label)
					if err != nil {
						t.Fatalf("Resolve: %v", err)
					}
					if fs, _ := got.Length(FontSize); fs != tc.want {
						t.Errorf("design-time=%v: font-size = %v, want %v", designTime, fs, tc.want)
					}
					if got.FontSizePoints() != tc.want.Value {
						t.Errorf("design-time=%v: FontSizePoints() = %v", designTime, got.FontSizePoints())
					}
				}
			})
		}
	}
}
