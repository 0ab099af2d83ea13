package build

import (
	"fmt"

	"go.uber.org/zap"

	"rptl/layout"
	"rptl/report"
	"rptl/style"
)

type frameKind int

const (
	frameSection frameKind = iota
	frameBox
	frameSubFlow
)

func (k frameKind) String() string {
	switch k {
	case frameSection:
		return "section"
	case frameBox:
		return "box"
	case frameSubFlow:
		return "sub-flow"
	}
	return fmt.Sprintf("frameKind(%d)", int(k))
}

type frame struct {
	kind frameKind
	box  *layout.RenderBox
}

// ModelBuilder incrementally builds render tree while report definition is
// traversed depth first. Opened sections, band boxes and sub-flows form a
// stack, new content is always appended to the innermost open box.
//
// Unbalanced brackets and use before Initialize are programming errors and
// panic. Style and content problems are returned as errors.
type ModelBuilder struct {
	log     *zap.Logger
	pc      ProcessingContext
	root    *layout.RenderBox
	factory NodeFactory
	frames  []frame

	collapseProgressMarker bool
	limitedSubReports      bool
}

// NewModelBuilder creates builder, it has to be initialized before use.
func NewModelBuilder(log *zap.Logger) *ModelBuilder {
	if log == nil {
		log = zap.NewNop()
	}
	return &ModelBuilder{log: log.Named("builder")}
}

// Initialize binds builder to output root and node factory. Builder may be
// initialized again after Close.
func (b *ModelBuilder) Initialize(pc ProcessingContext, root *layout.RenderBox, f NodeFactory) {
	if pc == nil || root == nil || f == nil {
		panic("model builder: initialize requires processing context, root box and node factory")
	}
	if len(b.frames) > 0 {
		panic(fmt.Sprintf("model builder: initialize with %d open frames", len(b.frames)))
	}
	b.pc, b.root, b.factory = pc, root, f
}

func (b *ModelBuilder) SetCollapseProgressMarker(collapse bool) { b.collapseProgressMarker = collapse }
func (b *ModelBuilder) CollapseProgressMarker() bool            { return b.collapseProgressMarker }
func (b *ModelBuilder) SetLimitedSubReports(limited bool)       { b.limitedSubReports = limited }
func (b *ModelBuilder) LimitedSubReports() bool                 { return b.limitedSubReports }

func (b *ModelBuilder) mustBeInitialized() {
	if b.root == nil {
		panic("model builder: used before Initialize")
	}
}

// Root returns root of the tree under construction.
func (b *ModelBuilder) Root() *layout.RenderBox {
	return b.root
}

// Current returns innermost open box.
func (b *ModelBuilder) Current() *layout.RenderBox {
	b.mustBeInitialized()
	if len(b.frames) == 0 {
		return b.root
	}
	return b.frames[len(b.frames)-1].box
}

// Depth returns number of open frames.
func (b *ModelBuilder) Depth() int {
	return len(b.frames)
}

// IsEmpty reports whether nothing was added to the root yet.
func (b *ModelBuilder) IsEmpty() bool {
	b.mustBeInitialized()
	return b.root.ChildCount() == 0
}

// ResolveStyle resolves style of report node with the pass resolver.
func (b *ModelBuilder) ResolveStyle(n style.Styled) (*style.Resolved, error) {
	b.mustBeInitialized()
	st, err := b.pc.Resolver().Resolve(n)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve style of %s: %w", n.StyleName(), err)
	}
	return st, nil
}

func (b *ModelBuilder) push(kind frameKind, box *layout.RenderBox) {
	b.Current().AppendChild(box)
	b.frames = append(b.frames, frame{kind: kind, box: box})
}

func (b *ModelBuilder) pop(kind frameKind) *layout.RenderBox {
	b.mustBeInitialized()
	if len(b.frames) == 0 {
		panic(fmt.Sprintf("model builder: closing %s with no open frames", kind))
	}
	top := b.frames[len(b.frames)-1]
	if top.kind != kind {
		panic(fmt.Sprintf("model builder: closing %s while %s is open", kind, top.kind))
	}
	b.frames = b.frames[:len(b.frames)-1]
	return top.box
}

// StartSection opens an anonymous section box.
func (b *ModelBuilder) StartSection() *layout.RenderBox {
	box := layout.NewBox(layout.BoxSection, "", nil)
	b.push(frameSection, box)
	return box
}

// StartSectionFor opens section box for a report section playing role kind,
// its resolved style becomes the box style. Sections which are not bands
// (groups, sub-report definitions) are passed with BandNested.
func (b *ModelBuilder) StartSectionFor(section report.Section, kind report.BandKind) (*layout.RenderBox, error) {
	st, err := b.ResolveStyle(section)
	if err != nil {
		return nil, err
	}
	box := layout.NewBox(layout.BoxSection, sectionName(section), st)
	box.Origin = kind.String()
	if kind == report.BandNested {
		box.Origin = section.StyleName()
	}
	b.push(frameSection, box)
	return box, nil
}

// EndSection closes innermost section.
func (b *ModelBuilder) EndSection() *layout.RenderBox {
	return b.pop(frameSection)
}

// StartBox opens box for a band.
func (b *ModelBuilder) StartBox(band *report.Band) (*layout.RenderBox, error) {
	st, err := b.ResolveStyle(band)
	if err != nil {
		return nil, err
	}
	box := layout.NewBox(layout.BoxBand, band.Name, st)
	box.Origin = band.Kind.String()
	b.push(frameBox, box)
	return box, nil
}

// FinishBox closes innermost band box.
func (b *ModelBuilder) FinishBox() *layout.RenderBox {
	return b.pop(frameBox)
}

// AddContentElement resolves element style and adds its content.
func (b *ModelBuilder) AddContentElement(el *report.Element, content any) error {
	st, err := b.ResolveStyle(el)
	if err != nil {
		return err
	}
	return b.AddStyledElement(el, st, content)
}

// AddStyledElement adds content of an element with already resolved style.
// Text goes into its own paragraph box, other content is appended directly.
func (b *ModelBuilder) AddStyledElement(el *report.Element, st *style.Resolved, content any) error {
	current := b.Current()

	if el.Type != nil && el.Type.Content == report.ContentText {
		text, ok := content.(string)
		if !ok && content != nil {
			return fmt.Errorf("%s: %w: text expected, got %T", el, ErrContent, content)
		}
		b.factory.StartText()
		nodes, err := b.factory.CreateText(el, st, text)
		b.factory.FinishText()
		if err != nil {
			return fmt.Errorf("unable to create text for %s: %w", el, err)
		}
		if len(nodes) == 0 {
			return nil
		}
		p := layout.NewBox(layout.BoxParagraph, el.Name, st)
		p.Origin = el.StyleName()
		for _, n := range nodes {
			p.AppendChild(n)
		}
		current.AppendChild(p)
		return nil
	}

	nodes, err := b.factory.CreateNode(el, st, content)
	if err != nil {
		return fmt.Errorf("unable to create content for %s: %w", el, err)
	}
	for _, n := range nodes {
		current.AppendChild(n)
	}
	return nil
}

// AddProgressMarkerBox appends marker box reserving a slot for pending
// content. With marker collapsing on, a marker directly following another
// one is not added and the existing marker is returned instead.
func (b *ModelBuilder) AddProgressMarkerBox() *layout.RenderBox {
	current := b.Current()
	if b.collapseProgressMarker {
		if last, ok := current.Last().(*layout.RenderBox); ok && last.IsProgressMarker() {
			return last
		}
	}
	marker := layout.NewBox(layout.BoxProgressMarker, "", nil)
	current.AppendChild(marker)
	return marker
}

// StartSubFlow opens box holding inline sub-report content.
func (b *ModelBuilder) StartSubFlow(sr *report.SubReport) (*layout.RenderBox, error) {
	st, err := b.ResolveStyle(sr)
	if err != nil {
		return nil, err
	}
	box := layout.NewBox(layout.BoxSubFlow, sr.Name, st)
	box.Origin = sr.String()
	b.push(frameSubFlow, box)
	return box, nil
}

// FinishSubFlow closes innermost sub-flow.
func (b *ModelBuilder) FinishSubFlow() *layout.RenderBox {
	return b.pop(frameSubFlow)
}

// AddSubReportPlaceholder appends single box standing for the whole
// sub-report.
func (b *ModelBuilder) AddSubReportPlaceholder(sr *report.SubReport) (*layout.RenderBox, error) {
	st, err := b.ResolveStyle(sr)
	if err != nil {
		return nil, err
	}
	box := layout.NewBox(layout.BoxPlaceholder, sr.Name, st)
	box.Origin = sr.String()
	b.Current().AppendChild(box)
	return box, nil
}

// Derive returns independent builder working on a deep copy of the tree,
// open frames included. Original builder is not affected by anything done
// with the copy.
func (b *ModelBuilder) Derive() *ModelBuilder {
	b.mustBeInitialized()
	d := &ModelBuilder{
		log:                    b.log,
		pc:                     b.pc,
		root:                   b.root.Derive(true),
		factory:                b.factory,
		frames:                 make([]frame, len(b.frames)),
		collapseProgressMarker: b.collapseProgressMarker,
		limitedSubReports:      b.limitedSubReports,
	}
	for i, f := range b.frames {
		box := layout.FindBox(d.root, f.box.ID())
		if box == nil {
			// this should never happen
			panic("model builder: open frame is not part of the tree")
		}
		d.frames[i] = frame{kind: f.kind, box: box}
	}
	return d
}

// Close finishes the pass. Any frame left open is a programming error.
func (b *ModelBuilder) Close() *layout.RenderBox {
	b.mustBeInitialized()
	if len(b.frames) > 0 {
		panic(fmt.Sprintf("model builder: closing with %d open frames, innermost %s", len(b.frames), b.frames[len(b.frames)-1].kind))
	}
	root := b.root
	b.pc, b.root, b.factory = nil, nil, nil
	if ce := b.log.Check(zap.DebugLevel, "Render tree closed"); ce != nil {
		ce.Write(zap.Stringer("root", root.ID()), zap.Int("children", root.ChildCount()))
	}
	return root
}

func sectionName(s report.Section) string {
	switch x := s.(type) {
	case *report.Band:
		return x.Name
	case *report.Group:
		return x.Name
	case *report.Definition:
		return x.Name
	case *report.SubReport:
		return x.Name
	}
	return s.StyleName()
}
