// Package report holds the report definition model the layout pipeline
// consumes: bands, groups, elements and nested sub-reports, their specified
// styles and the inline data set.
package report

import (
	"fmt"

	"rptl/style"
)

// Node is anything that can be placed into a report section.
type Node interface {
	style.Styled
	// Parent returns the enclosing section, nil for a top level definition.
	// This is a back reference, sections own their children.
	Parent() Section
	setParent(Section)
}

// Section is a node that contains other nodes.
type Section interface {
	Node
	Children() []Node
}

func styleParent(s Section) style.Styled {
	if s == nil {
		return nil
	}
	return s
}

// Element is a leaf report element: static label, field, image or shape.
type Element struct {
	TypeName string
	Type     *ElementType
	Name     string
	Class    string
	Field    string // data field to take value from, empty for static elements
	Value    string // static value, used when Field is empty
	Data     []byte // embedded binary content for images
	Style    *style.Sheet

	parent Section
}

func (e *Element) Parent() Section           { return e.parent }
func (e *Element) setParent(s Section)       { e.parent = s }
func (e *Element) StyleParent() style.Styled { return styleParent(e.parent) }
func (e *Element) SpecifiedStyle() *style.Sheet {
	return e.Style
}

func (e *Element) DefaultStyle() *style.Sheet {
	if e.Type == nil {
		return nil
	}
	return e.Type.Defaults
}

func (e *Element) StyleName() string {
	if e.Type != nil {
		return e.Type.Name
	}
	return e.TypeName
}

func (e *Element) String() string {
	if e.Name != "" {
		return e.StyleName() + "#" + e.Name
	}
	return e.StyleName()
}

// BandKind tells where in report structure a band sits.
type BandKind int

const (
	BandNested BandKind = iota
	BandPageHeader
	BandReportHeader
	BandGroupHeader
	BandItems
	BandGroupFooter
	BandReportFooter
	BandPageFooter
)

var bandKindNames = [...]string{"band", "page-header", "report-header", "group-header", "items", "group-footer", "report-footer", "page-footer"}

func (k BandKind) String() string {
	if k < 0 || int(k) >= len(bandKindNames) {
		return fmt.Sprintf("BandKind(%d)", int(k))
	}
	return bandKindNames[k]
}

// ParseBandKind returns band kind for its XML tag.
func ParseBandKind(s string) (BandKind, bool) {
	for i, n := range bandKindNames {
		if n == s {
			return BandKind(i), true
		}
	}
	return BandNested, false
}

// Band is a section holding elements, nested bands and sub-reports.
type Band struct {
	Kind     BandKind
	Name     string
	Class    string
	Type     *ElementType
	Style    *style.Sheet
	Elements []Node

	parent Section
}

func (b *Band) Parent() Section           { return b.parent }
func (b *Band) setParent(s Section)       { b.parent = s }
func (b *Band) Children() []Node          { return b.Elements }
func (b *Band) StyleParent() style.Styled { return styleParent(b.parent) }
func (b *Band) SpecifiedStyle() *style.Sheet {
	return b.Style
}

func (b *Band) DefaultStyle() *style.Sheet {
	if b.Type == nil {
		return nil
	}
	return b.Type.Defaults
}

func (b *Band) StyleName() string {
	return TypeBand
}

func (b *Band) String() string {
	if b.Name != "" {
		return b.Kind.String() + "#" + b.Name
	}
	return b.Kind.String()
}

// Group breaks data rows on change of its field value. Groups nest, the
// innermost group encloses the items band.
type Group struct {
	Name   string
	Field  string
	Type   *ElementType
	Style  *style.Sheet
	Header *Band
	Footer *Band
	Group  *Group

	items  *Band
	parent Section
}

func (g *Group) Parent() Section           { return g.parent }
func (g *Group) setParent(s Section)       { g.parent = s }
func (g *Group) StyleParent() style.Styled { return styleParent(g.parent) }
func (g *Group) SpecifiedStyle() *style.Sheet {
	return g.Style
}

func (g *Group) DefaultStyle() *style.Sheet {
	if g.Type == nil {
		return nil
	}
	return g.Type.Defaults
}

func (g *Group) StyleName() string { return TypeGroup }

func (g *Group) Children() []Node {
	var nodes []Node
	if g.Header != nil {
		nodes = append(nodes, g.Header)
	}
	if g.Group != nil {
		nodes = append(nodes, g.Group)
	} else if g.items != nil {
		nodes = append(nodes, g.items)
	}
	if g.Footer != nil {
		nodes = append(nodes, g.Footer)
	}
	return nodes
}

// Depth returns nesting level of the group, outermost group is 1.
func (g *Group) Depth() int {
	depth := 0
	for s := Section(g); s != nil; s = s.Parent() {
		if _, ok := s.(*Group); ok {
			depth++
		}
		if _, ok := s.(*Definition); ok {
			break
		}
	}
	return depth
}

// Innermost returns the deepest nested group.
func (g *Group) Innermost() *Group {
	for g.Group != nil {
		g = g.Group
	}
	return g
}

// SubReport embeds another report definition. Inline sub-reports flow
// together with the master report content, the others are laid out as
// separate passes.
type SubReport struct {
	Name       string
	Class      string
	Inline     bool
	Type       *ElementType
	Style      *style.Sheet
	Definition *Definition

	parent Section
}

func (s *SubReport) Parent() Section           { return s.parent }
func (s *SubReport) setParent(p Section)       { s.parent = p }
func (s *SubReport) StyleParent() style.Styled { return styleParent(s.parent) }
func (s *SubReport) SpecifiedStyle() *style.Sheet {
	return s.Style
}

func (s *SubReport) DefaultStyle() *style.Sheet {
	if s.Type == nil {
		return nil
	}
	return s.Type.Defaults
}

func (s *SubReport) StyleName() string { return TypeSubReport }

func (s *SubReport) Children() []Node {
	if s.Definition == nil {
		return nil
	}
	return []Node{s.Definition}
}

func (s *SubReport) String() string {
	return TypeSubReport + "#" + s.Name
}

// Definition is a master report or the content of a sub-report.
type Definition struct {
	Name         string
	Type         *ElementType
	Style        *style.Sheet
	Types        *TypeRegistry
	PageHeader   *Band
	ReportHeader *Band
	Group        *Group
	ItemBand     *Band
	ReportFooter *Band
	PageFooter   *Band
	Data         *DataSet

	// Warnings collects non fatal problems found while loading.
	Warnings error

	parent Section
}

func (d *Definition) Parent() Section           { return d.parent }
func (d *Definition) setParent(s Section)       { d.parent = s }
func (d *Definition) StyleParent() style.Styled { return styleParent(d.parent) }
func (d *Definition) SpecifiedStyle() *style.Sheet {
	return d.Style
}

func (d *Definition) DefaultStyle() *style.Sheet {
	if d.Type == nil {
		return nil
	}
	return d.Type.Defaults
}

func (d *Definition) StyleName() string { return TypeReport }

func (d *Definition) Children() []Node {
	var nodes []Node
	for _, b := range []*Band{d.PageHeader, d.ReportHeader} {
		if b != nil {
			nodes = append(nodes, b)
		}
	}
	if d.Group != nil {
		nodes = append(nodes, d.Group)
	}
	for _, b := range []*Band{d.ReportFooter, d.PageFooter} {
		if b != nil {
			nodes = append(nodes, b)
		}
	}
	return nodes
}

// IsSubReport reports whether definition is embedded into another one.
func (d *Definition) IsSubReport() bool {
	return d.parent != nil
}

// Link establishes parent references and element types across the whole
// definition tree and makes sure definition has at least the implicit
// default group enclosing its items band. It must be called after the
// definition is assembled or modified structurally.
func (d *Definition) Link() error {
	if d.Types == nil {
		d.Types = NewTypeRegistry()
	}
	if d.Style == nil {
		d.Style = style.NewSheet()
	}
	d.Type = d.Types.mustLookup(TypeReport)

	if d.Group == nil {
		d.Group = &Group{Name: "default"}
	}
	if d.ItemBand == nil {
		d.ItemBand = &Band{Kind: BandItems}
	}

	for _, b := range []*Band{d.PageHeader, d.ReportHeader, d.ReportFooter, d.PageFooter} {
		if b == nil {
			continue
		}
		if err := d.linkBand(b, d); err != nil {
			return err
		}
	}

	var parent Section = d
	for g := d.Group; g != nil; g = g.Group {
		g.setParent(parent)
		g.Type = d.Types.mustLookup(TypeGroup)
		if g.Style == nil {
			g.Style = style.NewSheet()
		}
		for _, b := range []*Band{g.Header, g.Footer} {
			if b == nil {
				continue
			}
			if err := d.linkBand(b, g); err != nil {
				return fmt.Errorf("group %q: %w", g.Name, err)
			}
		}
		parent = g
	}
	innermost := d.Group.Innermost()
	innermost.items = d.ItemBand
	return d.linkBand(d.ItemBand, innermost)
}

func (d *Definition) linkBand(b *Band, parent Section) error {
	b.setParent(parent)
	b.Type = d.Types.mustLookup(TypeBand)
	if b.Style == nil {
		b.Style = style.NewSheet()
	}
	for _, n := range b.Elements {
		n.setParent(b)
		switch x := n.(type) {
		case *Band:
			if err := d.linkBand(x, b); err != nil {
				return err
			}
		case *Element:
			if x.Type == nil {
				t, ok := d.Types.Lookup(x.TypeName)
				if !ok {
					return fmt.Errorf("%s: unknown element type %q", b, x.TypeName)
				}
				x.Type = t
			}
			if x.Style == nil {
				x.Style = style.NewSheet()
			}
		case *SubReport:
			x.Type = d.Types.mustLookup(TypeSubReport)
			if x.Style == nil {
				x.Style = style.NewSheet()
			}
			if x.Definition == nil {
				return fmt.Errorf("%s: sub-report %q has no definition", b, x.Name)
			}
			x.Definition.setParent(x)
			if x.Definition.Types == nil {
				x.Definition.Types = d.Types
			}
			if err := x.Definition.Link(); err != nil {
				return fmt.Errorf("sub-report %q: %w", x.Name, err)
			}
		default:
			// this should never happen
			panic(fmt.Sprintf("unexpected node type %T in band", n))
		}
	}
	return nil
}

// Walk visits every node of the definition depth first, sub-report
// definitions included. Walk stops when fn returns false.
func Walk(n Node, fn func(Node) bool) bool {
	if !fn(n) {
		return false
	}
	if s, ok := n.(Section); ok {
		for _, c := range s.Children() {
			if !Walk(c, fn) {
				return false
			}
		}
	}
	return true
}
