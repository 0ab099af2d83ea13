package report

import (
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"rptl/style"
	"rptl/style/css"
)

// Loader reads report definitions from XML.
//
//	<report name="..." style="...">
//	  <stylesheet>label.title { bold: true }</stylesheet>
//	  <page-header>...</page-header>
//	  <report-header>...</report-header>
//	  <group name="..." field="..."> <group-header/> <group/> <group-footer/> </group>
//	  <items>...</items>
//	  <report-footer/> <page-footer/>
//	  <data> <row field="value"/> </data>
//	</report>
//
// Bands contain label, text-field, number-field, image, rectangle elements,
// nested band and sub-report elements, the latter wrap a nested report.
type Loader struct {
	log    *zap.Logger
	parser *css.Parser
	extra  []*css.Stylesheet
}

// NewLoader creates loader.
func NewLoader(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		log:    log.Named("report-loader"),
		parser: css.NewParser(log),
	}
}

// AddStylesheet registers external stylesheet applied before the ones
// embedded into report definitions.
func (l *Loader) AddStylesheet(data []byte, source string) *css.Stylesheet {
	sheet := l.parser.Parse(data, source)
	l.extra = append(l.extra, sheet)
	return sheet
}

// Load reads and links report definition. Non fatal problems (bad style
// declarations, unknown attributes) are collected in Definition.Warnings.
func (l *Loader) Load(r io.Reader) (*Definition, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		ValidateInput: false,
		Permissive:    true,
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to read report definition: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	if root.Tag != TypeReport {
		return nil, fmt.Errorf("unexpected root element %q", root.Tag)
	}

	d, err := l.parseReport(root, NewTypeRegistry(), l.extra)
	if err != nil {
		return nil, err
	}
	if err := d.Link(); err != nil {
		return nil, fmt.Errorf("unable to link report %q: %w", d.Name, err)
	}
	if d.Warnings != nil {
		l.log.Warn("Report definition has problems", zap.String("report", d.Name), zap.Int("count", len(multierr.Errors(d.Warnings))))
	}
	return d, nil
}

// reportScope is the state shared by all nodes of one definition.
type reportScope struct {
	def    *Definition
	sheets []*css.Stylesheet
}

func (s *reportScope) warn(el *etree.Element, format string, args ...any) {
	s.def.Warnings = multierr.Append(s.def.Warnings, fmt.Errorf("%s: %s", el.GetPath(), fmt.Sprintf(format, args...)))
}

func (l *Loader) parseReport(el *etree.Element, types *TypeRegistry, sheets []*css.Stylesheet) (*Definition, error) {
	d := &Definition{
		Name:  el.SelectAttrValue("name", ""),
		Types: types,
	}
	scope := &reportScope{def: d, sheets: sheets}

	// stylesheets first, they affect everything else
	for _, child := range el.SelectElements("stylesheet") {
		sheet := l.parser.Parse([]byte(child.Text()), child.GetPath())
		for _, w := range sheet.Warnings {
			scope.warn(child, "%s", w)
		}
		scope.sheets = append(scope.sheets, sheet)
	}
	for _, sheet := range scope.sheets {
		for _, err := range types.ApplyStylesheet(sheet) {
			scope.warn(el, "%v", err)
		}
	}
	d.Style = l.parseStyle(scope, el, TypeReport)

	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "stylesheet":
		case "page-header":
			b, err := l.parseBand(scope, child, BandPageHeader)
			if err != nil {
				return nil, err
			}
			d.PageHeader = b
		case "report-header":
			b, err := l.parseBand(scope, child, BandReportHeader)
			if err != nil {
				return nil, err
			}
			d.ReportHeader = b
		case "group":
			if d.Group != nil {
				scope.warn(child, "only one top level group allowed, nest groups instead")
				continue
			}
			g, err := l.parseGroup(scope, child)
			if err != nil {
				return nil, err
			}
			d.Group = g
		case "items":
			b, err := l.parseBand(scope, child, BandItems)
			if err != nil {
				return nil, err
			}
			d.ItemBand = b
		case "report-footer":
			b, err := l.parseBand(scope, child, BandReportFooter)
			if err != nil {
				return nil, err
			}
			d.ReportFooter = b
		case "page-footer":
			b, err := l.parseBand(scope, child, BandPageFooter)
			if err != nil {
				return nil, err
			}
			d.PageFooter = b
		case "data":
			d.Data = parseData(child)
		default:
			scope.warn(child, "unexpected tag in report, ignoring")
		}
	}
	if d.Group != nil {
		l.log.Debug("Report groups", zap.String("report", d.Name), zap.Int("depth", d.Group.depthInScope()))
	}
	return d, nil
}

func (l *Loader) parseGroup(scope *reportScope, el *etree.Element) (*Group, error) {
	g := &Group{
		Name:  el.SelectAttrValue("name", ""),
		Field: el.SelectAttrValue("field", ""),
		Style: l.parseStyle(scope, el, TypeGroup),
	}
	if g.Field == "" {
		scope.warn(el, "group %q has no field, it will never break", g.Name)
	}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "group-header":
			b, err := l.parseBand(scope, child, BandGroupHeader)
			if err != nil {
				return nil, err
			}
			g.Header = b
		case "group-footer":
			b, err := l.parseBand(scope, child, BandGroupFooter)
			if err != nil {
				return nil, err
			}
			g.Footer = b
		case "group":
			if g.Group != nil {
				scope.warn(child, "only one nested group allowed")
				continue
			}
			sub, err := l.parseGroup(scope, child)
			if err != nil {
				return nil, err
			}
			sub.parent = g
			g.Group = sub
		default:
			scope.warn(child, "unexpected tag in group, ignoring")
		}
	}
	return g, nil
}

func (l *Loader) parseBand(scope *reportScope, el *etree.Element, kind BandKind) (*Band, error) {
	b := &Band{
		Kind:  kind,
		Name:  el.SelectAttrValue("name", ""),
		Class: el.SelectAttrValue("class", ""),
	}
	b.Style = l.parseStyle(scope, el, TypeBand)

	for _, child := range el.ChildElements() {
		switch child.Tag {
		case TypeBand:
			nested, err := l.parseBand(scope, child, BandNested)
			if err != nil {
				return nil, err
			}
			b.Elements = append(b.Elements, nested)
		case TypeSubReport:
			sr, err := l.parseSubReport(scope, child)
			if err != nil {
				return nil, err
			}
			b.Elements = append(b.Elements, sr)
		default:
			t, ok := scope.def.Types.Lookup(child.Tag)
			if !ok || t.Content == ContentNone {
				scope.warn(child, "unknown element %q, ignoring", child.Tag)
				continue
			}
			e, err := l.parseElement(scope, child, t)
			if err != nil {
				return nil, err
			}
			b.Elements = append(b.Elements, e)
		}
	}
	return b, nil
}

func (l *Loader) parseElement(scope *reportScope, el *etree.Element, t *ElementType) (*Element, error) {
	e := &Element{
		TypeName: t.Name,
		Type:     t,
		Name:     el.SelectAttrValue("name", ""),
		Class:    el.SelectAttrValue("class", ""),
		Field:    el.SelectAttrValue("field", ""),
		Value:    el.SelectAttrValue("value", ""),
	}
	if e.Value == "" && e.Field == "" {
		e.Value = strings.TrimSpace(el.Text())
	}
	if t.Content == ContentImage {
		if src := el.SelectAttrValue("data", ""); src != "" {
			data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(src), ""))
			if err != nil {
				return nil, fmt.Errorf("%s: bad image data: %w", el.GetPath(), err)
			}
			e.Data = data
		}
	}
	e.Style = l.parseStyle(scope, el, t.Name)
	return e, nil
}

func (l *Loader) parseSubReport(scope *reportScope, el *etree.Element) (*SubReport, error) {
	sr := &SubReport{
		Name:  el.SelectAttrValue("name", ""),
		Class: el.SelectAttrValue("class", ""),
	}
	if v := el.SelectAttrValue("inline", ""); v != "" {
		inline, err := strconv.ParseBool(v)
		if err != nil {
			scope.warn(el, "bad inline attribute %q", v)
		}
		sr.Inline = inline
	}
	sr.Style = l.parseStyle(scope, el, TypeSubReport)

	nested := el.SelectElement(TypeReport)
	if nested == nil {
		return nil, fmt.Errorf("%s: sub-report %q has no report definition", el.GetPath(), sr.Name)
	}
	d, err := l.parseReport(nested, scope.def.Types.Clone(), scope.sheets)
	if err != nil {
		return nil, fmt.Errorf("sub-report %q: %w", sr.Name, err)
	}
	if d.Name == "" {
		d.Name = sr.Name
	}
	scope.def.Warnings = multierr.Append(scope.def.Warnings, d.Warnings)
	d.Warnings = nil
	sr.Definition = d
	return sr, nil
}

// parseStyle builds specified sheet of a node: class rules of all
// stylesheets in scope followed by the inline style attribute.
func (l *Loader) parseStyle(scope *reportScope, el *etree.Element, typeName string) *style.Sheet {
	s := style.NewSheet()
	if class := el.SelectAttrValue("class", ""); class != "" {
		for _, sheet := range scope.sheets {
			for _, rule := range sheet.RulesFor(typeName, class) {
				if rule.Selector.Class == "" {
					// type rules are part of type defaults
					continue
				}
				for _, err := range s.Apply(rule.Declarations) {
					scope.warn(el, "class %q: %v", class, err)
				}
			}
		}
	}
	if inline := el.SelectAttrValue("style", ""); inline != "" {
		for _, err := range s.Apply(l.parser.ParseDeclarations(inline)) {
			scope.warn(el, "%v", err)
		}
	}
	return s
}

func parseData(el *etree.Element) *DataSet {
	ds := &DataSet{}
	for _, rowEl := range el.SelectElements("row") {
		row := make(Row, len(rowEl.Attr))
		order := make([]string, 0, len(rowEl.Attr))
		for _, a := range rowEl.Attr {
			row[a.Key] = a.Value
			order = append(order, a.Key)
		}
		ds.Add(row, order...)
	}
	return ds
}

// depthInScope counts nested groups below and including g.
func (g *Group) depthInScope() int {
	n := 0
	for ; g != nil; g = g.Group {
		n++
	}
	return n
}
