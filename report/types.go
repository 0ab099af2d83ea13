package report

import (
	"fmt"
	"maps"
	"slices"

	"rptl/style"
	"rptl/style/css"
)

// ContentKind tells what content an element type produces.
type ContentKind int

const (
	ContentNone ContentKind = iota
	ContentText
	ContentImage
	ContentShape
)

func (k ContentKind) String() string {
	switch k {
	case ContentNone:
		return "none"
	case ContentText:
		return "text"
	case ContentImage:
		return "image"
	case ContentShape:
		return "shape"
	}
	return fmt.Sprintf("ContentKind(%d)", int(k))
}

// Built-in element type names.
const (
	TypeReport      = "report"
	TypeGroup       = "group"
	TypeBand        = "band"
	TypeSubReport   = "sub-report"
	TypeLabel       = "label"
	TypeTextField   = "text-field"
	TypeNumberField = "number-field"
	TypeImage       = "image"
	TypeRectangle   = "rectangle"
)

// ElementType describes a kind of report node and carries its default style.
type ElementType struct {
	Name     string
	Content  ContentKind
	Defaults *style.Sheet
}

// TypeRegistry maps element type names to types. Every definition owns its
// registry so that a report stylesheet can extend type defaults without
// affecting other reports.
type TypeRegistry struct {
	types map[string]*ElementType
}

// NewTypeRegistry returns registry with built-in types.
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{types: make(map[string]*ElementType)}

	r.Register(&ElementType{Name: TypeReport, Content: ContentNone})
	r.Register(&ElementType{Name: TypeGroup, Content: ContentNone})
	r.Register(&ElementType{Name: TypeBand, Content: ContentNone})
	r.Register(&ElementType{Name: TypeSubReport, Content: ContentNone})
	r.Register(&ElementType{Name: TypeLabel, Content: ContentText})
	r.Register(&ElementType{Name: TypeTextField, Content: ContentText})
	r.Register(&ElementType{Name: TypeNumberField, Content: ContentText,
		Defaults: style.NewSheet().Set(style.TextAlign, "right")})
	r.Register(&ElementType{Name: TypeImage, Content: ContentImage,
		Defaults: style.NewSheet().Set(style.VerticalAlign, style.AlignBottom)})
	r.Register(&ElementType{Name: TypeRectangle, Content: ContentShape})
	return r
}

// Register adds or replaces element type.
func (r *TypeRegistry) Register(t *ElementType) {
	if t.Defaults == nil {
		t.Defaults = style.NewSheet()
	}
	r.types[t.Name] = t
}

// Lookup returns element type by name.
func (r *TypeRegistry) Lookup(name string) (*ElementType, bool) {
	t, ok := r.types[name]
	return t, ok
}

func (r *TypeRegistry) mustLookup(name string) *ElementType {
	t, ok := r.types[name]
	if !ok {
		// this should never happen
		panic("built-in element type is missing: " + name)
	}
	return t
}

// Names returns registered type names in sorted order.
func (r *TypeRegistry) Names() []string {
	return slices.Sorted(maps.Keys(r.types))
}

// Clone returns independent copy of the registry.
func (r *TypeRegistry) Clone() *TypeRegistry {
	c := &TypeRegistry{types: make(map[string]*ElementType, len(r.types))}
	for name, t := range r.types {
		c.types[name] = &ElementType{Name: t.Name, Content: t.Content, Defaults: t.Defaults.Clone()}
	}
	return c
}

// ApplyStylesheet extends type defaults with type-only rules of the sheet.
// Class rules are applied to individual nodes by the loader. Problems with
// individual declarations are returned, everything else is applied.
func (r *TypeRegistry) ApplyStylesheet(sheet *css.Stylesheet) []error {
	var errs []error
	for _, rule := range sheet.Rules {
		if rule.Selector.Class != "" {
			continue
		}
		t, ok := r.types[rule.Selector.Element]
		if !ok {
			errs = append(errs, fmt.Errorf("stylesheet line %d: unknown element type %q", rule.SourceLine, rule.Selector.Element))
			continue
		}
		for _, err := range t.Defaults.Apply(rule.Declarations) {
			errs = append(errs, fmt.Errorf("stylesheet line %d: %w", rule.SourceLine, err))
		}
	}
	return errs
}
