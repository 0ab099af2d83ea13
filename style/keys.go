// Package style defines style keys, specified and resolved style sheets
// and the resolver that computes an element's effective style from its own
// declarations, its ancestors and its element type defaults.
package style

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/text/language"
)

// ValueKind is the type of values a key accepts.
type ValueKind int

const (
	KindNumber ValueKind = iota
	KindLength
	KindEnum
	KindBool
	KindColor
	KindString
	KindLanguage
)

var kindNames = [...]string{"number", "length", "enum", "bool", "color", "string", "language"}

func (k ValueKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
	return kindNames[k]
}

// Key identifies a style property. Keys are created once during package
// initialization and are immutable afterwards.
type Key struct {
	Name        string
	Index       int
	Kind        ValueKind
	Inheritable bool
	Default     any      // global default, nil when key has none
	Choices     []string // allowed values for KindEnum
}

func (k *Key) String() string {
	return k.Name
}

// Accepts checks if value has the dynamic type this key stores.
func (k *Key) Accepts(v any) bool {
	switch k.Kind {
	case KindNumber:
		_, ok := v.(float64)
		return ok
	case KindLength:
		_, ok := v.(Length)
		return ok
	case KindEnum:
		s, ok := v.(string)
		if !ok {
			return false
		}
		for _, c := range k.Choices {
			if c == s {
				return true
			}
		}
		return false
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindColor:
		_, ok := v.(colorful.Color)
		return ok
	case KindString:
		_, ok := v.(string)
		return ok
	case KindLanguage:
		_, ok := v.(language.Tag)
		return ok
	}
	return false
}

var (
	keyList   []*Key
	keyByName = map[string]*Key{}
)

func define(name string, kind ValueKind, inheritable bool, def any, choices ...string) *Key {
	if _, exists := keyByName[name]; exists {
		// this should never happen
		panic("style key defined twice: " + name)
	}
	k := &Key{
		Name:        name,
		Index:       len(keyList),
		Kind:        kind,
		Inheritable: inheritable,
		Default:     def,
		Choices:     choices,
	}
	if def != nil && !k.Accepts(def) {
		panic(fmt.Sprintf("style key %q: default %v is not a %s", name, def, kind))
	}
	keyList = append(keyList, k)
	keyByName[name] = k
	return k
}

// Vertical alignment values.
const (
	AlignBaseline = "baseline"
	AlignTop      = "top"
	AlignMiddle   = "middle"
	AlignBottom   = "bottom"
)

// Built-in keys.
var (
	FontFamily       = define("font-family", KindString, true, "Serif")
	FontSize         = define("font-size", KindLength, true, Length{Value: 10, Unit: UnitPt})
	Bold             = define("bold", KindBool, true, false)
	Italic           = define("italic", KindBool, true, false)
	Underline        = define("underline", KindBool, true, false)
	Strikethrough    = define("strikethrough", KindBool, true, false)
	TextColor        = define("text-color", KindColor, true, colorful.Color{})
	TextAlign        = define("text-align", KindEnum, true, "left", "left", "center", "right", "justify")
	LineHeight       = define("line-height", KindNumber, true, 1.2)
	Lang             = define("lang", KindLanguage, true, language.Und)
	DominantBaseline = define("dominant-baseline", KindEnum, true, "alphabetic",
		"alphabetic", "hanging", "ideographic", "mathematical", "central", "middle", "before-edge", "after-edge")

	BackgroundColor = define("background-color", KindColor, false, nil)
	VerticalAlign   = define("vertical-align", KindEnum, false, AlignBaseline,
		AlignBaseline, AlignTop, AlignMiddle, AlignBottom)
	Visible         = define("visible", KindBool, false, true)
	PaddingTop      = define("padding-top", KindLength, false, Length{Unit: UnitPt})
	PaddingBottom   = define("padding-bottom", KindLength, false, Length{Unit: UnitPt})
	PaddingLeft     = define("padding-left", KindLength, false, Length{Unit: UnitPt})
	PaddingRight    = define("padding-right", KindLength, false, Length{Unit: UnitPt})
	MinWidth        = define("min-width", KindLength, false, nil)
	MinHeight       = define("min-height", KindLength, false, nil)
	Width           = define("width", KindLength, false, nil)
	Height          = define("height", KindLength, false, nil)
	PageBreakBefore = define("page-break-before", KindBool, false, false)
	PageBreakAfter  = define("page-break-after", KindBool, false, false)
	AvoidPageBreak  = define("avoid-page-break", KindBool, false, false)
)

// KeyByName returns the key registered under name.
func KeyByName(name string) (*Key, bool) {
	k, ok := keyByName[name]
	return k, ok
}

// Keys returns all keys in index order. The returned slice must not be modified.
func Keys() []*Key {
	return keyList
}

// KeyCount returns the number of registered keys.
func KeyCount() int {
	return len(keyList)
}
