package style

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/text/language"

	"rptl/style/css"
)

// Unit of a length value.
type Unit string

const (
	UnitPt      Unit = "pt"
	UnitPx      Unit = "px"
	UnitMm      Unit = "mm"
	UnitCm      Unit = "cm"
	UnitIn      Unit = "in"
	UnitEm      Unit = "em"
	UnitPercent Unit = "%"
)

// Length is a dimension with unit. Relative units (em, %) are resolved
// against a base when converted to points.
type Length struct {
	Value float64
	Unit  Unit
}

// Points converts length to points. Relative lengths use base (in points):
// em multiplies it, percent takes the fraction of it.
func (l Length) Points(base float64) float64 {
	switch l.Unit {
	case UnitPx:
		return l.Value * 72 / 96
	case UnitMm:
		return l.Value * 72 / 25.4
	case UnitCm:
		return l.Value * 72 / 2.54
	case UnitIn:
		return l.Value * 72
	case UnitEm:
		return l.Value * base
	case UnitPercent:
		return l.Value * base / 100
	default:
		return l.Value
	}
}

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + string(l.Unit)
}

// ErrBadValue is returned when declaration value does not fit key kind.
var ErrBadValue = errors.New("bad style value")

// FromCSS converts parsed declaration value to the type key stores.
func FromCSS(k *Key, v css.Value) (any, error) {
	switch k.Kind {
	case KindNumber:
		if !v.IsNumeric() || (v.Unit != "" && v.Unit != "%") {
			return nil, fmt.Errorf("%s: %w: number expected, got %q", k.Name, ErrBadValue, v.Raw)
		}
		if v.Unit == "%" {
			return v.Value / 100, nil
		}
		return v.Value, nil

	case KindLength:
		if !v.IsNumeric() {
			return nil, fmt.Errorf("%s: %w: length expected, got %q", k.Name, ErrBadValue, v.Raw)
		}
		unit := Unit(v.Unit)
		switch unit {
		case "":
			unit = UnitPt
		case UnitPt, UnitPx, UnitMm, UnitCm, UnitIn, UnitEm, UnitPercent:
		default:
			return nil, fmt.Errorf("%s: %w: unsupported unit %q", k.Name, ErrBadValue, v.Unit)
		}
		return Length{Value: v.Value, Unit: unit}, nil

	case KindEnum:
		s := strings.ToLower(v.Keyword)
		if !k.Accepts(s) {
			return nil, fmt.Errorf("%s: %w: expected one of %v, got %q", k.Name, ErrBadValue, k.Choices, v.Raw)
		}
		return s, nil

	case KindBool:
		if v.IsNumeric() && v.Unit == "" {
			return v.Value != 0, nil
		}
		switch strings.ToLower(v.Keyword) {
		case "true", "yes", "on":
			return true, nil
		case "false", "no", "off", "none":
			return false, nil
		}
		return nil, fmt.Errorf("%s: %w: boolean expected, got %q", k.Name, ErrBadValue, v.Raw)

	case KindColor:
		c, err := ParseColor(v.Keyword)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k.Name, err)
		}
		return c, nil

	case KindString:
		if v.Keyword != "" {
			return v.Keyword, nil
		}
		return v.Raw, nil

	case KindLanguage:
		tag, err := language.Parse(v.Keyword)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", k.Name, ErrBadValue, err)
		}
		return tag, nil
	}
	// this should never happen
	panic("unknown style value kind " + k.Kind.String())
}

var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#c0c0c0",
	"maroon":  "#800000",
	"navy":    "#000080",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"teal":    "#008080",
	"lime":    "#00ff00",
	"aqua":    "#00ffff",
	"fuchsia": "#ff00ff",
	"olive":   "#808000",
}

// ParseColor parses "#rgb", "#rrggbb" or one of the basic color names.
func ParseColor(s string) (colorful.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[s]; ok {
		s = hex
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) == 4 {
		s = string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("%w: bad color %q", ErrBadValue, s)
	}
	return c, nil
}

// FormatValue returns printable representation of a style value.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "<unset>"
	case colorful.Color:
		return x.Hex()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case language.Tag:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
