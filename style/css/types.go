// Package css reads the CSS-like syntax report definitions use for style
// declarations: inline declaration blocks on elements and rule blocks in
// report stylesheets.
package css

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Value represents a parsed declaration value.
type Value struct {
	Raw     string  // Original value string (e.g., "1.2em", "bold", "#ff0000")
	Value   float64 // Numeric value if applicable
	Unit    string  // Unit if applicable: "em", "px", "%", "pt", etc.
	Keyword string  // Keyword if applicable: "true", "center", "#ff0000", etc.
}

// IsNumeric returns true if the value has a numeric component.
// This includes explicit zero values like "0" or "0pt".
func (v Value) IsNumeric() bool {
	if v.Unit != "" {
		return true
	}
	if v.Value != 0 && v.Keyword == "" {
		return true
	}
	// "0" has neither unit nor keyword
	if v.Raw != "" && v.Keyword == "" {
		first := rune(v.Raw[0])
		if unicode.IsDigit(first) || first == '.' || first == '-' || first == '+' {
			return true
		}
	}
	return false
}

// IsKeyword returns true if the value is a keyword (no numeric component).
func (v Value) IsKeyword() bool {
	return v.Keyword != "" && v.Unit == ""
}

// Declaration is a single "name: value" pair in source order.
type Declaration struct {
	Name  string
	Value Value
}

// Selector addresses report elements by type, by class or by both
// ("label", ".title", "label.title").
type Selector struct {
	Raw     string
	Element string
	Class   string
}

// IsSimple returns true if selector names an element type, a class or both.
func (s Selector) IsSimple() bool {
	return s.Element != "" || s.Class != ""
}

// Rule represents a single rule (selector + declarations).
type Rule struct {
	Selector     Selector
	Declarations []Declaration
	SourceLine   int
}

// Stylesheet is a parsed report stylesheet.
type Stylesheet struct {
	Rules    []Rule
	Warnings []string // Warnings for unsupported features
}

// RulesFor returns rules matching element type and class in source order.
// Type-only rules come before class rules so later (more specific) rules
// override earlier ones when applied in order.
func (s *Stylesheet) RulesFor(element, class string) []Rule {
	if s == nil {
		return nil
	}
	var byType, byClass []Rule
	for _, r := range s.Rules {
		sel := r.Selector
		switch {
		case sel.Class == "" && sel.Element == element:
			byType = append(byType, r)
		case sel.Class != "" && sel.Class == class && (sel.Element == "" || sel.Element == element):
			byClass = append(byClass, r)
		}
	}
	return append(byType, byClass...)
}

// WriteTo writes stylesheet back in CSS syntax.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i := range s.Rules {
		n, err := writeRule(w, &s.Rules[i])
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns stylesheet in CSS syntax.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	_, _ = s.WriteTo(&sb)
	return sb.String()
}

func writeRule(w io.Writer, rule *Rule) (int, error) {
	total, err := fmt.Fprintf(w, "%s {\n", rule.Selector.Raw)
	if err != nil {
		return total, err
	}
	for _, d := range rule.Declarations {
		n, err := fmt.Fprintf(w, "  %s: %s;\n", d.Name, d.Value.Raw)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := io.WriteString(w, "}\n")
	return total + n, err
}
