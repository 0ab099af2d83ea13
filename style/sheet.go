package style

import (
	"fmt"
	"iter"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/text/language"

	"rptl/style/css"
)

// Sheet holds declarations authored on a report element or an element type.
// Unset slots are nil. Every mutation bumps the change counter so cached
// resolution results can detect that they are stale.
type Sheet struct {
	values  []any
	changes int64
}

// NewSheet creates an empty sheet.
func NewSheet() *Sheet {
	return &Sheet{values: make([]any, KeyCount())}
}

// Set stores value for key. Value must have the type key stores, anything
// else is a programming error.
func (s *Sheet) Set(k *Key, v any) *Sheet {
	if v == nil {
		s.Unset(k)
		return s
	}
	if !k.Accepts(v) {
		panic(fmt.Sprintf("style key %q does not accept %T(%v)", k.Name, v, v))
	}
	s.values[k.Index] = v
	s.changes++
	return s
}

// Unset removes declaration for key.
func (s *Sheet) Unset(k *Key) {
	if s.values[k.Index] != nil {
		s.values[k.Index] = nil
		s.changes++
	}
}

// Get returns declared value for key.
func (s *Sheet) Get(k *Key) (any, bool) {
	if s == nil {
		return nil, false
	}
	v := s.values[k.Index]
	return v, v != nil
}

// Len returns number of declared keys.
func (s *Sheet) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, v := range s.values {
		if v != nil {
			n++
		}
	}
	return n
}

// All iterates over declared keys in index order.
func (s *Sheet) All() iter.Seq2[*Key, any] {
	return func(yield func(*Key, any) bool) {
		if s == nil {
			return
		}
		for i, v := range s.values {
			if v == nil {
				continue
			}
			if !yield(keyList[i], v) {
				return
			}
		}
	}
}

// ChangeCount returns modification counter of the sheet.
func (s *Sheet) ChangeCount() int64 {
	if s == nil {
		return 0
	}
	return s.changes
}

// Clone returns an independent copy of the sheet.
func (s *Sheet) Clone() *Sheet {
	c := NewSheet()
	if s != nil {
		copy(c.values, s.values)
		c.changes = s.changes
	}
	return c
}

// Apply sets values of parsed declarations. Declarations naming unknown keys
// or carrying malformed values are skipped and reported back as errors,
// the rest is applied.
func (s *Sheet) Apply(decls []css.Declaration) []error {
	var errs []error
	for _, d := range decls {
		k, ok := KeyByName(d.Name)
		if !ok {
			errs = append(errs, fmt.Errorf("unknown style key %q", d.Name))
			continue
		}
		v, err := FromCSS(k, d.Value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.Set(k, v)
	}
	return errs
}

func (s *Sheet) String() string {
	var sb strings.Builder
	for k, v := range s.All() {
		if sb.Len() > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(k.Name)
		sb.WriteString(": ")
		sb.WriteString(FormatValue(v))
	}
	return sb.String()
}

// Resolved is the computed style of an element. It is never modified once
// returned by the resolver.
type Resolved struct {
	values []any
}

// Get returns computed value for key.
func (r *Resolved) Get(k *Key) (any, bool) {
	if r == nil {
		return k.Default, k.Default != nil
	}
	v := r.values[k.Index]
	return v, v != nil
}

// IsSet reports whether key has a computed value.
func (r *Resolved) IsSet(k *Key) bool {
	_, ok := r.Get(k)
	return ok
}

// Float returns numeric value of the key or 0.
func (r *Resolved) Float(k *Key) float64 {
	v, _ := r.Get(k)
	f, _ := v.(float64)
	return f
}

// Length returns length value of the key and whether it is set.
func (r *Resolved) Length(k *Key) (Length, bool) {
	v, _ := r.Get(k)
	l, ok := v.(Length)
	return l, ok
}

// Bool returns boolean value of the key or false.
func (r *Resolved) Bool(k *Key) bool {
	v, _ := r.Get(k)
	b, _ := v.(bool)
	return b
}

// Text returns string or enum value of the key or "".
func (r *Resolved) Text(k *Key) string {
	v, _ := r.Get(k)
	s, _ := v.(string)
	return s
}

// Color returns color value of the key and whether it is set.
func (r *Resolved) Color(k *Key) (colorful.Color, bool) {
	v, _ := r.Get(k)
	c, ok := v.(colorful.Color)
	return c, ok
}

// Language returns language tag of the key, language.Und when unset.
func (r *Resolved) Language(k *Key) language.Tag {
	v, _ := r.Get(k)
	if t, ok := v.(language.Tag); ok {
		return t
	}
	return language.Und
}

// FontSizePoints returns font size in points. Resolver computes relative
// sizes, unresolved style falls back to the global font size default.
func (r *Resolved) FontSizePoints() float64 {
	base := FontSize.Default.(Length).Value
	if l, ok := r.Length(FontSize); ok {
		return l.Points(base)
	}
	return base
}

// Equal reports whether both sheets have the same value for every key.
func (r *Resolved) Equal(o *Resolved) bool {
	if r == nil || o == nil {
		return r == o
	}
	for i := range r.values {
		if r.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

// All iterates over computed keys in index order.
func (r *Resolved) All() iter.Seq2[*Key, any] {
	return func(yield func(*Key, any) bool) {
		if r == nil {
			return
		}
		for i, v := range r.values {
			if v == nil {
				continue
			}
			if !yield(keyList[i], v) {
				return
			}
		}
	}
}

func (r *Resolved) String() string {
	var sb strings.Builder
	for k, v := range r.All() {
		if sb.Len() > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(k.Name)
		sb.WriteString(": ")
		sb.WriteString(FormatValue(v))
	}
	return sb.String()
}
