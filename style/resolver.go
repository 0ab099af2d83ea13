package style

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Styled is the read contract resolver needs from a report model node.
type Styled interface {
	// StyleParent returns enclosing section or nil for the document root.
	// The relation is a lookup only, it never implies ownership.
	StyleParent() Styled
	// SpecifiedStyle returns declarations authored on the node, may be nil.
	SpecifiedStyle() *Sheet
	// DefaultStyle returns default declarations of the node type, may be nil.
	DefaultStyle() *Sheet
	// StyleName identifies node type for diagnostics ("label", "band", ...).
	StyleName() string
}

// ErrCyclicAncestry is returned when parent links of a node form a loop.
var ErrCyclicAncestry = errors.New("cyclic ancestor chain")

// inheritedEntry is the merged inheritable declarations of a section and
// all of its ancestors.
type inheritedEntry struct {
	values []any
	stamp  int64
}

// Resolver computes resolved styles.
//
// In runtime mode the merged inheritable chain of every section is cached, so
// resolving the next child of an already seen section only merges the
// child's own declarations on top. The cache is validated by the section's
// own change counter only, changes higher up the chain go unnoticed - runtime
// resolution assumes the model is not edited during a processing run.
// Design-time mode never caches and always walks the full chain.
//
// Resolver is not safe for concurrent use, parallel layout passes must use
// their own instance.
type Resolver struct {
	log        *zap.Logger
	designTime bool
	cache      map[Styled]inheritedEntry
	stats      *Stats

	// scratch space reused between calls
	stack   []Styled
	visited map[Styled]struct{}
}

// WithDesignTime turns off inherited chain caching.
func WithDesignTime(designTime bool) func(*Resolver) {
	return func(r *Resolver) {
		r.designTime = designTime
	}
}

// WithStats enables usage counters.
func WithStats() func(*Resolver) {
	return func(r *Resolver) {
		r.stats = newStats()
	}
}

// NewResolver creates resolver, runtime mode unless WithDesignTime(true) is given.
func NewResolver(log *zap.Logger, options ...func(*Resolver)) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Resolver{
		log:     log.Named("style-resolver"),
		cache:   make(map[Styled]inheritedEntry),
		visited: make(map[Styled]struct{}),
	}
	for _, setOpt := range options {
		setOpt(r)
	}
	return r
}

// IsDesignTime returns resolution mode.
func (r *Resolver) IsDesignTime() bool {
	return r.designTime
}

// Stats returns usage counters, nil when they were not requested.
func (r *Resolver) Stats() *Stats {
	return r.stats
}

// Invalidate drops all cached inherited chains.
func (r *Resolver) Invalidate() {
	clear(r.cache)
}

// Resolve computes effective style of el:
//  1. inheritable declarations of all ancestors, root first;
//  2. all declarations of el itself;
//  3. el type defaults for keys still unset;
//  4. global key defaults for keys still unset.
//
// Relative font size (em, %) is computed against the font size of the
// parent, the resolved style always carries it in points.
func (r *Resolver) Resolve(el Styled) (*Resolved, error) {
	if el == nil {
		// this should never happen
		panic("style resolver: nil element")
	}
	values := make([]any, KeyCount())

	if parent := el.StyleParent(); parent != nil {
		inherited, err := r.inherited(el, parent)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve style of %s: %w", el.StyleName(), err)
		}
		copy(values, inherited)
	}
	parentSize := values[FontSize.Index]

	if own := el.SpecifiedStyle(); own != nil {
		for i, v := range own.values {
			if v != nil {
				values[i] = v
			}
		}
	}
	if defaults := el.DefaultStyle(); defaults != nil {
		for i, v := range defaults.values {
			if values[i] == nil && v != nil {
				values[i] = v
			}
		}
	}
	values[FontSize.Index] = computeFontSize(values[FontSize.Index], parentSize)
	for i, k := range keyList {
		if values[i] == nil && k.Default != nil {
			values[i] = k.Default
		}
	}

	r.stats.countResolve(el)
	return &Resolved{values: values}, nil
}

// inherited returns merged inheritable declarations of section and its
// ancestors. In runtime mode the result is shared with the cache and must
// not be modified.
func (r *Resolver) inherited(el, section Styled) ([]any, error) {
	if !r.designTime {
		if e, ok := r.cache[section]; ok && e.stamp == section.SpecifiedStyle().ChangeCount() {
			r.stats.countHit(section, el)
			return e.values, nil
		}
	}

	// Climb up collecting ancestors, stopping early at a usable cache entry.
	r.stack = r.stack[:0]
	clear(r.visited)
	r.visited[el] = struct{}{}

	var base []any
	for s := section; s != nil; s = s.StyleParent() {
		if _, seen := r.visited[s]; seen {
			r.stack = r.stack[:0]
			return nil, fmt.Errorf("%w at %s", ErrCyclicAncestry, s.StyleName())
		}
		r.visited[s] = struct{}{}
		if !r.designTime {
			if e, ok := r.cache[s]; ok && e.stamp == s.SpecifiedStyle().ChangeCount() {
				base = e.values
				break
			}
		}
		r.stack = append(r.stack, s)
	}
	r.stats.countWalk(len(r.stack))

	merged := make([]any, KeyCount())
	copy(merged, base)
	for i := len(r.stack) - 1; i >= 0; i-- {
		s := r.stack[i]
		mergeInheritable(merged, s.SpecifiedStyle())
		if !r.designTime {
			snapshot := make([]any, len(merged))
			copy(snapshot, merged)
			r.cache[s] = inheritedEntry{values: snapshot, stamp: s.SpecifiedStyle().ChangeCount()}
		}
	}
	r.stack = r.stack[:0]

	if ce := r.log.Check(zap.DebugLevel, "Inherited chain resolved"); ce != nil {
		ce.Write(zap.String("element", el.StyleName()), zap.String("section", section.StyleName()), zap.Bool("design-time", r.designTime))
	}
	return merged, nil
}

func mergeInheritable(dst []any, sheet *Sheet) {
	if sheet == nil {
		return
	}
	for i, v := range sheet.values {
		if v != nil && keyList[i].Inheritable {
			if i == FontSize.Index {
				v = computeFontSize(v, dst[i])
			}
			dst[i] = v
		}
	}
}

// computeFontSize converts relative font size v to points using parent
// size, global default when parent has none. Absolute sizes and nil are
// returned as is.
func computeFontSize(v, parent any) any {
	l, ok := v.(Length)
	if !ok || (l.Unit != UnitEm && l.Unit != UnitPercent) {
		return v
	}
	base := FontSize.Default.(Length).Value
	if p, ok := parent.(Length); ok {
		base = p.Points(base)
	}
	return Length{Value: l.Points(base), Unit: UnitPt}
}
