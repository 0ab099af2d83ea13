package style

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// Stats counts resolver usage. Counters are diagnostics only, nothing in
// resolution depends on them. All methods are no-op on nil receiver.
type Stats struct {
	resolves map[string]int
	hits     map[string]int
	walks    int
	walked   int
}

func newStats() *Stats {
	return &Stats{
		resolves: make(map[string]int),
		hits:     make(map[string]int),
	}
}

func (s *Stats) countResolve(el Styled) {
	if s == nil {
		return
	}
	s.resolves[el.StyleName()]++
}

func (s *Stats) countHit(section, el Styled) {
	if s == nil {
		return
	}
	s.hits[section.StyleName()+" > "+el.StyleName()]++
}

func (s *Stats) countWalk(depth int) {
	if s == nil {
		return
	}
	s.walks++
	s.walked += depth
}

// Resolves returns number of resolutions performed for element type name.
func (s *Stats) Resolves(name string) int {
	if s == nil {
		return 0
	}
	return s.resolves[name]
}

// TotalResolves returns number of resolutions for all element types.
func (s *Stats) TotalResolves() int {
	if s == nil {
		return 0
	}
	total := 0
	for _, n := range s.resolves {
		total += n
	}
	return total
}

// CacheHits returns number of resolutions served from the inherited chain
// cache for the given section and child type names.
func (s *Stats) CacheHits(section, child string) int {
	if s == nil {
		return 0
	}
	return s.hits[section+" > "+child]
}

// TotalCacheHits returns number of resolutions served from cache.
func (s *Stats) TotalCacheHits() int {
	if s == nil {
		return 0
	}
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// Walks returns number of ancestor chain walks and total number of
// sections merged during them.
func (s *Stats) Walks() (walks, sections int) {
	if s == nil {
		return 0, 0
	}
	return s.walks, s.walked
}

// WriteTo writes counters in human readable form.
func (s *Stats) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

func (s *Stats) String() string {
	if s == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("resolves:\n")
	writeCounters(&sb, s.resolves)
	sb.WriteString("cache hits:\n")
	writeCounters(&sb, s.hits)
	fmt.Fprintf(&sb, "walks: %d, sections merged: %d\n", s.walks, s.walked)
	return sb.String()
}

func writeCounters(sb *strings.Builder, m map[string]int) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	for _, name := range names {
		fmt.Fprintf(sb, "  %s: %d\n", name, m[name])
	}
}
