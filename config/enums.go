package config

import (
	"fmt"
	"strings"
)

// Amount of details in the box tree dump.
// ENUM(brief, geometry, full)
type DumpDetail int

const (
	DumpDetailBrief DumpDetail = iota
	DumpDetailGeometry
	DumpDetailFull
)

var dumpDetailNames = [...]string{"brief", "geometry", "full"}

// ErrInvalidDumpDetail is returned when parsing unknown detail name.
var ErrInvalidDumpDetail = fmt.Errorf("not a valid DumpDetail, try [%s]", strings.Join(dumpDetailNames[:], ", "))

func (d DumpDetail) String() string {
	if d < 0 || int(d) >= len(dumpDetailNames) {
		return fmt.Sprintf("DumpDetail(%d)", int(d))
	}
	return dumpDetailNames[d]
}

// IsValid reports whether d is one of the defined values.
func (d DumpDetail) IsValid() bool {
	return d >= 0 && int(d) < len(dumpDetailNames)
}

// DumpDetailNames returns names of all defined values.
func DumpDetailNames() []string {
	return append([]string(nil), dumpDetailNames[:]...)
}

// ParseDumpDetail converts name to DumpDetail, case insensitive.
func ParseDumpDetail(name string) (DumpDetail, error) {
	for i, n := range dumpDetailNames {
		if strings.EqualFold(n, name) {
			return DumpDetail(i), nil
		}
	}
	return DumpDetail(0), fmt.Errorf("%s is %w", name, ErrInvalidDumpDetail)
}

func (d DumpDetail) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("%d is %w", int(d), ErrInvalidDumpDetail)
	}
	return []byte(d.String()), nil
}

func (d *DumpDetail) UnmarshalText(text []byte) error {
	v, err := ParseDumpDetail(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
