package region

import (
	"fmt"
	"sort"
	"strings"
)

// Protection describes the access permissions of a mapped region.
type Protection struct {
	Read    bool
	Write   bool
	Execute bool
}

// Rwx returns the three-character permission string for the region,
// e.g. "rwx", "r--", "r-x". A mapped region is always considered
// readable.
func (p Protection) Rwx() string {
	var sb strings.Builder
	sb.WriteByte('r')
	if p.Write {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('-')
	}
	if p.Execute {
		sb.WriteByte('x')
	} else {
		sb.WriteByte('-')
	}
	return sb.String()
}

// Matches reports whether the protection satisfies a filter string.
// The filter matches when it appears as a contiguous substring of the
// derived rwx string: "r" matches any readable region, "r-x" matches
// only regions whose string contains that exact run, and "wx" matches
// "rwx". Callers depend on these substring semantics; do not replace
// them with a per-character comparison.
func (p Protection) Matches(filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(p.Rwx(), filter)
}

// ParseProtection converts a permission string such as "r-xp" (as seen
// in /proc/[pid]/maps) into a Protection. Characters beyond the first
// three are ignored.
func ParseProtection(perms string) Protection {
	var p Protection
	if len(perms) > 0 && perms[0] == 'r' {
		p.Read = true
	}
	if len(perms) > 1 && perms[1] == 'w' {
		p.Write = true
	}
	if len(perms) > 2 && perms[2] == 'x' {
		p.Execute = true
	}
	return p
}

// Region represents a contiguous mapped range of a process's address
// space with uniform protection.
type Region struct {
	Base uint64
	Size uint
	Prot Protection
}

// String returns a string representation of the region
func (r Region) String() string {
	return fmt.Sprintf("Base: %x, Size: %d, Prot: %s", r.Base, r.Size, r.Prot.Rwx())
}

// End returns the first address past the region.
func (r Region) End() uint64 {
	return r.Base + uint64(r.Size)
}

// Contains reports whether addr falls inside the region.
func (r Region) Contains(addr uint64) bool {
	return addr >= r.Base && addr < r.End()
}

// Filter selects regions by size bounds and protection. Zero values
// disable the corresponding predicate.
type Filter struct {
	MinSize    uint
	MaxSize    uint
	Protection string
}

// Keep reports whether the region passes every enabled predicate.
func (f Filter) Keep(r Region) bool {
	if f.MinSize > 0 && r.Size < f.MinSize {
		return false
	}
	if f.MaxSize > 0 && r.Size > f.MaxSize {
		return false
	}
	return r.Prot.Matches(f.Protection)
}

// Select returns the regions passing the filter, preserving order.
func (f Filter) Select(regions []Region) []Region {
	var out []Region
	for _, r := range regions {
		if f.Keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// FindRegion returns the region containing addr, or nil. The slice must
// be sorted by base address.
func FindRegion(addr uint64, regions []Region) *Region {
	i := sort.Search(len(regions), func(i int) bool {
		return regions[i].End() > addr
	})
	if i < len(regions) && regions[i].Base <= addr {
		return &regions[i]
	}
	return nil
}
