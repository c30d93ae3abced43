// Package pattern implements wildcard byte-pattern scanning over a
// process's memory. Patterns are whitespace-separated tokens, each
// either a two-hex-digit byte or a single "?" wildcard, e.g.
// "48 8B ? ? 89 7C".
package pattern

import (
	"fmt"
	"strconv"
	"strings"
)

// Element is one position of a pattern: an exact byte or a wildcard.
type Element struct {
	Value    byte
	Wildcard bool
}

// Pattern is an ordered sequence of elements. Empty patterns are
// invalid.
type Pattern []Element

// Parse converts a pattern string into a Pattern. Tokens must be "?"
// or exactly two hexadecimal digits (case-insensitive); anything else,
// or an empty pattern, is a caller error.
func Parse(s string) (Pattern, error) {
	var p Pattern
	for _, token := range strings.Fields(s) {
		if token == "?" {
			p = append(p, Element{Wildcard: true})
			continue
		}
		if len(token) != 2 {
			return nil, fmt.Errorf("invalid pattern token %q", token)
		}
		v, err := strconv.ParseUint(token, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern token %q", token)
		}
		p = append(p, Element{Value: byte(v)})
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}
	return p, nil
}

// String renders the pattern back to its textual form.
func (p Pattern) String() string {
	var sb strings.Builder
	for i, e := range p {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if e.Wildcard {
			sb.WriteByte('?')
		} else {
			fmt.Fprintf(&sb, "%02X", e.Value)
		}
	}
	return sb.String()
}

// matchAt reports whether the pattern matches buf starting at i. The
// caller guarantees i+len(p) <= len(buf).
func (p Pattern) matchAt(buf []byte, i int) bool {
	for j, e := range p {
		if e.Wildcard {
			continue
		}
		if buf[i+j] != e.Value {
			return false
		}
	}
	return true
}

// FindAll returns every offset in buf where the pattern matches, in
// ascending order.
func (p Pattern) FindAll(buf []byte) []int {
	var offsets []int
	for i := 0; i+len(p) <= len(buf); i++ {
		if p.matchAt(buf, i) {
			offsets = append(offsets, i)
		}
	}
	return offsets
}
