// Package hexdump formats byte buffers as offset/hex/ASCII listings
// for inspecting scanned memory.
package hexdump

import (
	"fmt"
	"strings"
	"unicode"
)

// Options defines options for customizing the hexdump output
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// GroupSize defines the grouping of bytes (usually 1, 2, 4, or 8)
	GroupSize int

	// ShowASCII determines whether to show the ASCII representation
	ShowASCII bool

	// StartOffset is the address printed for the first byte
	StartOffset uint64

	// OffsetWidth is the width of the offset column in hex digits
	OffsetWidth int
}

// DefaultOptions returns the standard 16-bytes-per-line layout.
func DefaultOptions() Options {
	return Options{
		BytesPerLine: 16,
		GroupSize:    1,
		ShowASCII:    true,
		OffsetWidth:  16,
	}
}

// Dump renders data as a multi-line hexdump.
func Dump(data []byte, opts Options) string {
	if opts.BytesPerLine <= 0 {
		opts.BytesPerLine = 16
	}
	if opts.GroupSize <= 0 {
		opts.GroupSize = 1
	}
	if opts.OffsetWidth <= 0 {
		opts.OffsetWidth = 16
	}

	var sb strings.Builder
	for lineStart := 0; lineStart < len(data); lineStart += opts.BytesPerLine {
		lineEnd := lineStart + opts.BytesPerLine
		if lineEnd > len(data) {
			lineEnd = len(data)
		}
		formatLine(&sb, data[lineStart:lineEnd], opts.StartOffset+uint64(lineStart), opts)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatLine(sb *strings.Builder, line []byte, offset uint64, opts Options) {
	fmt.Fprintf(sb, "%0*x  ", opts.OffsetWidth, offset)

	for i := 0; i < opts.BytesPerLine; i++ {
		if i > 0 && i%opts.GroupSize == 0 {
			sb.WriteByte(' ')
		}
		if i < len(line) {
			fmt.Fprintf(sb, "%02x", line[i])
		} else {
			// Pad short final lines so the ASCII column stays aligned.
			sb.WriteString("  ")
		}
	}

	if opts.ShowASCII {
		sb.WriteString("  |")
		for _, b := range line {
			if b < 128 && unicode.IsPrint(rune(b)) {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('|')
	}
}

// DumpBytes renders data with the default layout starting at offset 0.
func DumpBytes(data []byte) string {
	return Dump(data, DefaultOptions())
}

// DumpWithOffset renders data with the default layout, labeling the
// first byte with startOffset.
func DumpWithOffset(data []byte, startOffset uint64) string {
	opts := DefaultOptions()
	opts.StartOffset = startOffset
	return Dump(data, opts)
}
