// Package xref locates code references to a target address by scanning
// executable regions for candidate opcode bytes and verifying each
// candidate with an instruction decoder.
package xref

import (
	"fmt"
	"strings"

	"memprobe/process"
)

// Type classifies a verified reference.
type Type int

const (
	TypeCall     Type = iota // direct call, e.g. call rel32
	TypeJump                 // direct jump, e.g. jmp rel32
	TypeIndirect             // indirect call through memory, e.g. call [addr]
	TypeDataRef              // any other operand reference
)

func (t Type) String() string {
	switch t {
	case TypeCall:
		return "call"
	case TypeJump:
		return "jump"
	case TypeIndirect:
		return "indirect"
	case TypeDataRef:
		return "data_ref"
	}
	return "unknown"
}

// Inst is one decoded instruction as seen by the scanner. Imms holds
// immediate and relative-displacement operands; MemDisp holds memory
// operand displacements.
type Inst struct {
	Address  uint64
	Len      int
	Mnemonic string
	Text     string
	Bytes    []byte
	IsCall   bool
	IsJump   bool
	Imms     []int64
	MemDisp  []int64
}

// Decoder turns a byte buffer into a linear instruction listing.
// Implementations advance one byte past undecodable positions so the
// listing always covers the whole buffer.
type Decoder interface {
	Decode(buf []byte, base uint64) []Inst
}

// Result is one verified reference to the scan target.
type Result struct {
	Address     process.ProcessMemoryAddress
	Type        Type
	Instruction Inst
	Context     []string
}

// Options configures a cross-reference scan.
type Options struct {
	// IncludeJumps also treats jmp rel32 (0xE9) bytes as candidates.
	IncludeJumps bool

	// IncludeIndirect also treats call [addr] (0xFF 0x15) bytes as
	// candidates.
	IncludeIndirect bool

	// ContextCount widens the disassembly context window around each
	// verified reference. Zero keeps the minimal window.
	ContextCount int

	// Protection filters regions by their rwx string (substring
	// semantics). Empty defaults to executable regions, "r-x".
	Protection string

	// MinRegionSize skips regions smaller than this. Zero disables.
	MinRegionSize uint
}

// formatInst renders one listing line in fixed columns: address,
// instruction bytes, mnemonic, operands.
func formatInst(in Inst) string {
	var hexBytes strings.Builder
	for i, b := range in.Bytes {
		if i > 0 {
			hexBytes.WriteByte(' ')
		}
		fmt.Fprintf(&hexBytes, "%02x", b)
	}
	return fmt.Sprintf("%-10s %-20s %-8s %s",
		fmt.Sprintf("0x%x", in.Address), hexBytes.String(), in.Mnemonic, in.Text)
}
