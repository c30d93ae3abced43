// Package disasm adapts golang.org/x/arch instruction decoders to the
// xref scanner.
package disasm

import (
	"fmt"
	"strings"

	"memprobe/xref"

	"golang.org/x/arch/x86/x86asm"
)

// jumpOps is the set of direct jump operations, conditional and
// unconditional.
var jumpOps = map[x86asm.Op]bool{
	x86asm.JMP:   true,
	x86asm.LJMP:  true,
	x86asm.JA:    true,
	x86asm.JAE:   true,
	x86asm.JB:    true,
	x86asm.JBE:   true,
	x86asm.JCXZ:  true,
	x86asm.JE:    true,
	x86asm.JECXZ: true,
	x86asm.JG:    true,
	x86asm.JGE:   true,
	x86asm.JL:    true,
	x86asm.JLE:   true,
	x86asm.JNE:   true,
	x86asm.JNO:   true,
	x86asm.JNP:   true,
	x86asm.JNS:   true,
	x86asm.JO:    true,
	x86asm.JP:    true,
	x86asm.JRCXZ: true,
	x86asm.JS:    true,
}

// X86 decodes x86 instruction streams in 32- or 64-bit mode.
type X86 struct {
	mode int
}

var _ xref.Decoder = (*X86)(nil)

// NewX86 creates a decoder for the given mode, 32 or 64 bits.
func NewX86(bits int) (*X86, error) {
	switch bits {
	case 32, 64:
		return &X86{mode: bits}, nil
	}
	return nil, fmt.Errorf("unsupported x86 mode %d", bits)
}

// Decode produces a linear listing of buf starting at base. Positions
// that fail to decode become single-byte "(bad)" entries so the listing
// always covers the whole buffer.
func (d *X86) Decode(buf []byte, base uint64) []xref.Inst {
	var insts []xref.Inst
	for i := 0; i < len(buf); {
		addr := base + uint64(i)
		inst, err := x86asm.Decode(buf[i:], d.mode)
		if err != nil {
			insts = append(insts, xref.Inst{
				Address:  addr,
				Len:      1,
				Mnemonic: "(bad)",
				Bytes:    buf[i : i+1],
			})
			i++
			continue
		}
		insts = append(insts, convert(inst, addr, buf[i:i+inst.Len]))
		i += inst.Len
	}
	return insts
}

// convert maps a decoded instruction to the scanner's representation,
// collecting immediate, relative, and memory-displacement operands.
func convert(inst x86asm.Inst, addr uint64, raw []byte) xref.Inst {
	out := xref.Inst{
		Address: addr,
		Len:     inst.Len,
		Bytes:   raw,
		IsCall:  inst.Op == x86asm.CALL || inst.Op == x86asm.LCALL,
		IsJump:  jumpOps[inst.Op],
	}

	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		switch a := arg.(type) {
		case x86asm.Rel:
			out.Imms = append(out.Imms, int64(a))
		case x86asm.Imm:
			out.Imms = append(out.Imms, int64(a))
		case x86asm.Mem:
			if a.Disp != 0 {
				out.MemDisp = append(out.MemDisp, a.Disp)
			}
		}
	}

	text := strings.ToLower(x86asm.IntelSyntax(inst, addr, nil))
	out.Mnemonic, out.Text, _ = strings.Cut(text, " ")
	return out
}
