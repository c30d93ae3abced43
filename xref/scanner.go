package xref

import (
	"fmt"

	"memprobe/process"
	"memprobe/process/region"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// verifyWindow bounds the decode chunk around a candidate offset. 15
// bytes is the maximum x86 instruction length, so a window this wide
// always contains the full owning instruction.
const verifyWindow = 15

// Scanner locates references to a target address across a process's
// executable memory.
type Scanner struct {
	handle  process.Handle
	decoder Decoder
	log     *logger.Logger
}

// New creates a Scanner over the given handle and decoder.
func New(handle process.Handle, decoder Decoder) *Scanner {
	return &Scanner{
		handle:  handle,
		decoder: decoder,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorLimeGreen, coloransi.ColorOrange, "xref-scan")),
	}
}

// candidate is one opcode-byte hit awaiting verification.
type candidate struct {
	offset   int
	indirect bool
}

// Scan returns every verified reference to target. The first pass
// collects candidate opcode bytes (0xE8, plus 0xE9 and 0xFF 0x15 when
// enabled); the second pass decodes a window around each candidate and
// keeps only instructions whose operands resolve to the target.
func (s *Scanner) Scan(target process.ProcessMemoryAddress, opts Options) ([]Result, error) {
	if opts.Protection == "" {
		opts.Protection = "r-x"
	}

	regions, err := s.handle.Regions()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate regions: %w", err)
	}

	filter := region.Filter{MinSize: opts.MinRegionSize, Protection: opts.Protection}

	s.log.Infoln("Starting xref scan for target", fmt.Sprintf("0x%x", uint64(target)))

	var results []Result
	for _, r := range filter.Select(regions) {
		buf, err := s.handle.ReadMemory(process.ProcessMemoryAddress(r.Base), process.ProcessMemorySize(r.Size))
		if err != nil {
			s.log.Debugln("Failed to read region at", fmt.Sprintf("%x", r.Base), err)
			continue
		}

		for _, c := range findCandidates(buf, opts) {
			// Too close to the region end for a full instruction
			// plus operands.
			if c.offset+10 >= len(buf) {
				continue
			}
			if res, ok := s.verify(buf, r.Base, c, uint64(target), opts); ok {
				results = append(results, res)
			}
		}
	}

	s.log.Infoln("Scan complete, found", len(results), "references")
	return results, nil
}

// findCandidates returns the offsets of every candidate opcode byte.
func findCandidates(buf []byte, opts Options) []candidate {
	var out []candidate
	for i, b := range buf {
		switch {
		case b == 0xE8:
			out = append(out, candidate{offset: i})
		case opts.IncludeJumps && b == 0xE9:
			out = append(out, candidate{offset: i})
		case opts.IncludeIndirect && b == 0xFF && i+1 < len(buf) && buf[i+1] == 0x15:
			out = append(out, candidate{offset: i, indirect: true})
		}
	}
	return out
}

// verify decodes a window around the candidate, finds the instruction
// owning the candidate byte, and checks its operands against the
// target.
func (s *Scanner) verify(buf []byte, base uint64, c candidate, target uint64, opts Options) (Result, bool) {
	start := c.offset - verifyWindow
	if start < 0 {
		start = 0
	}
	end := c.offset + verifyWindow
	if end > len(buf) {
		end = len(buf)
	}

	insts := s.decoder.Decode(buf[start:end], base+uint64(start))

	candidateAddr := base + uint64(c.offset)
	for _, in := range insts {
		if candidateAddr < in.Address || candidateAddr >= in.Address+uint64(in.Len) {
			continue
		}
		typ, ok := classify(in, c, target, opts)
		if !ok {
			continue
		}
		return Result{
			Address:     process.ProcessMemoryAddress(in.Address),
			Type:        typ,
			Instruction: in,
			Context:     s.context(buf, base, c.offset, opts.ContextCount),
		}, true
	}
	return Result{}, false
}

// classify reports whether the instruction references the target and
// with which reference type. Immediates match either as an absolute
// value or relative to the end of the instruction; the relative sum
// wraps, matching processor semantics for backward displacements.
// Memory displacements are matched both as raw values and relative to
// the end of the instruction (RIP-style), without resolving the
// dereference, so an indirect result is an approximation.
//
// A jump-group owner is rejected outright when jumps are not requested.
// A 0xE8 byte inside a jump's displacement still produces a candidate,
// so the opt-in has to be enforced here, not just in the candidate pass.
func classify(in Inst, c candidate, target uint64, opts Options) (Type, bool) {
	if in.IsJump && !opts.IncludeJumps {
		return TypeDataRef, false
	}

	next := in.Address + uint64(in.Len)

	if in.IsCall || in.IsJump {
		for _, imm := range in.Imms {
			if uint64(imm) != target && next+uint64(imm) != target {
				continue
			}
			if c.indirect {
				return TypeIndirect, true
			}
			if in.IsCall {
				return TypeCall, true
			}
			return TypeJump, true
		}
	}

	if c.indirect {
		for _, disp := range in.MemDisp {
			if uint64(disp) == target || next+uint64(disp) == target {
				return TypeIndirect, true
			}
		}
	}

	return TypeDataRef, false
}

// context disassembles a window around the reference and renders it as
// fixed-column listing lines. count widens the window by 15 bytes per
// step on each side.
func (s *Scanner) context(buf []byte, base uint64, offset, count int) []string {
	start := offset - count*verifyWindow
	if start < 0 {
		start = 0
	}
	end := offset + verifyWindow + count*verifyWindow
	if end > len(buf) {
		end = len(buf)
	}

	insts := s.decoder.Decode(buf[start:end], base+uint64(start))
	lines := make([]string, 0, len(insts))
	for _, in := range insts {
		lines = append(lines, formatInst(in))
	}
	return lines
}
