package scan

import (
	"fmt"

	"memprobe/process"
	"memprobe/process/region"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Result is one match from a value scan. Feeding a result set back as
// Options.Previous narrows the next scan to exactly these addresses.
type Result struct {
	Address process.ProcessMemoryAddress
	Value   Value
}

// Options configures a value scan.
type Options struct {
	// Alignment strides the first-pass scan; must be >= 1. Zero means 1.
	Alignment int

	// MinRegionSize and MaxRegionSize bound the regions considered.
	// Zero disables the bound.
	MinRegionSize uint
	MaxRegionSize uint

	// Protection filters regions by their rwx string (substring
	// semantics, see region.Protection.Matches). Empty matches all.
	Protection string

	// Previous enables incremental mode: only the addresses in this
	// set are re-examined, compared per Compare. A scan in incremental
	// mode never discovers new addresses.
	Previous []Result
	Compare  CompareType
}

// Scanner locates typed values in a process's memory.
type Scanner struct {
	handle process.Handle
	log    *logger.Logger
}

// New creates a Scanner over the given handle.
func New(handle process.Handle) *Scanner {
	return &Scanner{
		handle: handle,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "value-scan")),
	}
}

// Scan searches the process for target. Results are ordered by
// ascending offset within each region, regions in enumeration order;
// that order is only as stable as the handle's region enumeration.
// Malformed inputs fail the call. Unreadable regions are skipped.
func (s *Scanner) Scan(target Value, opts Options) ([]Result, error) {
	if err := target.validate(); err != nil {
		return nil, err
	}
	if opts.Alignment < 0 {
		return nil, fmt.Errorf("invalid alignment %d", opts.Alignment)
	}
	if opts.Alignment == 0 {
		opts.Alignment = 1
	}

	incremental := opts.Previous != nil
	if incremental && opts.Compare.ordered() {
		switch target.Kind() {
		case KindString, KindBytes:
			return nil, fmt.Errorf("compare type %s is not defined for %s values", opts.Compare, target.Kind())
		}
	}

	regions, err := s.handle.Regions()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate regions: %w", err)
	}

	filter := region.Filter{
		MinSize:    opts.MinRegionSize,
		MaxSize:    opts.MaxRegionSize,
		Protection: opts.Protection,
	}

	s.log.Infoln("Starting value scan for", target.Kind().String(), "value")

	var results []Result
	for _, r := range filter.Select(regions) {
		if int(r.Size) < target.Size() {
			continue
		}

		buf, err := s.handle.ReadMemory(process.ProcessMemoryAddress(r.Base), process.ProcessMemorySize(r.Size))
		if err != nil {
			s.log.Debugln("Failed to read region at", fmt.Sprintf("%x", r.Base), err)
			continue
		}

		if incremental {
			results = append(results, rescanRegion(buf, r, target, opts)...)
		} else {
			results = append(results, scanRegion(buf, r, target, opts.Alignment)...)
		}
	}

	s.log.Infoln("Scan complete, found", len(results), "matches")
	return results, nil
}

// scanRegion strides the buffer by the alignment and emits a result at
// every offset where the decoded value equals the target.
func scanRegion(buf []byte, r region.Region, target Value, alignment int) []Result {
	var results []Result
	for off := 0; off+target.Size() <= len(buf); off += alignment {
		current, ok := target.decodeAt(buf, off)
		if !ok {
			break
		}
		if current.equal(target) {
			results = append(results, Result{
				Address: process.ProcessMemoryAddress(r.Base + uint64(off)),
				Value:   current,
			})
		}
	}
	return results
}

// rescanRegion re-examines only the previous results that fall inside
// this region, applying the requested comparison.
func rescanRegion(buf []byte, r region.Region, target Value, opts Options) []Result {
	var results []Result
	for _, prev := range opts.Previous {
		if !r.Contains(uint64(prev.Address)) {
			continue
		}
		if prev.Value.Kind() != target.Kind() {
			continue
		}
		off := int(uint64(prev.Address) - r.Base)
		current, ok := target.decodeAt(buf, off)
		if !ok {
			continue
		}
		if opts.Compare.apply(current, target, prev.Value) {
			results = append(results, Result{Address: prev.Address, Value: current})
		}
	}
	return results
}
