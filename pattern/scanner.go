package pattern

import (
	"fmt"

	"memprobe/process"
	"memprobe/process/region"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Options configures a pattern scan.
type Options struct {
	// MinRegionSize skips regions smaller than this. Zero disables.
	MinRegionSize uint

	// Protection filters regions by their rwx string (substring
	// semantics). Empty matches all.
	Protection string
}

// Scanner locates wildcard byte patterns in a process's memory.
type Scanner struct {
	handle process.Handle
	log    *logger.Logger
}

// New creates a Scanner over the given handle.
func New(handle process.Handle) *Scanner {
	return &Scanner{
		handle: handle,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorTeal, coloransi.ColorOrange, "pattern-scan")),
	}
}

// Scan returns the absolute address of every pattern match, ascending
// within each region, regions in enumeration order. Unreadable regions
// are skipped.
func (s *Scanner) Scan(p Pattern, opts Options) ([]process.ProcessMemoryAddress, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}

	regions, err := s.handle.Regions()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate regions: %w", err)
	}

	filter := region.Filter{MinSize: opts.MinRegionSize, Protection: opts.Protection}

	s.log.Infoln("Starting pattern scan for pattern of length", len(p))

	var results []process.ProcessMemoryAddress
	for _, r := range filter.Select(regions) {
		if int(r.Size) < len(p) {
			continue
		}

		buf, err := s.handle.ReadMemory(process.ProcessMemoryAddress(r.Base), process.ProcessMemorySize(r.Size))
		if err != nil {
			s.log.Debugln("Failed to read region at", fmt.Sprintf("%x", r.Base), err)
			continue
		}

		for _, off := range p.FindAll(buf) {
			results = append(results, process.ProcessMemoryAddress(r.Base+uint64(off)))
		}
	}

	s.log.Infoln("Scan complete, found", len(results), "matches")
	return results, nil
}
