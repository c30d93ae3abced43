package process

import (
	"memprobe/process/region"
)

// Handle is the interface the analysis engine needs from a target
// process. Implementations may be a live process (process_linux) or a
// captured snapshot (snapshot).
type Handle interface {
	// Regions enumerates the mapped regions of the process. The order
	// of the returned slice is whatever the underlying source reports;
	// it is not guaranteed stable across calls.
	Regions() ([]region.Region, error)

	// ReadMemory reads size bytes starting at addr.
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)

	// ReadBatch issues many reads as a single submission. The result
	// slice is index-aligned with the requests. A failure of any read
	// fails the whole batch; no partial results are returned.
	ReadBatch(reqs []ReadRequest) ([][]byte, error)

	// WriteMemory writes data to the process at addr.
	WriteMemory(addr ProcessMemoryAddress, data []byte) error

	// WriteBatch issues many writes as a single submission, with the
	// same all-or-nothing semantics as ReadBatch.
	WriteBatch(writes []WriteRequest) error

	// Close releases the handle.
	Close() error
}

// ReadRequest describes one read within a batch.
type ReadRequest struct {
	Address ProcessMemoryAddress
	Size    ProcessMemorySize
}

// WriteRequest describes one write within a batch.
type WriteRequest struct {
	Address ProcessMemoryAddress
	Data    []byte
}
