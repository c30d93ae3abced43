// Package snapshot provides an in-memory process.Handle backed by
// captured region data. Snapshots can be taken from a live handle,
// saved to disk, and loaded back for offline scanning.
package snapshot

import (
	"fmt"
	"sort"

	"memprobe/process"
	"memprobe/process/region"
)

// Snapshot holds a static copy of a process's mapped regions.
type Snapshot struct {
	Name    string
	regions []region.Region
	blobs   map[uint64][]byte // region base -> data
}

var _ process.Handle = (*Snapshot)(nil)

// New creates an empty snapshot.
func New() *Snapshot {
	return &Snapshot{
		blobs: make(map[uint64][]byte),
	}
}

// AddRegion records a region and its contents. The data length becomes
// the region size.
func (s *Snapshot) AddRegion(base uint64, prot region.Protection, data []byte) {
	s.regions = append(s.regions, region.Region{
		Base: base,
		Size: uint(len(data)),
		Prot: prot,
	})
	s.blobs[base] = data
	sort.Slice(s.regions, func(i, j int) bool {
		return s.regions[i].Base < s.regions[j].Base
	})
}

// Capture reads every region of the source handle into a new snapshot.
// Regions that fail to read are omitted.
func Capture(src process.Handle) (*Snapshot, error) {
	regions, err := src.Regions()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate regions: %w", err)
	}

	snap := New()
	for _, r := range regions {
		data, err := src.ReadMemory(process.ProcessMemoryAddress(r.Base), process.ProcessMemorySize(r.Size))
		if err != nil {
			continue
		}
		snap.AddRegion(r.Base, r.Prot, data)
	}
	return snap, nil
}

func (s *Snapshot) Regions() ([]region.Region, error) {
	result := make([]region.Region, len(s.regions))
	copy(result, s.regions)
	return result, nil
}

func (s *Snapshot) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	r := region.FindRegion(uint64(addr), s.regions)
	if r == nil {
		return nil, process.ErrAddressNotMapped
	}

	data, ok := s.blobs[r.Base]
	if !ok {
		return nil, fmt.Errorf("no data for region 0x%x", r.Base)
	}

	offset := uint64(addr) - r.Base
	if offset+uint64(size) > uint64(len(data)) {
		return nil, fmt.Errorf("read of %d bytes at 0x%x exceeds region bounds", size, uint64(addr))
	}

	result := make([]byte, size)
	copy(result, data[offset:offset+uint64(size)])
	return result, nil
}

// ReadBatch is all or nothing: a single failed read fails the batch and
// no data is returned.
func (s *Snapshot) ReadBatch(reqs []process.ReadRequest) ([][]byte, error) {
	results := make([][]byte, len(reqs))
	for i, req := range reqs {
		data, err := s.ReadMemory(req.Address, req.Size)
		if err != nil {
			return nil, fmt.Errorf("batch read %d at 0x%x failed: %w", i, uint64(req.Address), err)
		}
		results[i] = data
	}
	return results, nil
}

func (s *Snapshot) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	r := region.FindRegion(uint64(addr), s.regions)
	if r == nil {
		return process.ErrAddressNotMapped
	}

	blob, ok := s.blobs[r.Base]
	if !ok {
		return fmt.Errorf("no data for region 0x%x", r.Base)
	}

	offset := uint64(addr) - r.Base
	if offset+uint64(len(data)) > uint64(len(blob)) {
		return fmt.Errorf("write of %d bytes at 0x%x exceeds region bounds", len(data), uint64(addr))
	}

	copy(blob[offset:], data)
	return nil
}

// WriteBatch is all or nothing: every target range is validated before
// any byte is written.
func (s *Snapshot) WriteBatch(reqs []process.WriteRequest) error {
	for i, req := range reqs {
		r := region.FindRegion(uint64(req.Address), s.regions)
		if r == nil {
			return fmt.Errorf("batch write %d at 0x%x failed: %w", i, uint64(req.Address), process.ErrAddressNotMapped)
		}
		offset := uint64(req.Address) - r.Base
		if offset+uint64(len(req.Data)) > uint64(len(s.blobs[r.Base])) {
			return fmt.Errorf("batch write %d of %d bytes at 0x%x exceeds region bounds", i, len(req.Data), uint64(req.Address))
		}
	}
	for _, req := range reqs {
		if err := s.WriteMemory(req.Address, req.Data); err != nil {
			return err
		}
	}
	return nil
}

func (s *Snapshot) Close() error {
	s.regions = nil
	s.blobs = nil
	return nil
}
