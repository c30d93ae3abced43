package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"memprobe/process/region"
)

// regionEntry is the on-disk form of one region in the snapshot index.
type regionEntry struct {
	Base  uint64 `json:"base"`
	Size  uint   `json:"size"`
	Perms string `json:"perms"`
}

type indexFile struct {
	Name    string        `json:"name"`
	Regions []regionEntry `json:"regions"`
}

func blobFilename(base uint64, size uint) string {
	return fmt.Sprintf("blob_0x%x_%d.bin", base, size)
}

// Save writes the snapshot to dirname: an index.json listing the
// regions plus one raw data file per region.
func (s *Snapshot) Save(dirname string) error {
	if err := os.MkdirAll(dirname, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	idx := indexFile{Name: s.Name}
	for _, r := range s.regions {
		idx.Regions = append(idx.Regions, regionEntry{
			Base:  r.Base,
			Size:  r.Size,
			Perms: r.Prot.Rwx(),
		})
	}

	idxBytes, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, "index.json"), idxBytes, 0644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}

	for _, r := range s.regions {
		data, ok := s.blobs[r.Base]
		if !ok {
			continue
		}
		filename := filepath.Join(dirname, blobFilename(r.Base, r.Size))
		if err := os.WriteFile(filename, data, 0644); err != nil {
			return fmt.Errorf("failed to write blob %s: %w", filename, err)
		}
	}

	return nil
}

// Load reads a snapshot previously written by Save. Regions whose data
// file is missing are kept in the map but stay unreadable.
func Load(dirname string) (*Snapshot, error) {
	idxBytes, err := os.ReadFile(filepath.Join(dirname, "index.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var idx indexFile
	if err := json.Unmarshal(idxBytes, &idx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}

	snap := New()
	snap.Name = idx.Name
	for _, e := range idx.Regions {
		snap.regions = append(snap.regions, region.Region{
			Base: e.Base,
			Size: e.Size,
			Prot: region.ParseProtection(e.Perms),
		})

		filename := filepath.Join(dirname, blobFilename(e.Base, e.Size))
		data, err := os.ReadFile(filename)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read blob %s: %w", filename, err)
		}
		snap.blobs[e.Base] = data
	}

	sort.Slice(snap.regions, func(i, j int) bool {
		return snap.regions[i].Base < snap.regions[j].Base
	})

	return snap, nil
}
