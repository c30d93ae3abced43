//go:build linux

package process_linux

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"memprobe/process"
	"memprobe/process/region"
)

// parseMaps parses /proc/[pid]/maps formatted data into regions, sorted
// by base address. Malformed lines are skipped.
func parseMaps(r io.Reader) ([]region.Region, error) {
	var regions []region.Region
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		// Address range, e.g. "00400000-0040b000"
		addrRange := strings.Split(fields[0], "-")
		if len(addrRange) != 2 {
			continue
		}

		startAddr, err := strconv.ParseUint(addrRange[0], 16, 64)
		if err != nil {
			continue
		}

		endAddr, err := strconv.ParseUint(addrRange[1], 16, 64)
		if err != nil || endAddr < startAddr {
			continue
		}

		regions = append(regions, region.Region{
			Base: startAddr,
			Size: uint(endAddr - startAddr),
			Prot: region.ParseProtection(fields[1]),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Base < regions[j].Base
	})

	return regions, nil
}

// readMaps reads and parses the memory map for a process from
// /proc/[pid]/maps.
func readMaps(pid process.ProcessID) ([]region.Region, error) {
	file, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return parseMaps(file)
}
