//go:build linux

package process_linux

import (
	"fmt"
	"os"
	"sync"

	"memprobe/process"
	"memprobe/process/region"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// LinuxProcess implements process.Handle for a live process, reading
// its address space with the process_vm_readv syscall family.
type LinuxProcess struct {
	pid process.ProcessID
	log *logger.Logger
	mm  []region.Region
	mu  sync.Mutex
}

var _ process.Handle = (*LinuxProcess)(nil)

// Open attaches to the process with the given PID.
func Open(pid process.ProcessID) (*LinuxProcess, error) {
	procPath := fmt.Sprintf("/proc/%d", pid)
	if _, err := os.Stat(procPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("process with PID %d does not exist", pid)
	}

	p := &LinuxProcess{
		pid: pid,
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid))),
	}

	if _, err := p.Regions(); err != nil {
		return nil, fmt.Errorf("failed to read memory map: %w", err)
	}

	p.log.Infoln("Process opened")
	return p, nil
}

// Regions re-reads /proc/[pid]/maps on every call so the view tracks
// the live process.
func (p *LinuxProcess) Regions() ([]region.Region, error) {
	p.mu.Lock()
	pid := p.pid
	p.mu.Unlock()

	if pid == 0 {
		return nil, process.ErrProcessNotOpen
	}

	mm, err := readMaps(pid)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.mm = mm
	p.mu.Unlock()

	result := make([]region.Region, len(mm))
	copy(result, mm)
	return result, nil
}

// findRegion returns the cached region containing addr, or nil.
func (p *LinuxProcess) findRegion(addr process.ProcessMemoryAddress) *region.Region {
	p.mu.Lock()
	defer p.mu.Unlock()
	return region.FindRegion(uint64(addr), p.mm)
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.Infoln("Closing process")

	p.pid = 0
	p.mm = nil
	return nil
}
