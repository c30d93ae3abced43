//go:build linux

package process_linux

import (
	"fmt"
	"unsafe"

	"memprobe/process"

	"golang.org/x/sys/unix"
)

// process_vm_readv reads bytesToRead bytes from the remote process at
// remoteAddr into a freshly allocated local buffer.
func process_vm_readv(
	pid process.ProcessID,
	remoteAddr process.ProcessMemoryAddress,
	bytesToRead process.ProcessMemorySize,
) ([]byte, error) {
	localBuf := make([]byte, bytesToRead)

	localIov := unix.Iovec{
		Base: &localBuf[0],
		Len:  uint64(bytesToRead),
	}

	remoteIov := unix.RemoteIovec{
		Base: uintptr(remoteAddr),
		Len:  int(bytesToRead),
	}

	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_READV,
		uintptr(pid),
		uintptr(unsafe.Pointer(&localIov)),
		uintptr(1),
		uintptr(unsafe.Pointer(&remoteIov)),
		uintptr(1),
		uintptr(0),
	)

	if errno != 0 {
		return nil, fmt.Errorf("process_vm_readv failed: %s (errno: %d)", errno.Error(), errno)
	}

	if int(n) != int(bytesToRead) {
		return nil, fmt.Errorf("partial read: %d of %d bytes", n, bytesToRead)
	}

	return localBuf, nil
}

// process_vm_writev writes localBuf to the remote process at remoteAddr.
func process_vm_writev(
	pid process.ProcessID,
	localBuf []byte,
	remoteAddr process.ProcessMemoryAddress,
) (int, error) {
	localIov := unix.Iovec{
		Base: &localBuf[0],
		Len:  uint64(len(localBuf)),
	}

	remoteIov := unix.RemoteIovec{
		Base: uintptr(remoteAddr),
		Len:  len(localBuf),
	}

	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_WRITEV,
		uintptr(pid),
		uintptr(unsafe.Pointer(&localIov)),
		uintptr(1),
		uintptr(unsafe.Pointer(&remoteIov)),
		uintptr(1),
		uintptr(0),
	)

	if errno != 0 {
		return 0, fmt.Errorf("process_vm_writev failed: %s (errno: %d)", errno.Error(), errno)
	}

	return int(n), nil
}

// ReadMemory reads memory from the process at the specified address.
func (p *LinuxProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.Lock()
	pid := p.pid
	p.mu.Unlock()

	if pid == 0 {
		return nil, process.ErrProcessNotOpen
	}

	if p.findRegion(addr) == nil {
		return nil, process.ErrAddressNotMapped
	}

	data, err := process_vm_readv(pid, addr, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read process memory: %w", err)
	}

	return data, nil
}

// ReadBatch submits every read as a single process_vm_readv call with
// one iovec pair per request. A failure of any read fails the whole
// batch and no data is returned.
func (p *LinuxProcess) ReadBatch(reqs []process.ReadRequest) ([][]byte, error) {
	p.mu.Lock()
	pid := p.pid
	p.mu.Unlock()

	if pid == 0 {
		return nil, process.ErrProcessNotOpen
	}
	if len(reqs) == 0 {
		return nil, nil
	}

	results := make([][]byte, len(reqs))
	localIovs := make([]unix.Iovec, len(reqs))
	remoteIovs := make([]unix.RemoteIovec, len(reqs))
	total := 0
	for i, req := range reqs {
		if req.Size == 0 {
			return nil, fmt.Errorf("batch read %d is empty", i)
		}
		if p.findRegion(req.Address) == nil {
			return nil, fmt.Errorf("batch read %d at 0x%x failed: %w", i, uint64(req.Address), process.ErrAddressNotMapped)
		}
		results[i] = make([]byte, req.Size)
		localIovs[i] = unix.Iovec{Base: &results[i][0], Len: uint64(req.Size)}
		remoteIovs[i] = unix.RemoteIovec{Base: uintptr(req.Address), Len: int(req.Size)}
		total += int(req.Size)
	}

	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_READV,
		uintptr(pid),
		uintptr(unsafe.Pointer(&localIovs[0])),
		uintptr(len(localIovs)),
		uintptr(unsafe.Pointer(&remoteIovs[0])),
		uintptr(len(remoteIovs)),
		uintptr(0),
	)

	if errno != 0 {
		return nil, fmt.Errorf("process_vm_readv failed: %s (errno: %d)", errno.Error(), errno)
	}
	if int(n) != total {
		return nil, fmt.Errorf("partial batch read: %d of %d bytes", n, total)
	}

	return results, nil
}

// WriteMemory writes data to the process memory at the specified
// address. The target region must be writable.
func (p *LinuxProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	p.mu.Lock()
	pid := p.pid
	p.mu.Unlock()

	if pid == 0 {
		return process.ErrProcessNotOpen
	}
	if len(data) == 0 {
		return nil
	}

	r := p.findRegion(addr)
	if r == nil {
		return process.ErrAddressNotMapped
	}
	if !r.Prot.Write {
		return fmt.Errorf("memory region at %x is not writable", uint64(addr))
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	written, err := process_vm_writev(pid, dataCopy, addr)
	if err != nil {
		return fmt.Errorf("failed to write process memory: %w", err)
	}

	if written != len(data) {
		return fmt.Errorf("only wrote %d of %d bytes", written, len(data))
	}

	return nil
}

// WriteBatch submits every write as a single process_vm_writev call.
// Every target range is validated up front; a short write fails the
// batch.
func (p *LinuxProcess) WriteBatch(writes []process.WriteRequest) error {
	p.mu.Lock()
	pid := p.pid
	p.mu.Unlock()

	if pid == 0 {
		return process.ErrProcessNotOpen
	}
	if len(writes) == 0 {
		return nil
	}

	localIovs := make([]unix.Iovec, len(writes))
	remoteIovs := make([]unix.RemoteIovec, len(writes))
	total := 0
	for i, req := range writes {
		if len(req.Data) == 0 {
			return fmt.Errorf("batch write %d is empty", i)
		}
		r := p.findRegion(req.Address)
		if r == nil {
			return fmt.Errorf("batch write %d at 0x%x failed: %w", i, uint64(req.Address), process.ErrAddressNotMapped)
		}
		if !r.Prot.Write {
			return fmt.Errorf("batch write %d: memory region at %x is not writable", i, uint64(req.Address))
		}
		dataCopy := make([]byte, len(req.Data))
		copy(dataCopy, req.Data)
		localIovs[i] = unix.Iovec{Base: &dataCopy[0], Len: uint64(len(dataCopy))}
		remoteIovs[i] = unix.RemoteIovec{Base: uintptr(req.Address), Len: len(dataCopy)}
		total += len(dataCopy)
	}

	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_WRITEV,
		uintptr(pid),
		uintptr(unsafe.Pointer(&localIovs[0])),
		uintptr(len(localIovs)),
		uintptr(unsafe.Pointer(&remoteIovs[0])),
		uintptr(len(remoteIovs)),
		uintptr(0),
	)

	if errno != 0 {
		return fmt.Errorf("process_vm_writev failed: %s (errno: %d)", errno.Error(), errno)
	}
	if int(n) != total {
		return fmt.Errorf("partial batch write: %d of %d bytes", n, total)
	}

	return nil
}
