package process

import (
	"errors"
	"fmt"
)

// ProcessID represents an operating system process identifier
type ProcessID int

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// ProcessMemorySize represents a size of a memory range
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

var (
	// ErrProcessNotOpen is returned when an operation is attempted on a
	// handle that has not been opened.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrAddressNotMapped is returned when a read or write touches an
	// address outside every mapped region.
	ErrAddressNotMapped = errors.New("address not mapped")
)
