//go:build !linux

package main

import (
	"fmt"
	"runtime"

	"memprobe/process"
)

func attachPID(pid process.ProcessID) (process.Handle, error) {
	return nil, fmt.Errorf("live process access is not supported on %s, use --snapshot", runtime.GOOS)
}
