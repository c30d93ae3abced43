//go:build linux

package main

import (
	"memprobe/process"
	"memprobe/process_linux"
)

func attachPID(pid process.ProcessID) (process.Handle, error) {
	return process_linux.Open(pid)
}
