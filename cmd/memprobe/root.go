// Command memprobe scans the memory of a live process or a saved
// snapshot: typed value search, wildcard byte patterns, and
// disassembly-verified cross references.
package main

import (
	"fmt"
	"os"

	"memprobe/process"
	"memprobe/snapshot"

	"github.com/spf13/cobra"
)

var pidFlag int
var snapshotFlag string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memprobe",
		Short: "Process memory analysis tool",
		Long: `Memprobe scans the address space of a target process.

The target is either a live process (--pid, Linux only) or a snapshot
directory previously written with the snapshot command (--snapshot).`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().IntVar(&pidFlag, "pid", 0, "PID of the target process")
	cmd.PersistentFlags().StringVar(&snapshotFlag, "snapshot", "", "snapshot directory to scan instead of a live process")

	return cmd
}

// openHandle resolves the target selected by the persistent flags.
func openHandle() (process.Handle, error) {
	if snapshotFlag != "" {
		return snapshot.Load(snapshotFlag)
	}
	if pidFlag > 0 {
		return attachPID(process.ProcessID(pidFlag))
	}
	return nil, fmt.Errorf("no target: pass --pid or --snapshot")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
