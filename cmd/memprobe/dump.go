package main

import (
	"fmt"
	"strconv"
	"strings"

	"memprobe/hexdump"
	"memprobe/process"

	"github.com/spf13/cobra"
)

var dumpSizeFlag uint
var dumpWidthFlag int
var dumpGroupFlag int

// dumpCmd represents the dump command.
var dumpCmd = newDumpCmd()

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump ADDRESS",
		Short: "Hexdump a range of the target's memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			addr, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 64)
			if err != nil {
				return fmt.Errorf("invalid address %q", args[0])
			}

			handle, err := openHandle()
			if err != nil {
				return err
			}
			defer handle.Close()

			data, err := handle.ReadMemory(process.ProcessMemoryAddress(addr), process.ProcessMemorySize(dumpSizeFlag))
			if err != nil {
				return err
			}

			opts := hexdump.DefaultOptions()
			opts.StartOffset = addr
			opts.BytesPerLine = dumpWidthFlag
			opts.GroupSize = dumpGroupFlag
			fmt.Print(hexdump.Dump(data, opts))
			return nil
		},
	}
	cmd.Flags().UintVar(&dumpSizeFlag, "size", 256, "number of bytes to dump")
	cmd.Flags().IntVar(&dumpWidthFlag, "width", 16, "bytes per line")
	cmd.Flags().IntVar(&dumpGroupFlag, "group", 1, "bytes per group")

	return cmd
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
