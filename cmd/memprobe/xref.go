package main

import (
	"fmt"
	"strconv"
	"strings"

	"memprobe/disasm"
	"memprobe/process"
	"memprobe/xref"

	"github.com/spf13/cobra"
)

var xrefJumpsFlag bool
var xrefIndirectFlag bool
var xrefContextFlag int
var xrefModeFlag int
var xrefProtectionFlag string

// xrefCmd represents the xref command.
var xrefCmd = newXrefCmd()

func newXrefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xref ADDRESS",
		Short: "Find code references to an address",
		Long: `Find instructions in the target's executable regions that reference
the given address: direct calls, and optionally direct jumps and
indirect calls through memory. Each reference is verified by
disassembly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			target, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 64)
			if err != nil {
				return fmt.Errorf("invalid address %q", args[0])
			}

			decoder, err := disasm.NewX86(xrefModeFlag)
			if err != nil {
				return err
			}

			handle, err := openHandle()
			if err != nil {
				return err
			}
			defer handle.Close()

			results, err := xref.New(handle, decoder).Scan(process.ProcessMemoryAddress(target), xref.Options{
				IncludeJumps:    xrefJumpsFlag,
				IncludeIndirect: xrefIndirectFlag,
				ContextCount:    xrefContextFlag,
				Protection:      xrefProtectionFlag,
			})
			if err != nil {
				return err
			}

			for _, res := range results {
				fmt.Printf("%s %s %s %s\n", res.Address.ToString(), res.Type,
					res.Instruction.Mnemonic, res.Instruction.Text)
				for _, line := range res.Context {
					fmt.Printf("    %s\n", line)
				}
			}
			fmt.Printf("%d references\n", len(results))
			return nil
		},
	}
	cmd.Flags().BoolVar(&xrefJumpsFlag, "jumps", false, "also report direct jumps")
	cmd.Flags().BoolVar(&xrefIndirectFlag, "indirect", false, "also report indirect calls through memory")
	cmd.Flags().IntVar(&xrefContextFlag, "context", 0, "widen the disassembly context window by this many steps")
	cmd.Flags().IntVar(&xrefModeFlag, "mode", 64, "x86 decode mode, 32 or 64")
	cmd.Flags().StringVar(&xrefProtectionFlag, "protection", "", "protection filter, defaults to executable regions (r-x)")

	return cmd
}

func init() {
	rootCmd.AddCommand(xrefCmd)
}
