package main

import (
	"fmt"

	"memprobe/pattern"

	"github.com/spf13/cobra"
)

var patternProtectionFlag string
var patternMinSizeFlag uint

// patternCmd represents the pattern command.
var patternCmd = newPatternCmd()

func newPatternCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pattern PATTERN",
		Short: "Scan the target for a wildcard byte pattern",
		Long: `Scan the target's memory for a byte pattern.

The pattern is whitespace-separated tokens, each either two hex digits
or a "?" wildcard, e.g. "48 8B ? ? 89 7C".`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := pattern.Parse(args[0])
			if err != nil {
				return err
			}

			handle, err := openHandle()
			if err != nil {
				return err
			}
			defer handle.Close()

			results, err := pattern.New(handle).Scan(p, pattern.Options{
				MinRegionSize: patternMinSizeFlag,
				Protection:    patternProtectionFlag,
			})
			if err != nil {
				return err
			}

			for _, addr := range results {
				fmt.Println(addr.ToString())
			}
			fmt.Printf("%d matches\n", len(results))
			return nil
		},
	}
	cmd.Flags().StringVar(&patternProtectionFlag, "protection", "", "protection filter, matched as a substring of the region's rwx string")
	cmd.Flags().UintVar(&patternMinSizeFlag, "min-size", 0, "skip regions smaller than this many bytes")

	return cmd
}

func init() {
	rootCmd.AddCommand(patternCmd)
}
