package main

import (
	"fmt"
	"os"

	"memprobe/process/region"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var regionsProtectionFlag string
var regionsMinSizeFlag uint

// regionsCmd represents the regions command.
var regionsCmd = newRegionsCmd()

func newRegionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List the mapped memory regions of the target",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			handle, err := openHandle()
			if err != nil {
				return err
			}
			defer handle.Close()

			regions, err := handle.Regions()
			if err != nil {
				return err
			}

			filter := region.Filter{MinSize: regionsMinSizeFlag, Protection: regionsProtectionFlag}
			selected := filter.Select(regions)

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Base", "End", "Size", "Perms"})
			table.SetBorder(false)
			for _, r := range selected {
				table.Append([]string{
					fmt.Sprintf("0x%x", r.Base),
					fmt.Sprintf("0x%x", r.End()),
					fmt.Sprintf("%d", r.Size),
					r.Prot.Rwx(),
				})
			}
			table.Render()

			fmt.Printf("%d regions\n", len(selected))
			return nil
		},
	}
	cmd.Flags().StringVar(&regionsProtectionFlag, "protection", "", "protection filter, matched as a substring of the region's rwx string")
	cmd.Flags().UintVar(&regionsMinSizeFlag, "min-size", 0, "skip regions smaller than this many bytes")

	return cmd
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}
