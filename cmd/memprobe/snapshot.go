package main

import (
	"fmt"

	"memprobe/snapshot"

	"github.com/spf13/cobra"
)

var snapshotNameFlag string

// snapshotCmd represents the snapshot command.
var snapshotCmd = newSnapshotCmd()

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot DIR",
		Short: "Capture the target's memory to a snapshot directory",
		Long: `Capture every readable region of the target into DIR for later
offline scanning with --snapshot. Regions that cannot be read are
listed in the index but carry no data.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			handle, err := openHandle()
			if err != nil {
				return err
			}
			defer handle.Close()

			snap, err := snapshot.Capture(handle)
			if err != nil {
				return err
			}
			snap.Name = snapshotNameFlag

			if err := snap.Save(args[0]); err != nil {
				return err
			}

			regions, err := snap.Regions()
			if err != nil {
				return err
			}
			fmt.Printf("saved %d regions to %s\n", len(regions), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshotNameFlag, "name", "", "name recorded in the snapshot index")

	return cmd
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
