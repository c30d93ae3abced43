package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"memprobe/scan"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var scanTypeFlag string
var scanAlignmentFlag int
var scanProtectionFlag string
var scanMinSizeFlag uint
var scanMaxSizeFlag uint
var scanLimitFlag int

// scanCmd represents the scan command.
var scanCmd = newScanCmd()

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan VALUE",
		Short: "Scan the target for a typed value",
		Long: `Scan the target's memory for a typed value.

The value is interpreted per --type: int (decimal), float, double,
string (raw bytes), or bytes (hex digits, spaces allowed).`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			target, err := parseValue(scanTypeFlag, args[0])
			if err != nil {
				return err
			}

			handle, err := openHandle()
			if err != nil {
				return err
			}
			defer handle.Close()

			results, err := scan.New(handle).Scan(target, scan.Options{
				Alignment:     scanAlignmentFlag,
				MinRegionSize: scanMinSizeFlag,
				MaxRegionSize: scanMaxSizeFlag,
				Protection:    scanProtectionFlag,
			})
			if err != nil {
				return err
			}

			shown := results
			if scanLimitFlag > 0 && len(shown) > scanLimitFlag {
				shown = shown[:scanLimitFlag]
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Address", "Value"})
			table.SetBorder(false)
			for _, res := range shown {
				table.Append([]string{res.Address.ToString(), res.Value.Display()})
			}
			table.Render()

			if len(shown) < len(results) {
				fmt.Printf("%d matches (%d shown)\n", len(results), len(shown))
			} else {
				fmt.Printf("%d matches\n", len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scanTypeFlag, "type", "int", "value type: int, float, double, string, bytes")
	cmd.Flags().IntVar(&scanAlignmentFlag, "alignment", 1, "scan stride in bytes")
	cmd.Flags().StringVar(&scanProtectionFlag, "protection", "", "protection filter, matched as a substring of the region's rwx string")
	cmd.Flags().UintVar(&scanMinSizeFlag, "min-size", 4096, "skip regions smaller than this many bytes")
	cmd.Flags().UintVar(&scanMaxSizeFlag, "max-size", 0, "skip regions larger than this many bytes")
	cmd.Flags().IntVar(&scanLimitFlag, "limit", 100, "maximum matches to print, 0 for all")

	return cmd
}

// parseValue interprets raw per the named value type.
func parseValue(typeName, raw string) (scan.Value, error) {
	kind, err := scan.ParseKind(typeName)
	if err != nil {
		return scan.Value{}, err
	}

	switch kind {
	case scan.KindInteger:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return scan.Value{}, fmt.Errorf("invalid integer %q", raw)
		}
		return scan.Integer(v), nil
	case scan.KindFloat:
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return scan.Value{}, fmt.Errorf("invalid float %q", raw)
		}
		return scan.Float(float32(v)), nil
	case scan.KindDouble:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return scan.Value{}, fmt.Errorf("invalid double %q", raw)
		}
		return scan.Double(v), nil
	case scan.KindString:
		return scan.String(raw), nil
	case scan.KindBytes:
		b, err := hex.DecodeString(strings.ReplaceAll(raw, " ", ""))
		if err != nil {
			return scan.Value{}, fmt.Errorf("invalid hex bytes %q", raw)
		}
		return scan.Bytes(b), nil
	}
	return scan.Value{}, fmt.Errorf("unsupported value type %q", typeName)
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
