package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/toonarmycaptain/website/internal/services"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export contact submissions to an .xlsx spreadsheet",
	Long: `Write every stored message with its sender to a spreadsheet, oldest first.

Examples:
  sitectl export --out submissions.xlsx
  sitectl export --out - > submissions.xlsx`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "submissions.xlsx", "output file, or - for stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "-" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}

	rows, err := services.NewExportService(a.Store, a.Log).WriteXLSX(cmd.Context(), w)
	if err != nil {
		return err
	}

	if exportOut != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d submissions to %s\n", rows, exportOut)
	}
	return nil
}
