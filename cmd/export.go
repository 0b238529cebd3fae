package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/ledger"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the attendance ledger as CSV",
	Long: `Export the full attendance ledger as CSV. The export is written to
--output, or to stdout when no output file is given.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "Write the CSV to this file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	led, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer led.Close()

	path, err := led.ExportCSV()
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return errors.New("no attendance data found")
		}
		return fmt.Errorf("exporting ledger: %w", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening export %s: %w", path, err)
	}
	defer src.Close()

	output := mustGetString(cmd, "output")
	if output == "" {
		_, err = io.Copy(os.Stdout, src)
		return err
	}

	dst, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Printf("Exported attendance to %s\n", output)
	return nil
}
