package cmd

import (
	"fmt"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/ledger"
	"github.com/spf13/cobra"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance [name]",
	Short: "List attendance records",
	Long: `List attendance records from the ledger, newest first.
With a name argument, only that person's records are shown with their
per-person sequence numbers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAttendance,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)

	attendanceCmd.Flags().String("from", "", "Only records on or after this date (YYYY-MM-DD)")
	attendanceCmd.Flags().String("to", "", "Only records on or before this date (YYYY-MM-DD)")
	attendanceCmd.Flags().Int("limit", 0, "Maximum number of records to show")
}

func runAttendance(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	led, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer led.Close()

	var records []ledger.Record
	if len(args) == 1 {
		records, err = led.QueryByName(args[0])
	} else {
		records, err = led.Query(ledger.Filter{
			DateFrom: mustGetString(cmd, "from"),
			DateTo:   mustGetString(cmd, "to"),
			Limit:    mustGetInt(cmd, "limit"),
		})
	}
	if err != nil {
		return fmt.Errorf("querying ledger: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No attendance records found")
		return nil
	}

	fmt.Printf("%-6s %-20s %-12s %-10s %s\n", "ID", "NAME", "DATE", "TIME", "IMAGE")
	for _, r := range records {
		fmt.Printf("%-6d %-20s %-12s %-10s %s\n", r.ID, r.Name, r.Date, r.Time, r.ImagePath)
	}
	fmt.Printf("\n%d records\n", len(records))
	return nil
}
