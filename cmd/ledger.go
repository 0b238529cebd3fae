package cmd

import (
	"fmt"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/ledger"
)

// openLedger opens the attendance ledger backend selected by the config.
func openLedger(cfg *config.Config) (ledger.Ledger, error) {
	switch cfg.Ledger.Backend {
	case "sqlite":
		led, err := ledger.NewSQLiteLedger(cfg.SQLitePath(), cfg.ExportsDir())
		if err != nil {
			return nil, fmt.Errorf("opening sqlite ledger: %w", err)
		}
		return led, nil
	default:
		led, err := ledger.NewCSVLedger(cfg.AttendanceFile(), cfg.UserAttendanceDir())
		if err != nil {
			return nil, fmt.Errorf("opening csv ledger: %w", err)
		}
		return led, nil
	}
}
