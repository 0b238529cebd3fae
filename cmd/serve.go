package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/facegate/internal/attendance"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/encoder"
	"github.com/kozaktomas/facegate/internal/gallery"
	"github.com/kozaktomas/facegate/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Facegate web server.
The server exposes the enrollment and recognition API used by camera
clients, plus attendance listing and CSV export endpoints.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides FACEGATE_WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides FACEGATE_WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	oracle := encoder.NewClient(cfg.Oracle.URL)
	gal := gallery.New(cfg.KnownFacesDir(), oracle)

	fmt.Printf("Loading known faces from %s...\n", cfg.KnownFacesDir())
	n, err := gal.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading gallery: %w", err)
	}
	fmt.Printf("Loaded %d enrolled faces\n", n)

	led, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer led.Close()
	fmt.Printf("Using %s attendance ledger\n", cfg.Ledger.Backend)

	svc := attendance.NewService(oracle, gal, led, attendance.Options{
		Threshold:         cfg.Match.Threshold,
		Cooldown:          time.Duration(cfg.Match.CooldownSeconds) * time.Second,
		UploadsDir:        cfg.UploadsDir(),
		ExposeDescriptors: cfg.Web.ExposeDescriptors,
	})

	server := web.NewServer(cfg, gal, svc, led)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Facegate on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
