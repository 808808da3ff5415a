package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tansive/dahuarpc/internal/devicesim"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Serve a simulated device for testing",
	Long: `Serve the RPC2 endpoints of a simulated device. It accepts the login handshake
and the methods this tool uses, keeping state in memory. Credentials default to
admin/admin and follow --user and --password when given.

Example:
  dahuarpc simulate --listen 127.0.0.1:8080 --records snapshots.yaml
  dahuarpc --host 127.0.0.1:8080 --user admin --password admin time`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen, _ := cmd.Flags().GetString("listen")
		realm, _ := cmd.Flags().GetString("realm")
		recordsFile, _ := cmd.Flags().GetString("records")
		delay, _ := cmd.Flags().GetDuration("delay")
		handlerTimeout, _ := cmd.Flags().GetDuration("handler-timeout")

		opts := devicesim.Options{
			Username:       "admin",
			Password:       "admin",
			Realm:          realm,
			Delay:          delay,
			HandlerTimeout: handlerTimeout,
		}
		if userFlag != "" {
			opts.Username = userFlag
		}
		if passwordFlag != "" {
			opts.Password = passwordFlag
		}
		if recordsFile != "" {
			records, err := loadRecords(recordsFile)
			if err != nil {
				return err
			}
			opts.Records = records
		}

		return runSimulator(cmd.Context(), listen, devicesim.New(opts))
	},
}

// loadRecords reads a YAML or JSON list of records for the simulator.
func loadRecords(file string) ([]devicesim.Record, error) {
	raw, err := LoadParamsFile(file)
	if err != nil {
		return nil, err
	}
	var records []devicesim.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%s: expected a list of records: %w", file, err)
	}
	return records, nil
}

// runSimulator serves dev on addr until ctx ends or the process is signalled.
func runSimulator(ctx context.Context, addr string, dev *devicesim.Device) error {
	if ctx == nil {
		ctx = context.Background()
	}
	slog := log.With().Str("state", "simulate").Logger()

	srv := &http.Server{
		Addr:              addr,
		Handler:           dev.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info().Str("addr", addr).Msg("simulated device listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("simulator: %w", err)
	case sig := <-shutdown:
		slog.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-ctx.Done():
	}

	// Give outstanding requests 5 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error().Err(err).Msg("could not stop simulator gracefully")
		return srv.Close()
	}
	slog.Info().Msg("simulator stopped")
	return nil
}

func init() {
	simulateCmd.Flags().String("listen", "127.0.0.1:8080", "Address to listen on")
	simulateCmd.Flags().String("realm", devicesim.DefaultRealm, "Login realm reported to clients")
	simulateCmd.Flags().String("records", "", "YAML or JSON file with traffic snapshot records")
	simulateCmd.Flags().Duration("delay", 0, "Hold every response back by this long")
	simulateCmd.Flags().Duration("handler-timeout", 0, "Answer busy when a response is held back longer than this")

	rootCmd.AddCommand(simulateCmd)
}
