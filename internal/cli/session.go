package cli

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tansive/dahuarpc/internal/common/httpclient"
	"github.com/tansive/dahuarpc/internal/common/logtrace"
	"github.com/tansive/dahuarpc/internal/common/uuid"
	"github.com/tansive/dahuarpc/pkg/dahua"
)

// newClient builds the transport. Tests replace it to route requests into a
// simulated device.
var newClient = func(cfg *Config) httpclient.HTTPClientInterface {
	return httpclient.NewClient(httpclient.ClientOptions{
		Timeout:               cfg.GetTimeout(),
		DisableCertValidation: cfg.Insecure,
		UserAgent:             "dahuarpc/" + getCLIVersion(),
	})
}

// openSession creates a session from the loaded config and logs in. Each CLI
// invocation gets a run id that tags its log lines.
func openSession(cmd *cobra.Command) (context.Context, *dahua.Session, error) {
	cfg := GetConfig()
	if cfg == nil {
		return nil, nil, errors.New("no configuration loaded")
	}

	runID := uuid.Token()
	logger := log.With().Str("run", runID).Logger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logtrace.WithRequestId(ctx, runID)

	s, err := dahua.New(cfg.Host, cfg.Username, cfg.Password,
		dahua.WithHTTPClient(newClient(cfg)),
		dahua.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid device settings")
	}
	if err := s.Login(ctx); err != nil {
		s.Close()
		return nil, nil, errors.Wrapf(err, "login to %s", s.Host())
	}
	return ctx, s, nil
}

// withSession runs fn against a logged-in session and closes it afterwards.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *dahua.Session) error) error {
	ctx, s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}

// printResult prints a command result: data as JSON in --json mode, msg
// otherwise.
func printResult(cmd *cobra.Command, data any, msg string) {
	if jsonOutput {
		printJSON(cmd.OutOrStdout(), data)
		return
	}
	okLabel.Fprintln(cmd.OutOrStdout(), msg)
}
