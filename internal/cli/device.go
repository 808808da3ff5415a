package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tansive/dahuarpc/pkg/dahua"
)

// newLoginCmd creates and returns a new login command
func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check the configured credentials",
		Long: `Run the login handshake against the device and report the session token.
Nothing is stored; every other command logs in again on its own.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *dahua.Session) error {
				printResult(cmd, map[string]any{
					"host":    s.Host(),
					"user":    s.Username(),
					"session": s.Token(),
				}, fmt.Sprintf("✓ Logged in to %s as %s", s.Host(), s.Username()))
				return nil
			})
		},
	}
}

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Print the device clock",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *dahua.Session) error {
			now, err := s.CurrentTime(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]string{"time": now})
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), now)
			}
			return nil
		})
	},
}

var keepAliveCmd = &cobra.Command{
	Use:   "keepalive",
	Short: "Extend the session once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *dahua.Session) error {
			if err := s.KeepAlive(ctx); err != nil {
				return err
			}
			printResult(cmd, map[string]any{"result": true, "timeout": dahua.KeepAliveTimeout}, "✓ Session extended")
			return nil
		})
	},
}

var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Restart the device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *dahua.Session) error {
			if err := s.Reboot(ctx); err != nil {
				return err
			}
			printResult(cmd, map[string]any{"result": true}, "✓ Reboot requested")
			return nil
		})
	},
}

var ntpCmd = &cobra.Command{
	Use:   "ntp",
	Short: "Synchronize the device clock with an NTP server",
	Long: `Ask the device to adjust its clock against an NTP server.

Example:
  dahuarpc ntp --address 192.168.1.10 --port 123 --timezone 21`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		address, _ := cmd.Flags().GetString("address")
		port, _ := cmd.Flags().GetInt("port")
		tz, _ := cmd.Flags().GetInt("timezone")
		return withSession(cmd, func(ctx context.Context, s *dahua.Session) error {
			if err := s.NTPSync(ctx, address, port, tz); err != nil {
				return err
			}
			printResult(cmd, map[string]any{"result": true, "address": address, "port": port},
				fmt.Sprintf("✓ Clock synchronized with %s:%d", address, port))
			return nil
		})
	},
}

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Print a product definition",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		return withSession(cmd, func(ctx context.Context, s *dahua.Session) error {
			def, err := s.GetProductDefinition(ctx, name)
			if err != nil {
				return err
			}
			var v any
			if err := json.Unmarshal(def, &v); err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), v)
			return nil
		})
	},
}

var setConfigCmd = &cobra.Command{
	Use:   "setconfig",
	Short: "Write configuration tables from a YAML file",
	Long: `Write one or more configuration tables. Each YAML document in the file is sent
as the params of one configManager.setConfig call. {{ .ENV.NAME }} placeholders
are filled from the environment or a .env file in the current directory.

Example file:
  name: NTP
  table:
    Enable: true
    Address: {{ .ENV.NTP_SERVER }}
    Port: 123`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("filename")
		docs, err := ParseConfigTables(file)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return fmt.Errorf("%s holds no configuration tables", file)
		}
		return withSession(cmd, func(ctx context.Context, s *dahua.Session) error {
			var names []string
			for _, doc := range docs {
				if err := s.SetConfig(ctx, doc); err != nil {
					return err
				}
				name, _ := doc["name"].(string)
				names = append(names, name)
				if !jsonOutput {
					okLabel.Fprintf(cmd.OutOrStdout(), "✓ %s written\n", name)
				}
			}
			if jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]any{"result": true, "tables": names})
			}
			return nil
		})
	},
}

func init() {
	ntpCmd.Flags().String("address", "", "NTP server address")
	ntpCmd.Flags().Int("port", 123, "NTP server port")
	ntpCmd.Flags().Int("timezone", 0, "Device time zone index")
	_ = ntpCmd.MarkFlagRequired("address")

	productCmd.Flags().String("name", "Traffic", "Definition name")

	setConfigCmd.Flags().StringP("filename", "f", "", "YAML file with configuration tables")
	_ = setConfigCmd.MarkFlagRequired("filename")

	rootCmd.AddCommand(timeCmd, keepAliveCmd, rebootCmd, ntpCmd, productCmd, setConfigCmd)
}
