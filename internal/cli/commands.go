package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/tansive/dahuarpc/internal/common/apperrors"
	"github.com/tansive/dahuarpc/internal/common/logtrace"
)

var (
	// Global flags
	jsonOutput   bool
	configFile   string
	logLevel     string
	hostFlag     string
	userFlag     string
	passwordFlag string
)

var ErrAlreadyHandled = errors.New("already handled")

var okLabel = color.New(color.FgGreen)
var errorLabel = color.New(color.FgRed)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dahuarpc [command] [flags]",
	Short: "dahuarpc - control Dahua cameras and NVRs over RPC2",
	Long: `dahuarpc talks to Dahua cameras, NVRs and display controllers through the
RPC2 JSON interface used by their web UI. Every command logs in first.

Examples:
  # Save the device address and credentials
  dahuarpc config create --host 192.168.1.108 --user admin --password secret

  # Read the device clock
  dahuarpc time

  # Show four panes on the wall controller, second group
  dahuarpc split set --mode 4 --view 2

  # Search plate recognitions from the last day
  dahuarpc find --start 24h`,
	PersistentPreRunE: preRunHandlePersistents,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	// Set up persistent flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "", "", "Path to configuration file to override default")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "Device address, overrides the config file")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Login name, overrides the config file")
	rootCmd.PersistentFlags().StringVar(&passwordFlag, "password", "", "Password, overrides the config file")

	// Add commands
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newLoginCmd())
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true // Prevent Cobra from printing the error
	rootCmd.SilenceUsage = true  // Prevent Cobra from printing usage on error

	err := rootCmd.Execute()
	if err != nil {
		if errors.Is(err, ErrAlreadyHandled) {
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(os.Stdout, map[string]string{"error": errorText(err)})
		} else {
			errorLabel.Fprintf(os.Stderr, "Error: %s\n", errorText(err))
		}
		os.Exit(1)
	}
}

// errorText appends the causes a library error wraps, which its Error
// method leaves out.
func errorText(err error) string {
	msg := err.Error()
	var ae apperrors.Error
	if errors.As(err, &ae) {
		if all := ae.ErrorAll(); all != ae.Error() {
			msg += " (" + strings.TrimPrefix(all, ae.Error()+"; ") + ")"
		}
	}
	return msg
}

// preRunHandlePersistents configures logging and loads the config file before
// command execution. Commands that need no device skip the config.
func preRunHandlePersistents(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		var err error
		configFile, err = GetDefaultConfigPath()
		if err != nil {
			return err
		}
	}

	if !needsDevice(cmd) {
		return logtrace.InitLogger(logLevel)
	}

	if err := LoadConfig(configFile); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		// Flags alone can describe the device.
		if hostFlag == "" {
			return fmt.Errorf("config file %s not found; run \"dahuarpc config create\" or pass --host", configFile)
		}
		config = &Config{}
	}
	cfg := GetConfig().WithOverrides(hostFlag, userFlag, passwordFlag)
	if err := cfg.ValidateConfig(); err != nil {
		return err
	}
	config = cfg

	level := logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	return logtrace.InitLogger(level)
}

// needsDevice reports whether cmd talks to a device.
func needsDevice(cmd *cobra.Command) bool {
	if !cmd.HasParent() {
		return false
	}
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "config", "version", "simulate", "help", "completion":
			return false
		}
	}
	return true
}

// newVersionCmd creates and returns a new version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dahuarpc",
		Run: func(cmd *cobra.Command, args []string) {
			configPath, err := GetDefaultConfigPath()
			if err != nil {
				configPath = "unknown"
			}

			if jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]string{
					"version":     getCLIVersion(),
					"config_file": configPath,
				})
			} else {
				cmd.Printf("dahuarpc %s\n", getCLIVersion())
				cmd.Printf("Config file: %s\n", configPath)
			}
		},
	}
}

// printJSON writes data as indented JSON
func printJSON(w io.Writer, data any) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(w, string(jsonData))
}

// getCLIVersion returns the current CLI version
func getCLIVersion() string {
	return "v0.1.0"
}
