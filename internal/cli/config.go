package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default name of the config file
const DefaultConfigFile = "config.yaml"

// DefaultTimeout applies when the config sets none.
const DefaultTimeout = 10 * time.Second

// Config holds the device connection settings of the CLI.
// Files ending in .toml are read and written as TOML, everything else as YAML.
type Config struct {
	// Version of the configuration file format
	Version string `json:"version" yaml:"version" toml:"version"`
	// Host is the device address, optionally with port and scheme
	Host string `json:"host" yaml:"host" toml:"host" validate:"required"`
	// Username is the login name
	Username string `json:"username" yaml:"username" toml:"username" validate:"required"`
	// Password is stored in clear text; keep the file private
	Password string `json:"password" yaml:"password" toml:"password"`
	// Timeout bounds each HTTP request, e.g. "10s"
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty" validate:"omitempty,duration"`
	// LogLevel is used when --log-level is not given
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty" toml:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn error disabled"`
	// Insecure skips certificate checks for https hosts
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty" toml:"insecure,omitempty"`
}

var config *Config

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
	return v
}

// GetDefaultConfigPath returns the default path for the config file
// It uses the OS-specific config directory (e.g., ~/.config/dahuarpc on Linux)
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "dahuarpc", DefaultConfigFile), nil
}

func isTOML(file string) bool {
	return strings.EqualFold(filepath.Ext(file), ".toml")
}

// ReadConfig parses the config file without validating it.
func ReadConfig(file string) (*Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	var c Config
	if isTOML(file) {
		err = toml.Unmarshal(data, &c)
	} else {
		err = yaml.Unmarshal(data, &c)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}
	return &c, nil
}

// LoadConfig loads the configuration from the specified file
// If no file is specified, it uses the default config location
func LoadConfig(file string) error {
	if file == "" {
		var err error
		file, err = GetDefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get default config path: %w", err)
		}
	}

	c, err := ReadConfig(file)
	if err != nil {
		return err
	}
	config = c
	return nil
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	return config
}

// WithOverrides returns a copy with the non-empty arguments applied.
func (cfg *Config) WithOverrides(host, username, password string) *Config {
	c := *cfg
	if host != "" {
		c.Host = host
	}
	if username != "" {
		c.Username = username
	}
	if password != "" {
		c.Password = password
	}
	return &c
}

// WriteConfig writes the configuration to file, creating its directory.
func (cfg *Config) WriteConfig(file string) error {
	if file == "" {
		return errors.New("file path cannot be empty")
	}

	err := os.MkdirAll(filepath.Dir(file), 0o700)
	if err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}

	var data []byte
	if isTOML(file) {
		var b strings.Builder
		err = toml.NewEncoder(&b).Encode(cfg)
		data = []byte(b.String())
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to generate configuration: %w", err)
	}

	err = os.WriteFile(file, data, os.FileMode(0600))
	if err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}

	return nil
}

// ValidateConfig checks required fields and formats.
func (cfg *Config) ValidateConfig() error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, strings.ToLower(fe.Field())+" is required")
		default:
			msgs = append(msgs, fmt.Sprintf("invalid %s %q", strings.ToLower(fe.Field()), fe.Value()))
		}
	}
	return errors.New("invalid config: " + strings.Join(msgs, ", "))
}

// GetTimeout returns the configured request timeout.
func (cfg *Config) GetTimeout() time.Duration {
	if cfg.Timeout == "" {
		return DefaultTimeout
	}
	d, err := time.ParseDuration(cfg.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// Print prints the configuration in a human-readable format; the password is masked.
func (cfg *Config) Print(cmd *cobra.Command) {
	cmd.Printf("Host: %s\n", cfg.Host)
	cmd.Printf("Username: %s\n", cfg.Username)
	if cfg.Password != "" {
		cmd.Println("Password: ********")
	}
	cmd.Printf("Timeout: %s\n", cfg.GetTimeout())
	if cfg.LogLevel != "" {
		cmd.Printf("Log level: %s\n", cfg.LogLevel)
	}
	if cfg.Insecure {
		cmd.Println("Insecure TLS: true")
	}
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `Manage the device address and credentials used by every other command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a new config file",
	Long: `Write a new config file. The global --host, --user and --password flags supply
the connection settings.

Example:
  dahuarpc config create --host 192.168.1.108 --user admin --password secret --timeout 5s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetString("timeout")
		level, _ := cmd.Flags().GetString("default-log-level")
		insecure, _ := cmd.Flags().GetBool("insecure")

		cfg := &Config{
			Version:  "0.1.0",
			Host:     hostFlag,
			Username: userFlag,
			Password: passwordFlag,
			Timeout:  timeout,
			LogLevel: level,
			Insecure: insecure,
		}
		if err := cfg.ValidateConfig(); err != nil {
			return err
		}
		if err := cfg.WriteConfig(configFile); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		if jsonOutput {
			printJSON(cmd.OutOrStdout(), map[string]string{
				"host":        cfg.Host,
				"config_file": configFile,
			})
		} else {
			okLabel.Fprintf(cmd.OutOrStdout(), "Device configured: %s\n", cfg.Host)
			cmd.Printf("Config file: %s\n", configFile)
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := ReadConfig(configFile)
		if err != nil {
			return err
		}
		if jsonOutput {
			out := *cfg
			if out.Password != "" {
				out.Password = "********"
			}
			printJSON(cmd.OutOrStdout(), out)
			return nil
		}
		cmd.Printf("Config file: %s\n", configFile)
		cfg.Print(cmd)
		return nil
	},
}

func init() {
	configCreateCmd.Flags().String("timeout", "", "Per-request timeout, e.g. 10s")
	configCreateCmd.Flags().String("default-log-level", "", "Log level used when --log-level is not given")
	configCreateCmd.Flags().Bool("insecure", false, "Skip TLS certificate checks")

	configCmd.AddCommand(configCreateCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
