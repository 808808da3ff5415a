package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/tansive/dahuarpc/internal/common/apperrors"
	"github.com/tansive/dahuarpc/internal/common/httpclient"
	"github.com/tansive/dahuarpc/internal/devicesim"
)

// useSimulator routes every session the CLI opens into dev.
func useSimulator(t *testing.T, dev *devicesim.Device) {
	t.Helper()
	orig := newClient
	newClient = func(*Config) httpclient.HTTPClientInterface {
		return httpclient.NewTestClient(dev.Router)
	}
	t.Cleanup(func() { newClient = orig })
}

// resetFlags puts every subcommand flag back to its default between runs.
func resetFlags(cmd *cobra.Command) {
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command with args and returns its output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	jsonOutput, configFile, logLevel = false, "", ""
	hostFlag, userFlag, passwordFlag = "", "", ""
	config = nil
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func newSimDevice(t *testing.T) *devicesim.Device {
	t.Helper()
	dev := devicesim.New(devicesim.Options{
		Username: "admin",
		Password: "secret",
		Now:      func() time.Time { return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC) },
		Records: []devicesim.Record{
			{"Time": int64(1558925900), "PlateNumber": "ABC123"},
			{"Time": int64(1558930000), "PlateNumber": "XYZ789"},
			{"Time": int64(1558990000), "PlateNumber": "JKL456"},
		},
	})
	useSimulator(t, dev)
	return dev
}

func deviceArgs(t *testing.T, args ...string) []string {
	cfgPath := filepath.Join(t.TempDir(), "absent.yaml")
	return append([]string{"--config", cfgPath, "--host", "sim.local", "--user", "admin", "--password", "secret", "--log-level", "error"}, args...)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version", "--json")
	require.NoError(t, err)
	assert.Equal(t, getCLIVersion(), gjson.Get(out, "version").String())
}

func TestConfigCreateAndShow(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runCLI(t, "--config", cfgPath, "config", "create",
		"--host", "192.168.1.108", "--user", "admin", "--password", "secret", "--timeout", "3s")
	require.NoError(t, err)

	cfg, err := ReadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.108", cfg.Host)
	assert.Equal(t, "3s", cfg.Timeout)

	out, err := runCLI(t, "--config", cfgPath, "--json", "config", "show")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.108", gjson.Get(out, "host").String())
	assert.Equal(t, "********", gjson.Get(out, "password").String())

	_, err = runCLI(t, "--config", cfgPath, "config", "create", "--user", "admin")
	assert.ErrorContains(t, err, "host is required")
}

func TestMissingConfigWithoutHost(t *testing.T) {
	_, err := runCLI(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "time")
	assert.ErrorContains(t, err, "not found")
}

func TestTimeCommand(t *testing.T) {
	newSimDevice(t)

	out, err := runCLI(t, deviceArgs(t, "time")...)
	require.NoError(t, err)
	assert.Contains(t, out, "2020-01-01 00:00:00")
}

func TestLoginCommandRejectsBadPassword(t *testing.T) {
	newSimDevice(t)

	args := deviceArgs(t, "login")
	args[7] = "wrong"
	_, err := runCLI(t, args...)
	assert.ErrorContains(t, err, "login to sim.local")
}

func TestConfigFileDrivesSession(t *testing.T) {
	newSimDevice(t)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, (&Config{Host: "sim.local", Username: "admin", Password: "secret"}).WriteConfig(cfgPath))

	out, err := runCLI(t, "--config", cfgPath, "--json", "keepalive")
	require.NoError(t, err)
	assert.True(t, gjson.Get(out, "result").Bool())
	assert.Equal(t, int64(300), gjson.Get(out, "timeout").Int())
}

func TestRebootAndNTPCommands(t *testing.T) {
	dev := newSimDevice(t)

	_, err := runCLI(t, deviceArgs(t, "reboot")...)
	require.NoError(t, err)
	assert.Equal(t, 1, dev.Reboots())

	_, err = runCLI(t, deviceArgs(t, "ntp", "--address", "10.0.0.1", "--port", "123", "--timezone", "21")...)
	require.NoError(t, err)
	require.Len(t, dev.NTPRequests(), 1)
	assert.JSONEq(t, `{"Address":"10.0.0.1","Port":123,"TimeZone":21}`, string(dev.NTPRequests()[0]))
}

func TestSplitCommands(t *testing.T) {
	dev := newSimDevice(t)

	_, err := runCLI(t, deviceArgs(t, "split", "set", "--mode", "9", "--view", "2")...)
	require.NoError(t, err)
	mode, group := dev.Split()
	assert.Equal(t, "Split9", mode)
	assert.Equal(t, 1, group)

	out, err := runCLI(t, deviceArgs(t, "--json", "split", "get")...)
	require.NoError(t, err)
	assert.Equal(t, int64(9), gjson.Get(out, "mode").Int())
	assert.Equal(t, int64(2), gjson.Get(out, "view").Int())
}

func TestSetConfigCommand(t *testing.T) {
	dev := newSimDevice(t)
	t.Setenv("NTP_SERVER", "10.9.9.9")
	file := writeTemp(t, "ntp.yaml", "name: NTP\ntable:\n  Enable: true\n  Address: {{ .ENV.NTP_SERVER }}\n---\nname: General\ntable:\n  MachineName: gate-1\n")

	out, err := runCLI(t, deviceArgs(t, "--json", "setconfig", "-f", file)...)
	require.NoError(t, err)
	assert.Equal(t, []any{"NTP", "General"}, gjson.Get(out, "tables").Value())

	stored, ok := dev.Config("NTP")
	require.True(t, ok)
	assert.Equal(t, "10.9.9.9", gjson.GetBytes(stored, "table.Address").String())
	_, ok = dev.Config("General")
	assert.True(t, ok)
}

func TestFindCommand(t *testing.T) {
	newSimDevice(t)

	out, err := runCLI(t, deviceArgs(t, "--json", "find",
		"--start", "1558925818", "--end", "1559012218", "--count", "2", "--all")...)
	require.NoError(t, err)
	assert.Equal(t, int64(3), gjson.Get(out, "found").Int())
	assert.Equal(t, "JKL456", gjson.Get(out, "records.2.PlateNumber").String())

	_, err = runCLI(t, deviceArgs(t, "find", "--start", "1559012218", "--end", "1558925818")...)
	assert.ErrorContains(t, err, "precedes")
}

func TestCallCommand(t *testing.T) {
	newSimDevice(t)

	out, err := runCLI(t, deviceArgs(t, "call", "split.getMode",
		"--factory", "split.factory.instance", "--factory-params", "{channel: 0}", "--params", `""`)...)
	require.NoError(t, err)
	assert.Equal(t, "Split1", gjson.Get(out, "params.mode").String())

	out, err = runCLI(t, deviceArgs(t, "call", "magicBox.getProductDefinition", "--params", "{name: Traffic}")...)
	require.NoError(t, err)
	assert.Equal(t, "Traffic", gjson.Get(out, "params.definition.Name").String())

	_, err = runCLI(t, deviceArgs(t, "call", "global.keepAlive", "--params", "{}", "-f", "x.yaml")...)
	assert.ErrorContains(t, err, "not both")
}

func TestProductCommand(t *testing.T) {
	newSimDevice(t)

	out, err := runCLI(t, deviceArgs(t, "product", "--name", "Traffic")...)
	require.NoError(t, err)
	assert.Equal(t, "Simulated", gjson.Get(out, "definition.Vendor").String())
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "plain", errorText(errors.New("plain")))

	kind := apperrors.New("invalid argument")
	err := kind.MsgErr("invalid params for split.setMode", errors.New("unsupported type"))
	assert.Equal(t, "invalid params for split.setMode (unsupported type)", errorText(err))
	assert.Equal(t, "host is required", errorText(kind.New("host is required")))
}
