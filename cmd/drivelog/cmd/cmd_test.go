package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/drivelog/pkg/api"
	"github.com/ssargent/drivelog/pkg/codec"
	"github.com/ssargent/drivelog/pkg/config"
	"github.com/ssargent/drivelog/pkg/controller"
	"github.com/ssargent/drivelog/pkg/di"
	"github.com/ssargent/drivelog/pkg/store"
)

// resetFlags clears values left by an earlier Execute in the same process
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	rootCmd.SetContext(context.Background())
	err := rootCmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T, mutate func(*config.Config)) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.Log.FsyncInterval = 0
	cfg.Logging.Level = "error"
	if mutate != nil {
		mutate(cfg)
	}
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.SaveConfig(cfg, path))
	return path, cfg
}

func startController(t *testing.T, mode controller.Mode, operatorKey string) (*controller.Controller, string) {
	t.Helper()
	ctrl, err := controller.New(mode, nil, nil, zerolog.Nop())
	require.NoError(t, err)
	srv := httptest.NewServer(api.NewServer(ctrl, nil, api.ServerConfig{OperatorKey: operatorKey}, nil, zerolog.Nop()).Router())
	t.Cleanup(srv.Close)
	return ctrl, srv.URL
}

func TestInitCommand(t *testing.T) {
	SetContainer(di.NewContainer(zerolog.Nop()))
	defer SetContainer(nil)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	dataDir := filepath.Join(dir, "data")

	out, err := runCommand(t, "init", "--config", configPath, "--data-dir", dataDir, "--print-key")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration created")
	assert.DirExists(t, dataDir)

	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Contains(t, out, cfg.Security.OperatorKey)

	out, err = runCommand(t, "init", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	_, err = runCommand(t, "init", "--config", configPath, "--data-dir", dataDir, "--force")
	require.NoError(t, err)
	reloaded, err := config.LoadConfig(configPath)
	require.NoError(t, err)
	assert.NotEqual(t, cfg.Security.OperatorKey, reloaded.Security.OperatorKey)
}

type captureStarter struct {
	config api.ServerConfig
	mode   controller.Mode
	frames bool
}

func (s *captureStarter) StartServer(_ context.Context, ctrl api.IController, frames api.IFrameStore, cfg api.ServerConfig) error {
	s.config = cfg
	s.mode = ctrl.Mode()
	s.frames = frames != nil
	return nil
}

type captureFactory struct{ starter *captureStarter }

func (f captureFactory) CreateServerStarter() api.ServerStarter { return f.starter }

func TestServeCommand(t *testing.T) {
	starter := &captureStarter{}
	container := di.NewContainer(zerolog.Nop())
	container.SetServerFactory(captureFactory{starter: starter})
	SetContainer(container)
	defer SetContainer(nil)

	configPath, cfg := writeTestConfig(t, func(c *config.Config) {
		c.Security.OperatorKey = "k"
	})

	_, err := runCommand(t, "serve", "--config", configPath, "--mode", "training", "--port", "9100")
	require.NoError(t, err)

	assert.Equal(t, controller.ModeTraining, starter.mode)
	assert.True(t, starter.frames)
	assert.Equal(t, api.ServerConfig{Bind: "127.0.0.1", Port: 9100, OperatorKey: "k"}, starter.config)
	assert.DirExists(t, cfg.FramesPath())

	_, err = runCommand(t, "serve", "--config", configPath, "--mode", "cruise")
	assert.Error(t, err)
}

func TestDeviceDumpVerify(t *testing.T) {
	SetContainer(di.NewContainer(zerolog.Nop()))
	defer SetContainer(nil)

	ctrl, url := startController(t, controller.ModeAuto, "")
	ctrl.SetCommand(100, -100)

	configPath, cfg := writeTestConfig(t, func(c *config.Config) {
		c.Device.ControllerURL = url
	})

	out, err := runCommand(t, "device", "--config", configPath, "--count", "3", "--truncate")
	require.NoError(t, err)
	assert.Contains(t, out, "sent=3 feedback=3 commands=0 records=3")

	// append two operator commands to the same log
	require.NoError(t, ctrl.SetMode(controller.ModeManual))
	out, err = runCommand(t, "device", "--config", configPath, "--count", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "sent=2 feedback=0 commands=2 records=5")

	records, err := store.ReadAll(cfg.LogPath())
	require.NoError(t, err)
	require.Len(t, records, 5)

	t.Run("dump json", func(t *testing.T) {
		out, err := runCommand(t, "dump", "--config", configPath, "--format", "json")
		require.NoError(t, err)

		var views []recordView
		scanner := bufio.NewScanner(strings.NewReader(out))
		for scanner.Scan() {
			var v recordView
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &v))
			views = append(views, v)
		}
		require.Len(t, views, 5)
		for i, v := range views[:3] {
			assert.Equal(t, "feedback", v.Type)
			require.NotNil(t, v.MessageID)
			assert.Equal(t, uint8(i), *v.MessageID)
		}
		for _, v := range views[3:] {
			assert.Equal(t, "manual_command", v.Type)
			require.NotNil(t, v.Left)
			assert.Equal(t, 100, *v.Left)
			assert.Equal(t, -100, *v.Right)
		}
	})

	t.Run("dump table with limit", func(t *testing.T) {
		out, err := runCommand(t, "dump", cfg.LogPath(), "--limit", "2", "--chunk-size", "7")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "#"))
	})

	t.Run("verify", func(t *testing.T) {
		out, err := runCommand(t, "verify", cfg.LogPath(), "--json")
		require.NoError(t, err)

		var summary logSummary
		require.NoError(t, json.Unmarshal([]byte(out), &summary))
		assert.Equal(t, 5, summary.Records)
		assert.Equal(t, 3, summary.Feedback)
		assert.Equal(t, 2, summary.Commands)
		assert.True(t, summary.Ordered)
		assert.GreaterOrEqual(t, summary.MaxRTT, summary.MinRTT)
	})
}

func TestDevice_ControllerDown(t *testing.T) {
	SetContainer(di.NewContainer(zerolog.Nop()))
	defer SetContainer(nil)

	configPath, _ := writeTestConfig(t, func(c *config.Config) {
		c.Device.ControllerURL = "http://127.0.0.1:1"
		c.Device.Timeout = time.Second
	})

	_, err := runCommand(t, "device", "--config", configPath, "--count", "1")
	assert.Error(t, err)
}

func writeLog(t *testing.T, tail []byte) string {
	t.Helper()
	var data []byte
	data = append(data, codec.EncodeFeedbackLog(codec.Header{MessageID: 1, Timestamp: 10}, 30)...)
	data = append(data, codec.EncodeCommandLog([2]byte{0x10, 0xF0}, 40)...)
	data = append(data, tail...)
	path := filepath.Join(t.TempDir(), "feedback.log")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestDumpTruncatedLog(t *testing.T) {
	path := writeLog(t, []byte{0, 1, 2, 3, 4})

	out, err := runCommand(t, "dump", path, "--format", "json")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrTruncatedLog)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

func TestDumpUnknownRecord(t *testing.T) {
	bad := make([]byte, codec.LogRecordSize)
	bad[0] = 7
	path := writeLog(t, bad)

	_, err := runCommand(t, "dump", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, codec.ErrUnknownLogType)
}

func TestVerifyTruncatedLog(t *testing.T) {
	path := writeLog(t, []byte{0})

	out, err := runCommand(t, "verify", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrTruncatedLog)
	assert.Empty(t, out)
}

func TestDumpBadFormat(t *testing.T) {
	path := writeLog(t, nil)
	_, err := runCommand(t, "dump", path, "--format", "xml")
	assert.Error(t, err)
}

func TestCommandCommand(t *testing.T) {
	ctrl, url := startController(t, controller.ModeManual, "secret")
	configPath, _ := writeTestConfig(t, nil)

	out, err := runCommand(t, "command", "--config", configPath, "--controller", url,
		"--api-key", "secret", "--left", "77", "--right", "-300", "--mode", "auto")
	require.NoError(t, err)
	assert.Contains(t, out, "mode: auto")
	assert.Contains(t, out, "command: left=76 right=-255")

	assert.Equal(t, controller.ModeAuto, ctrl.Mode())
	left, right := ctrl.Command()
	assert.Equal(t, 76, left)
	assert.Equal(t, -255, right)

	_, err = runCommand(t, "command", "--config", configPath, "--controller", url, "--left", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	_, err = runCommand(t, "command", "--config", configPath, "--controller", url)
	assert.Error(t, err)
}
