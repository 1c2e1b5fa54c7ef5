/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ssargent/drivelog/pkg/config"
	"github.com/ssargent/drivelog/pkg/device"
	"github.com/ssargent/drivelog/pkg/store"
)

// deviceCmd represents the device command
var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Run a simulated device against a controller",
	Long: `Run a simulated device. Each step samples a mock accelerometer and a
camera, sends ClientData to the controller and appends the reply to the
feedback log: feedback replies as feedback records, operator commands as
command records.

Frames come from --image-dir (every .jpg/.jpeg, in name order) or a blank
JPEG when no directory is given.

Examples:
  drivelog device --controller http://127.0.0.1:8080
  drivelog device --count 100 --log ./data/run1.log --truncate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		applyDeviceFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		count, _ := cmd.Flags().GetInt("count")
		truncate, _ := cmd.Flags().GetBool("truncate")

		logger := newLogger(cmd, cfg)
		deps := getContainer(logger)

		camera, err := newCamera(cfg.Device.ImageDir)
		if err != nil {
			return err
		}

		writer, err := deps.OpenLogWriter(store.LogWriterConfig{
			FilePath:      cfg.LogPath(),
			FsyncInterval: cfg.Log.FsyncInterval,
			Truncate:      truncate,
		})
		if err != nil {
			return err
		}

		dev, err := device.New(device.Config{
			Sensor:    device.NewMockSensor(cfg.Device.Seed),
			Camera:    camera,
			Motors:    device.LogMotors{Logger: logger},
			Transport: deps.NewTransport(cfg.Device.ControllerURL, cfg.Device.Timeout),
			Log:       writer,
			Logger:    logger,
		})
		if err != nil {
			_ = writer.Close()
			return err
		}

		ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info().
			Str("controller", cfg.Device.ControllerURL).
			Str("log", writer.Path()).
			Dur("interval", cfg.Device.Interval).
			Msg("device started")

		runErr := runDevice(ctx, dev, cfg, count, logger)
		closeErr := writer.Close()

		stats := dev.Stats()
		cmd.Printf("sent=%d feedback=%d commands=%d records=%d\n",
			stats.Sent, stats.Feedback, stats.Commands, writer.Count())
		return errors.Join(runErr, closeErr)
	},
}

func init() {
	rootCmd.AddCommand(deviceCmd)
	deviceCmd.Flags().String("controller", "", "Controller base URL")
	deviceCmd.Flags().String("log", "", "Feedback log path")
	deviceCmd.Flags().String("image-dir", "", "Directory of JPEG frames to send")
	deviceCmd.Flags().Duration("interval", 0, "Time between messages")
	deviceCmd.Flags().Int("count", 0, "Send this many messages back to back and exit (0 sends every --interval until interrupted)")
	deviceCmd.Flags().Bool("truncate", false, "Start a new log instead of appending")
}

func applyDeviceFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("controller") {
		cfg.Device.ControllerURL, _ = cmd.Flags().GetString("controller")
	}
	if cmd.Flags().Changed("log") {
		cfg.Log.Path, _ = cmd.Flags().GetString("log")
	}
	if cmd.Flags().Changed("image-dir") {
		cfg.Device.ImageDir, _ = cmd.Flags().GetString("image-dir")
	}
	if cmd.Flags().Changed("interval") {
		cfg.Device.Interval, _ = cmd.Flags().GetDuration("interval")
	}
}

func newCamera(imageDir string) (device.Camera, error) {
	if imageDir == "" {
		return device.BlankFrame, nil
	}
	return device.NewFileCamera(imageDir)
}

// runDevice sends count messages, or runs until ctx is done when count is 0.
// A bounded run stops at the first failed step.
func runDevice(ctx context.Context, dev *device.Device, cfg *config.Config, count int, logger zerolog.Logger) error {
	if count <= 0 {
		return dev.Run(ctx, cfg.Device.Interval)
	}
	for i := 0; i < count; i++ {
		if err := dev.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		logger.Debug().Int("step", i+1).Int("of", count).Msg("step")
	}
	return nil
}
