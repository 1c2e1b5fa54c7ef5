/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/drivelog/pkg/api"
	"github.com/ssargent/drivelog/pkg/controller"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the controller",
	Long: `Run the controller HTTP API. Devices POST telemetry to /api/v1/messages
and receive the reply for the current mode:

  manual    ManualCommand with the operator command
  training  FeedbackTraining; the frame is stored with the operator command
  auto      FeedbackCommand from the pilot

Examples:
  drivelog serve
  drivelog serve --mode training --port 9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			cfg.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("mode") {
			cfg.Mode, _ = cmd.Flags().GetString("mode")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := newLogger(cmd, cfg)
		deps := getContainer(logger)

		frames, err := deps.OpenFrameStore(cfg.FramesPath())
		if err != nil {
			return err
		}
		frames.SetSync(cfg.Frames.Sync)
		defer func() {
			if err := frames.Close(); err != nil {
				logger.Error().Err(err).Msg("close frame store")
			}
		}()

		ctrl, err := controller.New(controller.Mode(cfg.Mode), frames, nil, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		starter := deps.GetServerFactory().CreateServerStarter()
		return starter.StartServer(ctx, ctrl, frames, api.ServerConfig{
			Bind:        cfg.Bind,
			Port:        cfg.Port,
			OperatorKey: cfg.Security.OperatorKey,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind to")
	serveCmd.Flags().String("mode", "manual", "Reply mode (manual, training, auto)")
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
