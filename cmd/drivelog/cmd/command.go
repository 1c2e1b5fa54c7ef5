/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/drivelog/pkg/api"
)

// commandCmd represents the command command
var commandCmd = &cobra.Command{
	Use:   "command",
	Short: "Set the operator command or mode on a controller",
	Long: `Send operator input to a running controller.

Speeds range from -255 to 254. Odd speeds round toward zero and -255 is the
reverse stop code; the controller reports the speeds it actually stored.

Examples:
  drivelog command --left 120 --right 120
  drivelog command --mode training
  drivelog command --controller http://10.0.0.5:8080 --api-key KEY --left 0 --right 0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("controller") {
			cfg.Device.ControllerURL, _ = cmd.Flags().GetString("controller")
		}
		apiKey := cfg.Security.OperatorKey
		if cmd.Flags().Changed("api-key") {
			apiKey, _ = cmd.Flags().GetString("api-key")
		}

		setSpeeds := cmd.Flags().Changed("left") || cmd.Flags().Changed("right")
		mode, _ := cmd.Flags().GetString("mode")
		if !setSpeeds && mode == "" {
			return errors.New("nothing to send: give --left/--right and/or --mode")
		}

		client := &operatorClient{
			baseURL: strings.TrimSuffix(cfg.Device.ControllerURL, "/"),
			apiKey:  apiKey,
			http:    &http.Client{Timeout: cfg.Device.Timeout},
		}

		if mode != "" {
			var resp api.ModeRequest
			if err := client.put("/api/v1/mode", api.ModeRequest{Mode: mode}, &resp); err != nil {
				return err
			}
			cmd.Printf("mode: %s\n", resp.Mode)
		}

		if setSpeeds {
			left, _ := cmd.Flags().GetInt("left")
			right, _ := cmd.Flags().GetInt("right")
			var resp api.CommandResponse
			if err := client.put("/api/v1/command", api.CommandRequest{LeftSpeed: left, RightSpeed: right}, &resp); err != nil {
				return err
			}
			cmd.Printf("command: left=%d right=%d raw=%v\n", resp.LeftSpeed, resp.RightSpeed, resp.Raw)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commandCmd)
	commandCmd.Flags().String("controller", "", "Controller base URL")
	commandCmd.Flags().String("api-key", "", "Operator API key (defaults to the configured key)")
	commandCmd.Flags().Int("left", 0, "Left speed")
	commandCmd.Flags().Int("right", 0, "Right speed")
	commandCmd.Flags().String("mode", "", "Reply mode (manual, training, auto)")
}

// operatorClient calls the controller's operator endpoints
type operatorClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func (c *operatorClient) put(path string, body, data interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPut, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	envelope := api.APIResponse{Data: data}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s %s: %s", req.Method, path, resp.Status)
	}
	if !envelope.Success {
		return fmt.Errorf("%s %s: %s: %s", req.Method, path, resp.Status, envelope.Error)
	}
	return nil
}

