package api

import (
	"time"

	"github.com/ssargent/drivelog/pkg/codec"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CommandRequest sets the operator command in physical speeds
type CommandRequest struct {
	LeftSpeed  int `json:"left_speed"`
	RightSpeed int `json:"right_speed"`
}

// CommandResponse reports the stored command. Speeds are the decoded values,
// which may differ from the request after clamping and rounding.
type CommandResponse struct {
	LeftSpeed  int     `json:"left_speed"`
	RightSpeed int     `json:"right_speed"`
	Raw        [2]int8 `json:"raw"`
}

// ModeRequest switches the controller reply mode
type ModeRequest struct {
	Mode string `json:"mode"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
	Frames int    `json:"frames"`
}

// FrameSummary describes one stored training frame without its image
type FrameSummary struct {
	ID            string     `json:"id"`
	StoredAt      time.Time  `json:"stored_at"`
	MessageID     uint8      `json:"message_id"`
	Timestamp     uint64     `json:"timestamp"`
	Accelerometer [6]float32 `json:"accelerometer"`
	ImageBytes    int        `json:"image_bytes"`
	LeftSpeed     int        `json:"left_speed"`
	RightSpeed    int        `json:"right_speed"`
}

// FrameList is one page of frames. Next is the cursor for the following page.
type FrameList struct {
	Frames []FrameSummary `json:"frames"`
	Next   string         `json:"next,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind           string
	Port           int
	OperatorKey    string // empty disables operator authentication
	MaxMessageSize int64
}

// DefaultMaxMessageSize bounds a single POSTed message
const DefaultMaxMessageSize = 4 << 20

func newCommandResponse(left, right int) CommandResponse {
	return CommandResponse{
		LeftSpeed:  left,
		RightSpeed: right,
		Raw:        [2]int8{codec.EncodeSpeed(left), codec.EncodeSpeed(right)},
	}
}
