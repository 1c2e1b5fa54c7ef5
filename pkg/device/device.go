// Package device implements the telemetry-producing side of the protocol:
// it samples the sensor and camera, sends ClientData to the controller and
// logs the feedback and commands it gets back.
package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ssargent/drivelog/pkg/codec"
)

// ErrUnexpectedMessage is returned when the controller replies with a message
// the device does not accept.
var ErrUnexpectedMessage = errors.New("device: unexpected message")

// Sensor supplies accelerometer readings
type Sensor interface {
	Read() (codec.AccelerometerReading, error)
}

// Camera supplies JPEG frames
type Camera interface {
	Capture() ([]byte, error)
}

// Motors applies decoded speeds
type Motors interface {
	SetSpeeds(left, right int) error
}

// Transport sends one message and returns the reply. Framing is the
// transport's concern.
type Transport interface {
	Exchange(ctx context.Context, msg []byte) ([]byte, error)
}

// EventLog records accepted feedback and commands
type EventLog interface {
	AppendFeedback(h codec.Header, received uint64) error
	AppendCommand(raw [2]byte, received uint64) error
}

// Config wires a Device to its collaborators. Motors and Logger are optional.
type Config struct {
	Sensor    Sensor
	Camera    Camera
	Motors    Motors
	Transport Transport
	Log       EventLog
	Clock     func() uint64 // nanoseconds; defaults to time.Now
	Logger    zerolog.Logger
}

// Stats counts device activity
type Stats struct {
	Sent     uint64
	Feedback uint64
	Commands uint64
}

// Device produces telemetry and consumes controller replies
type Device struct {
	config Config
	mu     sync.Mutex
	nextID uint8
	stats  Stats
}

// New validates cfg and returns a Device
func New(cfg Config) (*Device, error) {
	if cfg.Sensor == nil || cfg.Camera == nil {
		return nil, errors.New("device: sensor and camera are required")
	}
	if cfg.Log == nil {
		return nil, errors.New("device: event log is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = func() uint64 { return uint64(time.Now().UnixNano()) }
	}
	return &Device{config: cfg}, nil
}

// Capture samples the sensor and camera and encodes a ClientData message.
// Message ids wrap at 255.
func (d *Device) Capture() ([]byte, codec.Header, error) {
	reading, err := d.config.Sensor.Read()
	if err != nil {
		return nil, codec.Header{}, fmt.Errorf("read sensor: %w", err)
	}
	image, err := d.config.Camera.Capture()
	if err != nil {
		return nil, codec.Header{}, fmt.Errorf("capture image: %w", err)
	}

	d.mu.Lock()
	h := codec.Header{MessageID: d.nextID, Timestamp: d.config.Clock()}
	d.nextID++
	d.mu.Unlock()

	return codec.EncodeClientData(h, reading, image), h, nil
}

// Receive handles one message from the controller. Feedback is logged with
// its arrival time; commands are logged and applied to the motors.
func (d *Device) Receive(raw []byte) (codec.Message, error) {
	received := d.config.Clock()

	msg, err := codec.DecodeMessage(raw)
	if err != nil {
		return nil, err
	}

	switch m := msg.(type) {
	case *codec.FeedbackCommand:
		if err := d.config.Log.AppendFeedback(m.Header, received); err != nil {
			return msg, err
		}
		d.count(func(s *Stats) { s.Feedback++ })
		return msg, d.drive(m.LeftSpeed, m.RightSpeed)
	case *codec.FeedbackTraining:
		if err := d.config.Log.AppendFeedback(m.Header, received); err != nil {
			return msg, err
		}
		d.count(func(s *Stats) { s.Feedback++ })
		return msg, nil
	case *codec.ManualCommand:
		raw := [2]byte{byte(m.Command[0]), byte(m.Command[1])}
		if err := d.config.Log.AppendCommand(raw, received); err != nil {
			return msg, err
		}
		d.count(func(s *Stats) { s.Commands++ })
		return msg, d.drive(m.LeftSpeed, m.RightSpeed)
	default:
		return msg, fmt.Errorf("%w: %s", ErrUnexpectedMessage, msg.Type())
	}
}

// Step captures one message, sends it and handles the reply
func (d *Device) Step(ctx context.Context) error {
	if d.config.Transport == nil {
		return errors.New("device: no transport configured")
	}

	msg, h, err := d.Capture()
	if err != nil {
		return err
	}
	reply, err := d.config.Transport.Exchange(ctx, msg)
	if err != nil {
		return fmt.Errorf("send message %d: %w", h.MessageID, err)
	}
	d.count(func(s *Stats) { s.Sent++ })

	decoded, err := d.Receive(reply)
	if err != nil {
		return fmt.Errorf("reply to message %d: %w", h.MessageID, err)
	}
	d.config.Logger.Debug().
		Uint8("message_id", h.MessageID).
		Stringer("reply", decoded.Type()).
		Msg("exchange complete")
	return nil
}

// Run calls Step every interval until ctx is done. Step failures are
// logged and do not stop the loop.
func (d *Device) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := d.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			d.config.Logger.Warn().Err(err).Msg("device step failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Stats returns a snapshot of the device counters
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Device) count(fn func(*Stats)) {
	d.mu.Lock()
	fn(&d.stats)
	d.mu.Unlock()
}

func (d *Device) drive(left, right int) error {
	if d.config.Motors == nil {
		return nil
	}
	if err := d.config.Motors.SetSpeeds(left, right); err != nil {
		return fmt.Errorf("set speeds: %w", err)
	}
	return nil
}
