// Package controller answers device telemetry with feedback or commands.
package controller

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/drivelog/pkg/codec"
)

// Mode selects how the controller answers ClientData
type Mode string

const (
	// ModeManual answers with a ManualCommand carrying the operator command
	ModeManual Mode = "manual"
	// ModeTraining stores each frame labelled with the operator command and
	// answers with FeedbackTraining
	ModeTraining Mode = "training"
	// ModeAuto answers with a FeedbackCommand chosen by the Pilot
	ModeAuto Mode = "auto"
)

var (
	ErrUnexpectedMessage = errors.New("controller: unexpected message")
	ErrInvalidMode       = errors.New("controller: invalid mode")
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeManual, ModeTraining, ModeAuto:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// SampleStore keeps training samples
type SampleStore interface {
	Put(data *codec.ClientData, command [2]int8) (ksuid.KSUID, error)
}

// Pilot picks the raw command for a frame in ModeAuto
type Pilot interface {
	Drive(data *codec.ClientData, operator [2]int8) [2]int8
}

// HoldPilot keeps driving with the operator command
type HoldPilot struct{}

func (HoldPilot) Drive(_ *codec.ClientData, operator [2]int8) [2]int8 { return operator }

// Result describes one handled message
type Result struct {
	Request  codec.Message
	Reply    []byte
	ReplyFor codec.MessageType
	SampleID ksuid.KSUID // set when a training sample was stored
}

// Controller is safe for concurrent use
type Controller struct {
	mu      sync.RWMutex
	mode    Mode
	command [2]int8

	samples SampleStore
	pilot   Pilot
	logger  zerolog.Logger
}

// New returns a controller in the given mode. samples may be nil, in which
// case training frames are acknowledged but not kept.
func New(mode Mode, samples SampleStore, pilot Pilot, logger zerolog.Logger) (*Controller, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if pilot == nil {
		pilot = HoldPilot{}
	}
	return &Controller{mode: mode, samples: samples, pilot: pilot, logger: logger}, nil
}

// Handle decodes one message from a device and builds the reply
func (c *Controller) Handle(raw []byte) (*Result, error) {
	msg, err := codec.DecodeMessage(raw)
	if err != nil {
		return nil, err
	}

	data, ok := msg.(*codec.ClientData)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedMessage, msg.Type())
	}

	c.mu.RLock()
	mode, command := c.mode, c.command
	c.mu.RUnlock()

	res := &Result{Request: msg}
	switch mode {
	case ModeManual:
		res.Reply = codec.EncodeManualCommand(command[0], command[1])
		res.ReplyFor = codec.MessageManualCommand
	case ModeTraining:
		if c.samples != nil {
			id, err := c.samples.Put(data, command)
			if err != nil {
				return nil, fmt.Errorf("store sample for message %d: %w", data.Header.MessageID, err)
			}
			res.SampleID = id
		}
		res.Reply = codec.EncodeFeedbackTraining(data.Header)
		res.ReplyFor = codec.MessageFeedbackTraining
	case ModeAuto:
		next := c.pilot.Drive(data, command)
		res.Reply = codec.EncodeFeedbackCommand(data.Header, next[0], next[1])
		res.ReplyFor = codec.MessageFeedbackCommand
	}

	c.logger.Debug().
		Uint8("message_id", data.Header.MessageID).
		Int("image_bytes", len(data.Image)).
		Str("mode", string(mode)).
		Stringer("reply", res.ReplyFor).
		Msg("handled client data")
	return res, nil
}

// SetCommand sets the operator command from physical speeds
func (c *Controller) SetCommand(left, right int) {
	c.mu.Lock()
	c.command = [2]int8{codec.EncodeSpeed(left), codec.EncodeSpeed(right)}
	c.mu.Unlock()
}

// Command returns the operator command as decoded speeds
func (c *Controller) Command() (left, right int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return codec.DecodeSpeed(c.command[0]), codec.DecodeSpeed(c.command[1])
}

// SetMode switches the reply mode
func (c *Controller) SetMode(mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
	c.logger.Info().Str("mode", string(mode)).Msg("controller mode changed")
	return nil
}

// Mode returns the current reply mode
func (c *Controller) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}
