package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MessageType is the leading discriminant byte of every wire message
type MessageType uint8

const (
	MessageClientData MessageType = iota
	MessageManualCommand
	MessageFeedbackCommand
	MessageFeedbackTraining
)

func (t MessageType) String() string {
	switch t {
	case MessageClientData:
		return "client_data"
	case MessageManualCommand:
		return "manual_command"
	case MessageFeedbackCommand:
		return "feedback_command"
	case MessageFeedbackTraining:
		return "feedback_training"
	default:
		return fmt.Sprintf("message_type(%d)", uint8(t))
	}
}

const (
	commandSize = 2

	accelOffset = 1 + HeaderSize
	// ClientDataPrefixSize is the fixed part of a ClientData message; the image follows it.
	ClientDataPrefixSize = accelOffset + 6*4

	feedbackCommandOffset = 1 + HeaderSize

	// ManualCommandSize is the encoded size of a ManualCommand message
	ManualCommandSize = 1 + commandSize
	// FeedbackSize is the encoded size of FeedbackCommand and FeedbackTraining messages
	FeedbackSize = 1 + HeaderSize + commandSize

	// ReverseStop is the decoded speed of the most negative raw code.
	ReverseStop = -255
	// MaxSpeed is the largest decodable speed.
	MaxSpeed = 254
)

// accelOffsets is where each accelerometer channel is stored, in write order:
// inclination, pitch, roll, x, y, z. The slots overlap and are not monotonic;
// deployed clients use exactly this layout.
var accelOffsets = [6]int{10, 13, 17, 21, 15, 29}

// Message is one decoded wire message
type Message interface {
	Type() MessageType
}

// AccelerometerReading is one sample of the six accelerometer channels.
// Angles are in degrees, accelerations in g.
type AccelerometerReading struct {
	Inclination float64
	Pitch       float64
	Roll        float64
	X           float64
	Y           float64
	Z           float64
}

// ClientData carries telemetry from the device: a header, the accelerometer
// channels and a JPEG frame.
type ClientData struct {
	Header Header
	// Accelerometer holds the floats read back from accelOffsets, in the same
	// order. Angles are stored as fractions of a full turn.
	Accelerometer [6]float32
	Image         []byte
}

// ManualCommand is an operator drive command with no header.
type ManualCommand struct {
	Command    [2]int8 // raw left/right speed codes
	LeftSpeed  int
	RightSpeed int
}

// FeedbackCommand answers a ClientData message with a drive command.
type FeedbackCommand struct {
	Header     Header // header of the ClientData being answered
	Command    [2]int8
	LeftSpeed  int
	RightSpeed int
}

// FeedbackTraining acknowledges a ClientData message captured for training.
type FeedbackTraining struct {
	Header Header
}

func (*ClientData) Type() MessageType       { return MessageClientData }
func (*ManualCommand) Type() MessageType    { return MessageManualCommand }
func (*FeedbackCommand) Type() MessageType  { return MessageFeedbackCommand }
func (*FeedbackTraining) Type() MessageType { return MessageFeedbackTraining }

// DecodeSpeed turns a raw speed code into a physical speed: the code doubled,
// with -256 clamped to the ReverseStop sentinel. Results are even numbers in
// [-254, 254] or exactly -255.
func DecodeSpeed(raw int8) int {
	speed := int(raw) * 2
	if speed < ReverseStop {
		speed = ReverseStop
	}
	return speed
}

// EncodeSpeed is the inverse of DecodeSpeed. Speeds are clamped to
// [ReverseStop, MaxSpeed] and odd speeds round toward zero.
func EncodeSpeed(speed int) int8 {
	switch {
	case speed <= ReverseStop:
		return math.MinInt8
	case speed > MaxSpeed:
		speed = MaxSpeed
	}
	return int8(speed / 2)
}

// EncodeClientData serializes a telemetry message
// Format: [Type(1)][Header(9)][Accelerometer(24)][Image]
func EncodeClientData(h Header, a AccelerometerReading, image []byte) []byte {
	buf := make([]byte, ClientDataPrefixSize+len(image))
	buf[0] = byte(MessageClientData)
	h.Put(buf[1:accelOffset])

	channels := [6]float64{
		a.Inclination / 360,
		a.Pitch / 360,
		a.Roll / 360,
		a.X,
		a.Y,
		a.Z,
	}
	for i, v := range channels {
		putFloat32(buf[accelOffsets[i]:], float32(v))
	}

	copy(buf[ClientDataPrefixSize:], image)
	return buf
}

// DecodeClientData deserializes a telemetry message. The image aliases buf.
func DecodeClientData(buf []byte) (*ClientData, error) {
	if len(buf) < ClientDataPrefixSize {
		return nil, shortBuffer("client data", len(buf), ClientDataPrefixSize)
	}
	h, err := DecodeHeader(buf[1:accelOffset])
	if err != nil {
		return nil, err
	}

	m := &ClientData{Header: h, Image: buf[ClientDataPrefixSize:]}
	for i, off := range accelOffsets {
		m.Accelerometer[i] = math.Float32frombits(binary.BigEndian.Uint32(buf[off:]))
	}
	return m, nil
}

// EncodeManualCommand serializes an operator command
// Format: [Type(1)][Left(1)][Right(1)]
func EncodeManualCommand(left, right int8) []byte {
	return []byte{byte(MessageManualCommand), byte(left), byte(right)}
}

// DecodeManualCommand deserializes an operator command
func DecodeManualCommand(buf []byte) (*ManualCommand, error) {
	if len(buf) < ManualCommandSize {
		return nil, shortBuffer("manual command", len(buf), ManualCommandSize)
	}
	left, right := int8(buf[1]), int8(buf[2])
	return &ManualCommand{
		Command:    [2]int8{left, right},
		LeftSpeed:  DecodeSpeed(left),
		RightSpeed: DecodeSpeed(right),
	}, nil
}

// EncodeFeedbackCommand serializes a drive command answering the message h
// Format: [Type(1)][Header(9)][Left(1)][Right(1)]
func EncodeFeedbackCommand(h Header, left, right int8) []byte {
	buf := make([]byte, FeedbackSize)
	buf[0] = byte(MessageFeedbackCommand)
	h.Put(buf[1:feedbackCommandOffset])
	buf[feedbackCommandOffset] = byte(left)
	buf[feedbackCommandOffset+1] = byte(right)
	return buf
}

// DecodeFeedbackCommand deserializes a drive command reply
func DecodeFeedbackCommand(buf []byte) (*FeedbackCommand, error) {
	if len(buf) < FeedbackSize {
		return nil, shortBuffer("feedback command", len(buf), FeedbackSize)
	}
	h, err := DecodeHeader(buf[1:feedbackCommandOffset])
	if err != nil {
		return nil, err
	}
	left, right := int8(buf[feedbackCommandOffset]), int8(buf[feedbackCommandOffset+1])
	return &FeedbackCommand{
		Header:     h,
		Command:    [2]int8{left, right},
		LeftSpeed:  DecodeSpeed(left),
		RightSpeed: DecodeSpeed(right),
	}, nil
}

// EncodeFeedbackTraining serializes a training acknowledgement. The
// allocation matches FeedbackCommand; the two command bytes stay zero.
func EncodeFeedbackTraining(h Header) []byte {
	buf := make([]byte, FeedbackSize)
	buf[0] = byte(MessageFeedbackTraining)
	h.Put(buf[1 : 1+HeaderSize])
	return buf
}

// DecodeFeedbackTraining deserializes a training acknowledgement
func DecodeFeedbackTraining(buf []byte) (*FeedbackTraining, error) {
	if len(buf) < 1+HeaderSize {
		return nil, shortBuffer("feedback training", len(buf), 1+HeaderSize)
	}
	h, err := DecodeHeader(buf[1 : 1+HeaderSize])
	if err != nil {
		return nil, err
	}
	return &FeedbackTraining{Header: h}, nil
}

// DecodeMessage dispatches on the discriminant byte at offset 0
func DecodeMessage(buf []byte) (Message, error) {
	if len(buf) < 1 {
		return nil, shortBuffer("message", len(buf), 1)
	}
	switch t := MessageType(buf[0]); t {
	case MessageClientData:
		return DecodeClientData(buf)
	case MessageManualCommand:
		return DecodeManualCommand(buf)
	case MessageFeedbackCommand:
		return DecodeFeedbackCommand(buf)
	case MessageFeedbackTraining:
		return DecodeFeedbackTraining(buf)
	default:
		return nil, &UnknownTypeError{Kind: ErrUnknownMessageType, Value: uint8(t)}
	}
}

// EncodeMessage re-encodes a decoded message. ClientData angles are written
// back as stored, without a second division by 360.
func EncodeMessage(m Message) ([]byte, error) {
	switch v := m.(type) {
	case *ClientData:
		buf := make([]byte, ClientDataPrefixSize+len(v.Image))
		buf[0] = byte(MessageClientData)
		v.Header.Put(buf[1:accelOffset])
		for i, f := range v.Accelerometer {
			putFloat32(buf[accelOffsets[i]:], f)
		}
		copy(buf[ClientDataPrefixSize:], v.Image)
		return buf, nil
	case *ManualCommand:
		return EncodeManualCommand(v.Command[0], v.Command[1]), nil
	case *FeedbackCommand:
		return EncodeFeedbackCommand(v.Header, v.Command[0], v.Command[1]), nil
	case *FeedbackTraining:
		return EncodeFeedbackTraining(v.Header), nil
	case nil:
		return nil, fmt.Errorf("codec: nil message")
	default:
		return nil, &UnknownTypeError{Kind: ErrUnknownMessageType, Value: uint8(m.Type())}
	}
}

func putFloat32(dst []byte, v float32) {
	binary.BigEndian.PutUint32(dst, math.Float32bits(v))
}
