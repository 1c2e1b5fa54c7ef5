package codec

import (
	"encoding/binary"
	"fmt"
)

// LogType is the leading discriminant byte of a log record
type LogType uint8

const (
	LogFeedback LogType = iota
	LogManualCommand
)

func (t LogType) String() string {
	switch t {
	case LogFeedback:
		return "feedback"
	case LogManualCommand:
		return "manual_command"
	default:
		return fmt.Sprintf("log_type(%d)", uint8(t))
	}
}

const (
	logPayloadOffset = 1 + 8

	// LogRecordSize is the fixed size of every log record:
	// type(1) + received timestamp(8) + payload slot(9)
	LogRecordSize = logPayloadOffset + HeaderSize
)

// LogRecord is one decoded log entry
type LogRecord interface {
	LogType() LogType
	// Received is the local arrival time of the logged message, in nanoseconds.
	Received() uint64
}

// FeedbackLog records the arrival of a feedback message for one of our own
// messages. Received - SentTimestamp is the round trip time.
type FeedbackLog struct {
	MessageID         uint8
	SentTimestamp     uint64
	ReceivedTimestamp uint64
}

// CommandLog records the arrival of an operator command.
type CommandLog struct {
	RawCommand        [2]byte
	ReceivedTimestamp uint64
}

func (*FeedbackLog) LogType() LogType  { return LogFeedback }
func (l *FeedbackLog) Received() uint64 { return l.ReceivedTimestamp }
func (*CommandLog) LogType() LogType   { return LogManualCommand }
func (l *CommandLog) Received() uint64  { return l.ReceivedTimestamp }

// Header returns the header of the message the feedback answered
func (l *FeedbackLog) Header() Header {
	return Header{MessageID: l.MessageID, Timestamp: l.SentTimestamp}
}

// Speeds decodes the raw command bytes into left and right speeds
func (l *CommandLog) Speeds() (left, right int) {
	return DecodeSpeed(int8(l.RawCommand[0])), DecodeSpeed(int8(l.RawCommand[1]))
}

// EncodeFeedbackLog serializes a feedback record
// Format: [Type(1)][Received(8)][Header(9)]
func EncodeFeedbackLog(h Header, received uint64) []byte {
	buf := make([]byte, LogRecordSize)
	_ = PutFeedbackLog(buf, h, received)
	return buf
}

// EncodeCommandLog serializes a command record
// Format: [Type(1)][Received(8)][Command(2)][unused(7)]
func EncodeCommandLog(raw [2]byte, received uint64) []byte {
	buf := make([]byte, LogRecordSize)
	_ = PutCommandLog(buf, raw, received)
	return buf
}

// PutFeedbackLog encodes a feedback record into buf, reusing its storage.
func PutFeedbackLog(buf []byte, h Header, received uint64) error {
	if len(buf) < LogRecordSize {
		return shortBuffer("log record", len(buf), LogRecordSize)
	}
	buf[0] = byte(LogFeedback)
	binary.BigEndian.PutUint64(buf[1:logPayloadOffset], received)
	h.Put(buf[logPayloadOffset:LogRecordSize])
	return nil
}

// PutCommandLog encodes a command record into buf, zeroing the unused payload bytes.
func PutCommandLog(buf []byte, raw [2]byte, received uint64) error {
	if len(buf) < LogRecordSize {
		return shortBuffer("log record", len(buf), LogRecordSize)
	}
	buf[0] = byte(LogManualCommand)
	binary.BigEndian.PutUint64(buf[1:logPayloadOffset], received)
	clear(buf[logPayloadOffset:LogRecordSize])
	copy(buf[logPayloadOffset:], raw[:])
	return nil
}

// DecodeLogRecord deserializes the first LogRecordSize bytes of buf
func DecodeLogRecord(buf []byte) (LogRecord, error) {
	if len(buf) < LogRecordSize {
		return nil, shortBuffer("log record", len(buf), LogRecordSize)
	}
	received := binary.BigEndian.Uint64(buf[1:logPayloadOffset])

	switch t := LogType(buf[0]); t {
	case LogFeedback:
		h, err := DecodeHeader(buf[logPayloadOffset:LogRecordSize])
		if err != nil {
			return nil, err
		}
		return &FeedbackLog{
			MessageID:         h.MessageID,
			SentTimestamp:     h.Timestamp,
			ReceivedTimestamp: received,
		}, nil
	case LogManualCommand:
		return &CommandLog{
			RawCommand:        [2]byte{buf[logPayloadOffset], buf[logPayloadOffset+1]},
			ReceivedTimestamp: received,
		}, nil
	default:
		return nil, &UnknownTypeError{Kind: ErrUnknownLogType, Value: uint8(t)}
	}
}
