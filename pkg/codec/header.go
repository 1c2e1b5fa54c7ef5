package codec

import "encoding/binary"

// HeaderSize is the encoded size of a Header: messageId(1) + timestamp(8).
const HeaderSize = 9

// Header identifies a client message. The controller echoes it back in
// feedback so the client can match replies to what it sent.
type Header struct {
	MessageID uint8
	Timestamp uint64 // sender clock, nanoseconds
}

// EncodeHeader serializes a header into a new 9-byte buffer
// Format: [MessageID(1)][Timestamp(8, big-endian)]
func EncodeHeader(messageID uint8, timestamp uint64) []byte {
	buf := make([]byte, HeaderSize)
	Header{MessageID: messageID, Timestamp: timestamp}.Put(buf)
	return buf
}

// DecodeHeader reads a header from the first 9 bytes of buf
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, shortBuffer("header", len(buf), HeaderSize)
	}
	return Header{
		MessageID: buf[0],
		Timestamp: binary.BigEndian.Uint64(buf[1:HeaderSize]),
	}, nil
}

// Put writes the header into dst, which must hold at least HeaderSize bytes.
func (h Header) Put(dst []byte) {
	dst[0] = h.MessageID
	binary.BigEndian.PutUint64(dst[1:HeaderSize], h.Timestamp)
}

// Bytes returns the 9-byte encoding of the header
func (h Header) Bytes() []byte {
	return EncodeHeader(h.MessageID, h.Timestamp)
}
