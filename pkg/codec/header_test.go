package codec

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestHeader_EncodeDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name      string
		messageID uint8
		timestamp uint64
	}{
		{name: "zero", messageID: 0, timestamp: 0},
		{name: "typical", messageID: 42, timestamp: 1000},
		{name: "max id", messageID: 255, timestamp: 1},
		{name: "max timestamp", messageID: 7, timestamp: math.MaxUint64},
		{name: "nanosecond clock", messageID: 128, timestamp: 1719043200000000000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := EncodeHeader(tc.messageID, tc.timestamp)
			if len(encoded) != HeaderSize {
				t.Fatalf("encoded length = %d, want %d", len(encoded), HeaderSize)
			}

			h, err := DecodeHeader(encoded)
			if err != nil {
				t.Fatalf("DecodeHeader failed: %v", err)
			}
			if h.MessageID != tc.messageID || h.Timestamp != tc.timestamp {
				t.Errorf("got %+v, want id=%d ts=%d", h, tc.messageID, tc.timestamp)
			}
			if !bytes.Equal(h.Bytes(), encoded) {
				t.Errorf("Bytes() = %x, want %x", h.Bytes(), encoded)
			}
		})
	}
}

func TestHeader_ByteLayout(t *testing.T) {
	got := EncodeHeader(0x2A, 0x0102030405060708)
	want := []byte{0x2A, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	if !bytes.Equal(got, want) {
		t.Fatalf("layout = %x, want %x", got, want)
	}
}

func TestHeader_DecodeTooShort(t *testing.T) {
	for n := 0; n < HeaderSize; n++ {
		_, err := DecodeHeader(make([]byte, n))
		if !errors.Is(err, ErrBufferTooShort) {
			t.Errorf("len %d: expected ErrBufferTooShort, got %v", n, err)
		}
	}
}

func TestHeader_DecodeIgnoresTrailingBytes(t *testing.T) {
	buf := append(EncodeHeader(9, 99), 0xFF, 0xFF)
	h, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader failed: %v", err)
	}
	if h != (Header{MessageID: 9, Timestamp: 99}) {
		t.Errorf("got %+v", h)
	}
}
