package tcp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"firestige.xyz/strix/internal/core"
)

func testPseudoHeader(segLen int) []byte {
	return []byte{
		0xc0, 0xa8, 0x00, 0x01,
		0xc0, 0xa8, 0x00, 0xc7,
		0x00, 0x06,
		byte(segLen >> 8), byte(segLen),
	}
}

func defaultSegment(t *testing.T) []byte {
	t.Helper()

	segment := make([]byte, HeaderLen)
	if _, err := New().WriteDefaultHeader(segment); err != nil {
		t.Fatalf("WriteDefaultHeader failed: %v", err)
	}
	return segment
}

func TestWriteDefaultHeader(t *testing.T) {
	segment := defaultSegment(t)

	want := []byte{
		0x0b, 0x0c, 0x0b, 0x0c,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x50, 0x00, 0x16, 0xd0,
		0x00, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(segment, want) {
		t.Errorf("Expected default header % x, got % x", want, segment)
	}
}

func TestHeaderSize(t *testing.T) {
	d := New()

	if got := d.HeaderSize(nil); got != HeaderLen {
		t.Errorf("Expected default size %d, got %d", HeaderLen, got)
	}

	// Data offset 8 -> 32 bytes
	header := defaultSegment(t)
	header[12] = 0x80
	if got := d.HeaderSize(header); got != 32 {
		t.Errorf("Expected size 32 for data offset 8, got %d", got)
	}

	// Too short to hold the data offset byte -> default
	if got := d.HeaderSize(header[:12]); got != HeaderLen {
		t.Errorf("Expected fallback size %d, got %d", HeaderLen, got)
	}
}

func TestWriteChecksumDefaultHeader(t *testing.T) {
	segment := defaultSegment(t)

	if err := New().WriteChecksum(segment, testPseudoHeader(HeaderLen)); err != nil {
		t.Fatalf("WriteChecksum failed: %v", err)
	}
	if segment[16] != 0x00 || segment[17] != 0xe4 {
		t.Errorf("Expected checksum 00 e4, got %02x %02x", segment[16], segment[17])
	}
}

func TestWriteChecksumSyn(t *testing.T) {
	segment := defaultSegment(t)
	segment[13] = 0x02 // SYN
	binary.BigEndian.PutUint32(segment[4:], 100)

	if err := New().WriteChecksum(segment, testPseudoHeader(HeaderLen)); err != nil {
		t.Fatalf("WriteChecksum failed: %v", err)
	}
	if segment[16] != 0x00 || segment[17] != 0x7e {
		t.Errorf("Expected checksum 00 7e, got %02x %02x", segment[16], segment[17])
	}
}

func TestWriteChecksumWithPayload(t *testing.T) {
	segment := append(defaultSegment(t), []byte("probe")...)

	if err := New().WriteChecksum(segment, testPseudoHeader(len(segment))); err != nil {
		t.Fatalf("WriteChecksum failed: %v", err)
	}
	if segment[16] != 0xbc || segment[17] != 0x09 {
		t.Errorf("Expected checksum bc 09, got %02x %02x", segment[16], segment[17])
	}
}

func TestWriteChecksumIdempotent(t *testing.T) {
	d := New()
	segment := append(defaultSegment(t), []byte("probe")...)
	psh := testPseudoHeader(len(segment))

	if err := d.WriteChecksum(segment, psh); err != nil {
		t.Fatalf("WriteChecksum failed: %v", err)
	}
	first := binary.BigEndian.Uint16(segment[16:])

	if err := d.WriteChecksum(segment, psh); err != nil {
		t.Fatalf("Second WriteChecksum failed: %v", err)
	}
	if got := binary.BigEndian.Uint16(segment[16:]); got != first {
		t.Errorf("Checksum not idempotent: first 0x%04x, second 0x%04x", first, got)
	}
}

func TestWriteChecksumRequiresPseudoHeader(t *testing.T) {
	err := New().WriteChecksum(defaultSegment(t), nil)
	if !errors.Is(err, core.ErrNoPseudoHeader) {
		t.Errorf("Expected ErrNoPseudoHeader, got %v", err)
	}
}

func TestWriteChecksumRejectsOddPseudoHeader(t *testing.T) {
	err := New().WriteChecksum(defaultSegment(t), make([]byte, 11))
	if !errors.Is(err, core.ErrInvalidSegment) {
		t.Errorf("Expected ErrInvalidSegment, got %v", err)
	}
}

func TestWriteChecksumDeclaredLengthBounds(t *testing.T) {
	d := New()
	segment := defaultSegment(t)

	err := d.WriteChecksum(segment, testPseudoHeader(HeaderLen-1))
	if !errors.Is(err, core.ErrShortHeader) {
		t.Errorf("Expected ErrShortHeader for declared 19, got %v", err)
	}

	err = d.WriteChecksum(segment, testPseudoHeader(HeaderLen+1))
	if !errors.Is(err, core.ErrShortHeader) {
		t.Errorf("Expected ErrShortHeader for overlong declared length, got %v", err)
	}
}

func TestPseudoHeaderIPv6Unsupported(t *testing.T) {
	ipSegment := make([]byte, 40)
	ipSegment[0] = 0x60

	_, err := New().PseudoHeader(ipSegment)
	if !errors.Is(err, core.ErrIPv6Unsupported) {
		t.Errorf("Expected ErrIPv6Unsupported, got %v", err)
	}
}
