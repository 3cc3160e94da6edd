// Package icmpv4 implements the ICMPv4 protocol descriptor. The default
// header is an echo request, the message type probing tools send.
package icmpv4

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/strix/internal/buffer"
	"firestige.xyz/strix/internal/checksum"
	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/protocol"
)

const (
	// HeaderLen is the size of an ICMP echo header.
	HeaderLen = 8
	// ProtocolNumber is the IANA protocol number for ICMP.
	ProtocolNumber = 1
	// TypeEchoRequest is the default message type.
	TypeEchoRequest = 8

	checksumOffset = 2
)

var fields = protocol.MustTable(HeaderLen,
	protocol.Field{Key: "type", Type: protocol.Uint8, Offset: 0},
	protocol.Field{Key: "code", Type: protocol.Uint8, Offset: 1},
	protocol.Field{Key: "checksum", Type: protocol.Uint16, Offset: checksumOffset, Optional: true},
	protocol.Field{Key: "id", Type: protocol.Uint16, Offset: 4},
	protocol.Field{Key: "seq_num", Type: protocol.Uint16, Offset: 6},
)

var defaultHeader = [HeaderLen]byte{
	TypeEchoRequest, 0x00, // type, code
	0x00, 0x00, // checksum
	0x00, 0x00, // id
	0x00, 0x00, // seq_num
}

type descriptor struct{}

// New returns the ICMPv4 protocol descriptor.
func New() protocol.Descriptor { return descriptor{} }

func (descriptor) Name() string          { return "icmpv4" }
func (descriptor) Number() uint8         { return ProtocolNumber }
func (descriptor) Table() protocol.Table { return fields }
func (descriptor) FieldCount() int       { return fields.Len() }

// HeaderSize is constant: the echo header is 8 bytes regardless of content.
func (descriptor) HeaderSize(header []byte) int { return HeaderLen }

func (descriptor) WriteDefaultHeader(dst []byte) (int, error) {
	if dst == nil {
		return HeaderLen, nil
	}
	if len(dst) < HeaderLen {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", core.ErrShortHeader, HeaderLen, len(dst))
	}
	return copy(dst, defaultHeader[:]), nil
}

// WriteChecksum computes the ICMP checksum over the whole message, header
// and payload, and stores it at offset 2. ICMP uses no pseudo-header and no
// length field; the message extends to the end of segment.
func (descriptor) WriteChecksum(segment, pseudoHeader []byte) error {
	if pseudoHeader != nil {
		return fmt.Errorf("%w: icmpv4 checksums carry no ip context", core.ErrPseudoHeaderPresent)
	}
	if len(segment) < HeaderLen {
		return fmt.Errorf("%w: %d bytes", core.ErrShortHeader, len(segment))
	}

	scratch := buffer.Get(len(segment))
	if scratch == nil {
		return fmt.Errorf("%w: scratch of %d bytes", core.ErrBufferExhausted, len(segment))
	}
	defer buffer.Put(scratch)

	copy(scratch, segment)
	scratch[checksumOffset] = 0
	scratch[checksumOffset+1] = 0

	binary.BigEndian.PutUint16(segment[checksumOffset:], checksum.Checksum(scratch, 0))
	return nil
}

// PseudoHeader returns (nil, nil): the ICMP checksum covers no pseudo-header.
func (descriptor) PseudoHeader(ipSegment []byte) ([]byte, error) {
	return nil, nil
}
