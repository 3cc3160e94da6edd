// Package ipv4 implements the IPv4 protocol descriptor and the pseudo-header
// builder transport checksums are seeded with.
package ipv4

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/strix/internal/buffer"
	"firestige.xyz/strix/internal/checksum"
	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/protocol"
)

const (
	// HeaderLen is the size of an IPv4 header without options.
	HeaderLen = 20
	// PseudoHeaderLen is the size of the transport checksum pseudo-header.
	PseudoHeaderLen = 12
	// ProtocolNumber is the IANA number for IP-in-IP encapsulation, which
	// is how an IPv4 header identifies an inner IPv4 segment.
	ProtocolNumber = 4

	checksumOffset = 10
)

// The version/IHL byte is fixed at 0x45: option-bearing headers are never
// generated, only tolerated on read through HeaderSize.
var fields = protocol.MustTable(HeaderLen,
	protocol.Field{Key: "tos", Type: protocol.Uint8, Offset: 1},
	protocol.Field{Key: "length", Type: protocol.Uint16, Offset: 2},
	protocol.Field{Key: "id", Type: protocol.Uint16, Offset: 4},
	protocol.Field{Key: "frag_off", Type: protocol.Uint16, Offset: 6},
	protocol.Field{Key: "ttl", Type: protocol.Uint8, Offset: 8},
	protocol.Field{Key: "protocol", Type: protocol.Uint8, Offset: 9},
	protocol.Field{Key: "checksum", Type: protocol.Uint16, Offset: checksumOffset, Optional: true},
	protocol.Field{Key: "src_ip", Type: protocol.Uint32, Offset: 12},
	protocol.Field{Key: "dst_ip", Type: protocol.Uint32, Offset: 16},
)

var defaultHeader = [HeaderLen]byte{
	0x45, 0x00, 0x00, 0x00, // Version/IHL, TOS, Total Length
	0x00, 0x00, 0x00, 0x00, // ID, Flags/Fragment Offset
	0x40, 0x00, 0x00, 0x00, // TTL: 64, Protocol, Checksum
	0x00, 0x00, 0x00, 0x00, // Src IP
	0x00, 0x00, 0x00, 0x00, // Dst IP
}

type descriptor struct{}

// New returns the IPv4 protocol descriptor.
func New() protocol.Descriptor { return descriptor{} }

func (descriptor) Name() string          { return "ipv4" }
func (descriptor) Number() uint8         { return ProtocolNumber }
func (descriptor) Table() protocol.Table { return fields }
func (descriptor) FieldCount() int       { return fields.Len() }

// HeaderSize reads the IHL nibble when header bytes are given; a crafted
// default header is always 20 bytes.
func (descriptor) HeaderSize(header []byte) int {
	if len(header) == 0 {
		return HeaderLen
	}
	return int(header[0]&0x0f) * 4
}

func (descriptor) WriteDefaultHeader(dst []byte) (int, error) {
	if dst == nil {
		return HeaderLen, nil
	}
	if len(dst) < HeaderLen {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", core.ErrShortHeader, HeaderLen, len(dst))
	}
	return copy(dst, defaultHeader[:]), nil
}

// WriteChecksum computes the IPv4 header checksum over the header bytes only
// and stores it at offset 10. IPv4 uses no pseudo-header; passing one is an
// error.
func (descriptor) WriteChecksum(segment, pseudoHeader []byte) error {
	if pseudoHeader != nil {
		return fmt.Errorf("%w: ipv4 checksums its own header", core.ErrPseudoHeaderPresent)
	}
	if len(segment) < HeaderLen {
		return fmt.Errorf("%w: %d bytes", core.ErrShortHeader, len(segment))
	}
	hdrLen := int(segment[0]&0x0f) * 4
	if hdrLen < HeaderLen || hdrLen > len(segment) {
		return fmt.Errorf("%w: header length %d", core.ErrInvalidSegment, hdrLen)
	}

	scratch := buffer.Get(hdrLen)
	if scratch == nil {
		return core.ErrBufferExhausted
	}
	defer buffer.Put(scratch)

	copy(scratch, segment[:hdrLen])
	scratch[checksumOffset] = 0
	scratch[checksumOffset+1] = 0

	binary.BigEndian.PutUint16(segment[checksumOffset:], checksum.Checksum(scratch, 0))
	return nil
}

// PseudoHeader returns (nil, nil): the IPv4 header checksum covers no
// pseudo-header.
func (descriptor) PseudoHeader(ipSegment []byte) ([]byte, error) {
	return nil, nil
}

// NewPseudoHeader derives the 12-byte transport checksum pseudo-header from
// an enclosing IPv4 segment: source address, destination address, a zero
// byte, the protocol number, and the transport length (total length minus
// the IP header), all in wire order.
func NewPseudoHeader(ipSegment []byte) ([]byte, error) {
	if len(ipSegment) < HeaderLen {
		return nil, fmt.Errorf("%w: %d bytes is shorter than an ipv4 header",
			core.ErrInvalidSegment, len(ipSegment))
	}
	if v := protocol.IPVersion(ipSegment); v != 4 {
		return nil, fmt.Errorf("%w: version %d", core.ErrInvalidSegment, v)
	}
	hdrLen := int(ipSegment[0]&0x0f) * 4
	if hdrLen < HeaderLen || hdrLen > len(ipSegment) {
		return nil, fmt.Errorf("%w: header length %d", core.ErrInvalidSegment, hdrLen)
	}
	totalLen := int(binary.BigEndian.Uint16(ipSegment[2:]))
	if totalLen < hdrLen {
		return nil, fmt.Errorf("%w: total length %d shorter than header length %d",
			core.ErrInvalidSegment, totalLen, hdrLen)
	}

	psh := make([]byte, PseudoHeaderLen)
	copy(psh[0:4], ipSegment[12:16])
	copy(psh[4:8], ipSegment[16:20])
	psh[9] = ipSegment[9]
	binary.BigEndian.PutUint16(psh[10:], uint16(totalLen-hdrLen))
	return psh, nil
}
