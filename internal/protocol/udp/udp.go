// Package udp implements the UDP protocol descriptor.
package udp

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/strix/internal/buffer"
	"firestige.xyz/strix/internal/checksum"
	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/protocol"
	"firestige.xyz/strix/internal/protocol/ipv4"
)

const (
	// HeaderLen is the size of a UDP header.
	HeaderLen = 8
	// ProtocolNumber is the IANA protocol number for UDP.
	ProtocolNumber = 17
	// DefaultPort seeds both port fields of the default header.
	DefaultPort = 2828

	checksumOffset = 6
)

var fields = protocol.MustTable(HeaderLen,
	protocol.Field{Key: "src_port", Type: protocol.Uint16, Offset: 0},
	protocol.Field{Key: "dst_port", Type: protocol.Uint16, Offset: 2},
	protocol.Field{Key: "length", Type: protocol.Uint16, Offset: 4},
	protocol.Field{Key: "checksum", Type: protocol.Uint16, Offset: checksumOffset, Optional: true},
)

// Both ports default to 2828; length and checksum are left for the probe
// builder to fill in.
var defaultHeader = [HeaderLen]byte{
	0x0b, 0x0c, // src_port: 2828
	0x0b, 0x0c, // dst_port: 2828
	0x00, 0x00, // length
	0x00, 0x00, // checksum
}

type descriptor struct{}

// New returns the UDP protocol descriptor.
func New() protocol.Descriptor { return descriptor{} }

func (descriptor) Name() string          { return "udp" }
func (descriptor) Number() uint8         { return ProtocolNumber }
func (descriptor) Table() protocol.Table { return fields }
func (descriptor) FieldCount() int       { return fields.Len() }

// HeaderSize is constant: a UDP header is 8 bytes regardless of content.
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

// WriteChecksum computes the UDP checksum over the pseudo-header followed by
// the declared length of segment bytes and stores it at offset 6. The
// declared length field covers header plus payload. The checksum position is
// zeroed in the scratch copy only, never in segment, so recomputing over a
// header that already carries its checksum yields the same value.
func (descriptor) WriteChecksum(segment, pseudoHeader []byte) error {
	if pseudoHeader == nil {
		return fmt.Errorf("%w: udp checksums span the enclosing ip segment", core.ErrNoPseudoHeader)
	}

	declared, err := fields.Value(segment, "length")
	if err != nil {
		return err
	}
	segLen := int(declared)
	if segLen < HeaderLen {
		return fmt.Errorf("%w: declared length %d below header size", core.ErrShortHeader, segLen)
	}
	if segLen > len(segment) {
		return fmt.Errorf("%w: declared length %d, segment holds %d",
			core.ErrShortHeader, segLen, len(segment))
	}

	size := len(pseudoHeader) + segLen
	scratch := buffer.Get(size)
	if scratch == nil {
		return fmt.Errorf("%w: scratch of %d bytes", core.ErrBufferExhausted, size)
	}
	defer buffer.Put(scratch)

	n := copy(scratch, pseudoHeader)
	copy(scratch[n:], segment[:segLen])
	scratch[n+checksumOffset] = 0
	scratch[n+checksumOffset+1] = 0

	binary.BigEndian.PutUint16(segment[checksumOffset:], checksum.Checksum(scratch, 0))
	return nil
}

// PseudoHeader builds the checksum pseudo-header from the enclosing IP
// segment, dispatching on the IP version nibble. Only IPv4 is supported;
// an IPv6 segment is reported as such instead of being misread as IPv4.
func (descriptor) PseudoHeader(ipSegment []byte) ([]byte, error) {
	switch v := protocol.IPVersion(ipSegment); v {
	case 4:
		return ipv4.NewPseudoHeader(ipSegment)
	case 6:
		return nil, fmt.Errorf("%w: udp over ipv6", core.ErrIPv6Unsupported)
	default:
		return nil, fmt.Errorf("%w: ip version %d", core.ErrInvalidSegment, v)
	}
}
