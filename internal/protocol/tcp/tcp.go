// Package tcp implements the TCP protocol descriptor.
package tcp

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
	// HeaderLen is the size of a TCP header without options.
	HeaderLen = 20
	// ProtocolNumber is the IANA protocol number for TCP.
	ProtocolNumber = 6
	// DefaultPort seeds both port fields of the default header.
	DefaultPort = 2828
	// DefaultWindow is the receive window advertised by default headers.
	DefaultWindow = 5840

	checksumOffset = 16
)

// The flags field is the whole 16-bit word at offset 12: data offset nibble,
// reserved bits, and control bits together, so callers can set any of them
// through a single canonical key.
var fields = protocol.MustTable(HeaderLen,
	protocol.Field{Key: "src_port", Type: protocol.Uint16, Offset: 0},
	protocol.Field{Key: "dst_port", Type: protocol.Uint16, Offset: 2},
	protocol.Field{Key: "seq_num", Type: protocol.Uint32, Offset: 4},
	protocol.Field{Key: "ack_num", Type: protocol.Uint32, Offset: 8},
	protocol.Field{Key: "flags", Type: protocol.Uint16, Offset: 12},
	protocol.Field{Key: "window", Type: protocol.Uint16, Offset: 14},
	protocol.Field{Key: "checksum", Type: protocol.Uint16, Offset: checksumOffset, Optional: true},
	protocol.Field{Key: "urgent_ptr", Type: protocol.Uint16, Offset: 18},
)

var defaultHeader = [HeaderLen]byte{
	0x0b, 0x0c, // src_port: 2828
	0x0b, 0x0c, // dst_port: 2828
	0x00, 0x00, 0x00, 0x00, // seq_num
	0x00, 0x00, 0x00, 0x00, // ack_num
	0x50, 0x00, // data offset 5, no control bits
	0x16, 0xd0, // window: 5840
	0x00, 0x00, // checksum
	0x00, 0x00, // urgent_ptr
}

type descriptor struct{}

// New returns the TCP protocol descriptor.
func New() protocol.Descriptor { return descriptor{} }

func (descriptor) Name() string          { return "tcp" }
func (descriptor) Number() uint8         { return ProtocolNumber }
func (descriptor) Table() protocol.Table { return fields }
func (descriptor) FieldCount() int       { return fields.Len() }

// HeaderSize reads the data offset nibble when enough header bytes are
// given; a crafted default header is always 20 bytes.
func (descriptor) HeaderSize(header []byte) int {
	if len(header) < 13 {
		return HeaderLen
	}
	return int(header[12]>>4) * 4
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

// WriteChecksum computes the TCP checksum over the pseudo-header followed by
// the segment and stores it at offset 16. TCP carries no length field of its
// own; the covered segment length is the trailing 16-bit field of the IPv4
// pseudo-header.
func (descriptor) WriteChecksum(segment, pseudoHeader []byte) error {
	if pseudoHeader == nil {
		return fmt.Errorf("%w: tcp checksums span the enclosing ip segment", core.ErrNoPseudoHeader)
	}
	if len(pseudoHeader) != ipv4.PseudoHeaderLen {
		return fmt.Errorf("%w: pseudo-header of %d bytes", core.ErrInvalidSegment, len(pseudoHeader))
	}

	segLen := int(binary.BigEndian.Uint16(pseudoHeader[ipv4.PseudoHeaderLen-2:]))
	if segLen < HeaderLen {
		return fmt.Errorf("%w: pseudo-header declares %d bytes", core.ErrShortHeader, segLen)
	}
	if segLen > len(segment) {
		return fmt.Errorf("%w: pseudo-header declares %d bytes, segment holds %d",
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
// segment, dispatching on the IP version nibble. Only IPv4 is supported.
func (descriptor) PseudoHeader(ipSegment []byte) ([]byte, error) {
	switch v := protocol.IPVersion(ipSegment); v {
	case 4:
		return ipv4.NewPseudoHeader(ipSegment)
	case 6:
		return nil, fmt.Errorf("%w: tcp over ipv6", core.ErrIPv6Unsupported)
	default:
		return nil, fmt.Errorf("%w: ip version %d", core.ErrInvalidSegment, v)
	}
}
