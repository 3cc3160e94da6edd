// Package protocol defines the descriptor abstraction for fixed-format
// wire-protocol headers: named field tables pinned to byte offsets, default
// header generation, checksum computation, and a registry keyed by protocol
// name and IP protocol number.
package protocol

// Descriptor describes one protocol's header layout and the operations a
// probe builder needs from it. Implementations are immutable and safe for
// concurrent use; none of the operations retains a caller-supplied buffer
// beyond the call.
type Descriptor interface {
	// Name returns the lowercase registry key, such as "udp".
	Name() string

	// Number returns the IANA protocol number an enclosing IPv4 header
	// carries in its protocol field.
	Number() uint8

	// Table returns the protocol's field table.
	Table() Table

	// FieldCount returns the number of described fields.
	FieldCount() int

	// HeaderSize reports the header size in bytes. Protocols whose size
	// depends on header content inspect the given bytes; passing nil
	// yields the default size.
	HeaderSize(header []byte) int

	// WriteDefaultHeader copies the protocol's default header into dst and
	// returns the number of bytes written. A nil dst reports the required
	// size without writing anything.
	WriteDefaultHeader(dst []byte) (int, error)

	// WriteChecksum computes the protocol checksum over segment and stores
	// it big-endian in the segment's checksum field. Transport protocols
	// require the enclosing IP pseudo-header; protocols that checksum
	// without one reject a non-nil pseudoHeader.
	WriteChecksum(segment, pseudoHeader []byte) error

	// PseudoHeader derives the checksum pseudo-header from the enclosing
	// IP segment. Protocols that need none return (nil, nil).
	PseudoHeader(ipSegment []byte) ([]byte, error)
}

// IPVersion returns the IP version nibble of segment, or 0 when segment is
// empty.
func IPVersion(segment []byte) int {
	if len(segment) == 0 {
		return 0
	}
	return int(segment[0] >> 4)
}
