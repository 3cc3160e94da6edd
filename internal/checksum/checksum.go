// Package checksum implements the Internet checksum (RFC 1071) shared by the
// IPv4 family of headers: the 16-bit one's complement of the one's-complement
// sum of all 16-bit words in network order.
package checksum

// Sum returns the unfolded one's-complement sum of b. A trailing odd byte is
// taken as the high octet of a final word padded with a zero low octet.
func Sum(b []byte) (sum uint32) {
	n := len(b)
	if n&1 != 0 {
		n--
		sum += uint32(b[n]) << 8
	}
	for i := 0; i < n; i += 2 {
		sum += (uint32(b[i]) << 8) | uint32(b[i+1])
	}
	return
}

// Fold reduces an unfolded sum to 16 bits with end-around carry and returns
// its one's complement.
func Fold(sum uint32) uint16 {
	sum = (sum & 0xffff) + sum>>16
	// sum is at most 0x1fffe here, one more round absorbs the carry
	return ^uint16(sum + sum>>16)
}

// Checksum folds initial plus the sum of b. Callers computing a transport
// checksum seed initial with the pseudo-header sum and pass the segment as b.
func Checksum(b []byte, initial uint32) uint16 {
	return Fold(initial + Sum(b))
}
