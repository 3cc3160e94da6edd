// Package boot assembles the protocol registry. Registration happens here,
// explicitly and in one place, so the set of known protocols is fixed before
// any lookup runs; descriptors never self-register through package init
// side effects.
package boot

import (
	"firestige.xyz/strix/internal/protocol"
	"firestige.xyz/strix/internal/protocol/icmpv4"
	"firestige.xyz/strix/internal/protocol/ipv4"
	"firestige.xyz/strix/internal/protocol/tcp"
	"firestige.xyz/strix/internal/protocol/udp"
)

// NewRegistry builds the registry of built-in protocol descriptors in a
// fixed order. Any registration failure aborts the build: a half-populated
// registry must not be served.
func NewRegistry() (*protocol.Registry, error) {
	reg := protocol.NewRegistry()

	descriptors := []protocol.Descriptor{
		ipv4.New(),
		icmpv4.New(),
		tcp.New(),
		udp.New(),
	}
	for _, d := range descriptors {
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
