// Package probe assembles wire-ready packets from a layered description.
//
// Layers are listed outermost-first. Each layer starts from its protocol's
// default header, caller values are applied on top, and length and protocol
// fields the caller left alone are derived from the final layout. Checksums
// run innermost-first so an outer checksum that covers its payload sees
// finished inner bytes.
package probe

import (
	"errors"
	"fmt"
	"sort"

	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/log"
	"firestige.xyz/strix/internal/protocol"
)

// Layer selects one protocol of the stack and the field values to set on
// top of its defaults.
type Layer struct {
	Protocol string
	Fields   map[string]uint32
}

// Probe describes a packet as an outermost-first layer stack plus trailing
// payload bytes.
type Probe struct {
	Layers  []Layer
	Payload []byte
}

// Build assembles p into wire bytes using descriptors from reg.
func Build(reg *protocol.Registry, p Probe) ([]byte, error) {
	if len(p.Layers) == 0 {
		return nil, core.ErrEmptyProbe
	}

	// Step 1: resolve descriptors and lay out the packet
	descs := make([]protocol.Descriptor, len(p.Layers))
	offsets := make([]int, len(p.Layers))
	size := 0
	for i, l := range p.Layers {
		d, err := reg.Lookup(l.Protocol)
		if err != nil {
			return nil, err
		}
		descs[i] = d
		offsets[i] = size
		size += d.HeaderSize(nil)
	}
	size += len(p.Payload)

	packet := make([]byte, size)
	copy(packet[size-len(p.Payload):], p.Payload)

	// Step 2: default headers, then caller values on top
	for i, d := range descs {
		header := packet[offsets[i]:]
		if _, err := d.WriteDefaultHeader(header); err != nil {
			return nil, layerErr(i, d, err)
		}
		if err := applyFields(d.Table(), header, p.Layers[i].Fields); err != nil {
			return nil, layerErr(i, d, err)
		}
	}

	// Step 3: derive length and protocol fields the caller left alone
	for i, d := range descs {
		var inner protocol.Descriptor
		if i+1 < len(descs) {
			inner = descs[i+1]
		}
		if err := deriveFields(d.Table(), packet[offsets[i]:], p.Layers[i].Fields, size-offsets[i], inner); err != nil {
			return nil, layerErr(i, d, err)
		}
	}

	// Step 4: checksums, innermost-first
	for i := len(descs) - 1; i >= 0; i-- {
		d := descs[i]
		var psh []byte
		if i > 0 {
			var err error
			if psh, err = d.PseudoHeader(packet[offsets[i-1]:]); err != nil {
				return nil, layerErr(i, d, err)
			}
		}
		if err := d.WriteChecksum(packet[offsets[i]:], psh); err != nil {
			if i == 0 && errors.Is(err, core.ErrNoPseudoHeader) {
				// No enclosing segment to checksum against, field stays zero.
				log.GetLogger().WithField("protocol", d.Name()).
					Debug("outermost layer keeps zero checksum")
				continue
			}
			return nil, layerErr(i, d, err)
		}
	}

	if logger := log.GetLogger(); logger.IsDebugEnabled() {
		logger.WithFields(map[string]interface{}{
			"layers": len(p.Layers),
			"bytes":  size,
		}).Debug("probe assembled")
	}
	return packet, nil
}

func layerErr(i int, d protocol.Descriptor, err error) error {
	return fmt.Errorf("layer %d (%s): %w", i, d.Name(), err)
}

// applyFields writes values into header in table order so overlapping
// failures surface deterministically. Keys the table does not know are an
// error, not a silent skip.
func applyFields(t protocol.Table, header []byte, values map[string]uint32) error {
	if len(values) == 0 {
		return nil
	}
	applied := 0
	for _, f := range t.Fields() {
		v, ok := values[f.Key]
		if !ok {
			continue
		}
		if err := t.SetValue(header, f.Key, v); err != nil {
			return err
		}
		applied++
	}
	if applied != len(values) {
		unknown := make([]string, 0, len(values)-applied)
		for key := range values {
			if _, ok := t.Lookup(key); !ok {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		return fmt.Errorf("%w: %q", core.ErrFieldNotFound, unknown[0])
	}
	return nil
}

// deriveFields fills a layer's length field with the byte count from the
// layer's start to the end of the packet, and its protocol field with the
// inner layer's protocol number. Caller-pinned values win.
func deriveFields(t protocol.Table, header []byte, pinned map[string]uint32, remaining int, inner protocol.Descriptor) error {
	if _, set := pinned["length"]; !set {
		if _, ok := t.Lookup("length"); ok {
			if err := t.SetValue(header, "length", uint32(remaining)); err != nil {
				return err
			}
		}
	}
	if inner != nil {
		if _, set := pinned["protocol"]; !set {
			if _, ok := t.Lookup("protocol"); ok {
				if err := t.SetValue(header, "protocol", uint32(inner.Number())); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
