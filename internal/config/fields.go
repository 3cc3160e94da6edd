package config

import (
	"encoding/binary"
	"fmt"
	"net"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"

	"firestige.xyz/strix/internal/core"
)

// ParseFieldValue parses a header field value literal. Accepted forms are
// unsigned decimal, 0x/0o/0b prefixed integers, and dotted IPv4 addresses
// (stored in network byte order, so "10.0.0.1" is 0x0a000001).
func ParseFieldValue(s string) (uint32, error) {
	if ip := net.ParseIP(s); ip != nil {
		ip4 := ip.To4()
		if ip4 == nil {
			return 0, fmt.Errorf("%w: %q is not an ipv4 address", core.ErrConfigInvalid, s)
		}
		return binary.BigEndian.Uint32(ip4), nil
	}

	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: field value %q: %v", core.ErrConfigInvalid, s, err)
	}
	return uint32(v), nil
}

// fieldValueHook lets mapstructure turn the string forms ParseFieldValue
// accepts into uint32 while leaving plain numbers to the default decoding.
func fieldValueHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Uint32 {
			return data, nil
		}
		return ParseFieldValue(data.(string))
	}
}

// FieldValues decodes the configured field presets for one protocol. A
// protocol without presets yields nil.
func (cfg *GlobalConfig) FieldValues(proto string) (map[string]uint32, error) {
	pc, ok := cfg.Protocols[proto]
	if !ok || len(pc.Fields) == 0 {
		return nil, nil
	}

	out := make(map[string]uint32, len(pc.Fields))
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: fieldValueHook(),
		Result:     &out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(pc.Fields); err != nil {
		return nil, fmt.Errorf("%w: protocols.%s.fields: %v", core.ErrConfigInvalid, proto, err)
	}
	return out, nil
}
