// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors shared by the crafting engine and the CLI. Callers match
// them with errors.Is; packages wrap them with context via fmt.Errorf.
var (
	// Header and segment validation errors
	ErrShortHeader    = errors.New("strix: header too short")
	ErrInvalidSegment = errors.New("strix: malformed ip segment")

	// Checksum errors
	ErrNoPseudoHeader      = errors.New("strix: pseudo-header required")
	ErrPseudoHeaderPresent = errors.New("strix: pseudo-header not applicable")
	ErrIPv6Unsupported     = errors.New("strix: ipv6 pseudo-header not supported")

	// Field access errors
	ErrFieldNotFound = errors.New("strix: field not found")
	ErrValueOverflow = errors.New("strix: value exceeds field width")

	// Registry errors
	ErrInvalidDescriptor  = errors.New("strix: invalid protocol descriptor")
	ErrProtocolNotFound   = errors.New("strix: protocol not found")
	ErrProtocolRegistered = errors.New("strix: protocol already registered")

	// Probe assembly errors
	ErrEmptyProbe = errors.New("strix: probe has no layers")

	// Buffer errors
	ErrBufferExhausted = errors.New("strix: buffer size exceeds pool limit")

	// Configuration errors
	ErrConfigInvalid = errors.New("strix: invalid configuration")
)
