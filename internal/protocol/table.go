package protocol

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/strix/internal/core"
)

// Table is an immutable, ordered field table for one header layout. The
// order is registration order, not offset order, so listings match the
// protocol's documentation.
type Table struct {
	headerSize int
	fields     []Field
	index      map[string]int
}

// NewTable validates fields against the header size: keys must be unique and
// non-empty, every field must lie fully within the header, and no two fields
// may cover the same byte.
func NewTable(headerSize int, fields ...Field) (Table, error) {
	if headerSize <= 0 {
		return Table{}, fmt.Errorf("header size must be positive, got %d", headerSize)
	}

	t := Table{
		headerSize: headerSize,
		fields:     make([]Field, len(fields)),
		index:      make(map[string]int, len(fields)),
	}
	copy(t.fields, fields)

	covered := make([]bool, headerSize)
	for i, f := range t.fields {
		if f.Key == "" {
			return Table{}, fmt.Errorf("field %d has an empty key", i)
		}
		width := f.Type.Width()
		if width == 0 {
			return Table{}, fmt.Errorf("field %q has unknown type %d", f.Key, f.Type)
		}
		if _, dup := t.index[f.Key]; dup {
			return Table{}, fmt.Errorf("duplicate field key %q", f.Key)
		}
		if f.Offset < 0 || f.Offset+width > headerSize {
			return Table{}, fmt.Errorf("field %q spans [%d,%d) outside header of %d bytes",
				f.Key, f.Offset, f.Offset+width, headerSize)
		}
		for b := f.Offset; b < f.Offset+width; b++ {
			if covered[b] {
				return Table{}, fmt.Errorf("field %q overlaps an earlier field at byte %d", f.Key, b)
			}
			covered[b] = true
		}
		t.index[f.Key] = i
	}

	return t, nil
}

// MustTable is NewTable that panics on error. Package-level tables are
// static data; an inconsistent one is a defect caught at startup, not a
// runtime condition.
func MustTable(headerSize int, fields ...Field) Table {
	t, err := NewTable(headerSize, fields...)
	if err != nil {
		panic(err)
	}
	return t
}

// HeaderSize returns the header size the table was validated against.
func (t Table) HeaderSize() int { return t.headerSize }

// Len returns the number of fields.
func (t Table) Len() int { return len(t.fields) }

// Fields returns a copy of the field list in registration order.
func (t Table) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// Lookup returns the field registered under key.
func (t Table) Lookup(key string) (Field, bool) {
	i, ok := t.index[key]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// Value reads the named field from header in network byte order.
func (t Table) Value(header []byte, key string) (uint32, error) {
	f, ok := t.Lookup(key)
	if !ok {
		return 0, fmt.Errorf("%w: %q", core.ErrFieldNotFound, key)
	}
	width := f.Type.Width()
	if len(header) < f.Offset+width {
		return 0, fmt.Errorf("%w: %q needs %d bytes, header has %d",
			core.ErrShortHeader, key, f.Offset+width, len(header))
	}

	b := header[f.Offset:]
	switch f.Type {
	case Uint8:
		return uint32(b[0]), nil
	case Uint16:
		return uint32(binary.BigEndian.Uint16(b)), nil
	default:
		return binary.BigEndian.Uint32(b), nil
	}
}

// SetValue writes v into the named field in network byte order. Values wider
// than the field are rejected rather than silently truncated.
func (t Table) SetValue(header []byte, key string, v uint32) error {
	f, ok := t.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrFieldNotFound, key)
	}
	width := f.Type.Width()
	if len(header) < f.Offset+width {
		return fmt.Errorf("%w: %q needs %d bytes, header has %d",
			core.ErrShortHeader, key, f.Offset+width, len(header))
	}

	b := header[f.Offset:]
	switch f.Type {
	case Uint8:
		if v > 0xff {
			return fmt.Errorf("%w: %d does not fit %q", core.ErrValueOverflow, v, key)
		}
		b[0] = byte(v)
	case Uint16:
		if v > 0xffff {
			return fmt.Errorf("%w: %d does not fit %q", core.ErrValueOverflow, v, key)
		}
		binary.BigEndian.PutUint16(b, uint16(v))
	default:
		binary.BigEndian.PutUint32(b, v)
	}
	return nil
}
