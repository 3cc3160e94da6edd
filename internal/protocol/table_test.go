package protocol

import (
	"errors"
	"testing"

	"firestige.xyz/strix/internal/core"
)

func udpTestTable(t *testing.T) Table {
	t.Helper()

	table, err := NewTable(8,
		Field{Key: "src_port", Type: Uint16, Offset: 0},
		Field{Key: "dst_port", Type: Uint16, Offset: 2},
		Field{Key: "length", Type: Uint16, Offset: 4},
		Field{Key: "checksum", Type: Uint16, Offset: 6, Optional: true},
	)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func TestNewTable(t *testing.T) {
	table := udpTestTable(t)

	if table.Len() != 4 {
		t.Errorf("Expected 4 fields, got %d", table.Len())
	}
	if table.HeaderSize() != 8 {
		t.Errorf("Expected header size 8, got %d", table.HeaderSize())
	}

	// Registration order is preserved
	fields := table.Fields()
	want := []string{"src_port", "dst_port", "length", "checksum"}
	for i, key := range want {
		if fields[i].Key != key {
			t.Errorf("Field %d: Expected key %q, got %q", i, key, fields[i].Key)
		}
	}
}

func TestNewTableRejectsDuplicateKey(t *testing.T) {
	_, err := NewTable(8,
		Field{Key: "src_port", Type: Uint16, Offset: 0},
		Field{Key: "src_port", Type: Uint16, Offset: 2},
	)
	if err == nil {
		t.Error("Expected error for duplicate key, got nil")
	}
}

func TestNewTableRejectsEmptyKey(t *testing.T) {
	_, err := NewTable(8, Field{Key: "", Type: Uint16, Offset: 0})
	if err == nil {
		t.Error("Expected error for empty key, got nil")
	}
}

func TestNewTableRejectsOutOfBounds(t *testing.T) {
	// Last byte of the field would land at offset 8 in an 8-byte header
	_, err := NewTable(8, Field{Key: "checksum", Type: Uint16, Offset: 7})
	if err == nil {
		t.Error("Expected error for out-of-bounds field, got nil")
	}

	_, err = NewTable(8, Field{Key: "checksum", Type: Uint16, Offset: -1})
	if err == nil {
		t.Error("Expected error for negative offset, got nil")
	}
}

func TestNewTableRejectsOverlap(t *testing.T) {
	_, err := NewTable(8,
		Field{Key: "src_port", Type: Uint32, Offset: 0},
		Field{Key: "dst_port", Type: Uint16, Offset: 2},
	)
	if err == nil {
		t.Error("Expected error for overlapping fields, got nil")
	}
}

func TestNewTableRejectsUnknownType(t *testing.T) {
	_, err := NewTable(8, Field{Key: "src_port", Offset: 0})
	if err == nil {
		t.Error("Expected error for zero-valued field type, got nil")
	}
}

func TestMustTablePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected MustTable to panic on invalid table")
		}
	}()

	MustTable(4, Field{Key: "length", Type: Uint32, Offset: 2})
}

func TestTableValue(t *testing.T) {
	table := udpTestTable(t)
	header := []byte{
		0x0b, 0x0c, // src_port: 2828
		0x82, 0x9a, // dst_port: 33434
		0x00, 0x0c, // length: 12
		0x88, 0xd4, // checksum
	}

	cases := []struct {
		key  string
		want uint32
	}{
		{"src_port", 2828},
		{"dst_port", 33434},
		{"length", 12},
		{"checksum", 0x88d4},
	}

	for _, c := range cases {
		got, err := table.Value(header, c.key)
		if err != nil {
			t.Fatalf("Value(%q) failed: %v", c.key, err)
		}
		if got != c.want {
			t.Errorf("Value(%q): Expected %d, got %d", c.key, c.want, got)
		}
	}
}

func TestTableValueUnknownKey(t *testing.T) {
	table := udpTestTable(t)

	_, err := table.Value(make([]byte, 8), "ttl")
	if !errors.Is(err, core.ErrFieldNotFound) {
		t.Errorf("Expected ErrFieldNotFound, got %v", err)
	}
}

func TestTableValueShortHeader(t *testing.T) {
	table := udpTestTable(t)

	_, err := table.Value(make([]byte, 5), "checksum")
	if !errors.Is(err, core.ErrShortHeader) {
		t.Errorf("Expected ErrShortHeader, got %v", err)
	}
}

func TestTableSetValue(t *testing.T) {
	table := udpTestTable(t)
	header := make([]byte, 8)

	if err := table.SetValue(header, "dst_port", 33434); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	// Big-endian at offset 2
	if header[2] != 0x82 || header[3] != 0x9a {
		t.Errorf("Expected bytes 82 9a at offset 2, got %02x %02x", header[2], header[3])
	}

	got, err := table.Value(header, "dst_port")
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if got != 33434 {
		t.Errorf("Expected 33434 after round trip, got %d", got)
	}
}

func TestTableSetValueOverflow(t *testing.T) {
	table := udpTestTable(t)
	header := make([]byte, 8)

	err := table.SetValue(header, "length", 0x10000)
	if !errors.Is(err, core.ErrValueOverflow) {
		t.Errorf("Expected ErrValueOverflow, got %v", err)
	}

	// The header is untouched on failure
	for i, b := range header {
		if b != 0 {
			t.Errorf("Expected untouched header, byte %d is %02x", i, b)
		}
	}
}

func TestTableFieldsCopy(t *testing.T) {
	table := udpTestTable(t)

	fields := table.Fields()
	fields[0].Key = "mangled"

	if again := table.Fields(); again[0].Key != "src_port" {
		t.Error("Mutating the returned slice must not change the table")
	}
}
