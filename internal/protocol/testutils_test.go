package protocol

import (
	"encoding/binary"

	"firestige.xyz/strix/internal/core"
)

// fakeDescriptor 模拟协议描述符（用于测试）
type fakeDescriptor struct {
	name   string
	number uint8
	table  Table
	defhdr []byte
}

// newFakeDescriptor 创建模拟描述符
func newFakeDescriptor(name string, number uint8) *fakeDescriptor {
	return &fakeDescriptor{
		name:   name,
		number: number,
		table: MustTable(4,
			Field{Key: "alpha", Type: Uint16, Offset: 0},
			Field{Key: "checksum", Type: Uint16, Offset: 2, Optional: true},
		),
		defhdr: []byte{0x00, 0x01, 0x00, 0x00},
	}
}

func (d *fakeDescriptor) Name() string    { return d.name }
func (d *fakeDescriptor) Number() uint8   { return d.number }
func (d *fakeDescriptor) Table() Table    { return d.table }
func (d *fakeDescriptor) FieldCount() int { return d.table.Len() }

func (d *fakeDescriptor) HeaderSize(header []byte) int {
	return d.table.HeaderSize()
}

func (d *fakeDescriptor) WriteDefaultHeader(dst []byte) (int, error) {
	if dst == nil {
		return len(d.defhdr), nil
	}
	if len(dst) < len(d.defhdr) {
		return 0, core.ErrShortHeader
	}
	return copy(dst, d.defhdr), nil
}

func (d *fakeDescriptor) WriteChecksum(segment, pseudoHeader []byte) error {
	if len(segment) < d.table.HeaderSize() {
		return core.ErrShortHeader
	}
	binary.BigEndian.PutUint16(segment[2:], 0xbeef)
	return nil
}

func (d *fakeDescriptor) PseudoHeader(ipSegment []byte) ([]byte, error) {
	return nil, nil
}
