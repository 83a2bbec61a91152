package utils

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/consensys/gnark/constraint"
)

var ErrUnexpectedEOF = errors.New("unexpected end of buffer")

// SimpleField is the part of a field needed to (de)serialize its elements.
type SimpleField interface {
	SerializedLen() int
	ToBigInt(c constraint.Element) *big.Int
	FromInterface(i interface{}) constraint.Element
}

type OutputBuf struct {
	buf []byte
}

// AppendBigInt appends x as n little-endian bytes
func (o *OutputBuf) AppendBigInt(n int, x *big.Int) {
	zbuf := make([]byte, n)
	b := x.Bytes()
	for i := 0; i < len(b) && i < n; i++ {
		zbuf[i] = b[len(b)-i-1]
	}
	o.buf = append(o.buf, zbuf...)
}

func (o *OutputBuf) AppendFieldElement(field SimpleField, x constraint.Element) {
	o.AppendBigInt(field.SerializedLen(), field.ToBigInt(x))
}

func (o *OutputBuf) AppendUint32(x uint32) {
	o.buf = binary.LittleEndian.AppendUint32(o.buf, x)
}

func (o *OutputBuf) AppendUint64(x uint64) {
	o.buf = binary.LittleEndian.AppendUint64(o.buf, x)
}

func (o *OutputBuf) AppendUint8(x uint8) {
	o.buf = append(o.buf, x)
}

func (o *OutputBuf) AppendIntSlice(x []int) {
	o.AppendUint64(uint64(len(x)))
	for _, v := range x {
		o.AppendUint64(uint64(v))
	}
}

func (o *OutputBuf) Bytes() []byte {
	return o.buf
}

// InputBuf reads what OutputBuf writes. The first short read records
// ErrUnexpectedEOF, and every later read returns zero values.
type InputBuf struct {
	buf []byte
	err error
}

func NewInputBuf(buf []byte) *InputBuf {
	return &InputBuf{buf: buf}
}

func (i *InputBuf) take(n int) []byte {
	if i.err != nil {
		return nil
	}
	if n < 0 || len(i.buf) < n {
		i.err = ErrUnexpectedEOF
		i.buf = nil
		return nil
	}
	b := i.buf[:n]
	i.buf = i.buf[n:]
	return b
}

func (i *InputBuf) ReadUint32() uint32 {
	b := i.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (i *InputBuf) ReadUint64() uint64 {
	b := i.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (i *InputBuf) ReadUint8() uint8 {
	b := i.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// ReadLen reads a length prefix, and fails if the remaining buffer cannot
// hold that many items of at least itemSize bytes.
func (i *InputBuf) ReadLen(itemSize int) int {
	n := i.ReadUint64()
	if i.err != nil {
		return 0
	}
	if itemSize > 0 && n > uint64(len(i.buf)/itemSize) {
		i.err = ErrUnexpectedEOF
		i.buf = nil
		return 0
	}
	return int(n)
}

func (i *InputBuf) ReadIntSlice() []int {
	n := i.ReadLen(8)
	x := make([]int, n)
	for j := 0; j < n; j++ {
		x[j] = int(i.ReadUint64())
	}
	return x
}

func (i *InputBuf) ReadBigInt(n int) *big.Int {
	b := i.take(n)
	zbuf := make([]byte, len(b))
	for j := range b {
		zbuf[j] = b[len(b)-1-j]
	}
	return new(big.Int).SetBytes(zbuf)
}

func (i *InputBuf) ReadFieldElement(field SimpleField) constraint.Element {
	return field.FromInterface(i.ReadBigInt(field.SerializedLen()))
}

func (i *InputBuf) IsEnd() bool {
	return len(i.buf) == 0
}

// Err returns the first read error, if any.
func (i *InputBuf) Err() error {
	return i.err
}
