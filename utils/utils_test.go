package utils

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 1023: 1024, 1024: 1024, 1025: 2048}
	for x, want := range cases {
		assert.Equal(t, want, NextPowerOfTwo(x), "x=%d", x)
	}
	assert.True(t, IsPowerOfTwo(1))
	assert.True(t, IsPowerOfTwo(64))
	assert.False(t, IsPowerOfTwo(0))
	assert.False(t, IsPowerOfTwo(12))
}

func TestBufRoundTrip(t *testing.T) {
	o := &OutputBuf{}
	o.AppendUint8(7)
	o.AppendUint32(0xdeadbeef)
	o.AppendUint64(1 << 40)
	o.AppendIntSlice([]int{3, 1, 4})
	o.AppendBigInt(32, big.NewInt(123456789))

	in := NewInputBuf(o.Bytes())
	assert.Equal(t, uint8(7), in.ReadUint8())
	assert.Equal(t, uint32(0xdeadbeef), in.ReadUint32())
	assert.Equal(t, uint64(1<<40), in.ReadUint64())
	assert.Equal(t, []int{3, 1, 4}, in.ReadIntSlice())
	assert.Equal(t, 0, in.ReadBigInt(32).Cmp(big.NewInt(123456789)))
	require.NoError(t, in.Err())
	assert.True(t, in.IsEnd())
}

func TestBufShortRead(t *testing.T) {
	o := &OutputBuf{}
	o.AppendUint64(1000)
	in := NewInputBuf(o.Bytes())
	s := in.ReadIntSlice()
	assert.Empty(t, s)
	assert.ErrorIs(t, in.Err(), ErrUnexpectedEOF)
	assert.Equal(t, uint64(0), in.ReadUint64())
}

func TestErrorKinds(t *testing.T) {
	ue := NewUserError("bad circuit %d", 3)
	assert.True(t, IsUserError(ue))
	assert.False(t, IsInternalError(ue))
	assert.Equal(t, "bad circuit 3", ue.Error())

	ie := AsInternal("hint normalization", ue)
	assert.True(t, IsInternalError(ie))
	assert.False(t, IsUserError(ie))
	var target *UserError
	assert.True(t, errors.As(ie, &target))
	assert.Nil(t, AsInternal("x", nil))
}

type seqKey []int

func (k seqKey) HashCode() uint64 { return IntSeqHash(0, k) }
func (k seqKey) Equal(o seqKey) bool {
	return IntSeqEqual(k, o)
}

func TestMap(t *testing.T) {
	m := NewHashMap[seqKey, int]()
	assert.Equal(t, 1, m.Add(seqKey{1, 2}, 1))
	assert.Equal(t, 1, m.Add(seqKey{1, 2}, 5))
	m.Set(seqKey{2, 1}, 2)
	v, ok := m.Find(seqKey{2, 1})
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	m.Set(seqKey{2, 1}, 3)
	v, _ = m.Find(seqKey{2, 1})
	assert.Equal(t, 3, v)
	_, ok = m.Find(seqKey{3})
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestSortIntSeq(t *testing.T) {
	s := []int{5, 3, 9, 1}
	SortIntSeq(s, func(a, b int) bool { return a < b })
	assert.Equal(t, []int{1, 3, 5, 9}, s)
}
