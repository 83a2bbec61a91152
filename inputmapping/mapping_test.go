package inputmapping

import (
	"math/rand"
	"testing"

	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomMapping(r *rand.Rand, cur, next int) *InputMapping {
	p := r.Perm(next)
	m := make([]int, cur)
	j := 0
	for i := range m {
		if j < next && r.Intn(4) != 0 {
			m[i] = p[j]
			j++
		} else {
			m[i] = Empty
		}
	}
	return New(next, m)
}

func TestComposeLaw(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for it := 0; it < 500; it++ {
		n1 := r.Intn(20)
		n2 := r.Intn(20) + n1/2
		n3 := r.Intn(20) + n2/2
		a := randomMapping(r, n1, n2)
		b := randomMapping(r, n2, n3)
		require.NoError(t, a.Validate())
		require.NoError(t, b.Validate())

		v := make([]int, n1)
		for i := range v {
			v[i] = r.Intn(1000) + 1
		}
		ab, err := a.Compose(b)
		require.NoError(t, err)
		require.NoError(t, ab.Validate())

		direct, err := MapInputs(ab, v)
		require.NoError(t, err)
		step, err := MapInputs(a, v)
		require.NoError(t, err)
		twice, err := MapInputs(b, step)
		require.NoError(t, err)
		assert.Equal(t, twice, direct)
	}
}

func TestComposeAssociative(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	a := randomMapping(r, 10, 12)
	b := randomMapping(r, 12, 15)
	c := randomMapping(r, 15, 8)
	ab, err := a.Compose(b)
	require.NoError(t, err)
	abc1, err := ab.Compose(c)
	require.NoError(t, err)
	bc, err := b.Compose(c)
	require.NoError(t, err)
	abc2, err := a.Compose(bc)
	require.NoError(t, err)
	assert.Equal(t, abc1, abc2)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, New(3, []int{2, Empty, 0}).Validate())
	assert.Error(t, New(3, []int{2, 2}).Validate())
	assert.Error(t, New(3, []int{3}).Validate())
	assert.True(t, NewIdentity(4).IsIdentity())
	assert.False(t, New(4, []int{0, 1, 2}).IsIdentity())
}

func TestComposeSizeMismatch(t *testing.T) {
	_, err := NewIdentity(3).Compose(NewIdentity(4))
	assert.Error(t, err)
	_, err = MapInputs(NewIdentity(3), []int{1, 2})
	assert.Error(t, err)
}

func TestSerialize(t *testing.T) {
	im := New(5, []int{4, Empty, 1, 0})
	o := &utils.OutputBuf{}
	im.Serialize(o)
	res, err := Deserialize(utils.NewInputBuf(o.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, im, res)

	_, err = Deserialize(utils.NewInputBuf(o.Bytes()[:12]))
	assert.Error(t, err)
}
