package field

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allFields() []Field {
	res := []Field{}
	for _, e := range all {
		res = append(res, e.f())
	}
	return res
}

func TestFieldArithmetic(t *testing.T) {
	for _, f := range allFields() {
		p := f.Field()
		a := f.FromInterface(123456789)
		b := f.FromInterface(987654321)
		want := new(big.Int).Mul(big.NewInt(123456789), big.NewInt(987654321))
		want.Mod(want, p)
		assert.Equal(t, 0, f.ToBigInt(f.Mul(a, b)).Cmp(want), "mul over %v", p)

		sum := f.Add(a, b)
		assert.True(t, Equal(f, f.Sub(sum, b), a), "sub over %v", p)
		assert.True(t, IsZero(f, f.Add(a, f.Neg(a))), "neg over %v", p)

		inv, ok := f.Inverse(b)
		if IsZero(f, b) {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok)
		assert.True(t, f.IsOne(f.Mul(inv, b)), "inverse over %v", p)

		_, ok = f.Inverse(Zero(f))
		assert.False(t, ok)
	}
}

func TestFieldRegistry(t *testing.T) {
	for _, f := range allFields() {
		id := GetFieldId(f)
		assert.Equal(t, 0, GetFieldById(id).Field().Cmp(f.Field()))
		g, ok := LookupFieldFromOrder(f.Field())
		require.True(t, ok)
		assert.Equal(t, 0, g.Field().Cmp(f.Field()))
	}
	_, ok := LookupFieldFromOrder(big.NewInt(97))
	assert.False(t, ok)
	assert.Panics(t, func() { GetFieldById(1000) })

	f, err := GetFieldByName("m31")
	require.NoError(t, err)
	assert.Equal(t, IdM31, GetFieldId(f))
	_, err = GetFieldByName("p97")
	assert.Error(t, err)
}

func TestNegativeFromInterface(t *testing.T) {
	for _, f := range allFields() {
		x := f.FromInterface(-1)
		assert.True(t, IsZero(f, f.Add(x, f.One())), "over %v", f.Field())
	}
}
