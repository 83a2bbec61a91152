package expr

import (
	"testing"

	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/PolyhedraZK/ExpanderIRCompiler/field/m31"
	"github.com/PolyhedraZK/ExpanderIRCompiler/utils"
	"github.com/consensys/gnark/constraint"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	c := func(x int) constraint.Element { return fd.FromInterface(x) }
	e := Expression{
		NewTerm(2, 0, c(3)),
		NewTerm(1, 2, c(5)),
		NewTerm(2, 1, c(1)),
		NewTerm(2, 0, c(-3)),
		NewTerm(0, 0, c(7)),
	}
	n := e.Normalize(fd)
	assert.Equal(Expression{NewTerm(0, 0, c(7)), NewTerm(2, 1, c(6))}, n)
	assert.Equal(2, n.Degree())

	zero := Expression{NewTerm(3, 0, c(1)), NewTerm(3, 0, c(-1))}.Normalize(fd)
	assert.True(zero.IsConstant())
	assert.Len(zero, 1)
}

func TestEval(t *testing.T) {
	fd := &m31.Field{}
	c := func(x int) constraint.Element { return fd.FromInterface(x) }
	values := []constraint.Element{{}, c(2), c(3)}
	e := Expression{NewTerm(0, 0, c(1)), NewTerm(1, 0, c(10)), NewTerm(1, 2, c(100))}
	require.True(t, field.Equal(fd, c(621), e.Eval(fd, values)))

	lc := LinComb{Terms: []LinCombTerm{{Var: 1, Coef: c(4)}, {Var: 2, Coef: c(5)}}, Constant: c(6)}
	require.True(t, field.Equal(fd, c(29), lc.Eval(fd, values)))
	require.True(t, field.Equal(fd, c(29), lc.ToExpression(fd).Eval(fd, values)))
}

func TestInline(t *testing.T) {
	assert := require.New(t)
	fd := &m31.Field{}
	c := func(x int) constraint.Element { return fd.FromInterface(x) }
	// v3 = 2*v1 + 1, v4 = 3*v3 + v2 + 5
	inner := LinComb{Terms: []LinCombTerm{{Var: 1, Coef: c(2)}}, Constant: c(1)}
	outer := LinComb{Terms: []LinCombTerm{{Var: 3, Coef: c(3)}, {Var: 2, Coef: c(1)}}, Constant: c(5)}
	res := outer.Inline(fd, 0, inner)
	values := []constraint.Element{{}, c(7), c(11), {}}
	assert.True(field.Equal(fd, c(3*15+11+5), res.Eval(fd, values)))
	assert.Equal([]int{2, 1}, res.Vars())
}

func TestExpressionKeys(t *testing.T) {
	fd := &m31.Field{}
	m := utils.NewHashMap[Expression, int]()
	a := NewLinearExpression(1, fd.One())
	b := NewLinearExpression(2, fd.One())
	m.Set(a, 1)
	m.Add(a, 2)
	m.Set(b, 3)
	v, ok := m.Find(a)
	require.True(t, ok)
	require.Equal(t, 1, v)
	m.Set(a, 4)
	v, _ = m.Find(a)
	require.Equal(t, 4, v)
	_, ok = m.Find(NewLinearExpression(5, fd.One()))
	require.False(t, ok)
}
