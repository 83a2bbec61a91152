package utils

// Hashable keys are bucketed by HashCode and told apart with Equal.
type Hashable[K any] interface {
	HashCode() uint64
	Equal(K) bool
}

// HashMap maps keys that cannot be compared with ==, such as expressions or
// call signatures holding slices.
type HashMap[K Hashable[K], V any] struct {
	buckets map[uint64][]hashEntry[K, V]
	n       int
}

type hashEntry[K any, V any] struct {
	k K
	v V
}

func NewHashMap[K Hashable[K], V any]() *HashMap[K, V] {
	return &HashMap[K, V]{buckets: make(map[uint64][]hashEntry[K, V])}
}

func (m *HashMap[K, V]) Find(k K) (V, bool) {
	for _, e := range m.buckets[k.HashCode()] {
		if e.k.Equal(k) {
			return e.v, true
		}
	}
	var zero V
	return zero, false
}

// Set inserts k or overwrites its value.
func (m *HashMap[K, V]) Set(k K, v V) {
	h := k.HashCode()
	s := m.buckets[h]
	for i := range s {
		if s[i].k.Equal(k) {
			s[i].v = v
			return
		}
	}
	m.buckets[h] = append(s, hashEntry[K, V]{k: k, v: v})
	m.n++
}

// Add inserts k only when it is missing and returns the value k maps to.
func (m *HashMap[K, V]) Add(k K, v V) V {
	if old, ok := m.Find(k); ok {
		return old
	}
	m.Set(k, v)
	return v
}

func (m *HashMap[K, V]) Len() int {
	return m.n
}
