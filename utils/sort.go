package utils

import "sort"

type IntSeq struct {
	s   []int
	cmp func(int, int) bool
}

func (l *IntSeq) Len() int {
	return len(l.s)
}

func (l *IntSeq) Swap(i, j int) {
	l.s[i], l.s[j] = l.s[j], l.s[i]
}

func (l *IntSeq) Less(i, j int) bool {
	return l.cmp(l.s[i], l.s[j])
}

// SortIntSeq stably sorts an integer sequence using a given compare function
func SortIntSeq(s []int, cmpLess func(int, int) bool) {
	l := &IntSeq{
		s:   s,
		cmp: cmpLess,
	}
	sort.Stable(l)
}

// IntSeqHash is a FNV-1a style hash of an integer sequence, used as the
// HashCode of sequence-shaped map keys.
func IntSeqHash(seed uint64, s []int) uint64 {
	h := seed ^ 14695981039346656037
	for _, x := range s {
		h ^= uint64(x)
		h *= 1099511628211
	}
	return h
}

func IntSeqEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
