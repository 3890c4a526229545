package pattern

type horspoolMatcher struct {
	p     Pattern
	shift [256]int
}

// newHorspoolMatcher builds the bad character table. A wildcard at
// position j can line up with any byte, so no shift may move past it.
func newHorspoolMatcher(p Pattern) *horspoolMatcher {
	n := p.Len()
	m := &horspoolMatcher{p: p}

	maxShift := n
	for j := 0; j < n-1; j++ {
		if p.mask[j] {
			maxShift = n - 1 - j
		}
	}

	for i := range m.shift {
		m.shift[i] = maxShift
	}

	for j := 0; j < n-1; j++ {
		if p.mask[j] {
			continue
		}

		s := n - 1 - j
		if s < m.shift[p.bytes[j]] {
			m.shift[p.bytes[j]] = s
		}
	}

	return m
}

func (o *horspoolMatcher) index(data []byte) int {
	n := o.p.Len()
	for i := 0; i+n <= len(data); i += o.shift[data[i+n-1]] {
		if o.p.matchAt(data, i) {
			return i
		}
	}
	return -1
}
