package pattern

import (
	"fmt"

	"gitlab.com/stephen-fox/inproc/memory"
)

const defaultChunkSize = 64 * 1024

const (
	// Naive compares the pattern at every candidate position.
	Naive Algorithm = iota

	// Horspool skips candidate positions using a Boyer-Moore-Horspool
	// table built from the pattern. Wildcards limit how far it skips.
	Horspool
)

// Algorithm selects how a Scanner finds matches. All algorithms
// produce identical results.
type Algorithm int

func (o Algorithm) String() string {
	switch o {
	case Naive:
		return "naive"
	case Horspool:
		return "horspool"
	default:
		return fmt.Sprintf("unknown (%d)", int(o))
	}
}

func (o Algorithm) matcher(p Pattern) (matcher, error) {
	switch o {
	case Naive:
		return naiveMatcher{p: p}, nil
	case Horspool:
		return newHorspoolMatcher(p), nil
	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", o)
	}
}

// matcher returns the index of the first match in data, or -1.
type matcher interface {
	index(data []byte) int
}

type naiveMatcher struct {
	p Pattern
}

func (o naiveMatcher) index(data []byte) int {
	n := o.p.Len()
	for i := 0; i+n <= len(data); i++ {
		if o.p.matchAt(data, i) {
			return i
		}
	}
	return -1
}

// Scanner searches memory for patterns.
//
// Memory is read through Reader in chunks. A match must lie entirely
// inside the searched range; memory past the end of the range is never
// read. Matches are reported in ascending address order.
type Scanner struct {
	// Reader is used to read memory. memory.Self is used if nil.
	Reader memory.Reader

	// Algorithm selects the search algorithm. Defaults to Naive.
	Algorithm Algorithm

	// OptChunkSize is the number of candidate positions read per
	// call to Reader. Defaults to 64 KiB.
	OptChunkSize int

	// OptModuleRangesFn returns the readable ranges of a module, and
	// is used for signatures that name one. Defaults to
	// memory.ModuleRanges.
	OptModuleRangesFn func(name string) ([]memory.Range, error)
}

func (o Scanner) moduleRanges(name string) ([]memory.Range, error) {
	if o.OptModuleRangesFn != nil {
		return o.OptModuleRangesFn(name)
	}

	return memory.ModuleRanges(name)
}

// FindFirstOrExit calls FindFirst and invokes DefaultExitFn if an
// error occurs.
func (o Scanner) FindFirstOrExit(p Pattern, rng memory.Range) memory.Address {
	addr, err := o.FindFirst(p, rng)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to find %s in %s - %w", p, rng, err))
	}
	return addr
}

// FindFirst returns the lowest address in rng at which p matches.
//
// ErrInvalidRange is returned, before any memory is read, if rng's
// start is greater than its end. ErrInvalidPattern is returned for
// an empty pattern. ErrNotFound is returned if there is no match.
func (o Scanner) FindFirst(p Pattern, rng memory.Range) (memory.Address, error) {
	var result memory.Address
	found := false

	err := o.search(p, rng, func(addr memory.Address) bool {
		result = addr
		found = true
		return false
	})
	if err != nil {
		return 0, err
	}

	if !found {
		return 0, fmt.Errorf("%w: %s in %s", ErrNotFound, p, rng)
	}

	return result, nil
}

// FindAllOrExit calls FindAll and invokes DefaultExitFn if an
// error occurs.
func (o Scanner) FindAllOrExit(p Pattern, rng memory.Range) []memory.Address {
	addrs, err := o.FindAll(p, rng)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to search for %s in %s - %w", p, rng, err))
	}
	return addrs
}

// FindAll returns every address in rng at which p matches, in ascending
// order. Each search resumes one byte past the previous match, so
// overlapping matches are all reported.
//
// No matches is not an error: an empty slice is returned. Malformed
// input is reported the same way as FindFirst.
func (o Scanner) FindAll(p Pattern, rng memory.Range) ([]memory.Address, error) {
	var matches []memory.Address

	err := o.search(p, rng, func(addr memory.Address) bool {
		matches = append(matches, addr)
		return true
	})
	if err != nil {
		return nil, err
	}

	return matches, nil
}

// Each calls fn for every match in ascending order until fn
// returns false.
func (o Scanner) Each(p Pattern, rng memory.Range, fn func(memory.Address) bool) error {
	return o.search(p, rng, fn)
}

func (o Scanner) search(p Pattern, rng memory.Range, fn func(memory.Address) bool) error {
	err := rng.Validate()
	if err != nil {
		return err
	}

	if p.Len() == 0 {
		return fmt.Errorf("%w: pattern cannot be empty", ErrInvalidPattern)
	}

	m, err := o.Algorithm.matcher(p)
	if err != nil {
		return err
	}

	reader := o.Reader
	if reader == nil {
		reader = memory.Self{}
	}

	chunkSize := o.OptChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	lastStart := rng.Len() - p.Len()

	for start := 0; start <= lastStart; start += chunkSize {
		candidates := lastStart - start + 1
		if candidates > chunkSize {
			candidates = chunkSize
		}

		chunkAddr := rng.From.Add(uintptr(start))

		// Chunks overlap by len(p)-1 bytes so that matches straddling
		// two chunks are seen exactly once.
		window, err := reader.Read(chunkAddr, candidates+p.Len()-1)
		if err != nil {
			return fmt.Errorf("failed to read %d bytes at %s - %w",
				candidates+p.Len()-1, chunkAddr, err)
		}

		for offset := 0; offset < candidates; {
			i := m.index(window[offset:])
			if i < 0 {
				break
			}

			if !fn(chunkAddr.Add(uintptr(offset + i))) {
				return nil
			}

			offset += i + 1
		}
	}

	return nil
}

// FindFirst searches rng in r for pattern, treating every byte equal to
// wildcard as matching any byte. See Scanner.FindFirst.
func FindFirst(r memory.Reader, pattern []byte, rng memory.Range, wildcard byte) (memory.Address, error) {
	err := rng.Validate()
	if err != nil {
		return 0, err
	}

	p, err := New(pattern, wildcard)
	if err != nil {
		return 0, err
	}

	return Scanner{Reader: r}.FindFirst(p, rng)
}

// FindAll searches rng in r for every occurrence of pattern, treating
// every byte equal to wildcard as matching any byte. See Scanner.FindAll.
func FindAll(r memory.Reader, pattern []byte, rng memory.Range, wildcard byte) ([]memory.Address, error) {
	err := rng.Validate()
	if err != nil {
		return nil, err
	}

	p, err := New(pattern, wildcard)
	if err != nil {
		return nil, err
	}

	return Scanner{Reader: r}.FindAll(p, rng)
}
