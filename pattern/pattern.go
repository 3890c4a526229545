package pattern

import (
	"encoding/hex"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// New creates a Pattern from b. Every byte in b that equals wildcard
// matches any byte. ErrInvalidPattern is returned if b is empty.
func New(b []byte, wildcard byte) (Pattern, error) {
	if len(b) == 0 {
		return Pattern{}, fmt.Errorf("%w: pattern cannot be empty", ErrInvalidPattern)
	}

	p := Pattern{
		bytes: make([]byte, len(b)),
		mask:  make([]bool, len(b)),
	}

	for i, c := range b {
		if c == wildcard {
			p.mask[i] = true
			continue
		}
		p.bytes[i] = c
	}

	return p, nil
}

// Exact creates a Pattern without wildcards.
func Exact(b []byte) (Pattern, error) {
	if len(b) == 0 {
		return Pattern{}, fmt.Errorf("%w: pattern cannot be empty", ErrInvalidPattern)
	}

	p := Pattern{
		bytes: make([]byte, len(b)),
		mask:  make([]bool, len(b)),
	}
	copy(p.bytes, b)

	return p, nil
}

// ParseOrExit calls Parse and invokes DefaultExitFn if an error occurs.
func ParseOrExit(aob string) Pattern {
	p, err := Parse(aob)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to parse pattern %q - %w", aob, err))
	}
	return p
}

// Parse parses an "array of bytes" string such as "48 8B ?? ?? 05".
// Tokens are separated by whitespace. Each token is either a pair of
// hexadecimal characters, or "?" / "??" for a wildcard.
func Parse(aob string) (Pattern, error) {
	tokens := strings.Fields(aob)
	if len(tokens) == 0 {
		return Pattern{}, fmt.Errorf("%w: pattern cannot be empty", ErrInvalidPattern)
	}

	p := Pattern{
		bytes: make([]byte, len(tokens)),
		mask:  make([]bool, len(tokens)),
	}

	for i, token := range tokens {
		if token == "?" || token == "??" {
			p.mask[i] = true
			continue
		}

		decoded, err := hex.DecodeString(token)
		if err != nil || len(decoded) != 1 {
			return Pattern{}, fmt.Errorf("%w: token %d (%q) is not a hex byte",
				ErrInvalidPattern, i, token)
		}

		p.bytes[i] = decoded[0]
	}

	return p, nil
}

// Pattern is a sequence of bytes where any position may be a wildcard.
// The zero value is an empty pattern, which cannot be searched for.
type Pattern struct {
	bytes []byte
	mask  []bool
}

// Len returns the number of bytes the pattern spans.
func (o Pattern) Len() int {
	return len(o.bytes)
}

// IsWildcard returns true if position i matches any byte.
func (o Pattern) IsWildcard(i int) bool {
	return o.mask[i]
}

// Byte returns the byte expected at position i. It returns zero
// for wildcard positions.
func (o Pattern) Byte(i int) byte {
	return o.bytes[i]
}

// Matches returns true if data starts with the pattern.
func (o Pattern) Matches(data []byte) bool {
	if len(data) < len(o.bytes) || len(o.bytes) == 0 {
		return false
	}

	return o.matchAt(data, 0)
}

func (o Pattern) matchAt(data []byte, pos int) bool {
	for j, b := range o.bytes {
		if o.mask[j] {
			continue
		}

		if data[pos+j] != b {
			return false
		}
	}

	return true
}

// String returns the pattern in the format accepted by Parse.
func (o Pattern) String() string {
	var b strings.Builder
	for i := range o.bytes {
		if i > 0 {
			b.WriteByte(' ')
		}

		if o.mask[i] {
			b.WriteString("??")
		} else {
			fmt.Fprintf(&b, "%02X", o.bytes[i])
		}
	}
	return b.String()
}

// UnmarshalYAML parses a scalar in the format accepted by Parse.
func (o *Pattern) UnmarshalYAML(value *yaml.Node) error {
	var aob string
	err := value.Decode(&aob)
	if err != nil {
		return err
	}

	p, err := Parse(aob)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}

	*o = p

	return nil
}

// MarshalYAML encodes the pattern in the format accepted by Parse.
func (o Pattern) MarshalYAML() (interface{}, error) {
	return o.String(), nil
}
