package pattern

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gitlab.com/stephen-fox/inproc/memory"
	"gopkg.in/yaml.v3"
)

// Signature is a named pattern. Offset is added to the address of
// the match, which is useful when the interesting address is in the
// middle of the signature (e.g., the operand of an instruction).
type Signature struct {
	Name    string  `yaml:"name"`
	Pattern Pattern `yaml:"pattern"`
	Offset  int     `yaml:"offset,omitempty"`

	// Module optionally names the file backing the memory the
	// signature is expected to be found in (e.g., "libgame.so").
	// When set, only the module's readable memory is searched.
	Module string `yaml:"module,omitempty"`
}

// Find searches rng for the signature and returns the match
// address plus the signature's offset.
//
// If the signature names a Module, only the parts of rng that belong
// to the module are searched, in ascending order.
func (o Signature) Find(s Scanner, rng memory.Range) (memory.Address, error) {
	err := rng.Validate()
	if err != nil {
		return 0, err
	}

	ranges := []memory.Range{rng}

	if o.Module != "" {
		ranges, err = o.moduleRanges(s, rng)
		if err != nil {
			return 0, err
		}
	}

	for _, r := range ranges {
		addr, err := s.FindFirst(o.Pattern, r)
		switch {
		case errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			return 0, err
		}

		return addr.Add(uintptr(o.Offset)), nil
	}

	return 0, fmt.Errorf("%w: %s in %s", ErrNotFound, o.Pattern, o.where(rng))
}

// FindInModule searches every readable part of the signature's
// Module. It fails if the signature does not name a module.
func (o Signature) FindInModule(s Scanner) (memory.Address, error) {
	if o.Module == "" {
		return 0, fmt.Errorf("signature %q does not name a module", o.Name)
	}

	return o.Find(s, memory.Range{To: ^memory.Address(0)})
}

func (o Signature) moduleRanges(s Scanner, rng memory.Range) ([]memory.Range, error) {
	modRanges, err := s.moduleRanges(o.Module)
	if err != nil {
		return nil, fmt.Errorf("failed to find module %q - %w", o.Module, err)
	}

	var out []memory.Range
	for _, modRng := range modRanges {
		clipped, ok := modRng.Intersect(rng)
		if ok {
			out = append(out, clipped)
		}
	}

	return out, nil
}

func (o Signature) where(rng memory.Range) string {
	if o.Module == "" {
		return rng.String()
	}

	return fmt.Sprintf("%q within %s", o.Module, rng)
}

// NewSignatureTable creates a new instance of a *SignatureTable with
// the specified initial context. Refer to SignatureTable's documentation
// for more information.
func NewSignatureTable(initialContext string) *SignatureTable {
	return &SignatureTable{
		currentContext: initialContext,
		contextToSigs:  make(map[string]map[string]Signature),
	}
}

// LoadSignatureTableOrExit calls LoadSignatureTable and invokes
// DefaultExitFn if an error occurs.
func LoadSignatureTableOrExit(r io.Reader, initialContext string) *SignatureTable {
	table, err := LoadSignatureTable(r, initialContext)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to load signature table - %w", err))
	}
	return table
}

// LoadSignatureTable decodes a YAML document of the form:
//
//	contexts:
//	  v1.0.2:
//	    - name: player_vtable
//	      pattern: "48 8D 05 ?? ?? ?? ?? 48 89 01"
//	      offset: 3
//	      module: game.so
//	  v1.1.0:
//	    - name: player_vtable
//	      pattern: "4C 8D 05 ?? ?? ?? ?? 49 89 00"
//	      offset: 3
//
// Signature names must be unique within a context.
func LoadSignatureTable(r io.Reader, initialContext string) (*SignatureTable, error) {
	var doc struct {
		Contexts map[string][]Signature `yaml:"contexts"`
	}

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	err := decoder.Decode(&doc)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode yaml - %w", err)
	}

	table := NewSignatureTable(initialContext)

	for context, sigs := range doc.Contexts {
		for i, sig := range sigs {
			if sig.Name == "" {
				return nil, fmt.Errorf("signature %d in context %q has no name", i, context)
			}

			if sig.Pattern.Len() == 0 {
				return nil, fmt.Errorf("signature %q in context %q has no pattern - %w",
					sig.Name, context, ErrInvalidPattern)
			}

			_, hasIt := table.contextToSigs[context][sig.Name]
			if hasIt {
				return nil, fmt.Errorf("signature %q is defined more than once in context %q",
					sig.Name, context)
			}

			table.AddSignatureInContext(sig, context)
		}
	}

	return table, nil
}

// SignatureTable organizes signatures by context. A context can be
// (but is not limited to) the version of the target program.
//
// Signatures are far more stable than hardcoded addresses, but they
// still break when a target is rebuilt. Keeping one set of signatures
// per known build means switching targets only requires switching
// the context.
type SignatureTable struct {
	currentContext string
	contextToSigs  map[string]map[string]Signature
}

// SetContext sets the current context to the specified value.
func (o *SignatureTable) SetContext(context string) *SignatureTable {
	o.currentContext = context
	return o
}

// CurrentContext returns the current context.
func (o *SignatureTable) CurrentContext() string {
	return o.currentContext
}

// Contexts returns the names of all contexts in ascending order.
func (o *SignatureTable) Contexts() []string {
	contexts := make([]string, 0, len(o.contextToSigs))
	for context := range o.contextToSigs {
		contexts = append(contexts, context)
	}
	sort.Strings(contexts)
	return contexts
}

// AddSignatureInContext adds or replaces a signature in the
// specified context.
func (o *SignatureTable) AddSignatureInContext(sig Signature, context string) *SignatureTable {
	sigs := o.contextToSigs[context]
	if sigs == nil {
		sigs = make(map[string]Signature)
		o.contextToSigs[context] = sigs
	}

	sigs[sig.Name] = sig

	return o
}

// Signature returns the named signature from the current context.
func (o *SignatureTable) Signature(name string) (Signature, error) {
	sigs, hasIt := o.contextToSigs[o.currentContext]
	if !hasIt {
		return Signature{}, fmt.Errorf("the current context (%q) is not in the table",
			o.currentContext)
	}

	sig, hasIt := sigs[name]
	if !hasIt {
		return Signature{}, fmt.Errorf("failed to find the signature %q in the table for %q",
			name, o.currentContext)
	}

	return sig, nil
}

// Signatures returns the signatures of the current context sorted
// by name.
func (o *SignatureTable) Signatures() []Signature {
	sigs := o.contextToSigs[o.currentContext]

	out := make([]Signature, 0, len(sigs))
	for _, sig := range sigs {
		out = append(out, sig)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	return out
}

// AddressOrExit finds the named signature in rng and returns its
// address. DefaultExitFn is invoked if the signature is not in the
// current context, or if it cannot be found.
func (o *SignatureTable) AddressOrExit(s Scanner, rng memory.Range, name string) memory.Address {
	sig, err := o.Signature(name)
	if err != nil {
		DefaultExitFn(err)
	}

	addr, err := sig.Find(s, rng)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to find signature %q - %w", name, err))
	}

	return addr
}

// Resolve finds every signature of the current context in rng.
// It fails on the first signature that cannot be found.
func (o *SignatureTable) Resolve(s Scanner, rng memory.Range) (map[string]memory.Address, error) {
	sigs := o.Signatures()
	if len(sigs) == 0 {
		return nil, fmt.Errorf("the current context (%q) has no signatures", o.currentContext)
	}

	addrs := make(map[string]memory.Address, len(sigs))
	for _, sig := range sigs {
		addr, err := sig.Find(s, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to find signature %q - %w", sig.Name, err)
		}

		addrs[sig.Name] = addr
	}

	return addrs, nil
}

// ResolveInProcessOrExit calls ResolveInProcess and invokes
// DefaultExitFn if an error occurs.
func (o *SignatureTable) ResolveInProcessOrExit(s Scanner) map[string]memory.Address {
	addrs, err := o.ResolveInProcess(s)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to resolve signatures for %q - %w", o.currentContext, err))
	}
	return addrs
}

// ResolveInProcess finds every signature of the current context in
// the module it names. Every signature must name a module.
func (o *SignatureTable) ResolveInProcess(s Scanner) (map[string]memory.Address, error) {
	sigs := o.Signatures()
	if len(sigs) == 0 {
		return nil, fmt.Errorf("the current context (%q) has no signatures", o.currentContext)
	}

	addrs := make(map[string]memory.Address, len(sigs))
	for _, sig := range sigs {
		addr, err := sig.FindInModule(s)
		if err != nil {
			return nil, fmt.Errorf("failed to find signature %q - %w", sig.Name, err)
		}

		addrs[sig.Name] = addr
	}

	return addrs, nil
}
