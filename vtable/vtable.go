package vtable

import (
	"fmt"
	"sync"

	"gitlab.com/stephen-fox/inproc/memory"
)

// hookMu is held while a table's protection is changed. Protection
// is saved and restored per page, and unrelated tables often share a
// page (e.g., neighboring vtables in .rodata), so every Hook in the
// process takes the same lock.
var hookMu sync.Mutex

// TableConfig configures a Table.
type TableConfig struct {
	// Base is the address of the first slot.
	Base memory.Address

	// Size is the number of slots in the table.
	Size int

	// OptMemory is used to read and write slots. Defaults to
	// memory.Self.
	OptMemory memory.ReadWriter

	// OptProtector makes the table writable while it is hooked.
	// Defaults to memory.SelfProtector.
	OptProtector memory.Protector

	// OptPointerMaker encodes slot values. Its pointer size is the
	// slot width. Defaults to memory.NativePointerMaker.
	OptPointerMaker memory.PointerMaker
}

// NewOrExit calls New and invokes DefaultExitFn if an error occurs.
func NewOrExit(config TableConfig) *Table {
	t, err := New(config)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to create table - %w", err))
	}
	return t
}

// New returns a *Table describing the dispatch table at config.Base.
// Nothing is read or written.
func New(config TableConfig) (*Table, error) {
	if config.Size < 0 {
		return nil, fmt.Errorf("size cannot be negative - got %d", config.Size)
	}

	t := &Table{
		base: config.Base,
		size: config.Size,
		mem:  config.OptMemory,
		prot: config.OptProtector,
		pm:   config.OptPointerMaker,
	}

	if t.mem == nil {
		t.mem = memory.Self{}
	}

	if t.prot == nil {
		t.prot = memory.SelfProtector()
	}

	if t.pm.Size() == 0 {
		t.pm = memory.NativePointerMaker()
	}

	return t, nil
}

// FromObjectOrExit calls FromObject and invokes DefaultExitFn if
// an error occurs.
func FromObjectOrExit(config TableConfig, object memory.Address) *Table {
	t, err := FromObject(config, object)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to find table of object at %s - %w", object, err))
	}
	return t
}

// FromObject returns the table whose address is stored in the first
// pointer of the object at the specified address (i.e., the layout of
// a C++ object with virtual methods). config.Base is ignored.
func FromObject(config TableConfig, object memory.Address) (*Table, error) {
	mem := config.OptMemory
	if mem == nil {
		mem = memory.Self{}
	}

	pm := config.OptPointerMaker
	if pm.Size() == 0 {
		pm = memory.NativePointerMaker()
	}

	base, err := pm.Read(mem, object)
	if err != nil {
		return nil, fmt.Errorf("failed to read table pointer at %s - %w", object, err)
	}

	config.Base = base

	return New(config)
}

// Table is a dispatch table of Size pointer-sized slots starting at
// Base. It aliases live memory; it only ever changes slot contents.
type Table struct {
	base memory.Address
	size int
	mem  memory.ReadWriter
	prot memory.Protector
	pm   memory.PointerMaker
}

// Record describes a successful hook.
type Record struct {
	// Index is the slot that was hooked.
	Index int

	// Original is the address the slot held before the hook.
	Original memory.Address

	// Replacement is the address that was written to the slot.
	Replacement memory.Address
}

// Base returns the address of the first slot.
func (o *Table) Base() memory.Address {
	return o.base
}

// Size returns the number of slots.
func (o *Table) Size() int {
	return o.size
}

// Range returns the memory occupied by the table.
func (o *Table) Range() memory.Range {
	return memory.RangeOf(o.base, o.size*o.pm.Size())
}

// SlotAddress returns the address of slot i.
func (o *Table) SlotAddress(i int) (memory.Address, error) {
	if i < 0 || i >= o.size {
		return 0, &OutOfBoundsError{Index: i, Size: o.size}
	}

	return o.base.Add(uintptr(i * o.pm.Size())), nil
}

// Slot returns the address stored in slot i.
func (o *Table) Slot(i int) (memory.Address, error) {
	slot, err := o.SlotAddress(i)
	if err != nil {
		return 0, err
	}

	return o.pm.Read(o.mem, slot)
}

// Slots returns the addresses stored in every slot.
func (o *Table) Slots() ([]memory.Address, error) {
	slots := make([]memory.Address, o.size)
	for i := range slots {
		var err error
		slots[i], err = o.Slot(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read slot %d - %w", i, err)
		}
	}
	return slots, nil
}

// HookOrExit calls Hook and invokes DefaultExitFn if an error occurs.
func (o *Table) HookOrExit(index int, replacement memory.Address) Record {
	rec, err := o.Hook(index, replacement)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to hook slot %d of table at %s - %w",
			index, o.base, err))
	}
	return rec
}

// Hook replaces slot index with replacement and returns a Record
// containing the slot's previous value.
//
// An *OutOfBoundsError is returned, and the table is left untouched,
// if index is not in the table. Otherwise, the memory occupied by the
// table is made writable, the original value is read, the replacement
// is written, and the previous protection is restored, in that order.
// The previous protection is restored even if the read or write fails.
//
// Hooking a slot twice is not an error. The second Record's Original
// is the first hook's Replacement.
func (o *Table) Hook(index int, replacement memory.Address) (Record, error) {
	slot, err := o.SlotAddress(index)
	if err != nil {
		return Record{}, err
	}

	hookMu.Lock()
	defer hookMu.Unlock()

	var original memory.Address

	err = memory.WithWritable(o.prot, o.base, o.size*o.pm.Size(), func() error {
		var err error
		original, err = o.pm.Read(o.mem, slot)
		if err != nil {
			return fmt.Errorf("failed to read slot %d at %s - %w", index, slot, err)
		}

		err = o.pm.Write(o.mem, slot, replacement)
		if err != nil {
			return fmt.Errorf("failed to write slot %d at %s - %w", index, slot, err)
		}

		return nil
	})
	if err != nil {
		return Record{}, err
	}

	return Record{
		Index:       index,
		Original:    original,
		Replacement: replacement,
	}, nil
}

// Restore writes rec.Original back to slot rec.Index. The returned
// Record's Original is whatever the slot held at the time, which is
// rec.Replacement unless the slot was hooked again in the meantime.
func (o *Table) Restore(rec Record) (Record, error) {
	return o.Hook(rec.Index, rec.Original)
}

// Hook hooks slot index of the size slot table at base in the current
// process, and returns the slot's previous value. It is shorthand for
// New followed by Table.Hook using the default configuration.
func Hook(base memory.Address, size int, index int, replacement memory.Address) (memory.Address, error) {
	t, err := New(TableConfig{
		Base: base,
		Size: size,
	})
	if err != nil {
		return 0, err
	}

	rec, err := t.Hook(index, replacement)
	if err != nil {
		return 0, err
	}

	return rec.Original, nil
}
