//go:build windows

package memory

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const memImage = 0x1000000

func osRegions() ([]Region, error) {
	var regions []Region

	var addr uintptr
	for {
		var mbi windows.MemoryBasicInformation
		err := windows.VirtualQuery(addr, &mbi, unsafe.Sizeof(mbi))
		if err != nil || mbi.RegionSize == 0 {
			break
		}

		if mbi.State == windows.MEM_COMMIT {
			region := Region{
				Range: Range{
					From: Address(mbi.BaseAddress),
					To:   Address(mbi.BaseAddress + mbi.RegionSize),
				},
				Prot: fromWindowsProt(mbi.Protect),
			}

			if mbi.Type == memImage {
				region.Path = moduleFileName(mbi.AllocationBase)
			}

			regions = append(regions, region)
		}

		next := mbi.BaseAddress + mbi.RegionSize
		if next <= addr {
			break
		}
		addr = next
	}

	if len(regions) == 0 {
		return nil, errors.New("VirtualQuery did not return any committed regions")
	}

	return regions, nil
}

func moduleFileName(allocationBase uintptr) string {
	buf := make([]uint16, windows.MAX_LONG_PATH)
	n, err := windows.GetModuleFileName(windows.Handle(allocationBase), &buf[0], uint32(len(buf)))
	if err != nil || n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

type osProtector struct{}

type savedProtection struct {
	rng  Range
	prot uint32
}

// Protect changes the protection with VirtualProtect. The raw protection
// of every region in the span is saved beforehand, so modifiers such as
// PAGE_GUARD survive the restore.
func (osProtector) Protect(addr Address, size int, prot Protection) (func() error, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size must be greater than zero - got %d", size)
	}

	span := RangeOf(addr, size)

	var saved []savedProtection
	for next := span.From; next < span.To; {
		var mbi windows.MemoryBasicInformation
		err := windows.VirtualQuery(uintptr(next), &mbi, unsafe.Sizeof(mbi))
		if err != nil {
			return nil, fmt.Errorf("failed to query %s - %w", next, err)
		}

		if mbi.State != windows.MEM_COMMIT {
			return nil, fmt.Errorf("%w: %s", ErrUnmapped, next)
		}

		end := Address(mbi.BaseAddress + mbi.RegionSize)
		if end > span.To {
			end = span.To
		}

		saved = append(saved, savedProtection{
			rng:  Range{From: next, To: end},
			prot: mbi.Protect,
		})

		next = end
	}

	var old uint32
	err := windows.VirtualProtect(uintptr(addr), uintptr(size), windowsProt(prot), &old)
	if err != nil {
		return nil, fmt.Errorf("failed to VirtualProtect %s - %w", span, err)
	}

	return func() error {
		var errs []error
		for _, s := range saved {
			var ignored uint32
			err := windows.VirtualProtect(uintptr(s.rng.From), uintptr(s.rng.Len()), s.prot, &ignored)
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to VirtualProtect %s back to 0x%x - %w",
					s.rng, s.prot, err))
			}
		}
		return errors.Join(errs...)
	}, nil
}

func windowsProt(prot Protection) uint32 {
	switch {
	case prot&ProtExec != 0 && prot&ProtWrite != 0:
		return windows.PAGE_EXECUTE_READWRITE
	case prot&ProtExec != 0 && prot&ProtRead != 0:
		return windows.PAGE_EXECUTE_READ
	case prot&ProtExec != 0:
		return windows.PAGE_EXECUTE
	case prot&ProtWrite != 0:
		return windows.PAGE_READWRITE
	case prot&ProtRead != 0:
		return windows.PAGE_READONLY
	default:
		return windows.PAGE_NOACCESS
	}
}

func fromWindowsProt(raw uint32) Protection {
	switch raw & 0xff {
	case windows.PAGE_READONLY:
		return ProtRead
	case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
		return ProtRW
	case windows.PAGE_EXECUTE:
		return ProtExec
	case windows.PAGE_EXECUTE_READ:
		return ProtRX
	case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
		return ProtRWX
	default:
		return ProtNone
	}
}
