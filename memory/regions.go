package memory

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Region is a contiguous span of mapped memory with a single protection.
type Region struct {
	Range

	Prot Protection

	// Shared is true when the mapping is shared with other processes.
	Shared bool

	// Path is the file backing the region, if any. Anonymous regions
	// may carry a pseudo-path such as "[heap]".
	Path string
}

// Regions returns the mapped regions of the current process in
// ascending address order.
func Regions() ([]Region, error) {
	return osRegions()
}

// RegionsOrExit calls Regions and invokes DefaultExitFn if an error occurs.
func RegionsOrExit() []Region {
	regions, err := Regions()
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to list memory regions - %w", err))
	}
	return regions
}

// RegionOf returns the mapped region containing addr.
func RegionOf(addr Address) (Region, error) {
	regions, err := Regions()
	if err != nil {
		return Region{}, err
	}

	for _, r := range regions {
		if r.Contains(addr) {
			return r, nil
		}
	}

	return Region{}, fmt.Errorf("%w: %s", ErrUnmapped, addr)
}

// ModuleRange returns the smallest Range covering every region
// backed by a file whose base name is name (e.g., "libc.so.6").
func ModuleRange(name string) (Range, error) {
	regions, err := Regions()
	if err != nil {
		return Range{}, err
	}

	return moduleRange(regions, name)
}

// ModuleRangeOrExit calls ModuleRange and invokes DefaultExitFn
// if an error occurs.
func ModuleRangeOrExit(name string) Range {
	rng, err := ModuleRange(name)
	if err != nil {
		DefaultExitFn(fmt.Errorf("failed to find module %q - %w", name, err))
	}
	return rng
}

// ModuleRanges returns the readable parts of the module whose base
// name is name, in ascending order. Adjacent readable regions are
// merged, so a match spanning two of them can still be found. Unlike
// ModuleRange, the result never covers gaps or unreadable mappings,
// which makes it safe to scan with Self.
func ModuleRanges(name string) ([]Range, error) {
	regions, err := Regions()
	if err != nil {
		return nil, err
	}

	return moduleRanges(regions, name)
}

func moduleRanges(regions []Region, name string) ([]Range, error) {
	sorted := make([]Region, 0, len(regions))
	for _, r := range regions {
		if r.Path != "" && filepath.Base(r.Path) == name {
			sorted = append(sorted, r)
		}
	}

	if len(sorted) == 0 {
		return nil, fmt.Errorf("no regions are backed by %q", name)
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].From < sorted[j].From
	})

	var out []Range
	for _, r := range sorted {
		if r.Prot&ProtRead == 0 {
			continue
		}

		if len(out) > 0 && out[len(out)-1].To == r.From {
			out[len(out)-1].To = r.To
			continue
		}

		out = append(out, r.Range)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no regions backed by %q are readable", name)
	}

	return out, nil
}

func moduleRange(regions []Region, name string) (Range, error) {
	var rng Range
	found := false

	for _, r := range regions {
		if r.Path == "" || filepath.Base(r.Path) != name {
			continue
		}

		if !found {
			rng = r.Range
			found = true
			continue
		}

		if r.From < rng.From {
			rng.From = r.From
		}

		if r.To > rng.To {
			rng.To = r.To
		}
	}

	if !found {
		return Range{}, fmt.Errorf("no regions are backed by %q", name)
	}

	return rng, nil
}

// coverage returns the parts of regions that overlap rng, clipped to rng.
// ErrUnmapped is returned if any address in rng is not in a region.
func coverage(regions []Region, rng Range) ([]Region, error) {
	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].From < sorted[j].From
	})

	var out []Region
	next := rng.From

	for _, r := range sorted {
		if next >= rng.To {
			break
		}

		if r.To <= next {
			continue
		}

		if r.From > next {
			return nil, fmt.Errorf("%w: %s", ErrUnmapped, Range{From: next, To: r.From})
		}

		clipped := r
		clipped.From = next
		if clipped.To > rng.To {
			clipped.To = rng.To
		}

		out = append(out, clipped)
		next = clipped.To
	}

	if next < rng.To {
		return nil, fmt.Errorf("%w: %s", ErrUnmapped, Range{From: next, To: rng.To})
	}

	return out, nil
}

// parseMaps parses the format of /proc/<pid>/maps:
//
//	00400000-00452000 r-xp 00000000 08:02 173521      /usr/bin/dbus-daemon
func parseMaps(r io.Reader) ([]Region, error) {
	var regions []Region

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++

		raw := scanner.Text()

		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}

		if len(fields) < 5 {
			return nil, fmt.Errorf("line %d: expected at least 5 fields - got %d",
				line, len(fields))
		}

		from, to, hasIt := strings.Cut(fields[0], "-")
		if !hasIt {
			return nil, fmt.Errorf("line %d: malformed address range %q", line, fields[0])
		}

		start, err := strconv.ParseUint(from, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: failed to parse start address - %w", line, err)
		}

		end, err := strconv.ParseUint(to, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: failed to parse end address - %w", line, err)
		}

		perms := fields[1]
		if len(perms) != 4 {
			return nil, fmt.Errorf("line %d: malformed permissions %q", line, perms)
		}

		region := Region{
			Range: Range{
				From: Address(start),
				To:   Address(end),
			},
			Shared: perms[3] == 's',
		}

		if perms[0] == 'r' {
			region.Prot |= ProtRead
		}

		if perms[1] == 'w' {
			region.Prot |= ProtWrite
		}

		if perms[2] == 'x' {
			region.Prot |= ProtExec
		}

		if len(fields) > 5 {
			region.Path = afterFields(raw, 5)
		}

		regions = append(regions, region)
	}

	err := scanner.Err()
	if err != nil {
		return nil, err
	}

	return regions, nil
}

// afterFields returns what follows the first n whitespace separated
// fields of line, minus the whitespace before it. Runs of spaces
// inside the remainder are kept.
func afterFields(line string, n int) string {
	rest := line
	for i := 0; i < n; i++ {
		rest = strings.TrimLeft(rest, " \t")
		end := strings.IndexAny(rest, " \t")
		if end < 0 {
			return ""
		}
		rest = rest[end:]
	}

	return strings.TrimLeft(rest, " \t")
}
