//go:build linux

package pattern

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/stephen-fox/inproc/memory"
)

// moduleMarker lives in the data segment of the test executable.
var moduleMarker = [16]byte{
	0x4d, 0x6f, 0x64, 0x75, 0xfe, 0x17, 0x9a, 0x03,
	0xc1, 0x5e, 0x88, 0x2b, 0x6c, 0xe4, 0x0d, 0x71,
}

func TestSignature_FindInModule_Self(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)

	sig := Signature{
		Name:    "marker",
		Pattern: ParseOrExit("4D 6F 64 75 FE 17 9A 03 C1 5E 88 2B 6C E4 0D 71"),
		Module:  filepath.Base(exe),
	}

	addr, err := sig.FindInModule(Scanner{Algorithm: Horspool})
	require.NoError(t, err)

	assert.Equal(t, moduleMarker[:], memory.ReadBytes(addr, len(moduleMarker)))

	ranges, err := memory.ModuleRanges(sig.Module)
	require.NoError(t, err)

	inModule := false
	for _, r := range ranges {
		if r.ContainsRange(memory.RangeOf(addr, len(moduleMarker))) {
			inModule = true
		}
	}
	assert.True(t, inModule, "%s is not in %v", addr, ranges)

	sig.Module = "no-such-module.so"
	_, err = sig.FindInModule(Scanner{})
	assert.Error(t, err)
}
