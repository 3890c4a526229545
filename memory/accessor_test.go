package memory

import (
	"errors"
	"math/rand"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBytes_AscendingOrder(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04}
	addr := AddressOf(buf)

	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, ReadBytes(addr, 4))
	assert.Equal(t, []byte{0x02, 0x03}, ReadBytes(addr+1, 2))
	assert.Equal(t, []byte{}, ReadBytes(addr, 0))

	runtime.KeepAlive(buf)
}

func TestWriteBytes_AscendingOrder(t *testing.T) {
	buf := make([]byte, 6)
	addr := AddressOf(buf)

	WriteBytes(addr+1, []byte{0xde, 0xad, 0xbe, 0xef})

	assert.Equal(t, []byte{0x00, 0xde, 0xad, 0xbe, 0xef, 0x00}, buf)

	runtime.KeepAlive(buf)
}

func TestReadBytes_ReturnsCopy(t *testing.T) {
	buf := []byte{0xaa, 0xbb}
	addr := AddressOf(buf)

	res := ReadBytes(addr, 2)
	res[0] = 0x00

	assert.Equal(t, byte(0xaa), buf[0])

	runtime.KeepAlive(buf)
}

func TestSelf_RoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	for i := 0; i < 100; i++ {
		value := make([]byte, 1+rnd.Intn(64))
		rnd.Read(value)

		buf := make([]byte, len(value)+16)
		addr := AddressOf(buf).Add(uintptr(rnd.Intn(16)))

		var self Self
		require.NoError(t, self.Write(addr, value))

		res, err := self.Read(addr, len(value))
		require.NoError(t, err)
		require.Equal(t, value, res)

		runtime.KeepAlive(buf)
	}
}

func TestSelf_NegativeLength(t *testing.T) {
	_, err := Self{}.Read(0, -1)
	assert.Error(t, err)
}

func TestBuffer_RoundTrip(t *testing.T) {
	b := NewBuffer(0x1000, make([]byte, 16))

	require.NoError(t, b.Write(0x1004, []byte{1, 2, 3}))

	res, err := b.Read(0x1003, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 0}, res)
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0}, b.Bytes())
}

func TestBuffer_Fault(t *testing.T) {
	b := NewBuffer(0x1000, []byte{1, 2, 3, 4})

	tests := []struct {
		name   string
		addr   Address
		length int
	}{
		{name: "before base", addr: 0xfff, length: 1},
		{name: "past end", addr: 0x1003, length: 2},
		{name: "far past end", addr: 0x2000, length: 1},
		{name: "longer than buffer", addr: 0x1000, length: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Read(tt.addr, tt.length)
			assert.True(t, errors.Is(err, ErrFault), "got %v", err)

			err = b.Write(tt.addr, make([]byte, tt.length))
			assert.True(t, errors.Is(err, ErrFault), "got %v", err)
		})
	}

	assert.Equal(t, []byte{1, 2, 3, 4}, b.Bytes())
}

func TestBuffer_EdgesAreInBounds(t *testing.T) {
	b := NewBuffer(0x1000, []byte{1, 2, 3, 4})

	res, err := b.Read(0x1000, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, res)

	res, err = b.Read(0x1004, 0)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestRange(t *testing.T) {
	rng := Range{From: 0x10, To: 0x20}

	require.NoError(t, rng.Validate())
	assert.Equal(t, 0x10, rng.Len())
	assert.True(t, rng.Contains(0x10))
	assert.False(t, rng.Contains(0x20))
	assert.True(t, rng.ContainsRange(Range{From: 0x18, To: 0x20}))
	assert.False(t, rng.ContainsRange(Range{From: 0x18, To: 0x21}))
	assert.Equal(t, "[0x10, 0x20)", rng.String())

	bad := Range{From: 0x20, To: 0x10}
	assert.True(t, errors.Is(bad.Validate(), ErrInvalidRange))
	assert.Equal(t, 0, bad.Len())
}

func TestAddress_String(t *testing.T) {
	assert.Equal(t, "0x0", Address(0).String())
	assert.Equal(t, "0xdeadbeef", Address(0xdeadbeef).String())
}
