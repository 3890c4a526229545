package memory

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestPointerMakerFor32Bit_FromAddress(t *testing.T) {
	pm := PointerMakerFor32Bit()
	pointer := pm.FromAddress(0xdeadbeef)
	exp := []byte{0xef, 0xbe, 0xad, 0xde}
	if !bytes.Equal(pointer, exp) {
		t.Fatalf("expected 0x%x - got 0x%x", exp, []byte(pointer))
	}
}

func TestPointerMakerFor64Bit_FromAddress(t *testing.T) {
	pm := PointerMakerFor64Bit()
	pointer := pm.FromAddress(0x00000000deadbeef)
	exp := []byte{0xef, 0xbe, 0xad, 0xde, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(pointer, exp) {
		t.Fatalf("expected 0x%x - got 0x%x", exp, []byte(pointer))
	}
}

func TestPointerMakerFor_BigEndian(t *testing.T) {
	pm, err := PointerMakerFor(binary.BigEndian, 4)
	if err != nil {
		t.Fatal(err)
	}

	pointer := pm.FromAddress(0xdeadbeef)
	exp := []byte{0xde, 0xad, 0xbe, 0xef}
	if !bytes.Equal(pointer, exp) {
		t.Fatalf("expected 0x%x - got 0x%x", exp, []byte(pointer))
	}

	addr, err := pm.ToAddress(pointer)
	if err != nil {
		t.Fatal(err)
	}

	if addr != 0xdeadbeef {
		t.Fatalf("expected 0xdeadbeef - got %s", addr)
	}
}

func TestPointerMakerFor_Invalid(t *testing.T) {
	_, err := PointerMakerFor(nil, 8)
	if err == nil {
		t.Fatal("expected an error for nil endianness")
	}

	_, err = PointerMakerFor(binary.LittleEndian, 3)
	if err == nil {
		t.Fatal("expected an error for a 3 byte pointer")
	}
}

func TestPointerMaker_ToAddress_WrongLength(t *testing.T) {
	_, err := PointerMakerFor64Bit().ToAddress([]byte{0x01, 0x02, 0x03, 0x04})
	if err == nil {
		t.Fatal("expected an error for 4 bytes with an 8 byte pointer maker")
	}
}

func TestNativePointerMaker_ReadWrite(t *testing.T) {
	b := NewBuffer(0x4000, make([]byte, PointerSize*2))

	err := WritePointer(b, 0x4000+Address(PointerSize), 0x1234)
	if err != nil {
		t.Fatal(err)
	}

	addr, err := ReadPointer(b, 0x4000+Address(PointerSize))
	if err != nil {
		t.Fatal(err)
	}

	if addr != 0x1234 {
		t.Fatalf("expected 0x1234 - got %s", addr)
	}

	first, err := ReadPointer(b, 0x4000)
	if err != nil {
		t.Fatal(err)
	}

	if first != 0 {
		t.Fatalf("expected the first slot to be untouched - got %s", first)
	}
}

func TestPointer_HexString(t *testing.T) {
	pointer := PointerMakerFor32Bit().FromAddress(0xdeadbeef)
	if pointer.HexString() != "0xefbeadde" {
		t.Fatalf("expected 0xefbeadde - got %s", pointer.HexString())
	}
}
