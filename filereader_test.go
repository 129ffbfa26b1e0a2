package daclib

import (
	"os"
	"path/filepath"
	"testing"
)

func writeImage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "target.dump")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileReader_ReadMemory(t *testing.T) {
	path := writeImage(t, []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02})

	r, err := OpenFileReader(path, 0x7f0000, MachineAMD64, 1)
	if err != nil {
		t.Fatalf("OpenFileReader failed: %v", err)
	}
	defer r.Close()

	buf := make([]byte, 4)
	n, err := r.ReadMemory(0x7f0002, buf)
	if err != nil {
		t.Fatalf("ReadMemory failed: %v", err)
	}
	if n != 4 || buf[0] != 0xbe || buf[3] != 0x02 {
		t.Fatalf("read %d bytes %x, want 4 bytes from offset 2", n, buf)
	}

	if _, err := r.ReadMemory(0x100, buf); err == nil {
		t.Fatal("read below the image base must fail")
	}
}

func TestFileReader_ShortRead(t *testing.T) {
	path := writeImage(t, []byte{1, 2, 3})

	r, err := OpenFileReader(path, 0, MachineAMD64, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	buf := make([]byte, 8)
	n, err := r.ReadMemory(1, buf)
	if err != nil {
		t.Fatalf("short read must still return data: %v", err)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2 at the image tail", n)
	}
}

func TestFileReader_Geometry(t *testing.T) {
	path := writeImage(t, []byte{0})

	tests := []struct {
		machine uint32
		ptrSize int
	}{
		{MachineAMD64, 8},
		{MachineARM64, 8},
		{MachineI386, 4},
		{MachineARMNT, 4},
	}
	for _, tt := range tests {
		r, err := OpenFileReader(path, 0, tt.machine, 1)
		if err != nil {
			t.Fatal(err)
		}
		if r.MachineType() != tt.machine || r.PointerSize() != tt.ptrSize {
			t.Errorf("machine %#x: pointer size %d, want %d", tt.machine, r.PointerSize(), tt.ptrSize)
		}
		r.Close()
	}
}

func TestFileReader_VersionCount(t *testing.T) {
	path := writeImage(t, []byte{0})

	r, err := OpenFileReader(path, 0, MachineAMD64, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if r.RuntimeVersionCount() != 0 {
		t.Fatal("configured version count must be reported as-is")
	}
}
