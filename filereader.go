package daclib

import (
	"fmt"
	"os"
)

// FileReader is a DataReader over a flat memory image on disk, where file
// offset equals virtual address minus a fixed base. It is enough to drive
// capability probing against a dump; real hosts bring their own reader.
type FileReader struct {
	f        *os.File
	base     uint64
	machine  uint32
	ptrSize  int
	versions int
}

// OpenFileReader opens path as a flat memory image. The image is assumed to
// contain at least one managed runtime unless versions says otherwise.
func OpenFileReader(path string, base uint64, machine uint32, versions int) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	ptrSize := 8
	if machine == MachineI386 || machine == MachineARMNT {
		ptrSize = 4
	}
	return &FileReader{
		f:        f,
		base:     base,
		machine:  machine,
		ptrSize:  ptrSize,
		versions: versions,
	}, nil
}

func (r *FileReader) RuntimeVersionCount() int { return r.versions }

func (r *FileReader) ReadMemory(addr uint64, buf []byte) (int, error) {
	if addr < r.base {
		return 0, fmt.Errorf("address %#x below image base %#x", addr, r.base)
	}
	n, err := r.f.ReadAt(buf, int64(addr-r.base))
	if n == 0 && err != nil {
		return 0, fmt.Errorf("read %#x: %w", addr, err)
	}
	return n, nil
}

func (r *FileReader) ReadRegisters(threadID uint32, context []byte) error {
	return fmt.Errorf("flat image has no register state for thread %d", threadID)
}

func (r *FileReader) MachineType() uint32 { return r.machine }

func (r *FileReader) PointerSize() int { return r.ptrSize }

// Flush is a no-op: the backing file does not change.
func (r *FileReader) Flush() {}

func (r *FileReader) Close() error { return r.f.Close() }
