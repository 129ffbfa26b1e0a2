package dac

import (
	"sync/atomic"

	"github.com/runtimediag/daclib/com"
)

// Interface owns one raw native interface pointer obtained from a factory
// or query call. The pointer is non-null for the handle's entire lifetime
// and is released exactly once, on Close.
type Interface struct {
	lib    *Library
	ptr    uintptr
	closed atomic.Bool
}

func newInterface(l *Library, ptr uintptr) *Interface {
	return &Interface{lib: l, ptr: ptr}
}

// NewInterface wraps a raw interface pointer, adopting its reference. It is
// the plain capability wrapper for callers that only need ownership, and
// the constructor shape Acquire expects.
func NewInterface(l *Library, ptr uintptr) *Interface {
	return newInterface(l, ptr)
}

// Raw returns the underlying native interface pointer.
func (i *Interface) Raw() uintptr {
	return i.ptr
}

// RawInterfacePointer implements com.RawPointerer.
func (i *Interface) RawInterfacePointer() uintptr {
	return i.ptr
}

// Query asks the underlying pointer for another interface. ok is false
// when the capability is not supported; a supported interface comes back
// carrying its own reference, which the caller now owns.
func (i *Interface) Query(iid com.GUID) (uintptr, bool) {
	ptr, status := i.lib.abi.QueryInterface(i.ptr, iid)
	if !com.Succeeded(status) || ptr == 0 {
		return 0, false
	}
	return ptr, true
}

// Close releases the underlying pointer. Safe to call more than once.
func (i *Interface) Close() {
	if !i.closed.CompareAndSwap(false, true) {
		return
	}
	i.lib.abi.Release(i.ptr)
}
