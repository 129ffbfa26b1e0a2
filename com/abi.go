package com

import (
	"unsafe"

	"github.com/runtimediag/daclib/errors"
)

// ABI is the raw native surface of the inspection protocol: the IUnknown
// operations available on every obtained interface pointer, plus direct
// invocation of the two resolved library entry points. All calls are
// blocking foreign calls on the calling goroutine; they cannot be
// interrupted or cancelled.
//
// The default implementation is SystemABI. Tests substitute their own.
type ABI interface {
	// QueryInterface asks ptr for the interface named by iid. On success
	// the returned pointer carries its own reference. ENoInterface is the
	// distinguished not-supported status.
	QueryInterface(ptr uintptr, iid GUID) (uintptr, uint32)

	// AddRef takes an additional reference on ptr.
	AddRef(ptr uintptr) uint32

	// Release drops one reference on ptr.
	Release(ptr uintptr) uint32

	// CallInit invokes a resolved initializer main entry point:
	// (imageHandle, reason, reserved=null) -> status. The return value is
	// conventionally ignored by callers.
	CallInit(addr, image uintptr, reason uint32) uint32

	// CallFactory invokes the resolved factory entry point:
	// (iid, dataTarget, out) -> status. On a zero status the out pointer
	// is valid and owns one reference.
	CallFactory(addr uintptr, iid GUID, dataTarget uintptr) (uintptr, uint32)
}

// RawPointerer is implemented by wrapper types that can surface their
// underlying native interface pointer.
type RawPointerer interface {
	RawInterfacePointer() uintptr
}

// RawPointer normalizes an opaque handle to a raw native interface pointer.
// It accepts a uintptr, an unsafe.Pointer, or any RawPointerer. Anything
// else, and a resulting null pointer, is an invalid argument.
func RawPointer(v any) (uintptr, error) {
	var p uintptr
	switch x := v.(type) {
	case uintptr:
		p = x
	case unsafe.Pointer:
		p = uintptr(x)
	case RawPointerer:
		p = x.RawInterfacePointer()
	default:
		return 0, errors.InvalidArgument("not an instance of the expected interface")
	}
	if p == 0 {
		return 0, errors.InvalidArgument("null interface pointer")
	}
	return p, nil
}
