package com

import (
	"unsafe"

	"github.com/ebitengine/purego"
)

// IUnknown vtable slots.
const (
	slotQueryInterface = 0
	slotAddRef         = 1
	slotRelease        = 2
)

type systemABI struct{}

// SystemABI returns the ABI implementation backed by real native calls.
// Invocations use the platform's standard calling convention via
// purego.SyscallN; vtable slots are read directly from the interface
// pointer's first word.
func SystemABI() ABI {
	return systemABI{}
}

func vtableSlot(ptr uintptr, slot int) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(ptr))
	return *(*uintptr)(unsafe.Pointer(vtbl + uintptr(slot)*unsafe.Sizeof(uintptr(0))))
}

func (systemABI) QueryInterface(ptr uintptr, iid GUID) (uintptr, uint32) {
	var out uintptr
	status, _, _ := purego.SyscallN(vtableSlot(ptr, slotQueryInterface),
		ptr,
		uintptr(unsafe.Pointer(&iid)),
		uintptr(unsafe.Pointer(&out)))
	return out, uint32(status)
}

func (systemABI) AddRef(ptr uintptr) uint32 {
	n, _, _ := purego.SyscallN(vtableSlot(ptr, slotAddRef), ptr)
	return uint32(n)
}

func (systemABI) Release(ptr uintptr) uint32 {
	n, _, _ := purego.SyscallN(vtableSlot(ptr, slotRelease), ptr)
	return uint32(n)
}

func (systemABI) CallInit(addr, image uintptr, reason uint32) uint32 {
	status, _, _ := purego.SyscallN(addr, image, uintptr(reason), 0)
	return uint32(status)
}

func (systemABI) CallFactory(addr uintptr, iid GUID, dataTarget uintptr) (uintptr, uint32) {
	var out uintptr
	status, _, _ := purego.SyscallN(addr,
		uintptr(unsafe.Pointer(&iid)),
		dataTarget,
		uintptr(unsafe.Pointer(&out)))
	return out, uint32(status)
}
