// Package com holds the raw COM-style boundary of the inspection protocol:
// 128-bit interface identifiers, the well-known identifier values, native
// status codes, and the ABI interface through which every native call is
// made.
//
// The ABI is deliberately an interface. The real implementation
// (SystemABI) dispatches through vtables with purego; tests substitute an
// in-memory implementation and never touch native code.
//
// # Interface Identifiers
//
// Identifiers use COM field layout so they can be passed by pointer across
// the boundary:
//
//	iid := com.MustParse("436f00f2-b42a-4b9f-870c-e73db66ae930")
//	ptr, status := abi.QueryInterface(primary, iid)
//	if status == com.ENoInterface {
//	    // capability absent on this runtime
//	}
//
// # Pointer Normalization
//
// RawPointer converts the opaque handles callers may hold (uintptr,
// unsafe.Pointer, wrapper types) into the raw pointer form the ABI needs,
// rejecting nulls and foreign types.
package com
