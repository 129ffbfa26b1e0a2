// Package dac is the high-level API for attaching a native inspection
// library to a managed target process.
//
// A Library comes into existence one of two ways: Load maps the library
// image from disk and drives its construction protocol (one-time platform
// initializer, then the factory entry point with a data-target callback
// handle), or FromPointer adopts a primary interface pointer some other
// component already obtained. Either way the Library owns the primary
// interface for its whole lifetime and derives further capabilities from
// it by interface-identifier query.
//
// # Capabilities
//
// The secondary capability (ISOSDacInterface) is memoized:
//
//	sos, err := lib.SOS() // first call queries, later calls share
//	defer sos.Close()
//
// Arbitrary capabilities use the generic form with an explicit constructor
// of the fixed (library, pointer) shape:
//
//	h, ok, err := dac.Acquire(lib, someIID, NewSomeCapability)
//
// # Teardown
//
// Close releases the primary interface, the cached secondary interface,
// the adapter, and the image claim, in that order, exactly once. A
// finalizer backstop performs the same sequence for a Library that was
// never closed, so a forgotten Close leaks nothing native - but explicit
// Close is the contract.
//
// Native calls made through a Library block the calling goroutine and
// cannot be cancelled. Do not race Close against in-flight calls.
package dac
