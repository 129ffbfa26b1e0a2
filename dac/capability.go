package dac

import (
	"github.com/runtimediag/daclib/com"
	"github.com/runtimediag/daclib/errors"
)

// Acquire queries the library's primary interface for the capability named
// by iid and, when present, hands the returned pointer to construct. The
// constructor shape is fixed: (owning library, raw pointer), adopting the
// query's reference. An absent capability is not an error - the zero value
// and ok=false come back instead.
func Acquire[T any](l *Library, iid com.GUID, construct func(*Library, uintptr) T) (T, bool, error) {
	var zero T
	if l.closed.Load() {
		return zero, false, errors.InvalidArgument("library is closed")
	}
	ptr, ok := l.primary.Query(iid)
	if !ok {
		return zero, false, nil
	}
	return construct(l, ptr), true, nil
}

// SOSDac is the wrapper around the secondary capability interface
// (ISOSDacInterface). Its diagnostic method surface lives with the
// capability consumers; here it only carries ownership.
type SOSDac struct {
	handle *Interface
}

// NewSOSDac wraps an ISOSDacInterface pointer, adopting its reference.
func NewSOSDac(l *Library, ptr uintptr) *SOSDac {
	return &SOSDac{handle: newInterface(l, ptr)}
}

// Raw returns the underlying native interface pointer.
func (s *SOSDac) Raw() uintptr {
	return s.handle.Raw()
}

// RawInterfacePointer implements com.RawPointerer.
func (s *SOSDac) RawInterfacePointer() uintptr {
	return s.handle.Raw()
}

// Close releases the wrapper's reference. Safe to call more than once.
func (s *SOSDac) Close() {
	s.handle.Close()
}

// SOS returns a wrapper around the secondary capability interface. The
// interface pointer is resolved from the primary interface once and cached
// for the Library's remaining lifetime; every returned wrapper takes its
// own reference on that shared pointer and is the caller's to Close.
//
// A runtime without the capability fails with an unsupported error; there
// is no alternative identifier to retry with.
func (l *Library) SOS() (*SOSDac, error) {
	if l.closed.Load() {
		return nil, errors.InvalidArgument("library is closed")
	}
	if l.sos == nil {
		ptr, ok := l.primary.Query(com.IIDISOSDacInterface)
		if !ok {
			return nil, errors.Unsupported("this runtime does not support the secondary capability (ISOSDacInterface)")
		}
		l.sos = newInterface(l, ptr)
	}
	l.abi.AddRef(l.sos.Raw())
	return NewSOSDac(l, l.sos.Raw()), nil
}
