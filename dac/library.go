package dac

import (
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/runtimediag/daclib"
	"github.com/runtimediag/daclib/com"
	"github.com/runtimediag/daclib/errors"
	"github.com/runtimediag/daclib/loader"
	"github.com/runtimediag/daclib/target"
)

// Exported entry point names of the inspection library.
const (
	initializerExport       = "DAC_PAL_InitializeDLL"
	initializerLegacyExport = "PAL_InitializeDLL"
	initializerMainExport   = "DllMain"
	factoryExport           = "CLRDataCreateInstance"
)

// dllProcessAttach is the one-time initialization signal passed to the
// initializer main entry point.
const dllProcessAttach uint32 = 1

// Library manages one attached inspection library: the primary native
// interface produced by its factory, the secondary capability derived from
// it on demand, the data-target adapter handed to native code, and - when
// loaded from a path - a shared claim on the library image.
//
// A Library is not safe for concurrent method calls without external
// synchronization; Close alone may race with itself.
type Library struct {
	abi     com.ABI
	adapter *target.Adapter
	primary *Interface
	sos     *Interface // resolved once, owned by the Library
	image   *loader.SharedLibrary
	closed  atomic.Bool
}

// FromPointer attaches to an already-obtained primary interface pointer.
// iface may be a uintptr, an unsafe.Pointer, or any wrapper exposing
// RawInterfacePointer. No library image is loaded or owned; the adapter is
// still constructed so Flush works on this path too.
func FromPointer(reader daclib.DataReader, iface any, opts ...Option) (*Library, error) {
	if reader == nil {
		return nil, errors.InvalidArgument("nil data reader")
	}
	ptr, err := com.RawPointer(iface)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	adapter, err := target.NewAdapter(reader)
	if err != nil {
		return nil, err
	}

	l := &Library{abi: o.abi, adapter: adapter}
	l.primary = newInterface(l, ptr)
	runtime.SetFinalizer(l, (*Library).finalize)
	return l, nil
}

// Load maps the inspection library at path and constructs its primary
// interface against reader.
//
// The protocol is ordered: recognize the target, load the image, run the
// optional one-time platform initializer, resolve the factory, then invoke
// it with the data-target handle. The first unmet precondition fails the
// whole construction, and everything acquired up to that point is released
// before the error propagates.
func Load(reader daclib.DataReader, path string, opts ...Option) (*Library, error) {
	if reader == nil {
		return nil, errors.InvalidArgument("nil data reader")
	}
	if reader.RuntimeVersionCount() == 0 {
		return nil, errors.NotRecognized("not a recognized managed process")
	}

	o := buildOptions(opts)
	image, err := o.registry.Acquire(path)
	if err != nil {
		return nil, errors.LoadFailed(path, err)
	}

	// The initializer probe only establishes that platform initialization
	// is required; the call itself goes through the main entry point.
	_, haveInit := image.Lookup(initializerExport)
	if !haveInit {
		_, haveInit = image.Lookup(initializerLegacyExport)
	}
	if haveInit {
		mainAddr, ok := image.Lookup(initializerMainExport)
		if !ok {
			image.Release()
			return nil, errors.MissingExport("failed to obtain main entry point (" + initializerMainExport + ")")
		}
		// Irreversible, once per loaded image. The return value is not
		// consulted; a crash in native code is fatal to the process.
		image.EnsureInit(func() {
			o.abi.CallInit(mainAddr, image.Handle(), dllProcessAttach)
		})
	}

	factoryAddr, ok := image.Lookup(factoryExport)
	if !ok {
		image.Release()
		return nil, errors.MissingExport("failed to obtain factory entry point (" + factoryExport + ")")
	}

	adapter, err := target.NewAdapter(reader)
	if err != nil {
		image.Release()
		return nil, err
	}

	ptr, status := o.abi.CallFactory(factoryAddr, com.IIDIXCLRDataProcess, adapter.Handle())
	if status != com.SOK || ptr == 0 {
		adapter.Close()
		image.Release()
		if status == com.SOK {
			status = com.EFail
		}
		return nil, errors.NativeStatus(errors.PhaseInvoke, "failed to create the primary inspection instance", status)
	}

	l := &Library{abi: o.abi, adapter: adapter, image: image}
	l.primary = newInterface(l, ptr)
	runtime.SetFinalizer(l, (*Library).finalize)

	Logger().Debug("inspection library attached",
		zap.String("path", path),
		zap.Bool("initialized", haveInit))
	return l, nil
}

// Primary returns the handle owning the primary interface pointer. It is
// set at construction and never reassigned; the Library owns it.
func (l *Library) Primary() *Interface {
	return l.primary
}

// Flush invalidates any target state the native side may have cached.
func (l *Library) Flush() {
	l.adapter.Flush()
}

// Close releases everything the Library owns: first the primary interface,
// then the cached secondary one, the data-target adapter, and finally the
// claim on the library image. Repeated or concurrent calls are no-ops.
func (l *Library) Close() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	runtime.SetFinalizer(l, nil)
	l.release()
}

// finalize is the backstop for a Library that was never closed explicitly.
// It only releases native resources; the Go-side state it runs on is still
// fully reachable from the receiver.
func (l *Library) finalize() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	Logger().Warn("inspection library leaked; releasing in finalizer")
	l.release()
}

func (l *Library) release() {
	l.primary.Close()
	if l.sos != nil {
		l.sos.Close()
	}
	if l.adapter != nil {
		l.adapter.Close()
	}
	if l.image != nil {
		l.image.Release()
	}
}
