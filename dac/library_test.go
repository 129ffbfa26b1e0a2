package dac

import (
	goerrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/runtimediag/daclib"
	"github.com/runtimediag/daclib/com"
	"github.com/runtimediag/daclib/errors"
	"github.com/runtimediag/daclib/loader"
)

// testReader is a minimal DataReader for orchestration tests.
type testReader struct {
	versions int
	flushes  int
}

func (r *testReader) RuntimeVersionCount() int               { return r.versions }
func (r *testReader) ReadMemory(uint64, []byte) (int, error) { return 0, goerrors.New("no memory") }
func (r *testReader) ReadRegisters(uint32, []byte) error     { return goerrors.New("no registers") }
func (r *testReader) MachineType() uint32                    { return daclib.MachineAMD64 }
func (r *testReader) PointerSize() int                       { return 8 }
func (r *testReader) Flush()                                 { r.flushes++ }

// fakePlatform serves a fixed export table for any loaded path.
type fakePlatform struct {
	mu      sync.Mutex
	exports map[string]uintptr
	next    uintptr
	loads   int
	unloads int
	loadErr error
}

func (p *fakePlatform) Load(path string) (uintptr, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return 0, p.loadErr
	}
	p.loads++
	p.next += 0x10000
	return p.next, nil
}

func (p *fakePlatform) Lookup(handle uintptr, name string) (uintptr, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	addr, ok := p.exports[name]
	return addr, ok
}

func (p *fakePlatform) Unload(handle uintptr) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unloads++
	return nil
}

// fakeABI simulates the native object world: the factory mints a primary
// object, interface queries walk a per-object support table, and every
// pointer carries a reference count the test can audit afterwards.
type fakeObject struct {
	refs     int
	supports map[com.GUID]*fakeObject
	ptr      uintptr
}

const (
	addrInit    uintptr = 0x11
	addrMain    uintptr = 0x12
	addrFactory uintptr = 0x13
)

type initCall struct {
	addr   uintptr
	image  uintptr
	reason uint32
}

type fakeABI struct {
	mu            sync.Mutex
	objects       map[uintptr]*fakeObject
	nextPtr       uintptr
	initCalls     []initCall
	factoryCalls  int
	queryCalls    int
	factoryStatus uint32
	sosSupported  bool
	lastTarget    uintptr
	calls         []string // coarse ordering trace: "init", "factory", "query"
}

func newFakeABI() *fakeABI {
	return &fakeABI{
		objects:      make(map[uintptr]*fakeObject),
		nextPtr:      0x100000,
		sosSupported: true,
	}
}

func (f *fakeABI) newObject() *fakeObject {
	f.nextPtr += 0x100
	o := &fakeObject{
		refs:     1,
		supports: make(map[com.GUID]*fakeObject),
		ptr:      f.nextPtr,
	}
	f.objects[o.ptr] = o
	return o
}

func (f *fakeABI) QueryInterface(ptr uintptr, iid com.GUID) (uintptr, uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	f.calls = append(f.calls, "query")
	o, ok := f.objects[ptr]
	if !ok || o.refs <= 0 {
		return 0, com.EFail
	}
	t, ok := o.supports[iid]
	if !ok {
		return 0, com.ENoInterface
	}
	t.refs++
	return t.ptr, com.SOK
}

func (f *fakeABI) AddRef(ptr uintptr) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.objects[ptr]
	o.refs++
	return uint32(o.refs)
}

func (f *fakeABI) Release(ptr uintptr) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.objects[ptr]
	if o.refs <= 0 {
		panic("release of a dead object")
	}
	o.refs--
	return uint32(o.refs)
}

func (f *fakeABI) CallInit(addr, image uintptr, reason uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls = append(f.initCalls, initCall{addr: addr, image: image, reason: reason})
	f.calls = append(f.calls, "init")
	return 0
}

func (f *fakeABI) CallFactory(addr uintptr, iid com.GUID, dataTarget uintptr) (uintptr, uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.factoryCalls++
	f.calls = append(f.calls, "factory")
	f.lastTarget = dataTarget
	if addr != addrFactory {
		return 0, com.EFail
	}
	if iid != com.IIDIXCLRDataProcess {
		return 0, com.ENoInterface
	}
	if f.factoryStatus != com.SOK {
		return 0, f.factoryStatus
	}
	primary := f.newObject()
	primary.supports[com.IIDIXCLRDataProcess] = primary
	if f.sosSupported {
		sos := f.newObject()
		sos.refs = 0 // minted lazily; only QueryInterface hands out refs
		primary.supports[com.IIDISOSDacInterface] = sos
	}
	return primary.ptr, com.SOK
}

func (f *fakeABI) assertNoLeaks(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for ptr, o := range f.objects {
		if o.refs != 0 {
			t.Errorf("object %#x leaked with %d reference(s)", ptr, o.refs)
		}
	}
}

type fixture struct {
	platform *fakePlatform
	abi      *fakeABI
	registry *loader.Registry
	reader   *testReader
}

func newFixture() *fixture {
	p := &fakePlatform{
		exports: map[string]uintptr{
			initializerExport:     addrInit,
			initializerMainExport: addrMain,
			factoryExport:         addrFactory,
		},
	}
	return &fixture{
		platform: p,
		abi:      newFakeABI(),
		registry: loader.NewRegistry(p),
		reader:   &testReader{versions: 1},
	}
}

func (fx *fixture) load(t *testing.T) *Library {
	t.Helper()
	lib, err := Load(fx.reader, "/lib/dac.so", WithABI(fx.abi), WithRegistry(fx.registry))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return lib
}

func TestLoad_Success(t *testing.T) {
	fx := newFixture()
	lib := fx.load(t)

	if lib.Primary() == nil || lib.Primary().Raw() == 0 {
		t.Fatal("primary handle must be non-null after construction")
	}
	if fx.abi.lastTarget == 0 {
		t.Fatal("factory must receive the data-target handle")
	}

	// Initializer precedes the factory, which precedes any query.
	if len(fx.abi.calls) < 2 || fx.abi.calls[0] != "init" || fx.abi.calls[1] != "factory" {
		t.Fatalf("call order = %v, want init before factory", fx.abi.calls)
	}
	if len(fx.abi.initCalls) != 1 {
		t.Fatalf("init calls = %d, want exactly 1", len(fx.abi.initCalls))
	}
	ic := fx.abi.initCalls[0]
	if ic.addr != addrMain || ic.reason != dllProcessAttach {
		t.Fatalf("init call = %+v, want main entry with attach signal", ic)
	}

	lib.Close()
	fx.abi.assertNoLeaks(t)
	if fx.platform.unloads != 1 {
		t.Fatalf("unloads = %d, want 1", fx.platform.unloads)
	}
}

func TestLoad_LegacyInitializerName(t *testing.T) {
	fx := newFixture()
	delete(fx.platform.exports, initializerExport)
	fx.platform.exports[initializerLegacyExport] = addrInit

	lib := fx.load(t)
	defer lib.Close()

	if len(fx.abi.initCalls) != 1 {
		t.Fatalf("init calls = %d, want 1 via legacy probe", len(fx.abi.initCalls))
	}
}

func TestLoad_NoInitializer(t *testing.T) {
	fx := newFixture()
	delete(fx.platform.exports, initializerExport)

	lib := fx.load(t)
	defer lib.Close()

	if len(fx.abi.initCalls) != 0 {
		t.Fatal("no initializer export must mean no initializer call")
	}
}

func TestLoad_UnrecognizedTarget(t *testing.T) {
	fx := newFixture()
	fx.reader.versions = 0

	_, err := Load(fx.reader, "/lib/dac.so", WithABI(fx.abi), WithRegistry(fx.registry))
	if err == nil {
		t.Fatal("expected failure for a target with no detected runtime")
	}
	if !strings.Contains(err.Error(), "not a recognized managed process") {
		t.Fatalf("error = %v, want recognition message", err)
	}
	if fx.platform.loads != 0 {
		t.Fatal("recognition must fail before any library is loaded")
	}
}

func TestLoad_NilReader(t *testing.T) {
	fx := newFixture()
	_, err := Load(nil, "/lib/dac.so", WithABI(fx.abi), WithRegistry(fx.registry))
	var derr *errors.Error
	if !goerrors.As(err, &derr) || derr.Kind != errors.KindInvalidArgument {
		t.Fatalf("error = %v, want invalid_argument", err)
	}
}

func TestLoad_ImageLoadFailure(t *testing.T) {
	fx := newFixture()
	fx.platform.loadErr = goerrors.New("wrong binary format")

	_, err := Load(fx.reader, "/lib/bad.so", WithABI(fx.abi), WithRegistry(fx.registry))
	var derr *errors.Error
	if !goerrors.As(err, &derr) || derr.Kind != errors.KindLoadFailed {
		t.Fatalf("error = %v, want load_failed", err)
	}
	if !strings.Contains(err.Error(), "wrong binary format") {
		t.Fatalf("error = %v, want wrapped loader message", err)
	}
}

func TestLoad_MissingMainEntry(t *testing.T) {
	fx := newFixture()
	delete(fx.platform.exports, initializerMainExport)

	_, err := Load(fx.reader, "/lib/dac.so", WithABI(fx.abi), WithRegistry(fx.registry))
	if err == nil || !strings.Contains(err.Error(), "failed to obtain main entry point") {
		t.Fatalf("error = %v, want missing main entry", err)
	}
	if fx.platform.unloads != 1 {
		t.Fatal("image must be released before the error surfaces")
	}
	if fx.abi.factoryCalls != 0 {
		t.Fatal("factory must not run after a failed initializer resolve")
	}
}

func TestLoad_MissingFactoryExport(t *testing.T) {
	fx := newFixture()
	delete(fx.platform.exports, factoryExport)

	_, err := Load(fx.reader, "/lib/dac.so", WithABI(fx.abi), WithRegistry(fx.registry))
	if err == nil || !strings.Contains(err.Error(), "failed to obtain factory entry point") {
		t.Fatalf("error = %v, want missing factory export", err)
	}
	if fx.abi.factoryCalls != 0 {
		t.Fatal("no factory call may be attempted without the export")
	}
	if fx.platform.unloads != 1 {
		t.Fatal("image must be released before the error surfaces")
	}
}

func TestLoad_FactoryStatusFailure(t *testing.T) {
	fx := newFixture()
	fx.abi.factoryStatus = 0x80004005

	_, err := Load(fx.reader, "/lib/dac.so", WithABI(fx.abi), WithRegistry(fx.registry))
	if err == nil {
		t.Fatal("expected factory failure")
	}
	if !strings.Contains(err.Error(), "0x80004005") {
		t.Fatalf("error = %v, want the formatted native status", err)
	}
	var derr *errors.Error
	if !goerrors.As(err, &derr) || derr.Status != 0x80004005 {
		t.Fatalf("error = %v, want preserved status code", err)
	}
	if fx.platform.unloads != 1 {
		t.Fatal("image must be released on factory failure")
	}
	fx.abi.assertNoLeaks(t)
}

func TestClose_Idempotent(t *testing.T) {
	fx := newFixture()
	lib := fx.load(t)

	for i := 0; i < 3; i++ {
		lib.Close()
	}
	fx.abi.assertNoLeaks(t)
	if fx.platform.unloads != 1 {
		t.Fatalf("unloads = %d, want exactly 1 after repeated Close", fx.platform.unloads)
	}
}

func TestLoad_SharedImage(t *testing.T) {
	fx := newFixture()
	a := fx.load(t)
	b := fx.load(t)

	if fx.platform.loads != 1 {
		t.Fatalf("loads = %d, want the image mapped once", fx.platform.loads)
	}
	if len(fx.abi.initCalls) != 1 {
		t.Fatalf("init calls = %d, want once per loaded image", len(fx.abi.initCalls))
	}

	a.Close()
	if fx.platform.unloads != 0 {
		t.Fatal("image unmapped while a sibling session is live")
	}
	b.Close()
	if fx.platform.unloads != 1 {
		t.Fatalf("unloads = %d, want exactly 1 after both sessions close", fx.platform.unloads)
	}
	fx.abi.assertNoLeaks(t)
}

func TestSOS_Memoized(t *testing.T) {
	fx := newFixture()
	lib := fx.load(t)

	a, err := lib.SOS()
	if err != nil {
		t.Fatalf("first SOS failed: %v", err)
	}
	queriesAfterFirst := fx.abi.queryCalls

	b, err := lib.SOS()
	if err != nil {
		t.Fatalf("second SOS failed: %v", err)
	}
	if fx.abi.queryCalls != queriesAfterFirst {
		t.Fatal("second SOS must reuse the resolved pointer, not query again")
	}
	if a.Raw() != b.Raw() {
		t.Fatal("both wrappers must share one underlying interface pointer")
	}
	if a == b {
		t.Fatal("each SOS call must hand out its own wrapper")
	}

	a.Close()
	b.Close()
	lib.Close()
	fx.abi.assertNoLeaks(t)
}

func TestSOS_Unsupported(t *testing.T) {
	fx := newFixture()
	fx.abi.sosSupported = false
	lib := fx.load(t)
	defer lib.Close()

	_, err := lib.SOS()
	var derr *errors.Error
	if !goerrors.As(err, &derr) || derr.Kind != errors.KindUnsupported {
		t.Fatalf("error = %v, want unsupported", err)
	}
	if !strings.Contains(err.Error(), "does not support the secondary capability") {
		t.Fatalf("error = %v, want capability message", err)
	}
}

type probeCap struct {
	handle *Interface
}

func newProbeCap(l *Library, ptr uintptr) *probeCap {
	return &probeCap{handle: newInterface(l, ptr)}
}

func TestAcquire_Generic(t *testing.T) {
	fx := newFixture()
	lib := fx.load(t)

	capa, ok, err := Acquire(lib, com.IIDISOSDacInterface, newProbeCap)
	if err != nil || !ok {
		t.Fatalf("Acquire = %v/%v, want supported capability", ok, err)
	}
	if capa.handle.Raw() == 0 {
		t.Fatal("acquired capability must wrap a non-null pointer")
	}

	_, ok, err = Acquire(lib, com.MustParse("99999999-0000-0000-0000-000000000000"), newProbeCap)
	if err != nil {
		t.Fatalf("unsupported capability must not be an error, got %v", err)
	}
	if ok {
		t.Fatal("unsupported capability must come back empty")
	}

	capa.handle.Close()
	lib.Close()
	fx.abi.assertNoLeaks(t)

	_, _, err = Acquire(lib, com.IIDISOSDacInterface, newProbeCap)
	if err == nil {
		t.Fatal("acquire on a closed library must fail")
	}
}

func TestFromPointer(t *testing.T) {
	fx := newFixture()

	// Mint a primary object directly, as a session-detection layer would.
	fx.abi.mu.Lock()
	primary := fx.abi.newObject()
	fx.abi.mu.Unlock()

	lib, err := FromPointer(fx.reader, primary.ptr, WithABI(fx.abi))
	if err != nil {
		t.Fatalf("FromPointer failed: %v", err)
	}
	if lib.Primary().Raw() != primary.ptr {
		t.Fatal("primary handle must wrap the supplied pointer")
	}
	if fx.platform.loads != 0 {
		t.Fatal("attach path must not touch the platform loader")
	}

	lib.Close()
	lib.Close()
	fx.abi.assertNoLeaks(t)
}

func TestFromPointer_InvalidArguments(t *testing.T) {
	fx := newFixture()

	if _, err := FromPointer(nil, uintptr(0x100)); err == nil {
		t.Fatal("nil reader must be rejected")
	}
	if _, err := FromPointer(fx.reader, uintptr(0), WithABI(fx.abi)); err == nil {
		t.Fatal("null pointer must be rejected")
	}
	if _, err := FromPointer(fx.reader, "bogus", WithABI(fx.abi)); err == nil {
		t.Fatal("foreign handle type must be rejected")
	}
}

func TestFlush_Forwards(t *testing.T) {
	fx := newFixture()
	lib := fx.load(t)
	defer lib.Close()

	lib.Flush()
	lib.Flush()
	if fx.reader.flushes != 2 {
		t.Fatalf("flushes = %d, want 2", fx.reader.flushes)
	}
}

func TestClose_Concurrent(t *testing.T) {
	fx := newFixture()
	lib := fx.load(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lib.Close()
		}()
	}
	wg.Wait()

	fx.abi.assertNoLeaks(t)
	if fx.platform.unloads != 1 {
		t.Fatalf("unloads = %d, want exactly 1 under concurrent Close", fx.platform.unloads)
	}
}
