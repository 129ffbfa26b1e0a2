package loader

import (
	"sync"

	"go.uber.org/zap"
)

// Registry shares loaded images between independent inspection sessions:
// acquiring a path that is already mapped hands back the live SharedLibrary
// with its count bumped instead of mapping the image twice.
type Registry struct {
	platform Platform
	mu       sync.Mutex
	live     map[string]*SharedLibrary
}

// NewRegistry creates a registry backed by the given platform loader.
func NewRegistry(platform Platform) *Registry {
	return &Registry{
		platform: platform,
		live:     make(map[string]*SharedLibrary),
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry over the system platform.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(System())
	})
	return defaultRegistry
}

// Acquire returns a SharedLibrary for path holding one reference for the
// caller, loading the image if no live one exists.
func (r *Registry) Acquire(path string) (*SharedLibrary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lib, ok := r.live[path]; ok && lib.retainLive() {
		Logger().Debug("library image shared",
			zap.String("path", path),
			zap.Int32("refs", lib.refs.Load()))
		return lib, nil
	}

	handle, err := r.platform.Load(path)
	if err != nil {
		return nil, err
	}
	lib := &SharedLibrary{
		platform: r.platform,
		registry: r,
		path:     path,
		handle:   handle,
	}
	lib.refs.Store(1)
	r.live[path] = lib
	Logger().Debug("library image loaded", zap.String("path", path))
	return lib, nil
}

// retainLive increments the count only while it is still positive. A false
// return means the image is mid-teardown and must not be reused.
func (l *SharedLibrary) retainLive() bool {
	for {
		n := l.refs.Load()
		if n <= 0 {
			return false
		}
		if l.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (r *Registry) evict(lib *SharedLibrary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live[lib.path] == lib {
		delete(r.live, lib.path)
	}
}
