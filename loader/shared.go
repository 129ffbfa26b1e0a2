package loader

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// SharedLibrary is reference-counted ownership of one loaded library image.
// Every consumer that needs the image mapped holds one reference; the image
// is unloaded exactly once, when the count reaches zero. The handle must
// not be used after that point.
type SharedLibrary struct {
	platform Platform
	registry *Registry
	path     string
	handle   uintptr
	refs     atomic.Int32
	init     sync.Once
}

// EnsureInit runs f at most once for this loaded image, no matter how many
// sessions share it. Meant for irreversible one-time image initialization.
func (l *SharedLibrary) EnsureInit(f func()) {
	l.init.Do(f)
}

// Retain takes an additional reference on the image.
func (l *SharedLibrary) Retain() {
	l.refs.Add(1)
}

// Release drops one reference, unloading the image when the last one goes.
// The unload error, if any, is logged rather than returned: by the time the
// last owner lets go there is nobody left to act on it.
func (l *SharedLibrary) Release() {
	n := l.refs.Add(-1)
	if n > 0 {
		return
	}
	if l.registry != nil {
		l.registry.evict(l)
	}
	if err := l.platform.Unload(l.handle); err != nil {
		Logger().Warn("unload library image",
			zap.String("path", l.path),
			zap.Error(err))
	}
	Logger().Debug("library image unloaded", zap.String("path", l.path))
}

// Lookup resolves an exported symbol in the image. ok is false when the
// export is absent.
func (l *SharedLibrary) Lookup(name string) (uintptr, bool) {
	return l.platform.Lookup(l.handle, name)
}

// Handle returns the raw image handle for passing to native entry points.
func (l *SharedLibrary) Handle() uintptr {
	return l.handle
}

// Path returns the path the image was loaded from.
func (l *SharedLibrary) Path() string {
	return l.path
}
