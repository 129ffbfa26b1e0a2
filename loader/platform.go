package loader

// Platform abstracts the OS primitives for dynamic library images. A load
// failure (missing file, wrong binary format) is an error; a symbol that
// simply is not exported is ok=false, not an error - the two must never be
// conflated.
type Platform interface {
	Load(path string) (uintptr, error)
	Lookup(handle uintptr, name string) (uintptr, bool)
	Unload(handle uintptr) error
}

// System returns the Platform for the running OS.
func System() Platform {
	return systemPlatform{}
}
