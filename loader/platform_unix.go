//go:build darwin || freebsd || linux || netbsd

package loader

import "github.com/ebitengine/purego"

type systemPlatform struct{}

func (systemPlatform) Load(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_GLOBAL|purego.RTLD_NOW)
}

func (systemPlatform) Lookup(handle uintptr, name string) (uintptr, bool) {
	addr, err := purego.Dlsym(handle, name)
	if err != nil || addr == 0 {
		return 0, false
	}
	return addr, true
}

func (systemPlatform) Unload(handle uintptr) error {
	return purego.Dlclose(handle)
}
