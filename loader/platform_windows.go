//go:build windows

package loader

import "golang.org/x/sys/windows"

type systemPlatform struct{}

func (systemPlatform) Load(path string) (uintptr, error) {
	h, err := windows.LoadLibraryEx(path, 0, windows.LOAD_LIBRARY_SEARCH_DEFAULT_DIRS|windows.LOAD_LIBRARY_SEARCH_DLL_LOAD_DIR)
	if err != nil {
		return 0, err
	}
	return uintptr(h), nil
}

func (systemPlatform) Lookup(handle uintptr, name string) (uintptr, bool) {
	addr, err := windows.GetProcAddress(windows.Handle(handle), name)
	if err != nil || addr == 0 {
		return 0, false
	}
	return addr, true
}

func (systemPlatform) Unload(handle uintptr) error {
	return windows.FreeLibrary(windows.Handle(handle))
}
