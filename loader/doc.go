// Package loader owns dynamic library images: loading them through the
// platform's loader, resolving their exports, and unloading them exactly
// once when the last owner lets go.
//
// # Reference Counting
//
// A SharedLibrary carries an atomic reference count. Independent inspection
// sessions that attach to the same image each hold one reference:
//
//	lib, err := loader.Default().Acquire(path) // count 1, or bumped if live
//	defer lib.Release()                        // image unmapped at zero
//
// The Registry deduplicates by path, so two sessions loading the same
// library share one mapping. An image leaves the registry the moment its
// count reaches zero; a concurrent Acquire at that point loads a fresh
// mapping rather than resurrecting the dying one.
//
// # Platform Seam
//
// The Platform interface separates policy from the OS primitives (dlopen/
// dlsym/dlclose on unix, LoadLibraryEx/GetProcAddress/FreeLibrary on
// windows). Tests substitute an in-memory Platform.
package loader
