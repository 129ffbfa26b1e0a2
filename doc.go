// Package daclib manages the lifecycle of a native inspection library: the
// dynamically loaded, platform-specific component that implements diagnostic
// introspection of a managed process.
//
// The library image exports a small native surface: an optional one-time
// platform-abstraction initializer, a factory that produces the primary
// diagnostic interface given a data-target callback table, and COM-style
// interface queries that yield further capability interfaces from the
// primary one. daclib owns that whole boundary - locating and loading the
// image, resolving its exports, invoking them, and tearing everything down
// deterministically.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	daclib/          Root package with the DataReader host abstraction
//	├── dac/         High-level API: Library orchestrator and capabilities
//	├── com/         GUID values and the raw COM-style ABI boundary
//	├── loader/      Platform library loading and refcounted image sharing
//	├── target/      Data-target callback table bridging to DataReader
//	├── errors/      Structured error types for diagnostics
//	└── cmd/dacinfo/ CLI for probing an inspection library's capabilities
//
// # Quick Start
//
// Load an inspection library against a host-supplied reader:
//
//	lib, err := dac.Load(reader, "/usr/share/dotnet/.../libmscordaccore.so")
//	if err != nil {
//	    return err
//	}
//	defer lib.Close()
//
//	sos, err := lib.SOS()
//	if err != nil {
//	    return err
//	}
//	defer sos.Close()
//
// All native calls are synchronous and run on the calling goroutine; there
// is no cancellation across the native boundary.
package daclib
