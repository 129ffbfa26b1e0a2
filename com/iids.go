package com

// Well-known interface identifiers of the inspection protocol.
var (
	// IIDIUnknown is the base interface every native pointer implements.
	IIDIUnknown = MustParse("00000000-0000-0000-c000-000000000046")

	// IIDIXCLRDataProcess is the private primary interface the factory
	// entry point produces.
	IIDIXCLRDataProcess = MustParse("5c552ab6-fc09-4cb3-8e36-22fa03c798b8")

	// IIDISOSDacInterface is the secondary capability interface, queried
	// from the primary one.
	IIDISOSDacInterface = MustParse("436f00f2-b42a-4b9f-870c-e73db66ae930")

	// IIDICLRDataTarget identifies the data-target callback table the host
	// hands to the factory.
	IIDICLRDataTarget = MustParse("3e11ccee-d08b-43e5-af01-32717a64da03")
)

// Native status codes. Status 0 is success; the high bit marks failure.
const (
	SOK           uint32 = 0x00000000
	ENotImpl      uint32 = 0x80004001
	ENoInterface  uint32 = 0x80004002
	EFail         uint32 = 0x80004005
	EInvalidArg   uint32 = 0x80070057
	EInsufficient uint32 = 0x8007007a
)

// Succeeded reports whether a native status code indicates success.
func Succeeded(status uint32) bool {
	return status&0x80000000 == 0
}
