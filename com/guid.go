package com

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// GUID is a 128-bit interface identifier in COM field layout. The native
// side receives it by pointer, so the field layout must match exactly.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// FromString parses a GUID from its canonical textual form
// ("5c552ab6-fc09-4cb3-8e36-22fa03c798b8").
func FromString(s string) (GUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, fmt.Errorf("parse interface identifier %q: %w", s, err)
	}
	var g GUID
	g.Data1 = binary.BigEndian.Uint32(u[0:4])
	g.Data2 = binary.BigEndian.Uint16(u[4:6])
	g.Data3 = binary.BigEndian.Uint16(u[6:8])
	copy(g.Data4[:], u[8:16])
	return g, nil
}

// MustParse is FromString for compile-time-known identifiers; it panics on
// malformed input.
func MustParse(s string) GUID {
	g, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return g
}

func (g GUID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1],
		g.Data4[2], g.Data4[3], g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}
