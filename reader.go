package daclib

// Machine types reported by a DataReader, matching the PE machine encoding
// the native inspection library expects.
const (
	MachineI386  uint32 = 0x014c
	MachineARMNT uint32 = 0x01c4
	MachineAMD64 uint32 = 0x8664
	MachineARM64 uint32 = 0xaa64
)

// DataReader is the host-side view of a target process. It supplies the
// bytes and register state the native inspection library asks for through
// the data-target callback table.
//
// Implementations are expected to be usable from the thread that drives
// the inspection session; no internal synchronization is assumed.
type DataReader interface {
	// RuntimeVersionCount reports how many managed runtime versions were
	// detected in the target. Zero means the target is not a managed
	// process and no inspection library can be attached to it.
	RuntimeVersionCount() int

	// ReadMemory reads target memory at the given virtual address into buf.
	// It returns the number of bytes actually read, which may be short at
	// region boundaries. A read of zero bytes is an error.
	ReadMemory(addr uint64, buf []byte) (int, error)

	// ReadRegisters fills context with the platform register context of the
	// given thread, in the layout the native side expects for this machine.
	ReadRegisters(threadID uint32, context []byte) error

	// MachineType returns the PE machine encoding of the target.
	MachineType() uint32

	// PointerSize returns the target's pointer width in bytes (4 or 8).
	PointerSize() int

	// Flush drops any cached view of target state. Called when the target
	// may have run since the last read.
	Flush()
}
