package riscv

import "fmt"

// ExceptionKind classifies an architectural error.
type ExceptionKind uint8

const (
	UnknownInstruction ExceptionKind = iota + 1
	InvalidMemoryAccess
	InvalidCSRAccess
)

func (k ExceptionKind) String() string {
	switch k {
	case UnknownInstruction:
		return "unknown instruction"
	case InvalidMemoryAccess:
		return "invalid memory access"
	case InvalidCSRAccess:
		return "invalid CSR access"
	default:
		return fmt.Sprintf("exception(%d)", uint8(k))
	}
}

// Exception is the error value shared by the bus, the CSR bank, decode and execute.
// It is returned up the call chain; the caller decides whether to halt or, later, trap.
type Exception struct {
	Kind ExceptionKind
	// Value is the offending raw instruction, address, or CSR number.
	Value uint64
	// Size is the access width for memory exceptions, 0 otherwise.
	Size uint64
}

func NewUnknownInstruction(raw uint32) *Exception {
	return &Exception{Kind: UnknownInstruction, Value: uint64(raw)}
}

func NewInvalidMemoryAccess(addr uint64, size uint64) *Exception {
	return &Exception{Kind: InvalidMemoryAccess, Value: addr, Size: size}
}

func NewInvalidCSRAccess(addr uint16) *Exception {
	return &Exception{Kind: InvalidCSRAccess, Value: uint64(addr)}
}

func (e *Exception) Error() string {
	switch e.Kind {
	case UnknownInstruction:
		return fmt.Sprintf("%s: %08x", e.Kind, e.Value)
	case InvalidMemoryAccess:
		return fmt.Sprintf("%s: addr %016x size %d", e.Kind, e.Value, e.Size)
	case InvalidCSRAccess:
		return fmt.Sprintf("%s: csr %03x", e.Kind, e.Value)
	default:
		return fmt.Sprintf("%s: %x", e.Kind, e.Value)
	}
}

// Code maps the exception to the numeric error code used in exit reports.
func (e *Exception) Code() uint64 {
	switch e.Kind {
	case UnknownInstruction:
		return ErrUnknownOpCode
	case InvalidMemoryAccess:
		return ErrInvalidMemoryAccess
	case InvalidCSRAccess:
		return ErrInvalidCSRAccess
	default:
		return 0
	}
}

// Is matches exceptions of the same kind, so errors.Is(err, &Exception{Kind: k}) works on wrapped errors.
func (e *Exception) Is(target error) bool {
	t, ok := target.(*Exception)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
