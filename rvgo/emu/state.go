package emu

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rv64emu/rv64emu/rvgo/bus"
	"github.com/rv64emu/rv64emu/rvgo/csr"
)

// State is a serializable snapshot of a CPU and its RAM.
type State struct {
	PC        uint64     `json:"pc"`
	Registers [32]uint64 `json:"registers"`

	Step uint64 `json:"step"`

	Halted   bool   `json:"halted"`
	Exited   bool   `json:"exited"`
	ExitCode uint64 `json:"exit"`

	CSRs []csr.Entry `json:"csrs"`

	Memory *bus.Memory `json:"memory"`
}

// State captures the CPU. The memory is shared, not copied: the snapshot
// reflects later writes until it is serialized.
func (c *CPU) State() *State {
	return &State{
		PC:        c.PC,
		Registers: c.registers,
		Step:      c.Steps,
		Halted:    c.Halted,
		Exited:    c.Exited,
		ExitCode:  c.ExitCode,
		CSRs:      c.csr.Snapshot(),
		Memory:    c.bus.RAM(),
	}
}

// NewCPUFromState recreates a CPU from a snapshot, with its RAM mapped at the DRAM base.
func NewCPUFromState(s *State, opts ...Option) (*CPU, error) {
	if s.Memory == nil {
		return nil, errors.New("state has no memory")
	}
	c := NewCPU(bus.New(s.Memory), opts...)
	c.PC = s.PC
	c.registers = s.Registers
	c.registers[0] = 0
	c.Steps = s.Step
	c.Halted = s.Halted
	c.Exited = s.Exited
	c.ExitCode = s.ExitCode
	if err := c.csr.Restore(s.CSRs); err != nil {
		return nil, fmt.Errorf("failed to restore CSRs: %w", err)
	}
	return c, nil
}

// Status summarises how far a program got, in the first byte of the state hash.
type Status uint8

const (
	StatusValid Status = iota
	StatusInvalid
	StatusPanic
	StatusUnfinished
	StatusHalted
)

func (s *State) Status() Status {
	switch {
	case s.Exited:
		switch s.ExitCode {
		case 0:
			return StatusValid
		case 1:
			return StatusInvalid
		default:
			return StatusPanic
		}
	case s.Halted:
		return StatusHalted
	default:
		return StatusUnfinished
	}
}

// StateWitnessSize is the length of an encoded witness:
// memory hash, pc, step, halted, exited, exit code, 32 registers, CSR hash.
const StateWitnessSize = 32 + 8 + 8 + 1 + 1 + 8 + 32*8 + 32

type StateWitness []byte

// EncodeWitness produces the fixed-layout binary form of the state.
// Two states encode identically iff they are architecturally equal.
func (s *State) EncodeWitness() StateWitness {
	out := make([]byte, 0, StateWitnessSize)
	memRoot := s.MemoryHash()
	out = append(out, memRoot[:]...)
	out = binary.BigEndian.AppendUint64(out, s.PC)
	out = binary.BigEndian.AppendUint64(out, s.Step)
	out = append(out, boolByte(s.Halted), boolByte(s.Exited))
	out = binary.BigEndian.AppendUint64(out, s.ExitCode)
	for _, r := range s.Registers {
		out = binary.BigEndian.AppendUint64(out, r)
	}
	csrRoot := csrHash(s.CSRs)
	out = append(out, csrRoot[:]...)
	return out
}

// MemoryHash is the keccak256 of the memory size followed by every non-zero
// page as (index, data).
func (s *State) MemoryHash() common.Hash {
	if s.Memory == nil {
		return common.Hash{}
	}
	h := crypto.NewKeccakState()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], s.Memory.Size())
	h.Write(buf[:])
	_ = s.Memory.ForEachPage(func(pageIndex uint64, data []byte) error {
		binary.BigEndian.PutUint64(buf[:], pageIndex)
		h.Write(buf[:])
		h.Write(data)
		return nil
	})
	var out common.Hash
	_, _ = h.Read(out[:])
	return out
}

func csrHash(entries []csr.Entry) common.Hash {
	data := make([]byte, 0, len(entries)*10)
	for _, e := range entries {
		data = binary.BigEndian.AppendUint16(data, e.Addr)
		data = binary.BigEndian.AppendUint64(data, e.Value)
	}
	return crypto.Keccak256Hash(data)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// StateHash hashes the witness, replacing the first byte with the status
// so the outcome can be read from the hash alone.
func (sw StateWitness) StateHash() (common.Hash, error) {
	if len(sw) != StateWitnessSize {
		return common.Hash{}, fmt.Errorf("invalid witness length. Got %d, expected %d", len(sw), StateWitnessSize)
	}
	offset := 32 + 8 + 8
	halted, exited := sw[offset] == 1, sw[offset+1] == 1
	exitCode := binary.BigEndian.Uint64(sw[offset+2:])
	st := State{Halted: halted, Exited: exited, ExitCode: exitCode}

	hash := crypto.Keccak256Hash(sw)
	hash[0] = byte(st.Status())
	return hash, nil
}
