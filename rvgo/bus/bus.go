package bus

import (
	"fmt"
	"io"
	"sort"

	"github.com/rv64emu/rv64emu/rvgo/riscv"
)

// Device is anything addressable through the bus. Offsets are device-local;
// size is one of 1, 2, 4 or 8 bytes.
type Device interface {
	Read(offset uint64, size uint64) (uint64, error)
	Write(offset uint64, size uint64, value uint64) error
}

// Mapping places a device in the physical address space at [Base, Base+Size).
type Mapping struct {
	Name   string
	Base   uint64
	Size   uint64
	Device Device
}

func (m *Mapping) contains(addr uint64, size uint64) bool {
	return addr >= m.Base && addr-m.Base < m.Size && size <= m.Size-(addr-m.Base)
}

// Bus routes physical addresses to devices. All device dispatch happens here,
// so the CPU never needs to know which device backs an address.
type Bus struct {
	// sorted by Base, non-overlapping
	mappings []*Mapping
	ram      *Memory
}

// New creates a bus with ram mapped at the DRAM base.
func New(ram *Memory) *Bus {
	b := &Bus{ram: ram}
	if err := b.Map("ram", riscv.DRAMBase, ram.Size(), ram); err != nil {
		panic(fmt.Errorf("failed to map RAM: %w", err))
	}
	return b
}

// Map registers a device window. Windows may not overlap.
func (b *Bus) Map(name string, base uint64, size uint64, dev Device) error {
	if size == 0 {
		return fmt.Errorf("device %q has empty window", name)
	}
	if base+size-1 < base {
		return fmt.Errorf("device %q window %x+%x wraps the address space", name, base, size)
	}
	for _, m := range b.mappings {
		if base <= m.Base+m.Size-1 && m.Base <= base+size-1 {
			return fmt.Errorf("device %q window %x+%x overlaps %q at %x+%x", name, base, size, m.Name, m.Base, m.Size)
		}
	}
	b.mappings = append(b.mappings, &Mapping{Name: name, Base: base, Size: size, Device: dev})
	sort.Slice(b.mappings, func(i, j int) bool {
		return b.mappings[i].Base < b.mappings[j].Base
	})
	return nil
}

// Mappings lists the registered windows in address order.
func (b *Bus) Mappings() []Mapping {
	out := make([]Mapping, len(b.mappings))
	for i, m := range b.mappings {
		out[i] = *m
	}
	return out
}

// RAM returns the memory mapped at the DRAM base.
func (b *Bus) RAM() *Memory {
	return b.ram
}

func (b *Bus) lookup(addr uint64, size uint64) (*Mapping, error) {
	// first window starting beyond addr; the candidate is the one before it
	i := sort.Search(len(b.mappings), func(i int) bool {
		return b.mappings[i].Base > addr
	})
	if i == 0 {
		return nil, riscv.NewInvalidMemoryAccess(addr, size)
	}
	m := b.mappings[i-1]
	if !m.contains(addr, size) {
		return nil, riscv.NewInvalidMemoryAccess(addr, size)
	}
	return m, nil
}

func (b *Bus) Read(addr uint64, size uint64) (uint64, error) {
	m, err := b.lookup(addr, size)
	if err != nil {
		return 0, err
	}
	v, err := m.Device.Read(addr-m.Base, size)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", riscv.NewInvalidMemoryAccess(addr, size), m.Name, err)
	}
	return v, nil
}

func (b *Bus) Write(addr uint64, size uint64, value uint64) error {
	m, err := b.lookup(addr, size)
	if err != nil {
		return err
	}
	if err := m.Device.Write(addr-m.Base, size, value); err != nil {
		return fmt.Errorf("%w: %s: %v", riscv.NewInvalidMemoryAccess(addr, size), m.Name, err)
	}
	return nil
}

// Load streams a program image into RAM at the physical address addr.
func (b *Bus) Load(addr uint64, r io.Reader) error {
	if addr < riscv.DRAMBase || addr-riscv.DRAMBase > b.ram.Size() {
		return riscv.NewInvalidMemoryAccess(addr, 0)
	}
	return b.ram.SetRange(addr-riscv.DRAMBase, r)
}

// ReadRange streams count bytes of RAM starting at the physical address addr.
func (b *Bus) ReadRange(addr uint64, count uint64) (io.Reader, error) {
	if addr < riscv.DRAMBase || addr-riscv.DRAMBase > b.ram.Size() || count > b.ram.Size()-(addr-riscv.DRAMBase) {
		return nil, riscv.NewInvalidMemoryAccess(addr, count)
	}
	return b.ram.ReadRange(addr-riscv.DRAMBase, count), nil
}
