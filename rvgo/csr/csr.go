package csr

import "github.com/rv64emu/rv64emu/rvgo/riscv"

// Count is the size of the 12-bit CSR address space.
const Count = 4096

// Machine-mode and supervisor CSR addresses used by bootstrap code.
const (
	Sstatus  = 0x100
	Sie      = 0x104
	Stvec    = 0x105
	Sscratch = 0x140
	Sepc     = 0x141
	Scause   = 0x142
	Stval    = 0x143
	Sip      = 0x144
	Satp     = 0x180

	Mstatus  = 0x300
	Misa     = 0x301
	Medeleg  = 0x302
	Mideleg  = 0x303
	Mie      = 0x304
	Mtvec    = 0x305
	Mscratch = 0x340
	Mepc     = 0x341
	Mcause   = 0x342
	Mtval    = 0x343
	Mip      = 0x344
	Pmpcfg0  = 0x3A0
	Pmpaddr0 = 0x3B0

	Mvendorid = 0xF11
	Marchid   = 0xF12
	Mimpid    = 0xF13
	Mhartid   = 0xF14
)

// MXL value for a 64-bit hart, placed in the top two bits of misa.
const mxl64 = uint64(2) << (riscv.XLEN - 2)

// Extensions reported by misa, one letter per bit.
const Extensions = "IMC"

// register overrides the plain storage behaviour of one address.
// A nil write drops the value, which makes the register read-only.
type register struct {
	read  func(stored uint64) uint64
	write func(stored, v uint64) uint64
}

// Bank holds all 4096 CSRs. Most addresses are plain storage; the few with
// special behaviour are listed in one dispatch table built by NewBank.
type Bank struct {
	data    [Count]uint64
	special map[uint16]register
}

func NewBank() *Bank {
	b := &Bank{}
	isa := ISA(Extensions)
	b.special = map[uint16]register{
		// single hart system: always hart 0
		Mhartid: {read: func(uint64) uint64 { return 0 }},
		Misa:    {read: func(uint64) uint64 { return isa }},
		Mstatus: {read: readMstatus, write: writeMstatus},
	}
	b.data[Mstatus] = writeMstatus(0, 0)
	return b
}

// Override replaces the behaviour of one address in the dispatch table.
// A nil read returns the stored value; a nil write makes the register read-only.
func (b *Bank) Override(addr uint16, read func(stored uint64) uint64, write func(stored, v uint64) uint64) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	b.special[addr] = register{read: read, write: write}
	return nil
}

// ISA computes the misa value for a 64-bit hart with the given extension letters.
func ISA(extensions string) uint64 {
	v := mxl64
	for _, c := range extensions {
		if c >= 'A' && c <= 'Z' {
			v |= 1 << (c - 'A')
		}
	}
	return v
}

func checkAddr(addr uint16) error {
	if int(addr) >= Count {
		return riscv.NewInvalidCSRAccess(addr)
	}
	return nil
}

func (b *Bank) Read(addr uint16) (uint64, error) {
	if err := checkAddr(addr); err != nil {
		return 0, err
	}
	if r, ok := b.special[addr]; ok && r.read != nil {
		return r.read(b.data[addr]), nil
	}
	return b.data[addr], nil
}

// Write stores v. Writes to read-only registers are silently dropped.
func (b *Bank) Write(addr uint16, v uint64) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	if r, ok := b.special[addr]; ok {
		if r.write == nil {
			return nil
		}
		v = r.write(b.data[addr], v)
	}
	b.data[addr] = v
	return nil
}

// Entry is one CSR value in a snapshot.
type Entry struct {
	Addr  uint16 `json:"addr"`
	Value uint64 `json:"value"`
}

// Snapshot lists the stored value of every non-zero CSR in address order.
// Virtual registers are not included: their value is derived, not stored.
func (b *Bank) Snapshot() []Entry {
	var out []Entry
	for addr, v := range b.data {
		if v == 0 {
			continue
		}
		if r, ok := b.special[uint16(addr)]; ok && r.write == nil {
			continue
		}
		out = append(out, Entry{Addr: uint16(addr), Value: v})
	}
	return out
}

// Restore replaces the stored values with a snapshot. Addresses not listed become zero.
func (b *Bank) Restore(entries []Entry) error {
	b.data = [Count]uint64{}
	b.data[Mstatus] = writeMstatus(0, 0)
	for _, e := range entries {
		if err := b.Write(e.Addr, e.Value); err != nil {
			return err
		}
	}
	return nil
}
