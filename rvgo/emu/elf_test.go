package emu

import (
	"bytes"
	"context"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rv64emu/rv64emu/rvgo/bus"
	"github.com/rv64emu/rv64emu/rvgo/riscv"
)

// buildELF writes a minimal ELF64 executable with a single PT_LOAD segment.
func buildELF(machine elf.Machine, entry, paddr uint64, code []byte, memsz uint64) []byte {
	const ehsize, phentsize = 64, 56
	var buf bytes.Buffer
	le := binary.LittleEndian
	buf.Write([]byte{0x7f, 'E', 'L', 'F', byte(elf.ELFCLASS64), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT)})
	buf.Write(make([]byte, 9))
	_ = binary.Write(&buf, le, uint16(elf.ET_EXEC))
	_ = binary.Write(&buf, le, uint16(machine))
	_ = binary.Write(&buf, le, uint32(elf.EV_CURRENT))
	_ = binary.Write(&buf, le, entry)
	_ = binary.Write(&buf, le, uint64(ehsize)) // phoff
	_ = binary.Write(&buf, le, uint64(0))      // shoff
	_ = binary.Write(&buf, le, uint32(0))      // flags
	_ = binary.Write(&buf, le, []uint16{ehsize, phentsize, 1, 64, 0, 0})

	_ = binary.Write(&buf, le, uint32(elf.PT_LOAD))
	_ = binary.Write(&buf, le, uint32(elf.PF_R|elf.PF_X))
	_ = binary.Write(&buf, le, []uint64{ehsize + phentsize, paddr, paddr, uint64(len(code)), memsz, 0x1000})
	buf.Write(code)
	return buf.Bytes()
}

func TestLoadELF(t *testing.T) {
	entry := riscv.DRAMBase + 0x1000
	data := buildELF(elf.EM_RISCV, entry, entry, fibonacci, uint64(len(fibonacci))+16)
	f, err := elf.NewFile(bytes.NewReader(data))
	require.NoError(t, err)

	b := bus.New(bus.NewMemory(1 << 16))
	bssAddr := entry + uint64(len(fibonacci))
	require.NoError(t, b.Write(bssAddr, 8, ^uint64(0)))

	got, err := LoadELF(f, b)
	require.NoError(t, err)
	require.Equal(t, entry, got)

	v, err := b.Read(bssAddr, 8)
	require.NoError(t, err)
	require.Zero(t, v, "bss is zero-filled")

	c := NewCPU(b)
	c.PC = got
	c.WriteRegister(riscv.RegA0, 10)
	require.NoError(t, c.Run(context.Background(), 1000))
	require.Equal(t, uint64(55), c.ReadRegister(riscv.RegA0))

	syms, err := Symbols(f)
	require.NoError(t, err)
	require.Empty(t, syms)
}

func TestLoadELFErrors(t *testing.T) {
	t.Run("wrong machine", func(t *testing.T) {
		data := buildELF(elf.EM_X86_64, riscv.DRAMBase, riscv.DRAMBase, fibonacci, uint64(len(fibonacci)))
		f, err := elf.NewFile(bytes.NewReader(data))
		require.NoError(t, err)
		_, err = LoadELF(f, bus.New(bus.NewMemory(4096)))
		require.ErrorContains(t, err, "not a 64-bit RISC-V")
	})

	t.Run("segment outside ram", func(t *testing.T) {
		data := buildELF(elf.EM_RISCV, 0x1000, 0x1000, fibonacci, uint64(len(fibonacci)))
		f, err := elf.NewFile(bytes.NewReader(data))
		require.NoError(t, err)
		_, err = LoadELF(f, bus.New(bus.NewMemory(4096)))
		require.ErrorIs(t, err, &riscv.Exception{Kind: riscv.InvalidMemoryAccess})
	})

	t.Run("segment larger than ram", func(t *testing.T) {
		data := buildELF(elf.EM_RISCV, riscv.DRAMBase, riscv.DRAMBase, fibonacci, 8192)
		f, err := elf.NewFile(bytes.NewReader(data))
		require.NoError(t, err)
		_, err = LoadELF(f, bus.New(bus.NewMemory(4096)))
		require.Error(t, err)
	})
}

func TestFindSymbol(t *testing.T) {
	syms := SortedSymbols{
		{Name: "_start", Value: 0x8000_0000, Size: 0x10},
		{Name: "main", Value: 0x8000_0020, Size: 0x40},
	}
	require.Equal(t, "!start", syms.FindSymbol(0x10).Name)
	require.Equal(t, "_start", syms.FindSymbol(0x8000_0004).Name)
	require.Equal(t, "!gap", syms.FindSymbol(0x8000_0018).Name)
	require.Equal(t, "main", syms.FindSymbol(0x8000_0050).Name)
}
