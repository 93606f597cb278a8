package emu

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/rv64emu/rv64emu/rvgo/bus"
)

// LoadELF copies the loadable segments of f into memory through the bus and
// returns the entry point. Segments are placed at their physical address.
func LoadELF(f *elf.File, b *bus.Bus) (uint64, error) {
	if f.Class != elf.ELFCLASS64 || f.Machine != elf.EM_RISCV {
		return 0, fmt.Errorf("not a 64-bit RISC-V executable: class %s, machine %s", f.Class, f.Machine)
	}
	for i, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Memsz == 0 {
			// e.g. the .riscv.attributes segment, which has 0 mem size because it is not loaded
			continue
		}
		if prog.Filesz > prog.Memsz {
			return 0, fmt.Errorf("invalid PT_LOAD program segment %d, file size (%d) > mem size (%d)", i, prog.Filesz, prog.Memsz)
		}
		r := io.Reader(io.NewSectionReader(prog, 0, int64(prog.Filesz)))
		if prog.Filesz < prog.Memsz {
			// .bss
			r = io.MultiReader(r, bytes.NewReader(make([]byte, prog.Memsz-prog.Filesz)))
		}
		if err := b.Load(prog.Paddr, r); err != nil {
			return 0, fmt.Errorf("failed to load program segment %d at %x: %w", i, prog.Paddr, err)
		}
	}
	return f.Entry, nil
}

// LoadBinary copies a raw image to addr.
func LoadBinary(r io.Reader, b *bus.Bus, addr uint64) error {
	if err := b.Load(addr, r); err != nil {
		return fmt.Errorf("failed to load binary at %x: %w", addr, err)
	}
	return nil
}

type SortedSymbols []elf.Symbol

// FindSymbol finds the symbol covering addr. Addresses before the first symbol
// or between symbols get a placeholder named "!start" or "!gap".
func (s SortedSymbols) FindSymbol(addr uint64) elf.Symbol {
	i := sort.Search(len(s), func(i int) bool {
		return s[i].Value > addr
	})
	if i == 0 {
		return elf.Symbol{Name: "!start", Value: 0}
	}
	out := &s[i-1]
	if out.Value+out.Size < addr { // addr may be pointing to a gap between symbols
		return elf.Symbol{Name: "!gap", Value: addr}
	}
	return *out
}

// Symbols returns the symbol table of f ordered by address.
// An ELF without a symbol table yields an empty set.
func Symbols(f *elf.File) (SortedSymbols, error) {
	symbols, err := f.Symbols()
	if err != nil {
		if errors.Is(err, elf.ErrNoSymbols) {
			return SortedSymbols{}, nil
		}
		return nil, fmt.Errorf("failed to read symbols data: %w", err)
	}
	out := make(SortedSymbols, 0, len(symbols))
	for _, s := range symbols {
		if elf.ST_TYPE(s.Info) == elf.STT_SECTION || elf.ST_TYPE(s.Info) == elf.STT_FILE {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Value < out[j].Value
	})
	return out, nil
}
