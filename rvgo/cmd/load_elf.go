package cmd

import (
	"debug/elf"
	"fmt"

	"github.com/ethereum-optimism/optimism/op-service/jsonutil"
	"github.com/urfave/cli/v2"

	"github.com/rv64emu/rv64emu/rvgo/bus"
	"github.com/rv64emu/rv64emu/rvgo/emu"
)

func LoadELF(ctx *cli.Context) error {
	elfPath := ctx.Path(LoadELFPathFlag.Name)
	elfProgram, err := elf.Open(elfPath)
	if err != nil {
		return fmt.Errorf("failed to open ELF file %q: %w", elfPath, err)
	}
	defer elfProgram.Close()
	if elfProgram.Machine != elf.EM_RISCV {
		return fmt.Errorf("ELF is not RISC-V, but got %q", elfProgram.Machine.String())
	}
	b := bus.New(bus.NewMemory(ctx.Uint64(MemorySizeFlag.Name)))
	entry, err := emu.LoadELF(elfProgram, b)
	if err != nil {
		return fmt.Errorf("failed to load ELF data into memory: %w", err)
	}
	cpu := emu.NewCPU(b)
	cpu.PC = entry
	return jsonutil.WriteJSON(ctx.Path(LoadELFOutFlag.Name), cpu.State(), OutFilePerm)
}

var LoadELFCommand = &cli.Command{
	Name:        "load-elf",
	Usage:       "Load ELF file into a JSON state",
	Description: "Load ELF file into a JSON state, with the PC at the entry point, ready for run --input",
	Action:      LoadELF,
	Flags: []cli.Flag{
		LoadELFPathFlag,
		LoadELFOutFlag,
		MemorySizeFlag,
	},
}
