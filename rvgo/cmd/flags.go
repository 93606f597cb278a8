package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/rv64emu/rv64emu/rvgo/bus"
	"github.com/rv64emu/rv64emu/rvgo/riscv"
)

var (
	RunELFFlag = &cli.PathFlag{
		Name:      "elf",
		Usage:     "path of a 64-bit RISC-V ELF executable to run",
		TakesFile: true,
	}
	RunBinFlag = &cli.PathFlag{
		Name:      "bin",
		Usage:     "path of a raw binary image to run, loaded at --bin.addr",
		TakesFile: true,
	}
	RunBinAddrFlag = &cli.Uint64Flag{
		Name:  "bin.addr",
		Usage: "physical address to load --bin at, and to start executing from",
		Value: riscv.DRAMBase,
	}
	RunInputFlag = &cli.PathFlag{
		Name:      "input",
		Usage:     "path of a JSON state to resume, as written by load-elf or --output",
		TakesFile: true,
	}
	RunOutputFlag = &cli.PathFlag{
		Name:      "output",
		Usage:     "path of the JSON state to write when the run ends. Empty to skip, '-' for stdout",
		TakesFile: true,
	}
	RunMaxStepsFlag = &cli.Uint64Flag{
		Name:  "max-steps",
		Usage: "stop after this many instructions, 0 for no limit",
	}
	RunInfoAtFlag = &cli.GenericFlag{
		Name:  "info-at",
		Usage: "step pattern to log progress at: never, always, =123 at exactly step 123, %123 for every 123 steps",
		Value: MustStepMatcherFlag("never"),
	}
	RunSnapshotAtFlag = &cli.GenericFlag{
		Name:  "snapshot-at",
		Usage: "step pattern to write a state snapshot at, same syntax as --info-at",
		Value: MustStepMatcherFlag("never"),
	}
	RunSnapshotFmtFlag = &cli.StringFlag{
		Name:  "snapshot-fmt",
		Usage: "format for snapshot output file names, formatted with the step number",
		Value: "state-%d.json.gz",
	}
	RunTraceFlag = &cli.BoolFlag{
		Name:  "trace",
		Usage: "log every executed instruction at debug level",
	}
	RunPProfCPU = &cli.BoolFlag{
		Name:  "pprof.cpu",
		Usage: "enable pprof cpu profiling",
	}
	MemorySizeFlag = &cli.Uint64Flag{
		Name:  "memory-size",
		Usage: "RAM capacity in bytes, mapped at the DRAM base",
		Value: bus.DefaultMemorySize,
	}
	LogLevelFlag = &cli.StringFlag{
		Name:  "log.level",
		Usage: "log level: trace, debug, info, warn, error or crit",
		Value: "info",
	}

	LoadELFPathFlag = &cli.PathFlag{
		Name:      "path",
		Usage:     "path of the ELF file to load",
		TakesFile: true,
		Required:  true,
	}
	LoadELFOutFlag = &cli.PathFlag{
		Name:      "out",
		Usage:     "output path of the JSON state. Stdout if left empty.",
		TakesFile: true,
		Value:     "-",
	}

	WitnessInputFlag = &cli.PathFlag{
		Name:      "input",
		Usage:     "path of the input JSON state",
		TakesFile: true,
		Required:  true,
	}
	WitnessOutputFlag = &cli.PathFlag{
		Name:      "output",
		Usage:     "path to write the witness to. Not written when empty",
		TakesFile: true,
	}
)

// ParseLevel parses a log level name. The geth levels trace and crit are
// accepted in addition to the slog names.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace, nil
	case "crit":
		return log.LevelCrit, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}
