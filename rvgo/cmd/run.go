package cmd

import (
	"debug/elf"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum-optimism/optimism/op-service/jsonutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	"github.com/rv64emu/rv64emu/rvgo/bus"
	"github.com/rv64emu/rv64emu/rvgo/emu"
	"github.com/rv64emu/rv64emu/rvgo/riscv"
)

var OutFilePerm = os.FileMode(0o644)

// loadProgram builds the CPU from exactly one of --elf, --bin or --input.
func loadProgram(ctx *cli.Context, opts []emu.Option) (*emu.CPU, emu.SortedSymbols, error) {
	elfPath, binPath, inputPath := ctx.Path(RunELFFlag.Name), ctx.Path(RunBinFlag.Name), ctx.Path(RunInputFlag.Name)
	set := 0
	for _, p := range []string{elfPath, binPath, inputPath} {
		if p != "" {
			set++
		}
	}
	if set != 1 {
		return nil, nil, fmt.Errorf("exactly one of --%s, --%s or --%s is required", RunELFFlag.Name, RunBinFlag.Name, RunInputFlag.Name)
	}

	switch {
	case inputPath != "":
		state, err := jsonutil.LoadJSON[emu.State](inputPath)
		if err != nil {
			return nil, nil, err
		}
		cpu, err := emu.NewCPUFromState(state, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid input state (%v): %w", inputPath, err)
		}
		return cpu, emu.SortedSymbols{}, nil
	case elfPath != "":
		f, err := elf.Open(elfPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open ELF file %q: %w", elfPath, err)
		}
		defer f.Close()
		b := bus.New(bus.NewMemory(ctx.Uint64(MemorySizeFlag.Name)))
		entry, err := emu.LoadELF(f, b)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load ELF data into memory: %w", err)
		}
		syms, err := emu.Symbols(f)
		if err != nil {
			return nil, nil, err
		}
		cpu := emu.NewCPU(b, opts...)
		cpu.PC = entry
		return cpu, syms, nil
	default:
		f, err := os.Open(binPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open binary %q: %w", binPath, err)
		}
		defer f.Close()
		b := bus.New(bus.NewMemory(ctx.Uint64(MemorySizeFlag.Name)))
		addr := ctx.Uint64(RunBinAddrFlag.Name)
		if err := emu.LoadBinary(f, b, addr); err != nil {
			return nil, nil, err
		}
		cpu := emu.NewCPU(b, opts...)
		cpu.PC = addr
		return cpu, emu.SortedSymbols{}, nil
	}
}

func Run(ctx *cli.Context) error {
	if ctx.Bool(RunPProfCPU.Name) {
		defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop()
	}

	lvl, err := ParseLevel(ctx.String(LogLevelFlag.Name))
	if err != nil {
		return err
	}
	l := Logger(os.Stderr, lvl)
	outLog := &GuestWriter{Fd: riscv.FdStdout, Log: l}
	errLog := &GuestWriter{Fd: riscv.FdStderr, Log: l}

	cpu, syms, err := loadProgram(ctx, []emu.Option{
		emu.WithStdout(outLog),
		emu.WithStderr(errLog),
		emu.WithLogger(l),
		emu.WithTrace(ctx.Bool(RunTraceFlag.Name)),
	})
	if err != nil {
		return err
	}

	infoAt := ctx.Generic(RunInfoAtFlag.Name).(*StepMatcherFlag).Matcher()
	snapshotAt := ctx.Generic(RunSnapshotAtFlag.Name).(*StepMatcherFlag).Matcher()
	snapshotFmt := ctx.String(RunSnapshotFmtFlag.Name)
	maxSteps := ctx.Uint64(RunMaxStepsFlag.Name)

	start := time.Now()
	startStep := cpu.Steps
	var runErr error

	for !cpu.Stopped() {
		step := cpu.Steps
		if step%100 == 0 { // don't do the ctx err check (includes lock) too often
			if err := ctx.Context.Err(); err != nil {
				return err
			}
		}

		if infoAt(step) {
			delta := time.Since(start)
			insn, _ := cpu.Bus().Read(cpu.PC, riscv.InstrLen)
			l.Info("processing",
				"step", step,
				"pc", HexU64(cpu.PC),
				"insn", HexU32(insn),
				"ips", float64(step-startStep)/(float64(delta)/float64(time.Second)),
				"pages", cpu.Bus().RAM().PageCount(),
				"mem", cpu.Bus().RAM().Usage(),
				"name", syms.FindSymbol(cpu.PC).Name,
			)
		}

		if maxSteps != 0 && step-startStep >= maxSteps {
			l.Warn("step limit reached", "steps", maxSteps)
			break
		}

		if snapshotAt(step) {
			if err := jsonutil.WriteJSON(fmt.Sprintf(snapshotFmt, step), cpu.State(), OutFilePerm); err != nil {
				return fmt.Errorf("failed to write state snapshot: %w", err)
			}
		}

		if err := cpu.Step(); err != nil {
			runErr = fmt.Errorf("failed at step %d: %w", step, err)
			logException(l, err)
			break
		}
	}

	l.Info("stopped",
		"steps", cpu.Steps-startStep,
		"pc", HexU64(cpu.PC),
		"halted", cpu.Halted,
		"exited", cpu.Exited,
		"exit", cpu.ExitCode,
		"a0", cpu.ReadRegister(riscv.RegA0),
	)

	if err := jsonutil.WriteJSON(ctx.Path(RunOutputFlag.Name), cpu.State(), OutFilePerm); err != nil {
		return fmt.Errorf("failed to write state output: %w", err)
	}
	if runErr != nil {
		return runErr
	}
	if cpu.Exited && cpu.ExitCode != 0 {
		return fmt.Errorf("program exited with code %d", cpu.ExitCode)
	}
	return nil
}

func logException(l log.Logger, err error) {
	var exc *riscv.Exception
	if errors.As(err, &exc) {
		l.Error("exception", "kind", exc.Kind.String(), "value", HexU64(exc.Value), "code", HexU32(exc.Code()))
		return
	}
	l.Error("step failed", "err", err)
}

var RunCommand = &cli.Command{
	Name:        "run",
	Usage:       "Run a RISC-V program",
	Description: "Run a RISC-V program until it halts with EBREAK, exits with an environment call, faults, or reaches --max-steps.",
	Action:      Run,
	Flags: []cli.Flag{
		RunELFFlag,
		RunBinFlag,
		RunBinAddrFlag,
		RunInputFlag,
		RunOutputFlag,
		RunMaxStepsFlag,
		RunInfoAtFlag,
		RunSnapshotAtFlag,
		RunSnapshotFmtFlag,
		RunTraceFlag,
		RunPProfCPU,
		MemorySizeFlag,
		LogLevelFlag,
	},
}
