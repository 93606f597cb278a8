package emu

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"

	"github.com/rv64emu/rv64emu/rvgo/bus"
	"github.com/rv64emu/rv64emu/rvgo/csr"
	"github.com/rv64emu/rv64emu/rvgo/riscv"
)

// ErrStepLimit is returned by Run when the step budget is exhausted before the program stops.
var ErrStepLimit = errors.New("step limit reached")

// CPU is a single RV64IM + Zicsr hart running in machine mode.
type CPU struct {
	PC        uint64
	registers [32]uint64

	// Steps counts retired instructions.
	Steps uint64

	// Halted is set by EBREAK.
	Halted bool
	// Exited is set by an exit environment call, with the guest's exit code.
	Exited   bool
	ExitCode uint64

	bus *bus.Bus
	csr *csr.Bank

	env    EnvHandler
	stdout io.Writer
	stderr io.Writer
	log    log.Logger
	trace  bool
}

type Option func(c *CPU)

// WithEnvHandler replaces the handler that services ECALL.
func WithEnvHandler(h EnvHandler) Option {
	return func(c *CPU) { c.env = h }
}

func WithStdout(w io.Writer) Option {
	return func(c *CPU) { c.stdout = w }
}

func WithStderr(w io.Writer) Option {
	return func(c *CPU) { c.stderr = w }
}

func WithLogger(l log.Logger) Option {
	return func(c *CPU) { c.log = l }
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(enabled bool) Option {
	return func(c *CPU) { c.trace = enabled }
}

// NewCPU creates a hart in its reset state: PC at the DRAM base, all registers zero.
func NewCPU(b *bus.Bus, opts ...Option) *CPU {
	c := &CPU{
		PC:     riscv.DRAMBase,
		bus:    b,
		csr:    csr.NewBank(),
		env:    DefaultEnvHandler,
		stdout: io.Discard,
		stderr: io.Discard,
		log:    log.Root(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CPU) Bus() *bus.Bus {
	return c.bus
}

func (c *CPU) CSR() *csr.Bank {
	return c.csr
}

// ReadRegister returns the value of x[r]. x0 always reads 0.
func (c *CPU) ReadRegister(r riscv.Reg) uint64 {
	if r == riscv.RegZero {
		return 0
	}
	return c.registers[r&31]
}

// WriteRegister sets x[r]. Writes to x0 are discarded.
func (c *CPU) WriteRegister(r riscv.Reg, v uint64) {
	if r == riscv.RegZero {
		return
	}
	c.registers[r&31] = v
}

// Registers returns a copy of the register file.
func (c *CPU) Registers() [32]uint64 {
	return c.registers
}

// Stopped reports whether the program has finished, by EBREAK or by an exit call.
func (c *CPU) Stopped() bool {
	return c.Halted || c.Exited
}

// Fetch reads the instruction at PC and advances PC past it.
// PC is left unchanged when the read fails.
func (c *CPU) Fetch() (uint32, error) {
	v, err := c.bus.Read(c.PC, riscv.InstrLen)
	if err != nil {
		return 0, err
	}
	c.PC += riscv.InstrLen
	return uint32(v), nil
}

// Step fetches, decodes and executes one instruction.
func (c *CPU) Step() error {
	if c.Stopped() {
		return nil
	}
	pc := c.PC
	raw, err := c.Fetch()
	if err != nil {
		return fmt.Errorf("fetch at %016x: %w", pc, err)
	}
	instr, err := riscv.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode at %016x: %w", pc, err)
	}
	if c.trace {
		c.log.Debug("exec", "step", c.Steps, "pc", hexU64(pc), "insn", instr)
	}
	if err := c.Execute(instr); err != nil {
		return fmt.Errorf("execute %q at %016x: %w", instr, pc, err)
	}
	c.Steps++
	return nil
}

// Run steps until the program stops, an instruction fails, or maxSteps
// instructions have been executed. A maxSteps of 0 means no limit.
// Cancellation of ctx is checked every 100 steps.
func (c *CPU) Run(ctx context.Context, maxSteps uint64) error {
	start := c.Steps
	for !c.Stopped() {
		if maxSteps != 0 && c.Steps-start >= maxSteps {
			return fmt.Errorf("%w: %d", ErrStepLimit, maxSteps)
		}
		if c.Steps%100 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

type hexU64 uint64

func (v hexU64) String() string {
	return fmt.Sprintf("%016x", uint64(v))
}

func (v hexU64) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
