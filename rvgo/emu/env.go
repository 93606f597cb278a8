package emu

import (
	"fmt"
	"io"

	"github.com/rv64emu/rv64emu/rvgo/riscv"
)

// EnvHandler services an ECALL. The call number and arguments are in the
// guest registers (a7, a0-a2); results are written back to a0.
// A returned error aborts the instruction like any other exception.
type EnvHandler func(c *CPU) error

// DefaultEnvHandler implements the Linux-style calls used by bare-metal test
// programs: exit, exit_group and write to stdout or stderr.
// Every other call number returns -ENOSYS.
func DefaultEnvHandler(c *CPU) error {
	a0 := c.ReadRegister(riscv.RegA0)
	switch num := c.ReadRegister(riscv.RegA7); num {
	case riscv.SysExit, riscv.SysExitGroup:
		c.Exited = true
		c.ExitCode = a0
	case riscv.SysWrite:
		var w io.Writer
		switch a0 {
		case riscv.FdStdout:
			w = c.stdout
		case riscv.FdStderr:
			w = c.stderr
		default:
			c.WriteRegister(riscv.RegA0, errno(riscv.EBADF))
			return nil
		}
		addr, count := c.ReadRegister(riscv.RegA1), c.ReadRegister(riscv.RegA2)
		r, err := c.bus.ReadRange(addr, count)
		if err != nil {
			return err
		}
		n, err := io.Copy(w, r)
		if err != nil {
			return fmt.Errorf("write to fd %d: %w", a0, err)
		}
		c.WriteRegister(riscv.RegA0, uint64(n))
	default:
		c.log.Warn("unsupported environment call", "a7", num, "pc", hexU64(c.PC-riscv.InstrLen))
		c.WriteRegister(riscv.RegA0, errno(riscv.ENOSYS))
	}
	return nil
}

// errno encodes a negated error number the way the kernel ABI returns it in a0.
func errno(code uint64) uint64 {
	return -code
}
