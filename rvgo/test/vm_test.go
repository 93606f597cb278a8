package test

import (
	"context"
	"debug/elf"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rv64emu/rv64emu/rvgo/bus"
	"github.com/rv64emu/rv64emu/rvgo/emu"
)

// riscv-tests binaries, as installed by `make install` of the riscv-tests repo.
var isaDir = filepath.FromSlash("../../tests/riscv-tests/isa")

// suiteBinaries lists the ELF binaries of one riscv-tests suite, such as
// rv64ui-p. Objdump listings next to them are skipped.
func suiteBinaries(t *testing.T, suite string) []string {
	paths, err := filepath.Glob(filepath.Join(isaDir, suite+"-*"))
	require.NoError(t, err)
	var out []string
	for _, p := range paths {
		if !strings.HasSuffix(p, ".dump") {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		t.Skipf("no %s binaries in %s", suite, isaDir)
	}
	return out
}

// runISATest runs one binary of the p (physical memory, machine mode) environment.
// The test reports through the exit call: 0 on success, testnum<<1 | 1 on failure.
func runISATest(t *testing.T, path string) {
	f, err := elf.Open(path)
	require.NoError(t, err)
	defer f.Close()

	b := bus.New(bus.NewMemory(bus.DefaultMemorySize))
	entry, err := emu.LoadELF(f, b)
	require.NoError(t, err, "must load test ELF binary")

	cpu := emu.NewCPU(b)
	cpu.PC = entry

	err = cpu.Run(context.Background(), 100_000)
	require.NoErrorf(t, err, "VM err at step %d, PC %016x", cpu.Steps, cpu.PC)
	require.True(t, cpu.Exited, "expected exit call, halted=%v", cpu.Halted)
	if cpu.ExitCode != 0 {
		t.Fatalf("failed at test case %d", cpu.ExitCode>>1)
	}
}

func TestISA(t *testing.T) {
	for _, suite := range []string{"rv64ui-p", "rv64um-p"} {
		t.Run(suite, func(t *testing.T) {
			for _, path := range suiteBinaries(t, suite) {
				path := path
				t.Run(filepath.Base(path), func(t *testing.T) {
					runISATest(t, path)
				})
			}
		})
	}
}
