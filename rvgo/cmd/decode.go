package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/rv64emu/rv64emu/rvgo/riscv"
)

// Decode prints the assembler form of each raw instruction word given as a hex argument.
func Decode(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("expected at least one instruction word")
	}
	failed := 0
	for _, arg := range ctx.Args().Slice() {
		word, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(arg), "0x"), 16, 32)
		if err != nil {
			return fmt.Errorf("invalid instruction word %q: %w", arg, err)
		}
		instr, err := riscv.Decode(uint32(word))
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(ctx.App.Writer, "%08x  <%v>\n", word, err)
			continue
		}
		_, _ = fmt.Fprintf(ctx.App.Writer, "%08x  %s\n", word, instr)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d words could not be decoded", failed, ctx.NArg())
	}
	return nil
}

var DecodeCommand = &cli.Command{
	Name:        "decode",
	Usage:       "Decode raw instruction words",
	Description: "Decode raw RV64IM + Zicsr instruction words, given in hex, and print them as assembler.",
	ArgsUsage:   "<hex>...",
	Action:      Decode,
}
