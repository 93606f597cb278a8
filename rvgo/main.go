package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/rv64emu/rv64emu/rvgo/cmd"
)

func main() {
	app := cli.NewApp()
	app.Name = "rv64emu"
	app.Usage = "RV64IM + Zicsr emulator"
	app.Description = "Run, snapshot and inspect 64-bit RISC-V programs"
	app.Commands = []*cli.Command{
		cmd.RunCommand,
		cmd.LoadELFCommand,
		cmd.WitnessCommand,
		cmd.DecodeCommand,
	}
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			<-c
			cancel()
			fmt.Println("\r\nExiting...")
		}
	}()

	err := app.RunContext(ctx, os.Args)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			_, _ = fmt.Fprintf(os.Stderr, "command interrupted\n")
			os.Exit(130)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}
