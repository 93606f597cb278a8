package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
)

func Logger(w io.Writer, lvl slog.Level) log.Logger {
	return log.NewLogger(log.LogfmtHandlerWithLevel(w, lvl))
}

// GuestWriter is the io.Writer behind a guest file descriptor. Each write
// syscall becomes one log record tagged with the fd: printable output as
// text, anything else as hex.
type GuestWriter struct {
	Fd  uint64
	Log log.Logger
}

func printable(b []byte) bool {
	for _, c := range b {
		if (c < 0x20 || c >= 0x7F) && c != '\n' && c != '\t' {
			return false
		}
	}
	return true
}

func (gw *GuestWriter) Write(b []byte) (int, error) {
	if printable(b) {
		gw.Log.Info("guest write", "fd", gw.Fd, "text", strings.TrimSuffix(string(b), "\n"))
	} else {
		gw.Log.Info("guest write", "fd", gw.Fd, "data", hexutil.Bytes(b))
	}
	return len(b), nil
}

// HexU32 to lazy-format integer attributes for logging
type HexU32 uint32

func (v HexU32) String() string {
	return fmt.Sprintf("%08x", uint32(v))
}

func (v HexU32) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// HexU64 formats a 64-bit address for logging.
type HexU64 uint64

func (v HexU64) String() string {
	return fmt.Sprintf("%016x", uint64(v))
}

func (v HexU64) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
