package std

import (
	"fmt"
	"io"
	"os"

	"github.com/pwnedgod/seglock/logger"
)

type stdLogger struct {
	out io.Writer
	err io.Writer
}

func NewLogger() logger.Logger {
	return NewLoggerWithWriters(os.Stdout, os.Stderr)
}

// NewLoggerWithWriters writes Info and Debug lines to out and Error lines to err.
func NewLoggerWithWriters(out io.Writer, err io.Writer) logger.Logger {
	return &stdLogger{
		out: out,
		err: err,
	}
}

func (l stdLogger) Info(args ...any) {
	fmt.Fprintln(l.out, args...)
}

func (l stdLogger) Debug(args ...any) {
	fmt.Fprintln(l.out, args...)
}

func (l stdLogger) Error(args ...any) {
	fmt.Fprintln(l.err, args...)
}
