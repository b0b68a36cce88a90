package zerolog

import (
	"fmt"

	"github.com/pwnedgod/seglock/logger"
	"github.com/rs/zerolog"
)

type zerologLogger struct {
	z zerolog.Logger
}

// NewLogger logs through z. The first argument of every call becomes the
// message and the rest are attached as key/value fields.
func NewLogger(z zerolog.Logger) logger.Logger {
	return &zerologLogger{
		z: z.With().Str("component", "seglock").Logger(),
	}
}

func (l zerologLogger) Info(args ...any) {
	emit(l.z.Info(), args)
}

func (l zerologLogger) Debug(args ...any) {
	emit(l.z.Debug(), args)
}

func (l zerologLogger) Error(args ...any) {
	emit(l.z.Error(), args)
}

func emit(ev *zerolog.Event, args []any) {
	if len(args) == 0 {
		ev.Send()
		return
	}

	fields := args[1:]
	if len(fields)%2 != 0 {
		fields = append(fields[:len(fields):len(fields)], "<missing>")
	}

	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok && key == "error" {
			ev = ev.Err(err)
			continue
		}
		ev = ev.Interface(key, fields[i+1])
	}

	ev.Msg(fmt.Sprint(args[0]))
}
