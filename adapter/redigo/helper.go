package redigo

import (
	"time"

	"github.com/pwnedgod/seglock/adapter/script"
)

const (
	commandSet    = "SET"
	commandGet    = "GET"
	commandExists = "EXISTS"
	commandDel    = "DEL"
)

func formatExpirationArgs(ttl time.Duration) []any {
	if isPX(ttl) {
		return []any{"PX", script.Milliseconds(ttl)}
	}

	return []any{"EX", int64(ttl / time.Second)}
}

func isPX(ttl time.Duration) bool {
	return ttl < time.Second || ttl%time.Second != 0
}
