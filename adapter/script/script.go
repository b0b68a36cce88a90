// Package script holds the server-side Lua used by the Redis backends for the
// ownership-checked primitives.
package script

import "time"

const (
	// KEYS[1] = lease key, ARGV[1] = expected token.
	CompareAndDelete = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

	// KEYS[1] = lease key, ARGV[1] = expected token, ARGV[2] = ttl in milliseconds.
	CompareAndExtend = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end
`

	// KEYS[1] = lease key.
	Exists = `return redis.call("EXISTS", KEYS[1])`

	// KEYS[1] = lease key.
	Delete = `return redis.call("DEL", KEYS[1])`
)

// Milliseconds converts ttl to whole milliseconds for PX/PEXPIRE, never less than 1.
func Milliseconds(ttl time.Duration) int64 {
	ms := int64(ttl / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	return ms
}
