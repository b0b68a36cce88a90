// Package codec turns lease ownership records into the opaque value stored
// under a lock key.
package codec

type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}
