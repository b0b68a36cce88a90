package adapter

import "errors"

var (
	ErrNotFound  = errors.New("seglock: not found")
	ErrNilClient = errors.New("seglock: nil store client")
)
