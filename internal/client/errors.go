package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotPermitted = errors.New("not permitted")
	ErrNotFound     = errors.New("not found")
)
