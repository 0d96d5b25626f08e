package kv

import "errors"

var (
	// ErrNotFound is returned when a key is absent or its TTL has elapsed.
	ErrNotFound = errors.New("key not found")
	// ErrNotConnected is returned by remote-only operations while the store
	// is degraded, and by Ping when no Redis backend is configured.
	ErrNotConnected = errors.New("redis not connected")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store closed")
	// ErrInvalidTTL is returned when a write is given a non-positive TTL.
	ErrInvalidTTL = errors.New("ttl must be positive")
)
