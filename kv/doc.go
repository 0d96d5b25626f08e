// Package kv is the storage layer shared by OTP codes, sessions, and rate
// limit counters. It wraps a Redis client and a process-local map behind a
// single API with a two-state availability model: Connected serves from
// Redis, Degraded serves from memory. The first remote failure flips the
// state; it flips back once Redis answers again, through the background
// probe or any freshly dialed connection on an owned client.
//
// # Failure semantics
//
//   - Get/Set/Delete/ScanKeys/CompareAndDelete never surface Redis errors.
//     They degrade the store, log the cause, and answer from memory.
//   - IncrWindow is the exception: it is Redis-only and returns
//     ErrNotConnected while degraded, so counter-based callers can keep
//     their own local windows instead of a lossy string round trip.
//   - Values written to Redis are not mirrored locally, so a degradation
//     event makes previously written keys invisible until recovery.
//     Callers must treat that as a miss, not corruption.
//
// # What this package must NOT do
//
//   - Interpret values. Keys and values are opaque strings here; encoding
//     belongs to the otp, session, and rate packages.
//   - Retry or queue writes for later replay. Fallback is best-effort
//     availability, not a write-ahead log.
package kv
