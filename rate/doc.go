// Package rate implements fixed-window rate limiting over the shared
// key-value store.
//
// Each (operation, identifier) pair owns a counter under
// "rate_limit:<operation>:<identifier>". The first request of a window
// arms the window TTL; later requests only increment, so the window ends
// exactly Window after it began. Re-arming the TTL on every hit would let
// a steady trickle of requests extend a window indefinitely.
//
// The limiter fails open. If the counter backend errors in a way that is
// not plain degradation, the request is allowed and the error is reported
// in [Result.Err]: this component protects endpoints from abuse, and it
// must not become the reason logins stop working during an incident.
//
// # What this package must NOT do
//
//   - Decide which operations are limited or with what budgets. Callers
//     pass the operation name and budget; the limiter just counts.
//   - Distinguish failed from successful attempts. Every Check counts;
//     callers that forgive success call Reset.
package rate
