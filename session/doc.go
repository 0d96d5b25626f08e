// Package session manages server-side login sessions.
//
// A session is an opaque random identifier handed to the client and a JSON
// record stored under "session:<sessionId>". Nothing about the user can be
// learned from the identifier itself; revocation is immediate because the
// record is the single source of truth.
//
// Expiration is sliding: every successful Validate or Refresh stamps
// lastAccessed and re-arms the full lifetime. A session therefore survives
// as long as it keeps being used and dies Lifetime after it stops.
//
// The backend TTL is the primary expiry mechanism. The background cleanup
// loop exists for records the TTL cannot reach, mainly entries parked in
// the in-memory fallback while Redis is down.
//
// # What this package must NOT do
//
//   - Issue or verify tokens. Sessions and JWTs are independent credentials;
//     the engine decides how they combine.
//   - Rate limit lookups. Throttling is the caller's concern.
//   - Interpret UserAgent or IPAddress. They are recorded for audit display
//     only and never checked on validation.
package session
