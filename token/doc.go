// Package token mints and verifies the stateless JWT pairs issued after a
// successful one-time-code login: a short-lived access token and a
// long-lived refresh token, identical except for the "type" claim and
// lifetime. Verification errors are sentinel values so HTTP layers can
// tell an expired token (retry with refresh) apart from a forged one.
package token
