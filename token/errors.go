package token

import "errors"

var (
	// ErrSecretMissing is returned by NewManager when no signing secret is set.
	ErrSecretMissing = errors.New("token signing secret missing")
	// ErrSecretTooShort is returned by NewManager when the signing secret is
	// shorter than MinSecretLen bytes. Startup must fail; a weak secret is
	// never a runtime condition.
	ErrSecretTooShort = errors.New("token signing secret shorter than 32 bytes")

	// ErrTokenExpired is returned when exp is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenNotYetValid is returned when iat is in the future.
	ErrTokenNotYetValid = errors.New("token not yet valid")
	// ErrSignatureInvalid is returned when the HMAC does not verify.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenMalformed is returned for anything that does not parse as a JWT.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrMissingClaims is returned when userId, email, type, or exp is absent.
	ErrMissingClaims = errors.New("token missing required claims")
	// ErrWrongTokenType is returned when a refresh token is presented where
	// an access token is required, or the other way around.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrMalformedHeader is returned by BearerToken for any Authorization
	// header that is not exactly "Bearer <token>".
	ErrMalformedHeader = errors.New("malformed authorization header")
)
