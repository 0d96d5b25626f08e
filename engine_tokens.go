package goPasswordless

import (
	"context"

	"github.com/MrEthical07/goPasswordless/rate"
	"github.com/MrEthical07/goPasswordless/token"
)

// ValidateToken verifies an access token and returns its claims. Refresh
// tokens are rejected with [token.ErrWrongTokenType]; expiry, signature,
// and malformed-input failures map to the [token] package sentinels.
func (e *Engine) ValidateToken(tokenString string) (*token.Claims, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	return e.tokens.VerifyAccess(tokenString)
}

// ValidateBearer extracts the token from an Authorization header value and
// validates it as an access token. The header must be exactly
// "Bearer <token>"; anything else fails with [token.ErrMalformedHeader].
func (e *Engine) ValidateBearer(header string) (*token.Claims, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	raw, err := token.BearerToken(header)
	if err != nil {
		return nil, err
	}
	return e.tokens.VerifyAccess(raw)
}

// RefreshTokens exchanges a live refresh token for a fresh pair. The old
// refresh token is not revoked (tokens are stateless by design; revocation
// is what sessions are for) and the user's sessions are untouched, so the
// returned LoginResult carries no SessionID.
//
// Refreshes are rate limited per user, keyed by the userId claim, which is
// why verification happens before the limiter check.
func (e *Engine) RefreshTokens(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		e.metrics.RecordTokenRefresh("failure")
		return nil, err
	}

	res := e.limiter.Check(ctx, claims.UserID, opRefresh, rate.Config{
		MaxAttempts: e.config.Limits.Refresh.MaxAttempts,
		Window:      e.config.Limits.Refresh.Window,
	})
	e.recordLimitDecision(opRefresh, res)
	if !res.Allowed {
		e.metrics.RecordTokenRefresh("rate_limited")
		e.logger.Info("token refresh throttled", "user_id", claims.UserID, "reset_at", res.ResetAt)
		return nil, ErrRefreshRateLimited
	}

	pair, err := e.tokens.CreatePair(claims.UserID, claims.Email)
	if err != nil {
		e.metrics.RecordTokenRefresh("failure")
		return nil, err
	}
	e.metrics.RecordTokenIssued("access")
	e.metrics.RecordTokenIssued("refresh")
	e.metrics.RecordTokenRefresh("success")

	return &LoginResult{
		UserID:       claims.UserID,
		Email:        claims.Email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}
