package goPasswordless

import (
	"context"

	"github.com/MrEthical07/goPasswordless/session"
)

// ValidateSession looks up a session by its opaque id and extends it
// (sliding expiration). Missing, expired, and unreadable sessions all fail
// with [session.ErrNotFound].
func (e *Engine) ValidateSession(ctx context.Context, sessionID string) (*session.Data, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	return e.sessions.Validate(ctx, sessionID)
}

// RefreshSession extends a session without the caller needing its data.
// Identical contract to ValidateSession.
func (e *Engine) RefreshSession(ctx context.Context, sessionID string) (*session.Data, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	return e.sessions.Refresh(ctx, sessionID)
}

// Logout ends one session. Logging out an unknown session succeeds; the
// outcome the caller wants is already true.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}

	if err := e.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	e.metrics.RecordSessionsEnded("logout", 1)
	return nil
}

// LogoutAll ends every session belonging to userID and reports how many it
// removed. Token pairs already issued stay valid until they expire; only
// session-based access is revoked.
func (e *Engine) LogoutAll(ctx context.Context, userID string) (int, error) {
	if e == nil || e.sessions == nil {
		return 0, ErrEngineNotReady
	}
	if userID == "" {
		return 0, ErrInvalidIdentifier
	}

	deleted, err := e.sessions.DeleteAllForUser(ctx, userID)
	if err != nil {
		return deleted, err
	}
	e.metrics.RecordSessionsEnded("logout_all", deleted)
	return deleted, nil
}
