package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Type distinguishes the two token roles. The value is carried in the
// "type" claim and enforced on every typed verification.
type Type string

const (
	// TypeAccess marks short-lived API tokens.
	TypeAccess Type = "access"
	// TypeRefresh marks long-lived tokens redeemable for a new pair.
	TypeRefresh Type = "refresh"
)

// MinSecretLen is the minimum HS256 signing secret length in bytes.
const MinSecretLen = 32

const (
	// DefaultAccessTTL is the access token lifetime when Config leaves it zero.
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL is the refresh token lifetime when Config leaves it zero.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims is the JWT payload minted by [Manager]. The claim keys match
// tokens issued by earlier deployments, so outstanding tokens stay
// verifiable across an upgrade.
type Claims struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	TokenType Type   `json:"type"`
	jwt.RegisteredClaims
}

// Pair is a freshly minted access+refresh token set. ExpiresIn is the
// access token lifetime in seconds.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Config configures a [Manager]. Secret is required; everything else has
// a default.
type Config struct {
	// Secret is the HS256 signing key, at least MinSecretLen bytes.
	Secret []byte
	// AccessTTL is the access token lifetime.
	AccessTTL time.Duration
	// RefreshTTL is the refresh token lifetime.
	RefreshTTL time.Duration
	// Issuer, when set, is stamped into iss and enforced on verification.
	Issuer string
	// Leeway is the clock-skew allowance applied to time-based claims.
	// At most two minutes.
	Leeway time.Duration
}

// Manager signs and verifies the stateless token pairs used by
// passwordless login. HS256 only; the algorithm is pinned on both the
// signing and the verification path so an attacker-chosen alg header is
// rejected outright. There is no revocation list: a token is valid while
// its signature checks out and exp has not passed.
type Manager struct {
	config Config
	parser *jwt.Parser
}

// NewManager validates cfg and builds a [Manager]. A missing or short
// secret is a configuration error that must abort startup, never a
// condition to degrade around.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrSecretMissing
	}
	if len(cfg.Secret) < MinSecretLen {
		return nil, ErrSecretTooShort
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}

	return &Manager{
		config: cfg,
		parser: jwt.NewParser(options...),
	}, nil
}

// AccessTTL reports the configured access token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

// RefreshTTL reports the configured refresh token lifetime.
func (m *Manager) RefreshTTL() time.Duration {
	return m.config.RefreshTTL
}

// CreateAccess mints a short-lived access token for the identity.
func (m *Manager) CreateAccess(userID, email string) (string, error) {
	return m.create(userID, email, TypeAccess, m.config.AccessTTL)
}

// CreateRefresh mints a long-lived refresh token for the identity.
func (m *Manager) CreateRefresh(userID, email string) (string, error) {
	return m.create(userID, email, TypeRefresh, m.config.RefreshTTL)
}

// CreatePair mints an access and a refresh token for the identity. The two
// tokens differ only in the type claim and lifetime.
func (m *Manager) CreatePair(userID, email string) (Pair, error) {
	access, err := m.CreateAccess(userID, email)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.CreateRefresh(userID, email)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.config.AccessTTL.Seconds()),
	}, nil
}

func (m *Manager) create(userID, email string, typ Type, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Email:     email,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if m.config.Issuer != "" {
		claims.Issuer = m.config.Issuer
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Verify checks signature and time claims and returns the decoded claims.
// Failures map to the distinguishable sentinel errors in this package so
// callers can give expiry a different answer than forgery.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	parsed, err := m.parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.UserID == "" || claims.Email == "" || claims.TokenType == "" {
		return nil, ErrMissingClaims
	}

	return claims, nil
}

// VerifyAccess is Verify plus enforcement that the token is access-typed.
func (m *Manager) VerifyAccess(tokenStr string) (*Claims, error) {
	return m.verifyTyped(tokenStr, TypeAccess)
}

// VerifyRefresh is Verify plus enforcement that the token is refresh-typed.
func (m *Manager) VerifyRefresh(tokenStr string) (*Claims, error) {
	return m.verifyTyped(tokenStr, TypeRefresh)
}

func (m *Manager) verifyTyped(tokenStr string, want Type) (*Claims, error) {
	claims, err := m.Verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != want {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenType, claims.TokenType, want)
	}
	return claims, nil
}

// Refresh redeems a refresh token for a brand-new pair carrying the same
// identity. The presented token must be refresh-typed; it is not revoked
// by redemption and stays valid until its own exp.
func (m *Manager) Refresh(refreshToken string) (Pair, error) {
	claims, err := m.VerifyRefresh(refreshToken)
	if err != nil {
		return Pair{}, err
	}
	return m.CreatePair(claims.UserID, claims.Email)
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued), errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ErrMissingClaims
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

// BearerToken extracts the raw token from an Authorization header value.
// The header must be exactly "Bearer <token>": one space, case-sensitive
// scheme, non-empty token.
func BearerToken(header string) (string, error) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMalformedHeader
	}
	return parts[1], nil
}
