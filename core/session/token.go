package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ClockSkew is tolerated on time based claims, for instances whose clocks drift apart.
const ClockSkew = 5 * time.Second

var (
	// errors
	ErrTokenInvalid = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token expired")
)

// Claims are carried by a session token. Subject holds the user ID, ID the token ID.
type Claims struct {
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 signed session tokens.
type Tokens struct {
	secret  []byte
	ttl     time.Duration
	issuer  string
	nowFunc func() time.Time // mockable
}

func NewTokens(secret []byte, ttl time.Duration, issuer string) *Tokens {
	return &Tokens{secret: secret, ttl: ttl, issuer: issuer, nowFunc: time.Now}
}

func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue returns a signed token for subjectID, valid for the configured TTL.
func (t *Tokens) Issue(subjectID string) (string, Claims, error) {
	if subjectID == "" {
		return "", Claims{}, errors.New("session: empty subject")
	}
	now := t.nowFunc()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", Claims{}, errors.Wrap(err, "signing session token")
	}
	return token, claims, nil
}

// Parse verifies token and returns its claims. The returned error is either ErrTokenExpired or
// ErrTokenInvalid wrapping the parser's reason; it is meant for server logs only.
func (t *Tokens) Parse(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrTokenInvalid
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(ClockSkew),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(t.nowFunc),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	default:
		return Claims{}, errors.Wrap(ErrTokenInvalid, err.Error())
	}
	if claims.Subject == "" || claims.ID == "" {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

// Verify reports the subject of a valid token. Malformed, forged and expired tokens are all
// reported the same way.
func (t *Tokens) Verify(token string) (string, bool) {
	claims, err := t.Parse(token)
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}
