package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "callvault/pkg/domain"
	dErrors "callvault/pkg/domain-errors"
)

// DefaultTokenTTL bounds how long an issued access token stays valid.
const DefaultTokenTTL = time.Hour

// Claims is the JWT payload carried by access tokens.
type Claims struct {
	OrgID string `json:"org_id"`
	Plan  string `json:"plan,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies access tokens with a shared HMAC key.
type Issuer struct {
	signingKey []byte
	ttl        time.Duration
}

// NewIssuer constructs a token issuer.
func NewIssuer(signingKey []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{signingKey: signingKey, ttl: ttl}
}

// Issue signs a token scoped to the client's organization.
func (i *Issuer) Issue(client *Client, now time.Time) (string, error) {
	claims := Claims{
		OrgID: client.OrgID.String(),
		Plan:  client.Plan,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	if !client.UserID.IsNil() {
		claims.Subject = client.UserID.String()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// TTL returns the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Session is the verified identity extracted from a bearer token.
type Session struct {
	OrgID  id.OrgID
	UserID id.UserID
	Plan   string
}

// Verify parses and validates a bearer token and returns its session.
func (i *Issuer) Verify(token string) (*Session, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid access token")
	}

	orgID, err := id.ParseOrgID(claims.OrgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token carries no organization scope")
	}

	session := &Session{OrgID: orgID, Plan: claims.Plan}
	if claims.Subject != "" {
		if userID, err := id.ParseUserID(claims.Subject); err == nil {
			session.UserID = userID
		}
	}
	return session, nil
}
