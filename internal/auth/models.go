// Package auth issues and verifies API access tokens. Clients authenticate
// with an id/secret pair and receive a short-lived JWT carrying their
// organization scope.
package auth

import (
	"time"

	id "callvault/pkg/domain"
)

// Client is one API credential belonging to an organization.
type Client struct {
	ID         string
	OrgID      id.OrgID
	UserID     id.UserID
	Plan       string
	SecretHash []byte
	CreatedAt  time.Time
}

// TokenResult is the response of the credentials flow.
type TokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
