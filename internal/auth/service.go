package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	dErrors "callvault/pkg/domain-errors"
	"callvault/pkg/platform/sentinel"
	"callvault/pkg/requestcontext"
)

// Service implements the client-credentials flow.
type Service struct {
	store  Store
	issuer *Issuer
	logger *slog.Logger
}

// NewService constructs the auth service.
func NewService(store Store, issuer *Issuer, logger *slog.Logger) *Service {
	return &Service{store: store, issuer: issuer, logger: logger}
}

// Authenticate verifies a client id/secret pair and issues an access token.
// Unknown clients and bad secrets return the same error so credential probing
// learns nothing.
func (s *Service) Authenticate(ctx context.Context, clientID, clientSecret string) (*TokenResult, error) {
	if clientID == "" || clientSecret == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "client_id and client_secret are required")
	}

	client, err := s.store.FindClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid client credentials")
		}
		return nil, fmt.Errorf("find client: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(client.SecretHash, []byte(clientSecret)); err != nil {
		s.logger.WarnContext(ctx, "client secret mismatch", slog.String("client_id", clientID))
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid client credentials")
	}

	token, err := s.issuer.Issue(client, requestcontext.Now(ctx).UTC())
	if err != nil {
		return nil, err
	}
	return &TokenResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.issuer.TTL().Seconds()),
	}, nil
}

// HashSecret derives the stored bcrypt hash for a client secret. Used by
// provisioning and tests.
func HashSecret(secret string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
}
