package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "callvault/pkg/domain"
	"callvault/pkg/platform/sentinel"
)

// Store looks up API client credentials.
type Store interface {
	FindClient(ctx context.Context, clientID string) (*Client, error)
}

// PostgresStore reads clients from the api_clients table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a pgx-backed client store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FindClient(ctx context.Context, clientID string) (*Client, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, user_id, plan, secret_hash, created_at
		FROM api_clients
		WHERE id = $1`,
		clientID,
	)

	var (
		c       Client
		orgUUID uuid.UUID
		usrUUID *uuid.UUID
	)
	err := row.Scan(&c.ID, &orgUUID, &usrUUID, &c.Plan, &c.SecretHash, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find api client: %w", err)
	}
	c.OrgID = id.OrgID(orgUUID)
	if usrUUID != nil {
		c.UserID = id.UserID(*usrUUID)
	}
	return &c, nil
}

// MemoryStore is an in-process Store for unit tests.
type MemoryStore struct {
	mu      sync.Mutex
	clients map[string]Client
}

// NewMemoryStore constructs an empty in-memory client store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clients: make(map[string]Client)}
}

// Add registers a client credential.
func (s *MemoryStore) Add(c Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

func (s *MemoryStore) FindClient(_ context.Context, clientID string) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[clientID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}
