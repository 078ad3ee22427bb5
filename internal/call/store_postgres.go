package call

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "callvault/pkg/domain"
	"callvault/pkg/platform/sentinel"
)

// Store persists calls and per-organization voice configuration.
type Store interface {
	Insert(ctx context.Context, c Call) error
	Get(ctx context.Context, orgID id.OrgID, callID id.CallID) (*Call, error)
	MarkDialed(ctx context.Context, orgID id.OrgID, callID id.CallID, callSID string, startedAt time.Time) error
	MarkFailed(ctx context.Context, orgID id.OrgID, callID id.CallID) error
	UpsertVoiceConfig(ctx context.Context, cfg VoiceConfig) error
	GetVoiceConfig(ctx context.Context, orgID id.OrgID) (*VoiceConfig, error)
}

// PostgresStore is the production call store on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a pgx-backed call store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Insert(ctx context.Context, c Call) error {
	modulations, err := json.Marshal(c.Modulations)
	if err != nil {
		return fmt.Errorf("marshal modulations: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO calls (id, organization_id, status, phone_number, call_sid,
			modulations, started_at, ended_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(c.ID), uuid.UUID(c.OrgID), string(c.Status), c.PhoneNumber,
		c.CallSID, modulations, c.StartedAt, c.EndedAt, uuid.UUID(c.CreatedBy), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert call: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, orgID id.OrgID, callID id.CallID) (*Call, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, status, phone_number, call_sid,
		       modulations, started_at, ended_at, created_by, created_at
		FROM calls
		WHERE id = $1 AND organization_id = $2`,
		uuid.UUID(callID), uuid.UUID(orgID),
	)

	var (
		c           Call
		callUUID    uuid.UUID
		orgUUID     uuid.UUID
		status      string
		modulations []byte
		createdBy   uuid.UUID
	)
	err := row.Scan(&callUUID, &orgUUID, &status, &c.PhoneNumber, &c.CallSID,
		&modulations, &c.StartedAt, &c.EndedAt, &createdBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get call: %w", err)
	}
	if err := json.Unmarshal(modulations, &c.Modulations); err != nil {
		return nil, fmt.Errorf("unmarshal modulations: %w", err)
	}
	c.ID = id.CallID(callUUID)
	c.OrgID = id.OrgID(orgUUID)
	c.Status = Status(status)
	c.CreatedBy = id.UserID(createdBy)
	return &c, nil
}

func (s *PostgresStore) MarkDialed(ctx context.Context, orgID id.OrgID, callID id.CallID, callSID string, startedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE calls
		SET status = $1, call_sid = $2, started_at = $3
		WHERE id = $4 AND organization_id = $5 AND status = $6`,
		string(StatusInProgress), callSID, startedAt,
		uuid.UUID(callID), uuid.UUID(orgID), string(StatusPending),
	)
	if err != nil {
		return fmt.Errorf("mark call dialed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) MarkFailed(ctx context.Context, orgID id.OrgID, callID id.CallID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE calls
		SET status = $1
		WHERE id = $2 AND organization_id = $3`,
		string(StatusFailed), uuid.UUID(callID), uuid.UUID(orgID),
	)
	if err != nil {
		return fmt.Errorf("mark call failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertVoiceConfig(ctx context.Context, cfg VoiceConfig) error {
	modulations, err := json.Marshal(cfg.Modulations)
	if err != nil {
		return fmt.Errorf("marshal voice config: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO voice_configs (organization_id, modulations, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (organization_id)
		DO UPDATE SET modulations = EXCLUDED.modulations, updated_at = EXCLUDED.updated_at`,
		uuid.UUID(cfg.OrgID), modulations, cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert voice config: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetVoiceConfig(ctx context.Context, orgID id.OrgID) (*VoiceConfig, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT organization_id, modulations, updated_at
		FROM voice_configs
		WHERE organization_id = $1`,
		uuid.UUID(orgID),
	)

	var (
		cfg         VoiceConfig
		orgUUID     uuid.UUID
		modulations []byte
	)
	if err := row.Scan(&orgUUID, &modulations, &cfg.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get voice config: %w", err)
	}
	if err := json.Unmarshal(modulations, &cfg.Modulations); err != nil {
		return nil, fmt.Errorf("unmarshal voice config: %w", err)
	}
	cfg.OrgID = id.OrgID(orgUUID)
	return &cfg, nil
}
