package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "callvault/pkg/domain"
	"callvault/pkg/platform/sentinel"
)

// Store persists scorecard definitions.
type Store interface {
	Insert(ctx context.Context, card Scorecard) error
	Get(ctx context.Context, orgID id.OrgID, cardID id.ScorecardID) (*Scorecard, error)
	List(ctx context.Context, orgID id.OrgID) ([]Scorecard, error)
}

// PostgresStore keeps scorecards in Postgres with criteria as a JSON column.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a pgx-backed scorecard store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Insert(ctx context.Context, card Scorecard) error {
	criteria, err := json.Marshal(card.Criteria)
	if err != nil {
		return fmt.Errorf("marshal scorecard criteria: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO scorecards (id, organization_id, name, criteria, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(card.ID), uuid.UUID(card.OrgID), card.Name, criteria, card.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scorecard: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, orgID id.OrgID, cardID id.ScorecardID) (*Scorecard, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, name, criteria, created_at
		FROM scorecards
		WHERE id = $1 AND organization_id = $2`,
		uuid.UUID(cardID), uuid.UUID(orgID),
	)
	card, err := scanScorecard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get scorecard: %w", err)
	}
	return card, nil
}

func (s *PostgresStore) List(ctx context.Context, orgID id.OrgID) ([]Scorecard, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, organization_id, name, criteria, created_at
		FROM scorecards
		WHERE organization_id = $1
		ORDER BY created_at DESC`,
		uuid.UUID(orgID),
	)
	if err != nil {
		return nil, fmt.Errorf("list scorecards: %w", err)
	}
	defer rows.Close()

	var cards []Scorecard
	for rows.Next() {
		card, err := scanScorecard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scorecard: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scorecards: %w", err)
	}
	return cards, nil
}

func scanScorecard(row pgx.Row) (*Scorecard, error) {
	var (
		card     Scorecard
		cardID   uuid.UUID
		orgID    uuid.UUID
		criteria []byte
	)
	if err := row.Scan(&cardID, &orgID, &card.Name, &criteria, &card.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(criteria, &card.Criteria); err != nil {
		return nil, fmt.Errorf("unmarshal scorecard criteria: %w", err)
	}
	card.ID = id.ScorecardID(cardID)
	card.OrgID = id.OrgID(orgID)
	return &card, nil
}
