package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "callvault/pkg/domain"
	txcontext "callvault/pkg/platform/tx"
)

// PostgresStore persists ledger entries in the audit_logs table. Appends join
// the request transaction when one is present in context so an artifact write
// and its ledger entry commit together.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL ledger store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts one immutable ledger row. There is no corresponding update
// or delete statement anywhere in this package.
func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO audit_logs (
			id, organization_id, resource_type, resource_id, action,
			actor_type, actor_id, before, after, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.ID,
		uuid.UUID(entry.OrgID),
		entry.ResourceType,
		entry.ResourceID,
		entry.Action,
		string(entry.ActorType),
		entry.ActorID,
		nullableJSON(entry.Before),
		nullableJSON(entry.After),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByResource returns the newest entries for a resource, org-scoped.
func (s *PostgresStore) ListByResource(ctx context.Context, orgID id.OrgID, resourceType string, resourceID uuid.UUID, limit int) ([]Entry, error) {
	query := `
		SELECT id, organization_id, resource_type, resource_id, action,
		       actor_type, actor_id, before, after, created_at
		FROM audit_logs
		WHERE organization_id = $1 AND resource_type = $2 AND resource_id = $3
		ORDER BY created_at DESC
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(orgID), resourceType, resourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListIntents returns the newest intent:* entries for an organization.
func (s *PostgresStore) ListIntents(ctx context.Context, orgID id.OrgID, limit int) ([]Entry, error) {
	query := `
		SELECT id, organization_id, resource_type, resource_id, action,
		       actor_type, actor_id, before, after, created_at
		FROM audit_logs
		WHERE organization_id = $1 AND action LIKE 'intent:%'
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(orgID), limit)
	if err != nil {
		return nil, fmt.Errorf("query intent entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			entry         Entry
			orgID         uuid.UUID
			actorType     string
			before, after sql.Null[[]byte]
		)
		err := rows.Scan(
			&entry.ID,
			&orgID,
			&entry.ResourceType,
			&entry.ResourceID,
			&entry.Action,
			&actorType,
			&entry.ActorID,
			&before,
			&after,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.OrgID = id.OrgID(orgID)
		entry.ActorType = ActorType(actorType)
		if before.Valid {
			entry.Before = before.V
		}
		if after.Valid {
			entry.After = after.V
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
