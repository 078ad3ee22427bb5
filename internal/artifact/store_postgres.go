package artifact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "callvault/pkg/domain"
	"callvault/pkg/platform/sentinel"
)

// Store persists artifacts. Rows are append-only apart from the status
// transition of asynchronous producers; version content is immutable.
type Store interface {
	Insert(ctx context.Context, a Artifact) error
	// InsertChild inserts a new version under parentID, deriving org, call,
	// type, and version from the parent row in one conditional statement.
	// Returns sentinel.ErrConflict if the parent already has a child and
	// sentinel.ErrNotFound if the parent is missing for this organization.
	InsertChild(ctx context.Context, orgID id.OrgID, parentID id.ArtifactID, child Artifact) (*Artifact, error)
	Get(ctx context.Context, orgID id.OrgID, artifactID id.ArtifactID) (*Artifact, error)
	ListByCall(ctx context.Context, orgID id.OrgID, callID id.CallID) ([]Artifact, error)
	LatestByCallAndType(ctx context.Context, orgID id.OrgID, callID id.CallID, artifactType Type) (*Artifact, error)
	EarliestByCallAndType(ctx context.Context, orgID id.OrgID, callID id.CallID, artifactType string) (time.Time, bool, error)
	Lineage(ctx context.Context, orgID id.OrgID, artifactID id.ArtifactID) ([]Artifact, error)
	// CompleteStatus finalizes an asynchronous artifact, filling in the
	// produced metadata. Only queued or processing rows can transition, so
	// completed evidence stays immutable.
	CompleteStatus(ctx context.Context, orgID id.OrgID, artifactID id.ArtifactID, status Status, metadata Metadata) error
}

const uniqueViolation = "23505"

// PostgresStore is the production artifact store on a pgx pool. Every query
// carries an organization predicate to preserve tenant isolation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a pgx-backed artifact store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const artifactColumns = `id, organization_id, call_id, type, producer, is_authoritative,
	version, parent_id, inputs, metadata, status, created_at`

func (s *PostgresStore) Insert(ctx context.Context, a Artifact) error {
	metadata, err := EncodeMetadata(a.Metadata)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO artifacts (`+artifactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(a.ID),
		uuid.UUID(a.OrgID),
		uuid.UUID(a.CallID),
		string(a.Type),
		string(a.Producer),
		a.IsAuthoritative,
		a.Version,
		parentUUID(a.ParentID),
		inputUUIDs(a.Inputs),
		metadata,
		string(a.Status),
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", translateErr(err))
	}
	return nil
}

func (s *PostgresStore) InsertChild(ctx context.Context, orgID id.OrgID, parentID id.ArtifactID, child Artifact) (*Artifact, error) {
	metadata, err := EncodeMetadata(child.Metadata)
	if err != nil {
		return nil, err
	}

	// Version assignment is a conditional write: the partial unique index on
	// parent_id makes the second of two concurrent supersedes lose with a
	// unique violation instead of silently duplicating a version number.
	row := s.pool.QueryRow(ctx, `
		INSERT INTO artifacts (`+artifactColumns+`)
		SELECT $1, p.organization_id, p.call_id, p.type, $2, $3, p.version + 1,
		       p.id, $4, $5, $6, $7
		FROM artifacts p
		WHERE p.id = $8 AND p.organization_id = $9
		RETURNING id, organization_id, call_id, type, producer, is_authoritative,
		          version, parent_id, inputs, metadata, status, created_at`,
		uuid.UUID(child.ID),
		string(child.Producer),
		child.IsAuthoritative,
		inputUUIDs(child.Inputs),
		metadata,
		string(child.Status),
		child.CreatedAt,
		uuid.UUID(parentID),
		uuid.UUID(orgID),
	)

	inserted, err := scanArtifact(row)
	if err != nil {
		return nil, fmt.Errorf("insert child artifact: %w", translateErr(err))
	}
	return inserted, nil
}

func (s *PostgresStore) Get(ctx context.Context, orgID id.OrgID, artifactID id.ArtifactID) (*Artifact, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+artifactColumns+`
		FROM artifacts
		WHERE id = $1 AND organization_id = $2`,
		uuid.UUID(artifactID), uuid.UUID(orgID),
	)
	a, err := scanArtifact(row)
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", translateErr(err))
	}
	return a, nil
}

func (s *PostgresStore) ListByCall(ctx context.Context, orgID id.OrgID, callID id.CallID) ([]Artifact, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+artifactColumns+`
		FROM artifacts
		WHERE organization_id = $1 AND call_id = $2
		ORDER BY created_at ASC`,
		uuid.UUID(orgID), uuid.UUID(callID),
	)
	if err != nil {
		return nil, fmt.Errorf("list artifacts by call: %w", err)
	}
	defer rows.Close()

	return scanArtifacts(rows)
}

func (s *PostgresStore) LatestByCallAndType(ctx context.Context, orgID id.OrgID, callID id.CallID, artifactType Type) (*Artifact, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+artifactColumns+`
		FROM artifacts
		WHERE organization_id = $1 AND call_id = $2 AND type = $3
		ORDER BY version DESC, created_at DESC
		LIMIT 1`,
		uuid.UUID(orgID), uuid.UUID(callID), string(artifactType),
	)
	a, err := scanArtifact(row)
	if err != nil {
		return nil, fmt.Errorf("latest artifact by call and type: %w", translateErr(err))
	}
	return a, nil
}

func (s *PostgresStore) EarliestByCallAndType(ctx context.Context, orgID id.OrgID, callID id.CallID, artifactType string) (time.Time, bool, error) {
	var createdAt *time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT MIN(created_at)
		FROM artifacts
		WHERE organization_id = $1 AND call_id = $2 AND type = $3`,
		uuid.UUID(orgID), uuid.UUID(callID), artifactType,
	).Scan(&createdAt)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("earliest artifact by call and type: %w", err)
	}
	if createdAt == nil {
		return time.Time{}, false, nil
	}
	return *createdAt, true, nil
}

func (s *PostgresStore) Lineage(ctx context.Context, orgID id.OrgID, artifactID id.ArtifactID) ([]Artifact, error) {
	rows, err := s.pool.Query(ctx, `
		WITH RECURSIVE lineage AS (
			SELECT `+artifactColumns+`
			FROM artifacts
			WHERE id = $1 AND organization_id = $2
			UNION ALL
			SELECT a.id, a.organization_id, a.call_id, a.type, a.producer,
			       a.is_authoritative, a.version, a.parent_id, a.inputs,
			       a.metadata, a.status, a.created_at
			FROM artifacts a
			JOIN lineage l ON a.id = l.parent_id
		)
		SELECT `+artifactColumns+` FROM lineage ORDER BY version ASC`,
		uuid.UUID(artifactID), uuid.UUID(orgID),
	)
	if err != nil {
		return nil, fmt.Errorf("artifact lineage: %w", err)
	}
	defer rows.Close()

	return scanArtifacts(rows)
}

func (s *PostgresStore) CompleteStatus(ctx context.Context, orgID id.OrgID, artifactID id.ArtifactID, status Status, metadata Metadata) error {
	encoded, err := EncodeMetadata(metadata)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE artifacts
		SET status = $1, metadata = COALESCE($2, metadata)
		WHERE id = $3 AND organization_id = $4
		  AND type <> 'manifest'
		  AND status IN ('queued', 'processing')`,
		string(status), encoded, uuid.UUID(artifactID), uuid.UUID(orgID),
	)
	if err != nil {
		return fmt.Errorf("complete artifact status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func parentUUID(parentID *id.ArtifactID) *uuid.UUID {
	if parentID == nil {
		return nil
	}
	parsed := uuid.UUID(*parentID)
	return &parsed
}

func inputUUIDs(inputs []id.ArtifactID) []uuid.UUID {
	if len(inputs) == 0 {
		return nil
	}
	out := make([]uuid.UUID, len(inputs))
	for i, input := range inputs {
		out[i] = uuid.UUID(input)
	}
	return out
}

func translateErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (*Artifact, error) {
	var (
		a         Artifact
		artID     uuid.UUID
		orgID     uuid.UUID
		callID    uuid.UUID
		kind      string
		producer  string
		parentRaw *uuid.UUID
		inputsRaw []uuid.UUID
		metadata  []byte
		status    string
	)
	err := row.Scan(
		&artID, &orgID, &callID, &kind, &producer, &a.IsAuthoritative,
		&a.Version, &parentRaw, &inputsRaw, &metadata, &status, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.ID = id.ArtifactID(artID)
	a.OrgID = id.OrgID(orgID)
	a.CallID = id.CallID(callID)
	a.Type = Type(kind)
	a.Producer = Producer(producer)
	a.Status = Status(status)
	if parentRaw != nil {
		parsed := id.ArtifactID(*parentRaw)
		a.ParentID = &parsed
	}
	for _, input := range inputsRaw {
		a.Inputs = append(a.Inputs, id.ArtifactID(input))
	}
	a.Metadata, err = DecodeMetadata(metadata)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanArtifacts(rows pgx.Rows) ([]Artifact, error) {
	var artifacts []Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return artifacts, nil
}
