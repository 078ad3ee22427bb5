// Package domain holds typed identifiers shared across services.
//
// IDs are distinct named UUID types so the compiler rejects cross-type
// assignment (an OrgID can never be passed where an ArtifactID is expected).
// Parse functions enforce the trust-boundary invariant: IDs must be valid,
// non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "callvault/pkg/domain-errors"
)

type (
	// OrgID identifies a tenant organization. Every store query is scoped by it.
	OrgID uuid.UUID
	// UserID identifies a human actor.
	UserID uuid.UUID
	// CallID identifies a monitored call.
	CallID uuid.UUID
	// ArtifactID identifies one versioned unit of evidence.
	ArtifactID uuid.UUID
	// ScorecardID identifies a scoring definition.
	ScorecardID uuid.UUID
)

func (id OrgID) String() string       { return uuid.UUID(id).String() }
func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id CallID) String() string      { return uuid.UUID(id).String() }
func (id ArtifactID) String() string  { return uuid.UUID(id).String() }
func (id ScorecardID) String() string { return uuid.UUID(id).String() }

func (id OrgID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CallID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ArtifactID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewOrgID returns a fresh random OrgID.
func NewOrgID() OrgID { return OrgID(uuid.New()) }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewCallID returns a fresh random CallID.
func NewCallID() CallID { return CallID(uuid.New()) }

// NewArtifactID returns a fresh random ArtifactID.
func NewArtifactID() ArtifactID { return ArtifactID(uuid.New()) }

// NewScorecardID returns a fresh random ScorecardID.
func NewScorecardID() ScorecardID { return ScorecardID(uuid.New()) }

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be the nil UUID")
	}
	return parsed, nil
}

// ParseOrgID parses and validates an organization ID.
func ParseOrgID(raw string) (OrgID, error) {
	parsed, err := parseUUID(raw, "organization id")
	return OrgID(parsed), err
}

// ParseUserID parses and validates a user ID.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user id")
	return UserID(parsed), err
}

// ParseCallID parses and validates a call ID.
func ParseCallID(raw string) (CallID, error) {
	parsed, err := parseUUID(raw, "call id")
	return CallID(parsed), err
}

// ParseArtifactID parses and validates an artifact ID.
func ParseArtifactID(raw string) (ArtifactID, error) {
	parsed, err := parseUUID(raw, "artifact id")
	return ArtifactID(parsed), err
}

// ParseScorecardID parses and validates a scorecard ID.
func ParseScorecardID(raw string) (ScorecardID, error) {
	parsed, err := parseUUID(raw, "scorecard id")
	return ScorecardID(parsed), err
}
