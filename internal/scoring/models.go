// Package scoring evaluates call evidence against weighted scorecards. The
// evaluation is deterministic: the same transcript and scorecard always yield
// the same total, so score artifacts are reproducible evidence.
package scoring

import (
	"time"

	id "callvault/pkg/domain"
	dErrors "callvault/pkg/domain-errors"
)

// CriterionKind selects the evaluation strategy of one criterion.
type CriterionKind string

const (
	// KindKeyword scores 100 when the keyword appears in the transcript,
	// 0 otherwise.
	KindKeyword CriterionKind = "keyword"
	// KindRange maps a numeric measurement (call duration in seconds) onto
	// 0..100 linearly between Min and Max.
	KindRange CriterionKind = "range"
	// KindOverlap scores the fraction of expected keywords present in the
	// transcript.
	KindOverlap CriterionKind = "overlap"
)

// Criterion is one weighted check inside a scorecard.
type Criterion struct {
	Name     string        `json:"name"`
	Kind     CriterionKind `json:"kind"`
	Weight   int           `json:"weight"`
	Keyword  string        `json:"keyword,omitempty"`
	Keywords []string      `json:"keywords,omitempty"`
	Min      float64       `json:"min,omitempty"`
	Max      float64       `json:"max,omitempty"`
}

// Validate rejects criteria whose kind-specific fields are missing.
func (c Criterion) Validate() error {
	if c.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "criterion requires a name")
	}
	if c.Weight <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "criterion weight must be positive")
	}
	switch c.Kind {
	case KindKeyword:
		if c.Keyword == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "keyword criterion requires a keyword")
		}
	case KindRange:
		if c.Max <= c.Min {
			return dErrors.New(dErrors.CodeInvalidInput, "range criterion requires max greater than min")
		}
	case KindOverlap:
		if len(c.Keywords) == 0 {
			return dErrors.New(dErrors.CodeInvalidInput, "overlap criterion requires keywords")
		}
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "unknown criterion kind")
	}
	return nil
}

// Scorecard is an organization's named set of weighted criteria.
type Scorecard struct {
	ID        id.ScorecardID
	OrgID     id.OrgID
	Name      string
	Criteria  []Criterion
	CreatedAt time.Time
}

// Validate rejects scorecards with no criteria or any invalid criterion.
func (s Scorecard) Validate() error {
	if s.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "scorecard requires a name")
	}
	if len(s.Criteria) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "scorecard requires at least one criterion")
	}
	for _, c := range s.Criteria {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
