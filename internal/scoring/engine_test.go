package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"callvault/internal/artifact"
	id "callvault/pkg/domain"
)

func TestEvaluate_WeightedAverage(t *testing.T) {
	// Two equally weighted keyword checks, one hit: the total lands exactly
	// between 0 and 100.
	card := Scorecard{
		ID: id.NewScorecardID(),
		Criteria: []Criterion{
			{Name: "greeting", Kind: KindKeyword, Weight: 50, Keyword: "hello"},
			{Name: "disclosure", Kind: KindKeyword, Weight: 50, Keyword: "recorded line"},
		},
	}

	result := Evaluate(card, Evidence{TranscriptText: "Hello, how can I help you today?"})

	assert.Equal(t, 50, result.Total)
	assert.Equal(t, 100, result.Criteria[0].Score)
	assert.Equal(t, 0, result.Criteria[1].Score)
}

func TestEvaluate_Deterministic(t *testing.T) {
	card := Scorecard{
		ID: id.NewScorecardID(),
		Criteria: []Criterion{
			{Name: "greeting", Kind: KindKeyword, Weight: 30, Keyword: "hello"},
			{Name: "length", Kind: KindRange, Weight: 20, Min: 0, Max: 600},
			{Name: "script", Kind: KindOverlap, Weight: 50, Keywords: []string{"hello", "thank you", "goodbye"}},
		},
	}
	ev := Evidence{TranscriptText: "hello and thank you for calling", DurationSeconds: 300}

	first := Evaluate(card, ev)
	for range 10 {
		assert.Equal(t, first, Evaluate(card, ev), "scoring must be reproducible")
	}
}

func TestEvaluate_KeywordIsCaseInsensitive(t *testing.T) {
	card := Scorecard{Criteria: []Criterion{
		{Name: "greeting", Kind: KindKeyword, Weight: 1, Keyword: "HELLO"},
	}}

	result := Evaluate(card, Evidence{TranscriptText: "well hello there"})
	assert.Equal(t, 100, result.Total)
}

func TestEvaluate_RangeScaling(t *testing.T) {
	card := Scorecard{Criteria: []Criterion{
		{Name: "duration", Kind: KindRange, Weight: 1, Min: 60, Max: 360},
	}}

	tests := []struct {
		name     string
		duration int
		want     int
	}{
		{"below min clamps to zero", 30, 0},
		{"at min", 60, 0},
		{"midpoint", 210, 50},
		{"at max", 360, 100},
		{"above max clamps to hundred", 900, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(card, Evidence{DurationSeconds: tt.duration})
			assert.Equal(t, tt.want, result.Total)
		})
	}
}

func TestEvaluate_OverlapFraction(t *testing.T) {
	card := Scorecard{Criteria: []Criterion{
		{Name: "script", Kind: KindOverlap, Weight: 1, Keywords: []string{"alpha", "beta", "gamma"}},
	}}

	result := Evaluate(card, Evidence{TranscriptText: "alpha then beta but nothing else"})
	assert.Equal(t, 67, result.Total, "two of three keywords rounds to 67")
}

func TestEvaluate_EmptyScorecard(t *testing.T) {
	result := Evaluate(Scorecard{}, Evidence{TranscriptText: "anything"})
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, result.Criteria)
}

func TestEvaluate_ResultValidatesAsScoreMetadata(t *testing.T) {
	card := Scorecard{
		ID: id.NewScorecardID(),
		Criteria: []Criterion{
			{Name: "greeting", Kind: KindKeyword, Weight: 10, Keyword: "hello"},
		},
	}
	result := Evaluate(card, Evidence{TranscriptText: "hello"})

	assert.Equal(t, artifact.TypeScore, result.Kind())
	assert.NoError(t, result.Validate())
}

func TestCriterionValidate(t *testing.T) {
	tests := []struct {
		name      string
		criterion Criterion
		ok        bool
	}{
		{"valid keyword", Criterion{Name: "a", Kind: KindKeyword, Weight: 1, Keyword: "x"}, true},
		{"valid range", Criterion{Name: "a", Kind: KindRange, Weight: 1, Min: 0, Max: 10}, true},
		{"valid overlap", Criterion{Name: "a", Kind: KindOverlap, Weight: 1, Keywords: []string{"x"}}, true},
		{"missing name", Criterion{Kind: KindKeyword, Weight: 1, Keyword: "x"}, false},
		{"zero weight", Criterion{Name: "a", Kind: KindKeyword, Weight: 0, Keyword: "x"}, false},
		{"keyword without keyword", Criterion{Name: "a", Kind: KindKeyword, Weight: 1}, false},
		{"inverted range", Criterion{Name: "a", Kind: KindRange, Weight: 1, Min: 10, Max: 5}, false},
		{"overlap without keywords", Criterion{Name: "a", Kind: KindOverlap, Weight: 1}, false},
		{"unknown kind", Criterion{Name: "a", Kind: CriterionKind("regex"), Weight: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.criterion.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
