package scoring

import (
	"math"
	"strings"

	"callvault/internal/artifact"
)

// Evidence is the evaluated input: the transcript text plus the measured
// call duration.
type Evidence struct {
	TranscriptText  string
	DurationSeconds int
}

// Evaluate scores the evidence against every criterion and computes the
// weighted total, rounded to the nearest integer.
func Evaluate(card Scorecard, ev Evidence) artifact.ScoreMetadata {
	transcript := strings.ToLower(ev.TranscriptText)

	results := make([]artifact.CriterionResult, 0, len(card.Criteria))
	weightedSum := 0
	totalWeight := 0
	for _, c := range card.Criteria {
		score := evaluateCriterion(c, transcript, ev.DurationSeconds)
		results = append(results, artifact.CriterionResult{
			Name:   c.Name,
			Weight: c.Weight,
			Score:  score,
		})
		weightedSum += score * c.Weight
		totalWeight += c.Weight
	}

	total := 0
	if totalWeight > 0 {
		total = int(math.Round(float64(weightedSum) / float64(totalWeight)))
	}
	return artifact.ScoreMetadata{
		ScorecardID: card.ID.String(),
		Total:       total,
		Criteria:    results,
	}
}

func evaluateCriterion(c Criterion, transcript string, durationSeconds int) int {
	switch c.Kind {
	case KindKeyword:
		if strings.Contains(transcript, strings.ToLower(c.Keyword)) {
			return 100
		}
		return 0
	case KindRange:
		return scaleRange(float64(durationSeconds), c.Min, c.Max)
	case KindOverlap:
		return overlapRatio(transcript, c.Keywords)
	default:
		return 0
	}
}

// scaleRange maps value onto 0..100 linearly between min and max, clamping
// outside the range.
func scaleRange(value, min, max float64) int {
	if value <= min {
		return 0
	}
	if value >= max {
		return 100
	}
	return int(math.Round((value - min) / (max - min) * 100))
}

// overlapRatio scores the percentage of expected keywords found in the
// transcript.
func overlapRatio(transcript string, keywords []string) int {
	if len(keywords) == 0 {
		return 0
	}
	found := 0
	for _, kw := range keywords {
		if strings.Contains(transcript, strings.ToLower(kw)) {
			found++
		}
	}
	return int(math.Round(float64(found) / float64(len(keywords)) * 100))
}
