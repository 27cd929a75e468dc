// internal/scoring/engine.go
package scoring

import (
	"fmt"
	"math"
	"sort"

	apperrors "pelviu-funnel/internal/common/errors"
	"pelviu-funnel/internal/common/logger"
	"pelviu-funnel/internal/models"
	"pelviu-funnel/internal/questionbank"
	"pelviu-funnel/internal/treatment"
)

// Lower bounds of each tier. A score belongs to the highest tier whose bound it reaches.
const (
	Level1Threshold = 25
	Level2Threshold = 45
	Level3Threshold = 70
)

type Engine struct {
	bank   *questionbank.Bank
	logger logger.Logger
}

func NewEngine(bank *questionbank.Bank, log logger.Logger) *Engine {
	return &Engine{
		bank:   bank,
		logger: logger.ForComponent(log, "scoring"),
	}
}

// Score turns a complete answer set into a normalized score and tier.
// Incomplete or out-of-bank answers fail with INVALID_INPUT; a track whose
// maximum possible score is zero fails with CONFIGURATION_ERROR.
func (e *Engine) Score(answers models.Answers, gender models.Gender) (*models.AssessmentResult, error) {
	if !gender.Valid() {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown gender %q", gender))
	}

	maxPossible := e.bank.MaxPossible(gender)
	if maxPossible <= 0 {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("maximum possible score for track %q is %d", gender, maxPossible),
		).WithMetadata("bankVersion", e.bank.Version())
	}

	if err := e.validate(answers, gender); err != nil {
		return nil, err
	}

	raw := 0
	for _, v := range answers {
		raw += v
	}

	score := Normalize(raw, maxPossible)
	rec := Classify(score)
	tier, ok := treatment.ForRecommendation(rec)
	if !ok {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("no treatment tier for %q", rec))
	}

	e.logger.Debug("assessment scored", map[string]interface{}{
		"gender":         string(gender),
		"raw":            raw,
		"maxPossible":    maxPossible,
		"score":          score,
		"recommendation": string(rec),
	})

	return &models.AssessmentResult{
		Score:          score,
		Recommendation: rec,
		Treatment:      tier,
		Gender:         gender,
	}, nil
}

func (e *Engine) validate(answers models.Answers, gender models.Gender) error {
	ids := e.bank.IDs(gender)
	expected := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		expected[id] = struct{}{}
	}

	var unknown []int
	for id := range answers {
		if _, ok := expected[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Ints(unknown)
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("questions %v are not part of the %q track", unknown, gender),
		).WithMetadata("unknownQuestions", unknown)
	}

	var missing []int
	for _, id := range ids {
		if _, ok := answers[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("missing answers for questions %v", missing),
		).WithMetadata("missingQuestions", missing)
	}

	for _, id := range ids {
		q, _ := e.bank.Question(gender, id)
		if !q.HasScore(answers[id]) {
			return apperrors.NewInvalidInputError(
				fmt.Sprintf("score %d is not an option of question %d", answers[id], id),
			).WithMetadata("questionId", id)
		}
	}
	return nil
}

// Normalize expresses raw as a rounded percentage of maxPossible, clamped to [0,100].
// Halves round up.
func Normalize(raw, maxPossible int) int {
	if maxPossible <= 0 {
		return 0
	}
	pct := float64(raw*100) / float64(maxPossible)
	score := int(math.Floor(pct + 0.5))
	return clamp(score, 0, 100)
}

// Classify maps a normalized score onto the half-open tier ranges
// [0,25) [25,45) [45,70) [70,100].
func Classify(score int) models.Recommendation {
	switch {
	case score >= Level3Threshold:
		return models.RecommendationLevel3
	case score >= Level2Threshold:
		return models.RecommendationLevel2
	case score >= Level1Threshold:
		return models.RecommendationLevel1
	default:
		return models.RecommendationPrevention
	}
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
