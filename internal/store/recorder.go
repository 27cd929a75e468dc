package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	apperrors "pelviu-funnel/internal/common/errors"
	"pelviu-funnel/internal/models"
)

// Recorder turns scored assessments into persisted lead records.
type Recorder struct {
	store Store
	now   func() time.Time
	newID func() (string, error)
}

type RecorderOption func(*Recorder)

func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

func WithIDGenerator(gen func() (string, error)) RecorderOption {
	return func(r *Recorder) { r.newID = gen }
}

func NewRecorder(s Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store: s,
		now:   time.Now,
		newID: newUUIDv7,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// newUUIDv7 returns a time-ordered id so storage order and id order agree.
func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// CreateFromAssessment builds a record from a scored assessment and appends it.
// The returned record carries the generated id even when the append failed,
// so callers can still correlate it in logs.
func (r *Recorder) CreateFromAssessment(
	ctx context.Context,
	gender models.Gender,
	answers models.Answers,
	result *models.AssessmentResult,
	contact *models.Contact,
) (models.LeadRecord, error) {
	if result == nil {
		return models.LeadRecord{}, apperrors.NewInvalidInputError("assessment result is required")
	}

	id, err := r.newID()
	if err != nil {
		return models.LeadRecord{}, fmt.Errorf("failed to generate lead id: %w", err)
	}

	stringKeyed := make(map[string]int, len(answers))
	for k, v := range answers {
		stringKeyed[strconv.Itoa(k)] = v
	}

	record := models.LeadRecord{
		ID:             id,
		Timestamp:      r.now().UTC().Truncate(time.Millisecond),
		Gender:         gender,
		Answers:        stringKeyed,
		Score:          result.Score,
		Recommendation: result.Recommendation,
		Treatment:      result.Treatment.Name,
	}
	if contact != nil {
		record.Contact = *contact
	}

	if err := r.store.Append(ctx, record); err != nil {
		return record, err
	}
	return record, nil
}
