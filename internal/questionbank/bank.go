package questionbank

import (
	"errors"
	"fmt"

	"pelviu-funnel/internal/models"
)

var ErrInvalidBank = errors.New("INVALID_QUESTION_BANK")

// Bank is an immutable, versioned catalog of scored questions per gender track.
type Bank struct {
	version string
	tracks  map[models.Gender][]models.Question
	byID    map[models.Gender]map[int]models.Question
}

// New validates tracks and freezes a deep copy of them.
func New(version string, tracks map[models.Gender][]models.Question) (*Bank, error) {
	b := &Bank{
		version: version,
		tracks:  make(map[models.Gender][]models.Question, len(tracks)),
		byID:    make(map[models.Gender]map[int]models.Question, len(tracks)),
	}

	for _, g := range models.Genders() {
		questions, ok := tracks[g]
		if !ok || len(questions) == 0 {
			return nil, fmt.Errorf("%w: track %q has no questions", ErrInvalidBank, g)
		}

		frozen := make([]models.Question, 0, len(questions))
		index := make(map[int]models.Question, len(questions))
		for _, q := range questions {
			if _, dup := index[q.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate question id %d in track %q", ErrInvalidBank, q.ID, g)
			}
			if len(q.Options) == 0 {
				return nil, fmt.Errorf("%w: question %d in track %q has no options", ErrInvalidBank, q.ID, g)
			}
			for _, o := range q.Options {
				if o.Score < 0 {
					return nil, fmt.Errorf("%w: question %d option %q has negative score", ErrInvalidBank, q.ID, o.Label)
				}
			}
			cp := copyQuestion(q)
			frozen = append(frozen, cp)
			index[q.ID] = cp
		}
		b.tracks[g] = frozen
		b.byID[g] = index
	}

	for g := range tracks {
		if !g.Valid() {
			return nil, fmt.Errorf("%w: unknown track %q", ErrInvalidBank, g)
		}
	}

	return b, nil
}

// Default returns the built-in catalog.
func Default() *Bank {
	b, err := New(DefaultVersion, defaultTracks())
	if err != nil {
		panic(fmt.Sprintf("built-in question bank is invalid: %v", err))
	}
	return b
}

func (b *Bank) Version() string {
	return b.version
}

// Questions returns the ordered track for g. The slice is a copy.
func (b *Bank) Questions(g models.Gender) ([]models.Question, bool) {
	track, ok := b.tracks[g]
	if !ok {
		return nil, false
	}
	out := make([]models.Question, len(track))
	for i, q := range track {
		out[i] = copyQuestion(q)
	}
	return out, true
}

func (b *Bank) Question(g models.Gender, id int) (models.Question, bool) {
	q, ok := b.byID[g][id]
	if !ok {
		return models.Question{}, false
	}
	return copyQuestion(q), true
}

// IDs returns the question ids of a track in order.
func (b *Bank) IDs(g models.Gender) []int {
	track := b.tracks[g]
	ids := make([]int, len(track))
	for i, q := range track {
		ids[i] = q.ID
	}
	return ids
}

// MaxPossible sums the maximum option score of every question in the track.
func (b *Bank) MaxPossible(g models.Gender) int {
	total := 0
	for _, q := range b.tracks[g] {
		total += q.MaxScore()
	}
	return total
}

// ReportLabel returns the dashboard label for a question, "Pregunta <id>" when unknown.
func (b *Bank) ReportLabel(g models.Gender, id int) string {
	if q, ok := b.byID[g][id]; ok && q.ReportLabel != "" {
		return q.ReportLabel
	}
	return fmt.Sprintf("Pregunta %d", id)
}

func copyQuestion(q models.Question) models.Question {
	q.Options = append([]models.Option(nil), q.Options...)
	return q
}
