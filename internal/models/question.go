package models

import "strings"

// Gender selects the question track. Values match the persisted lead format.
type Gender string

const (
	GenderWoman Gender = "mujer"
	GenderMan   Gender = "hombre"
)

// Genders lists the supported tracks in display order.
func Genders() []Gender {
	return []Gender{GenderWoman, GenderMan}
}

func (g Gender) Valid() bool {
	return g == GenderWoman || g == GenderMan
}

// ParseGender accepts the stored values and their English aliases.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mujer", "woman", "female", "f":
		return GenderWoman, true
	case "hombre", "man", "male", "m":
		return GenderMan, true
	default:
		return "", false
	}
}

type Option struct {
	Label string `json:"label" yaml:"label"`
	Score int    `json:"score" yaml:"score"`
}

type Question struct {
	ID          int      `json:"id" yaml:"id"`
	Text        string   `json:"text" yaml:"text"`
	Description string   `json:"description,omitempty" yaml:"description"`
	ReportLabel string   `json:"reportLabel" yaml:"report_label"`
	Options     []Option `json:"options" yaml:"options"`
}

// MaxScore is the question's contribution to the normalization denominator.
func (q Question) MaxScore() int {
	max := 0
	for _, o := range q.Options {
		if o.Score > max {
			max = o.Score
		}
	}
	return max
}

// HasScore reports whether score is one of the question's option scores.
func (q Question) HasScore(score int) bool {
	for _, o := range q.Options {
		if o.Score == score {
			return true
		}
	}
	return false
}

// Answers maps Question.ID to the score of the selected option.
type Answers map[int]int
