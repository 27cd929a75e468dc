// internal/reporting/analyze.go
package reporting

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"pelviu-funnel/internal/models"
	"pelviu-funnel/internal/questionbank"
)

// SymptomThreshold is the answer score from which an answer counts as a symptom.
const SymptomThreshold = 20

// Analyzer derives dashboard KPIs from a snapshot of lead records.
// It never mutates its input.
type Analyzer struct {
	bank *questionbank.Bank
}

func NewAnalyzer(bank *questionbank.Bank) *Analyzer {
	return &Analyzer{bank: bank}
}

// FilterRecords keeps the records whose timestamp falls within the filter
// window ending at now. TimeFilterAll keeps everything.
func FilterRecords(records []models.LeadRecord, filter models.TimeFilter, now time.Time) []models.LeadRecord {
	window := filter.Window()
	if window == 0 {
		return records
	}

	cutoff := now.Add(-window)
	out := make([]models.LeadRecord, 0, len(records))
	for _, r := range records {
		if !r.Timestamp.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// Analyze filters records and recomputes every KPI from scratch.
func (a *Analyzer) Analyze(records []models.LeadRecord, filter models.TimeFilter, now time.Time) models.Stats {
	data := FilterRecords(records, filter, now)

	stats := models.Stats{
		Filter:          filter,
		Total:           len(data),
		ByGender:        map[models.Gender]int{models.GenderWoman: 0, models.GenderMan: 0},
		ByTreatment:     map[string]int{},
		GenderTreatment: map[models.Gender]map[string]int{models.GenderWoman: {}, models.GenderMan: {}},
		Symptoms:        map[models.Gender]map[string]int{models.GenderWoman: {}, models.GenderMan: {}},
	}

	var ages [2]ageAccumulator

	for _, r := range data {
		if r.Contact.IsLead() {
			stats.Leads++
		}

		stats.ByTreatment[r.Treatment]++

		if !r.Gender.Valid() {
			continue
		}
		stats.ByGender[r.Gender]++
		stats.GenderTreatment[r.Gender][r.Treatment]++

		for key, score := range r.Answers {
			if score < SymptomThreshold {
				continue
			}
			stats.Symptoms[r.Gender][a.label(r.Gender, key)]++
		}

		if age, ok := ParseAge(r.Contact.Age); ok {
			idx := 0
			if r.Gender == models.GenderMan {
				idx = 1
			}
			ages[idx].add(age)
		}
	}

	stats.Conversion = conversion(stats.Leads, stats.Total)
	stats.AvgAgeWomen = ages[0].render()
	stats.AvgAgeMen = ages[1].render()
	return stats
}

func (a *Analyzer) label(g models.Gender, key string) string {
	id, err := strconv.Atoi(key)
	if err != nil {
		return "Pregunta " + key
	}
	return a.bank.ReportLabel(g, id)
}

// conversion renders leads/total as a percentage with one decimal, "0" when empty.
func conversion(leads, total int) string {
	if total == 0 {
		return "0"
	}
	pct := float64(leads) / float64(total) * 100
	// Halves round up.
	return strconv.FormatFloat(math.Floor(pct*10+0.5)/10, 'f', 1, 64)
}

// ParseAge reads the leading integer of a free-text age ("42", "+42", "42 años").
// Only positive values count.
func ParseAge(s string) (int, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	end := 0
	for end < len(s) && unicode.IsDigit(rune(s[end])) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	age, err := strconv.Atoi(s[:end])
	if err != nil || age <= 0 {
		return 0, false
	}
	return age, true
}

type ageAccumulator struct {
	sum   int
	count int
}

func (a *ageAccumulator) add(age int) {
	a.sum += age
	a.count++
}

func (a ageAccumulator) render() string {
	if a.count == 0 {
		return models.AgePlaceholder
	}
	return fmt.Sprintf("%d", int(math.Floor(float64(a.sum)/float64(a.count)+0.5)))
}
