package models

import (
	"fmt"
	"strings"
	"time"
)

// TimeFilter narrows records to a trailing window before aggregation.
type TimeFilter string

const (
	TimeFilterAll     TimeFilter = "all"
	TimeFilterLast7d  TimeFilter = "7d"
	TimeFilterLast30d TimeFilter = "30d"
)

// ParseTimeFilter accepts "", "all", "7d" and "30d".
func ParseTimeFilter(s string) (TimeFilter, error) {
	switch TimeFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", TimeFilterAll:
		return TimeFilterAll, nil
	case TimeFilterLast7d:
		return TimeFilterLast7d, nil
	case TimeFilterLast30d:
		return TimeFilterLast30d, nil
	default:
		return "", fmt.Errorf("unknown time filter %q", s)
	}
}

// Window is the trailing duration covered, zero for all.
func (f TimeFilter) Window() time.Duration {
	switch f {
	case TimeFilterLast7d:
		return 7 * 24 * time.Hour
	case TimeFilterLast30d:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// AgePlaceholder is rendered when no contact in a gender has a usable age.
const AgePlaceholder = "-"

type Stats struct {
	Filter          TimeFilter                `json:"filter"`
	Total           int                       `json:"total"`
	Leads           int                       `json:"leads"`
	Conversion      string                    `json:"conversion"`
	ByGender        map[Gender]int            `json:"byGender"`
	ByTreatment     map[string]int            `json:"byTreatment"`
	GenderTreatment map[Gender]map[string]int `json:"genderTreatment"`
	Symptoms        map[Gender]map[string]int `json:"symptoms"`
	AvgAgeWomen     string                    `json:"avgAgeWomen"`
	AvgAgeMen       string                    `json:"avgAgeMen"`
}

type MessageStrategy string

const (
	StrategyClinical  MessageStrategy = "CLINICAL"
	StrategyLifestyle MessageStrategy = "LIFESTYLE"
)

type PainPoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Insights struct {
	Avatar          string          `json:"avatar"`
	PainPoints      []PainPoint     `json:"painPoints"`
	Strategy        MessageStrategy `json:"strategy"`
	StrategyMessage string          `json:"strategyMessage"`
}
