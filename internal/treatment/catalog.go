package treatment

import (
	"fmt"
	"net/url"

	"pelviu-funnel/internal/models"
)

// MembershipPrice is the monthly maintenance membership fee.
const MembershipPrice = 79

const defaultWhatsAppNumber = "34676399138"

var tiers = map[models.Recommendation]models.TreatmentTier{
	models.RecommendationPrevention: {
		Name:        "Plan Prevención",
		Sessions:    1,
		Price:       65,
		Description: "Mantenimiento preventivo para una salud pélvica óptima.",
		IdealFor:    "Usuarios con suelo pélvico saludable que buscan fortalecer.",
	},
	models.RecommendationLevel1: {
		Name:        "Nivel 1 (Leve)",
		Sessions:    8,
		Price:       380,
		Description: "Ciclo inicial de tonificación con tecnología HIFEM.",
		IdealFor:    "Pérdidas ocasionales y debilidad muscular inicial.",
	},
	models.RecommendationLevel2: {
		Name:        "Nivel 2 (Moderado)",
		Sessions:    20,
		Price:       800,
		Description: "Protocolo intensivo de recuperación funcional profunda.",
		IdealFor:    "Pérdidas recurrentes que afectan la calidad de vida.",
	},
	models.RecommendationLevel3: {
		Name:        "Nivel 3 (Complejo)",
		Sessions:    30,
		Price:       1050,
		Description: "Tratamiento avanzado de reeducación neuromuscular completa.",
		IdealFor:    "Casos severos con alta afectación de la musculatura pélvica.",
	},
}

var durations = map[models.Recommendation]string{
	models.RecommendationLevel1: "4 semanas",
	models.RecommendationLevel2: "10 semanas",
	models.RecommendationLevel3: "15 semanas",
}

// ForRecommendation returns the catalog tier for r.
func ForRecommendation(r models.Recommendation) (models.TreatmentTier, bool) {
	t, ok := tiers[r]
	return t, ok
}

// ProgramDuration is the expected length of the intensive phase.
func ProgramDuration(r models.Recommendation) string {
	if d, ok := durations[r]; ok {
		return d
	}
	return "1 sesión"
}

type Entry struct {
	Recommendation  models.Recommendation `json:"recommendation"`
	Tier            models.TreatmentTier  `json:"tier"`
	ProgramDuration string                `json:"programDuration"`
}

type Catalog struct {
	Tiers           []Entry `json:"tiers"`
	MembershipPrice int     `json:"membershipPrice"`
}

// Default lists every tier in ascending severity.
func Default() Catalog {
	c := Catalog{MembershipPrice: MembershipPrice}
	for _, r := range models.Recommendations() {
		c.Tiers = append(c.Tiers, Entry{
			Recommendation:  r,
			Tier:            tiers[r],
			ProgramDuration: ProgramDuration(r),
		})
	}
	return c
}

// BookingLink builds the pre-filled WhatsApp deep link for a treatment.
func BookingLink(number, treatmentName string) string {
	if number == "" {
		number = defaultWhatsAppNumber
	}
	msg := fmt.Sprintf("Hola pelviU, he realizado mi evaluación y me gustaría reservar mi %s.", treatmentName)
	return fmt.Sprintf("https://wa.me/%s?text=%s", number, url.QueryEscape(msg))
}
