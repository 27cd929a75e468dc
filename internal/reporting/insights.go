package reporting

import (
	"sort"

	"pelviu-funnel/internal/models"
	"pelviu-funnel/internal/treatment"
)

const (
	AvatarNoData = "Esperando datos..."
	AvatarWoman  = "Mujer activa, consciente de su salud pélvica, buscando prevención o recuperación post-parto."
	AvatarMan    = "Hombre preocupado por salud funcional, post-quirúrgica o rendimiento sexual."
	AvatarMixed  = "Perfil Mixto: Hombres y Mujeres con interés compartido en salud pélvica preventiva y correctiva."

	ClinicalMessage  = "💡 Enfoque CLÍNICO: Tu audiencia sufre patologías avanzadas. Usa palabras como 'Recuperación', 'Solución Médica', 'Sin Cirugía'. Muestra testimonios de casos de éxito severos."
	LifestyleMessage = "💡 Enfoque LIFESTYLE: Tu audiencia busca mejora y prevención. Usa palabras como 'Potencia', 'Control', 'Bienestar', 'Intimidad'. Vende la transformación positiva y el biohacking pélvico."
)

// MaxPainPoints caps the pain point ranking.
const MaxPainPoints = 3

// BuildInsights turns aggregated stats into the marketing panel.
func BuildInsights(stats models.Stats) models.Insights {
	strategy := Strategy(stats.ByTreatment)
	msg := LifestyleMessage
	if strategy == models.StrategyClinical {
		msg = ClinicalMessage
	}

	return models.Insights{
		Avatar:          Avatar(stats.ByGender),
		PainPoints:      PainPoints(stats.Symptoms, MaxPainPoints),
		Strategy:        strategy,
		StrategyMessage: msg,
	}
}

// Avatar picks the dominant audience profile from the gender split.
func Avatar(byGender map[models.Gender]int) string {
	w := byGender[models.GenderWoman]
	m := byGender[models.GenderMan]
	total := w + m
	if total == 0 {
		return AvatarNoData
	}

	womenPct := float64(w) / float64(total) * 100
	switch {
	case womenPct > 65:
		return AvatarWoman
	case womenPct < 35:
		return AvatarMan
	default:
		return AvatarMixed
	}
}

// PainPoints merges both tracks' symptom counts, summing shared labels, and
// returns the top n by count, ties broken by label.
func PainPoints(symptoms map[models.Gender]map[string]int, n int) []models.PainPoint {
	merged := map[string]int{}
	for _, g := range models.Genders() {
		for label, count := range symptoms[g] {
			merged[label] += count
		}
	}

	points := make([]models.PainPoint, 0, len(merged))
	for label, count := range merged {
		points = append(points, models.PainPoint{Label: label, Count: count})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Count != points[j].Count {
			return points[i].Count > points[j].Count
		}
		return points[i].Label < points[j].Label
	})

	if len(points) > n {
		points = points[:n]
	}
	return points
}

// Strategy is CLINICAL when severe tiers outnumber the mild ones.
func Strategy(byTreatment map[string]int) models.MessageStrategy {
	severe := countTier(byTreatment, models.RecommendationLevel2) + countTier(byTreatment, models.RecommendationLevel3)
	mild := countTier(byTreatment, models.RecommendationPrevention) + countTier(byTreatment, models.RecommendationLevel1)
	if severe > mild {
		return models.StrategyClinical
	}
	return models.StrategyLifestyle
}

func countTier(byTreatment map[string]int, r models.Recommendation) int {
	tier, ok := treatment.ForRecommendation(r)
	if !ok {
		return 0
	}
	return byTreatment[tier.Name]
}
