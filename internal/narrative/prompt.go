package narrative

import (
	"fmt"

	"pelviu-funnel/internal/models"
)

const promptTemplate = `Actúa como un experto senior en fisioterapia de suelo pélvico de pelviU. Un paciente ha obtenido una puntuación de %d%% en su evaluación de salud pélvica. Se le ha recomendado el %s (%d sesiones de tecnología HIFEM).

1. Explica brevemente por qué esta fase intensiva es crucial para su recuperación inicial basándote en la reeducación neuromuscular.
2. Justifica por qué es fundamental continuar después con la membresía de mantenimiento (que incluye 2 sesiones de refuerzo al mes) para evitar que la musculatura vuelva a debilitarse y consolidar los resultados.

IMPORTANTE: No menciones precios específicos de la membresía en este texto.
Mantén un tono clínico, profesional y alentador. Máximo 120 palabras. No uses formato markdown complejo, solo texto fluido y profesional.`

// BuildPrompt renders the clinical explanation prompt for a result.
func BuildPrompt(result models.AssessmentResult) string {
	return fmt.Sprintf(promptTemplate, result.Score, result.Treatment.Name, result.Treatment.Sessions)
}
