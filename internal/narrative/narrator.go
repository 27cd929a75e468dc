package narrative

import (
	"context"
	"strings"
	"time"

	"pelviu-funnel/internal/common/logger"
	"pelviu-funnel/internal/models"
)

const (
	DefaultTimeout = 8 * time.Second

	// FallbackText replaces the narrative when generation fails or times out.
	FallbackText = "Basándonos en tu perfil clínico, la fase intensiva restaurará la fuerza tensora de tus fibras musculares. La membresía posterior es vital para mantener el tono muscular alcanzado y evitar recidivas."
	// EmptyText is shown when the backend answered with no text.
	EmptyText = "No se pudo generar el análisis en este momento."
)

// Narrative is the prose attached to a result view.
type Narrative struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// Narrator decorates results with generated prose and never fails.
type Narrator struct {
	generator Generator
	timeout   time.Duration
	logger    logger.Logger
}

// NewNarrator accepts a nil generator, in which case every result gets the fallback.
func NewNarrator(gen Generator, timeout time.Duration, log logger.Logger) *Narrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Narrator{
		generator: gen,
		timeout:   timeout,
		logger:    logger.ForComponent(log, "narrative"),
	}
}

func (n *Narrator) Describe(ctx context.Context, result models.AssessmentResult) Narrative {
	if n.generator == nil {
		return Narrative{Text: FallbackText, Fallback: true}
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	start := time.Now()
	text, err := n.generator.Generate(ctx, BuildPrompt(result))
	if err != nil {
		n.logger.Warn("narrative generation failed, using fallback", map[string]interface{}{
			"error":    err,
			"score":    result.Score,
			"duration": time.Since(start).String(),
		})
		return Narrative{Text: FallbackText, Fallback: true}
	}

	if strings.TrimSpace(text) == "" {
		return Narrative{Text: EmptyText, Fallback: true}
	}

	n.logger.Debug("narrative generated", map[string]interface{}{
		"score":    result.Score,
		"chars":    len(text),
		"duration": time.Since(start).String(),
	})
	return Narrative{Text: strings.TrimSpace(text)}
}
