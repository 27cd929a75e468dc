package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pelviu-funnel/internal/common/logger"
	"pelviu-funnel/internal/funnel"
	"pelviu-funnel/internal/models"
	"pelviu-funnel/internal/questionbank"
	"pelviu-funnel/internal/store"
)

// newTestApp shares one in-memory store across command invocations.
func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	log := logger.NewTestLogger(t)
	leadStore := store.NewSlotStore(store.NewMemorySlot(), log)
	svc := funnel.NewService(questionbank.Default(), leadStore, log,
		funnel.WithClock(func() time.Time { return time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC) }),
	)
	a := &app{
		out: out,
		open: func(ctx context.Context) (*funnel.Service, func(), error) {
			return svc, func() {}, nil
		},
	}
	return a, out
}

func execute(t *testing.T, a *app, args ...string) error {
	t.Helper()
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetErr(&bytes.Buffer{})
	return root.Execute()
}

func TestQuestionsCommand(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, execute(t, a, "questions", "--gender", "hombre"))

	text := out.String()
	assert.Contains(t, text, "# hombre track")
	assert.Contains(t, text, "max 125")
	assert.Contains(t, text, "103. ")

	assert.Error(t, execute(t, a, "questions", "--gender", "robot"))
}

func TestScoreCommand_DryRun(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, execute(t, a, "score", "--gender", "mujer", "--answers", "1=5,2=10,3=10,4=10,5=10"))

	var result models.AssessmentResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 36, result.Score)
	assert.Equal(t, models.RecommendationLevel1, result.Recommendation)

	svc, _, _ := a.open(context.Background())
	assert.Empty(t, svc.Leads(context.Background()).Records)
}

func TestScoreCommand_Save(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, execute(t, a, "score", "--save", "--gender", "hombre", "--answers", "1=25,2=30,103=20,104=25,105=25"))

	var outcome funnel.Outcome
	require.NoError(t, json.Unmarshal(out.Bytes(), &outcome))
	assert.Equal(t, 100, outcome.Result.Score)
	assert.True(t, outcome.Persisted)

	svc, _, _ := a.open(context.Background())
	assert.Len(t, svc.Leads(context.Background()).Records, 1)
}

func TestScoreCommand_Errors(t *testing.T) {
	a, _ := newTestApp(t)
	assert.Error(t, execute(t, a, "score", "--answers", "1=5"))
	assert.Error(t, execute(t, a, "score", "--answers", "q=5"))
	assert.Error(t, execute(t, a, "score"))
}

func TestStatsCommand(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, execute(t, a, "score", "--save", "--answers", "1=5,2=10,3=10,4=10,5=10"))
	out.Reset()

	require.NoError(t, execute(t, a, "stats", "--range", "7d"))
	var report funnel.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 1, report.Stats.Total)
	assert.Equal(t, models.TimeFilterLast7d, report.Stats.Filter)

	assert.Error(t, execute(t, a, "stats", "--range", "week"))
}

func TestExportCommand(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, execute(t, a, "score", "--save", "--answers", "1=5,2=10,3=10,4=10,5=10"))
	out.Reset()

	require.NoError(t, execute(t, a, "export", "-o", "-"))
	assert.True(t, strings.HasPrefix(out.String(), "ID,Date,Gender"))

	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, execute(t, a, "export", "--out", path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(string(data), "\n"), 2)
}

func TestClearCommand(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, execute(t, a, "score", "--save", "--answers", "1=5,2=10,3=10,4=10,5=10"))
	out.Reset()

	assert.Error(t, execute(t, a, "clear"))
	svc, _, _ := a.open(context.Background())
	assert.Len(t, svc.Leads(context.Background()).Records, 1)

	require.NoError(t, execute(t, a, "clear", "--yes"))
	assert.Equal(t, "cleared 1 leads\n", out.String())
	assert.Empty(t, svc.Leads(context.Background()).Records)
}

func TestOpenFromConfig_NeedsNoGenAIKey(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  backend: memory
apis:
  genai:
    provider: gemini
    api_key: ""
`), 0o644))

	a := &app{configPath: path, out: &bytes.Buffer{}}
	svc, closeFn, err := a.openFromConfig(context.Background())
	require.NoError(t, err)
	defer closeFn()

	list := svc.Leads(context.Background())
	assert.False(t, list.Degraded)
	assert.Empty(t, list.Records)
}
