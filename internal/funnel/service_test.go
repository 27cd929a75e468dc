package funnel

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pelviu-funnel/internal/common/errors"
	"pelviu-funnel/internal/common/logger"
	"pelviu-funnel/internal/common/zoho"
	"pelviu-funnel/internal/models"
	"pelviu-funnel/internal/narrative"
	"pelviu-funnel/internal/notify"
	"pelviu-funnel/internal/questionbank"
	"pelviu-funnel/internal/store"
)

var fixedNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

// Mock Implementations
// ==========================

type fakeNarrator struct {
	narrative narrative.Narrative
}

func (f *fakeNarrator) Describe(ctx context.Context, result models.AssessmentResult) narrative.Narrative {
	return f.narrative
}

type fakeCRM struct {
	mu    sync.Mutex
	leads []*zoho.Lead
	err   error
}

func (f *fakeCRM) CreateLead(ctx context.Context, lead *zoho.Lead) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, lead)
	return "zoho-1", f.err
}

type fakeNotifier struct {
	mu      sync.Mutex
	records []models.LeadRecord
}

func (f *fakeNotifier) NotifyNewLead(ctx context.Context, record models.LeadRecord) (notify.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return notify.Result{EmailSent: true}, nil
}

type fakeIndexer struct {
	mu       sync.Mutex
	indexed  []string
	cleared  int
	indexErr error
}

func (f *fakeIndexer) Index(ctx context.Context, record models.LeadRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, record.ID)
	return f.indexErr
}

func (f *fakeIndexer) DeleteAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return nil
}

type brokenStore struct{}

func (brokenStore) GetAll(ctx context.Context) ([]models.LeadRecord, error) {
	return []models.LeadRecord{}, apperrors.NewStorageUnavailableError("read", errors.New("connection refused"))
}

func (brokenStore) Append(ctx context.Context, record models.LeadRecord) error {
	return apperrors.NewStorageUnavailableError("write", errors.New("connection refused"))
}

func (brokenStore) Update(ctx context.Context, id string, patch models.LeadPatch) (bool, error) {
	return false, apperrors.NewStorageUnavailableError("write", errors.New("connection refused"))
}

func (brokenStore) Clear(ctx context.Context) error {
	return apperrors.NewStorageUnavailableError("clear", errors.New("connection refused"))
}

// ==========================

func sequentialIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return "lead-" + string(rune('0'+n)), nil
	}
}

func newTestService(t *testing.T, st store.Store, opts ...Option) *Service {
	t.Helper()
	if st == nil {
		st = store.NewSlotStore(store.NewMemorySlot(), logger.NewTestLogger(t))
	}
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
	}
	return NewService(questionbank.Default(), st, logger.NewTestLogger(t), append(base, opts...)...)
}

func womanLevel1() models.Answers {
	return models.Answers{1: 5, 2: 10, 3: 10, 4: 10, 5: 10}
}

func womanLevel3() models.Answers {
	return models.Answers{1: 25, 2: 30, 3: 30, 4: 20, 5: 20}
}

func TestQuestions(t *testing.T) {
	s := newTestService(t, nil)

	g, questions, err := s.Questions("hombre")
	require.NoError(t, err)
	assert.Equal(t, models.GenderMan, g)
	assert.Len(t, questions, 5)
	assert.Equal(t, 103, questions[2].ID)

	_, _, err = s.Questions("robot")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name           string
		req            AssessRequest
		wantErr        error
		validateOutput func(t *testing.T, s *Service, out *Outcome)
	}{
		{
			name: "anonymous woman level 1",
			req:  AssessRequest{Gender: "mujer", Answers: womanLevel1()},
			validateOutput: func(t *testing.T, s *Service, out *Outcome) {
				assert.Equal(t, 36, out.Result.Score)
				assert.Equal(t, models.RecommendationLevel1, out.Result.Recommendation)
				assert.Equal(t, "lead-1", out.RecordID)
				assert.True(t, out.Persisted)
				assert.Equal(t, "4 semanas", out.ProgramDuration)
				assert.Equal(t, 79, out.MembershipPrice)
				assert.Contains(t, out.BookingLink, "https://wa.me/34676399138?text=")

				list := s.Leads(context.Background())
				require.Len(t, list.Records, 1)
				rec := list.Records[0]
				assert.Equal(t, map[string]int{"1": 5, "2": 10, "3": 10, "4": 10, "5": 10}, rec.Answers)
				assert.Equal(t, "Nivel 1 (Leve)", rec.Treatment)
				assert.Equal(t, fixedNow, rec.Timestamp)
				assert.False(t, rec.Contact.IsLead())
			},
		},
		{
			name: "english gender alias with contact",
			req: AssessRequest{
				Gender:  "woman",
				Answers: womanLevel3(),
				Contact: &models.Contact{Name: "  Marta Gil ", Age: "55", Phone: "+34600000000"},
			},
			validateOutput: func(t *testing.T, s *Service, out *Outcome) {
				assert.Equal(t, 100, out.Result.Score)
				assert.Equal(t, models.RecommendationLevel3, out.Result.Recommendation)
				rec := s.Leads(context.Background()).Records[0]
				assert.Equal(t, "Marta Gil", rec.Contact.Name)
				assert.Equal(t, models.GenderWoman, rec.Gender)
			},
		},
		{
			name:    "partial answers are rejected",
			req:     AssessRequest{Gender: "mujer", Answers: models.Answers{1: 5}},
			wantErr: apperrors.ErrInvalidInput,
		},
		{
			name:    "unknown gender is rejected",
			req:     AssessRequest{Gender: "x", Answers: womanLevel1()},
			wantErr: apperrors.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t, nil)
			out, err := s.Assess(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Nil(t, out)
				assert.Empty(t, s.Leads(context.Background()).Records)
				return
			}
			require.NoError(t, err)
			tt.validateOutput(t, s, out)
		})
	}
}

func TestAssess_NarrativeOutcomes(t *testing.T) {
	s := newTestService(t, nil)
	out, err := s.Assess(context.Background(), AssessRequest{Gender: "mujer", Answers: womanLevel1()})
	require.NoError(t, err)
	assert.Equal(t, narrative.FallbackText, out.Narrative.Text)
	assert.True(t, out.Narrative.Fallback)

	s = newTestService(t, nil, WithNarrator(&fakeNarrator{narrative: narrative.Narrative{Text: "Tu suelo pélvico..."}}))
	out, err = s.Assess(context.Background(), AssessRequest{Gender: "mujer", Answers: womanLevel1()})
	require.NoError(t, err)
	assert.Equal(t, "Tu suelo pélvico...", out.Narrative.Text)
	assert.False(t, out.Narrative.Fallback)
}

func TestAssess_StorageFailureStillReturnsResult(t *testing.T) {
	idx := &fakeIndexer{}
	s := newTestService(t, brokenStore{}, WithIndexer(idx))

	out, err := s.Assess(context.Background(), AssessRequest{Gender: "hombre", Answers: models.Answers{1: 10, 2: 20, 103: 10, 104: 15, 105: 15}})
	require.NoError(t, err)
	s.Wait()

	assert.Equal(t, 56, out.Result.Score)
	assert.Equal(t, models.RecommendationLevel2, out.Result.Recommendation)
	assert.False(t, out.Persisted)
	assert.Empty(t, out.RecordID)
	assert.Empty(t, idx.indexed)
}

func TestAssess_FollowUps(t *testing.T) {
	crm := &fakeCRM{}
	notifier := &fakeNotifier{}
	idx := &fakeIndexer{}
	s := newTestService(t, nil, WithCRM(crm), WithNotifier(notifier), WithIndexer(idx))

	_, err := s.Assess(context.Background(), AssessRequest{Gender: "mujer", Answers: womanLevel1()})
	require.NoError(t, err)
	_, err = s.Assess(context.Background(), AssessRequest{
		Gender:  "mujer",
		Answers: womanLevel3(),
		Contact: &models.Contact{Name: "Lucía Martín Soto", Email: "lucia@example.com", Age: "47"},
	})
	require.NoError(t, err)
	s.Wait()

	assert.ElementsMatch(t, []string{"lead-1", "lead-2"}, idx.indexed)

	require.Len(t, crm.leads, 1)
	assert.Equal(t, "Lucía", crm.leads[0].FirstName)
	assert.Equal(t, "Martín Soto", crm.leads[0].LastName)
	assert.Equal(t, crmLeadSource, crm.leads[0].Source)
	assert.Contains(t, crm.leads[0].Description, "100%")
	assert.Contains(t, crm.leads[0].Description, "lead-2")

	require.Len(t, notifier.records, 1)
	assert.Equal(t, "lead-2", notifier.records[0].ID)
}

func TestAssess_FollowUpFailuresAreAbsorbed(t *testing.T) {
	crm := &fakeCRM{err: errors.New("zoho down")}
	idx := &fakeIndexer{indexErr: errors.New("es down")}
	s := newTestService(t, nil, WithCRM(crm), WithIndexer(idx))

	out, err := s.Assess(context.Background(), AssessRequest{
		Gender:  "mujer",
		Answers: womanLevel1(),
		Contact: &models.Contact{Name: "Ana"},
	})
	require.NoError(t, err)
	s.Wait()
	assert.True(t, out.Persisted)
	assert.Len(t, crm.leads, 1)
}

func TestAttachContact(t *testing.T) {
	crm := &fakeCRM{}
	idx := &fakeIndexer{}
	s := newTestService(t, nil, WithCRM(crm), WithIndexer(idx))

	out, err := s.Assess(context.Background(), AssessRequest{Gender: "mujer", Answers: womanLevel1()})
	require.NoError(t, err)

	rec, err := s.AttachContact(context.Background(), out.RecordID, models.Contact{Name: "Elena", Age: "39", Email: "elena@example.com"})
	require.NoError(t, err)
	s.Wait()

	assert.Equal(t, out.RecordID, rec.ID)
	assert.Equal(t, "Elena", rec.Contact.Name)
	assert.Equal(t, 36, rec.Score)
	assert.Equal(t, fixedNow, rec.Timestamp)
	require.Len(t, crm.leads, 1)
	assert.Equal(t, "Elena", crm.leads[0].LastName)
	assert.Equal(t, []string{out.RecordID, out.RecordID}, idx.indexed)

	stored := s.Leads(context.Background()).Records
	require.Len(t, stored, 1)
	assert.Equal(t, "elena@example.com", stored[0].Contact.Email)
}

func TestAttachContact_Errors(t *testing.T) {
	s := newTestService(t, nil)

	_, err := s.AttachContact(context.Background(), "missing", models.Contact{Name: "Eva"})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = s.AttachContact(context.Background(), "lead-1", models.Contact{Name: "  "})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = s.AttachContact(context.Background(), "", models.Contact{Name: "Eva"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	broken := newTestService(t, brokenStore{})
	_, err = broken.AttachContact(context.Background(), "lead-1", models.Contact{Name: "Eva"})
	assert.True(t, errors.Is(err, apperrors.ErrStorageUnavailable))
}

func TestLeadsAndStats_DegradeOnStorageFailure(t *testing.T) {
	s := newTestService(t, brokenStore{})

	list := s.Leads(context.Background())
	assert.True(t, list.Degraded)
	assert.NotNil(t, list.Records)
	assert.Empty(t, list.Records)

	report := s.Stats(context.Background(), models.TimeFilterAll)
	assert.True(t, report.Degraded)
	assert.Equal(t, 0, report.Stats.Total)
	assert.Equal(t, "0", report.Stats.Conversion)
}

func TestStats(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	_, err := s.Assess(ctx, AssessRequest{Gender: "mujer", Answers: womanLevel3(), Contact: &models.Contact{Name: "Ana", Age: "40"}})
	require.NoError(t, err)
	_, err = s.Assess(ctx, AssessRequest{Gender: "mujer", Answers: womanLevel1()})
	require.NoError(t, err)

	report := s.Stats(ctx, models.TimeFilterLast7d)
	assert.False(t, report.Degraded)
	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.Leads)
	assert.Equal(t, "50.0", report.Stats.Conversion)
	assert.Equal(t, "40", report.Stats.AvgAgeWomen)
	assert.Equal(t, models.StrategyLifestyle, report.Insights.Strategy)
	assert.NotEmpty(t, report.Insights.PainPoints)
}

func TestExportCSV(t *testing.T) {
	s := newTestService(t, nil)
	_, err := s.Assess(context.Background(), AssessRequest{Gender: "mujer", Answers: womanLevel1(), Contact: &models.Contact{Name: `Ana "Anita"`}})
	require.NoError(t, err)

	var buf bytes.Buffer
	name, err := s.ExportCSV(context.Background(), &buf)
	require.NoError(t, err)

	assert.Equal(t, "pelviu_leads_2026-05-04.csv", name)
	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(store.CSVHeaders, ","), lines[0])
	assert.Contains(t, lines[1], `"Ana ""Anita"""`)
}

func TestClear(t *testing.T) {
	idx := &fakeIndexer{}
	s := newTestService(t, nil, WithIndexer(idx))
	_, err := s.Assess(context.Background(), AssessRequest{Gender: "mujer", Answers: womanLevel1()})
	require.NoError(t, err)
	s.Wait()

	require.NoError(t, s.Clear(context.Background()))
	assert.Empty(t, s.Leads(context.Background()).Records)
	assert.Equal(t, 1, idx.cleared)

	broken := newTestService(t, brokenStore{})
	assert.True(t, errors.Is(broken.Clear(context.Background()), apperrors.ErrStorageUnavailable))
}

func TestCatalog(t *testing.T) {
	s := newTestService(t, nil)
	c := s.Catalog()
	assert.Equal(t, 79, c.MembershipPrice)
	assert.Len(t, c.Tiers, 4)
}
