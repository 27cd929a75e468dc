// internal/funnel/service.go
package funnel

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	apperrors "pelviu-funnel/internal/common/errors"
	"pelviu-funnel/internal/common/logger"
	"pelviu-funnel/internal/common/metrics"
	"pelviu-funnel/internal/common/observability"
	"pelviu-funnel/internal/common/zoho"
	"pelviu-funnel/internal/models"
	"pelviu-funnel/internal/narrative"
	"pelviu-funnel/internal/notify"
	"pelviu-funnel/internal/questionbank"
	"pelviu-funnel/internal/reporting"
	"pelviu-funnel/internal/scoring"
	"pelviu-funnel/internal/store"
	"pelviu-funnel/internal/treatment"
)

const (
	followUpTimeout = 15 * time.Second
	crmLeadSource   = "pelviU Funnel"
)

type Narrator interface {
	Describe(ctx context.Context, result models.AssessmentResult) narrative.Narrative
}

type CRM interface {
	CreateLead(ctx context.Context, lead *zoho.Lead) (string, error)
}

type Notifier interface {
	NotifyNewLead(ctx context.Context, record models.LeadRecord) (notify.Result, error)
}

type Indexer interface {
	Index(ctx context.Context, record models.LeadRecord) error
	DeleteAll(ctx context.Context) error
}

// Service is the funnel's use-case layer. Scoring failures are returned to
// the caller; storage and integration failures on the public path are logged,
// counted and absorbed.
type Service struct {
	bank     *questionbank.Bank
	engine   *scoring.Engine
	store    store.Store
	recorder *store.Recorder
	analyzer *reporting.Analyzer

	narrator Narrator
	crm      CRM
	notifier Notifier
	indexer  Indexer
	obs      *observability.Observability

	whatsAppNumber string
	now            func() time.Time
	newID          func() (string, error)

	followUps sync.WaitGroup
	logger    logger.Logger
}

type Option func(*Service)

func WithNarrator(n Narrator) Option { return func(s *Service) { s.narrator = n } }
func WithCRM(c CRM) Option { return func(s *Service) { s.crm = c } }
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }
func WithIndexer(i Indexer) Option { return func(s *Service) { s.indexer = i } }
func WithWhatsAppNumber(n string) Option { return func(s *Service) { s.whatsAppNumber = n } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithObservability(o *observability.Observability) Option {
	return func(s *Service) { s.obs = o }
}

func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newID = gen }
}

func NewService(bank *questionbank.Bank, st store.Store, log logger.Logger, opts ...Option) *Service {
	log = logger.ForComponent(log, "funnel")
	s := &Service{
		bank:     bank,
		engine:   scoring.NewEngine(bank, log),
		store:    st,
		analyzer: reporting.NewAnalyzer(bank),
		now:      time.Now,
		logger:   log,
	}
	for _, opt := range opts {
		opt(s)
	}

	recorderOpts := []store.RecorderOption{store.WithClock(s.now)}
	if s.newID != nil {
		recorderOpts = append(recorderOpts, store.WithIDGenerator(s.newID))
	}
	s.recorder = store.NewRecorder(st, recorderOpts...)
	return s
}

// Wait blocks until every background follow-up has finished.
func (s *Service) Wait() {
	s.followUps.Wait()
}

func (s *Service) Questions(gender string) (models.Gender, []models.Question, error) {
	g, ok := models.ParseGender(gender)
	if !ok {
		return "", nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown gender %q", gender))
	}
	questions, ok := s.bank.Questions(g)
	if !ok {
		return "", nil, apperrors.NewNotFoundError("question track", string(g))
	}
	return g, questions, nil
}

func (s *Service) Catalog() treatment.Catalog {
	return treatment.Default()
}

type AssessRequest struct {
	Gender  string          `json:"gender"`
	Answers models.Answers  `json:"answers"`
	Contact *models.Contact `json:"contact,omitempty"`
}

type Outcome struct {
	Result          models.AssessmentResult `json:"result"`
	RecordID        string                  `json:"recordId,omitempty"`
	Persisted       bool                    `json:"persisted"`
	Narrative       narrative.Narrative     `json:"narrative"`
	ProgramDuration string                  `json:"programDuration"`
	MembershipPrice int                     `json:"membershipPrice"`
	BookingLink     string                  `json:"bookingLink"`
}

// Assess scores the submission, records it and decorates the result.
func (s *Service) Assess(ctx context.Context, req AssessRequest) (*Outcome, error) {
	start := s.now()

	gender, ok := models.ParseGender(req.Gender)
	if !ok {
		err := apperrors.NewInvalidInputError(fmt.Sprintf("unknown gender %q", req.Gender))
		s.reject(ctx, err, start)
		return nil, err
	}

	result, err := s.engine.Score(req.Answers, gender)
	if err != nil {
		s.reject(ctx, err, start)
		return nil, err
	}
	metrics.AssessmentsScored.WithLabelValues(string(gender), string(result.Recommendation)).Inc()

	outcome := &Outcome{
		Result:          *result,
		ProgramDuration: treatment.ProgramDuration(result.Recommendation),
		MembershipPrice: treatment.MembershipPrice,
		BookingLink:     treatment.BookingLink(s.whatsAppNumber, result.Treatment.Name),
	}

	var contact *models.Contact
	if req.Contact != nil {
		c := normalizeContact(*req.Contact)
		contact = &c
	}

	record, err := s.recorder.CreateFromAssessment(ctx, gender, req.Answers, result, contact)
	switch {
	case err != nil:
		metrics.StoreErrors.WithLabelValues("append").Inc()
		s.logger.Warn("failed to persist assessment", map[string]interface{}{
			"leadId": record.ID,
			"error":  err.Error(),
		})
	default:
		outcome.RecordID = record.ID
		outcome.Persisted = true
		if record.Contact.IsLead() {
			metrics.LeadsCaptured.Inc()
		}
		s.followUp(ctx, record, record.Contact.IsLead())
	}

	outcome.Narrative = s.describe(ctx, *result)

	s.obs.RecordAssessment(ctx, "scored", s.now().Sub(start))
	s.logger.Info("assessment completed", map[string]interface{}{
		"leadId":         outcome.RecordID,
		"gender":         gender,
		"score":          result.Score,
		"recommendation": result.Recommendation,
		"persisted":      outcome.Persisted,
	})
	return outcome, nil
}

func (s *Service) reject(ctx context.Context, err error, start time.Time) {
	metrics.AssessmentsRejected.WithLabelValues(string(apperrors.CodeOf(err))).Inc()
	s.obs.RecordAssessment(ctx, "rejected", s.now().Sub(start))
	s.logger.Info("assessment rejected", map[string]interface{}{"error": err.Error()})
}

func (s *Service) describe(ctx context.Context, result models.AssessmentResult) narrative.Narrative {
	if s.narrator == nil {
		metrics.NarrativeOutcomes.WithLabelValues("disabled").Inc()
		return narrative.Narrative{Text: narrative.FallbackText, Fallback: true}
	}
	n := s.narrator.Describe(ctx, result)
	if n.Fallback {
		metrics.NarrativeOutcomes.WithLabelValues("fallback").Inc()
	} else {
		metrics.NarrativeOutcomes.WithLabelValues("generated").Inc()
	}
	return n
}

// AttachContact merges contact details into an existing record.
func (s *Service) AttachContact(ctx context.Context, id string, contact models.Contact) (models.LeadRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.LeadRecord{}, apperrors.NewInvalidInputError("lead id is required")
	}
	contact = normalizeContact(contact)
	if !contact.IsLead() {
		return models.LeadRecord{}, apperrors.NewInvalidInputError("contact name is required")
	}

	found, err := s.store.Update(ctx, id, models.LeadPatch{Contact: &contact})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("update").Inc()
		return models.LeadRecord{}, err
	}
	if !found {
		return models.LeadRecord{}, apperrors.NewNotFoundError("lead", id)
	}
	metrics.LeadsCaptured.Inc()

	records, err := s.store.GetAll(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("get_all").Inc()
		return models.LeadRecord{}, err
	}
	for _, r := range records {
		if r.ID == id {
			s.followUp(ctx, r, true)
			return r, nil
		}
	}
	return models.LeadRecord{}, apperrors.NewNotFoundError("lead", id)
}

func normalizeContact(c models.Contact) models.Contact {
	return models.Contact{
		Name:  strings.TrimSpace(c.Name),
		Age:   strings.TrimSpace(c.Age),
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
	}
}

// LeadList is a store snapshot. Degraded is set when the store could not be
// read and Records is empty because of it.
type LeadList struct {
	Records  []models.LeadRecord `json:"records"`
	Degraded bool                `json:"degraded"`
}

func (s *Service) Leads(ctx context.Context) LeadList {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("get_all").Inc()
		s.logger.Warn("lead store unavailable, serving empty list", map[string]interface{}{"error": err.Error()})
		return LeadList{Records: []models.LeadRecord{}, Degraded: true}
	}
	if records == nil {
		records = []models.LeadRecord{}
	}
	return LeadList{Records: records}
}

type Report struct {
	Stats    models.Stats    `json:"stats"`
	Insights models.Insights `json:"insights"`
	Degraded bool            `json:"degraded"`
}

func (s *Service) Stats(ctx context.Context, filter models.TimeFilter) Report {
	list := s.Leads(ctx)
	stats := s.analyzer.Analyze(list.Records, filter, s.now())
	return Report{
		Stats:    stats,
		Insights: reporting.BuildInsights(stats),
		Degraded: list.Degraded,
	}
}

// ExportCSV writes every record to w and returns the suggested filename.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) (string, error) {
	list := s.Leads(ctx)
	if err := store.WriteCSV(w, list.Records); err != nil {
		return "", fmt.Errorf("failed to write csv export: %w", err)
	}
	return store.ExportFilename(s.now()), nil
}

// Clear empties the store and the search mirror. The caller confirms intent.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		metrics.StoreErrors.WithLabelValues("clear").Inc()
		return err
	}
	if s.indexer != nil {
		if err := s.indexer.DeleteAll(ctx); err != nil {
			metrics.IntegrationErrors.WithLabelValues("index").Inc()
			s.logger.Warn("failed to clear search mirror", map[string]interface{}{"error": err.Error()})
		}
	}
	s.logger.Info("lead store cleared", nil)
	return nil
}
