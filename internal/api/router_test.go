package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pelviu-funnel/internal/common/logger"
	"pelviu-funnel/internal/funnel"
	"pelviu-funnel/internal/models"
	"pelviu-funnel/internal/questionbank"
	"pelviu-funnel/internal/store"
)

const testPIN = "4321"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	service *funnel.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.NewTestLogger(t)
	st := store.NewSlotStore(store.NewMemorySlot(), log)
	svc := funnel.NewService(questionbank.Default(), st, log,
		funnel.WithClock(func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }),
	)
	return &testServer{router: NewRouter(svc, testPIN, log), service: svc}
}

func (s *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func admin() map[string]string {
	return map[string]string{AdminPINHeader: testPIN}
}

type errorBody struct {
	Error struct {
		Code     string                 `json:"code"`
		Details  string                 `json:"details"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

const level1Body = `{"gender":"mujer","answers":{"1":5,"2":10,"3":10,"4":10,"5":10}}`

func TestGetQuestions(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/questions?gender=hombre", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp questionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.GenderMan, resp.Gender)
	require.Len(t, resp.Questions, 5)
	assert.Equal(t, 105, resp.Questions[4].ID)

	w = s.do(http.MethodGet, "/api/v1/questions?gender=alien", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, w).Error.Code)
}

func TestGetTreatments(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/v1/treatments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"membershipPrice":79`)
	assert.Contains(t, w.Body.String(), "Nivel 3 (Complejo)")
}

func TestCreateAssessment(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		validate   func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name:       "valid submission",
			body:       level1Body,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				var out funnel.Outcome
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
				assert.Equal(t, 36, out.Result.Score)
				assert.Equal(t, models.RecommendationLevel1, out.Result.Recommendation)
				assert.True(t, out.Persisted)
				assert.NotEmpty(t, out.RecordID)
				assert.True(t, out.Narrative.Fallback)
			},
		},
		{
			name:       "schema violation",
			body:       `{"gender":"mujer","answers":{"1":"five"}}`,
			wantStatus: http.StatusBadRequest,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				body := decodeError(t, w)
				assert.Equal(t, "INVALID_INPUT", body.Error.Code)
				assert.Contains(t, body.Error.Metadata, "errors")
			},
		},
		{
			name:       "incomplete answer set",
			body:       `{"gender":"mujer","answers":{"1":5}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid contact email",
			body:       `{"gender":"mujer","answers":{"1":5,"2":10,"3":10,"4":10,"5":10},"contact":{"name":"Ana","email":"nope"}}`,
			wantStatus: http.StatusBadRequest,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, "email: invalid email address", decodeError(t, w).Error.Details)
			},
		},
		{
			name:       "not json",
			body:       `gender=mujer`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(http.MethodPost, "/api/v1/assessments", tt.body, nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.validate != nil {
				tt.validate(t, w)
			}
		})
	}
}

func TestAttachContact(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/assessments", level1Body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out funnel.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))

	w = s.do(http.MethodPatch, "/api/v1/leads/"+out.RecordID+"/contact", `{"name":"Rosa","age":"50","phone":"+34 600 111 222"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rec models.LeadRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "Rosa", rec.Contact.Name)
	assert.Equal(t, out.RecordID, rec.ID)

	w = s.do(http.MethodPatch, "/api/v1/leads/unknown/contact", `{"name":"Rosa"}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPatch, "/api/v1/leads/"+out.RecordID+"/contact", `{"age":"50"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesRequirePIN(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/admin/stats", "/api/v1/admin/leads", "/api/v1/admin/export"} {
		w := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)

		w = s.do(http.MethodGet, path, "", map[string]string{AdminPINHeader: "0000"})
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestAdminStats(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/assessments", level1Body, nil).Code)

	w := s.do(http.MethodGet, "/api/v1/admin/stats?range=30d", "", admin())
	require.Equal(t, http.StatusOK, w.Code)

	var report funnel.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Stats.Total)
	assert.Equal(t, models.TimeFilterLast30d, report.Stats.Filter)
	assert.Equal(t, 1, report.Stats.ByTreatment["Nivel 1 (Leve)"])

	w = s.do(http.MethodGet, "/api/v1/admin/stats?range=1y", "", admin())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminLeadsExportAndClear(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/assessments", level1Body, nil).Code)

	w := s.do(http.MethodGet, "/api/v1/admin/leads", "", admin())
	require.Equal(t, http.StatusOK, w.Code)
	var list funnel.LeadList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Records, 1)
	assert.False(t, list.Degraded)

	w = s.do(http.MethodGet, "/api/v1/admin/export", "", admin())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="pelviu_leads_2026-06-01.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "ID,Date,Gender,Age,Score"))

	w = s.do(http.MethodDelete, "/api/v1/admin/leads", "", admin())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, s.service.Leads(context.Background()).Records, 1)

	w = s.do(http.MethodDelete, "/api/v1/admin/leads?confirm=true", "", admin())
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, s.service.Leads(context.Background()).Records)
}

func TestCorsPreflight(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodOptions, "/api/v1/assessments", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), AdminPINHeader)
}
