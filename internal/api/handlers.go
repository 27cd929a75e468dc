package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "pelviu-funnel/internal/common/errors"
	"pelviu-funnel/internal/common/validation"
	"pelviu-funnel/internal/funnel"
	"pelviu-funnel/internal/models"
)

const maxBodyBytes = 64 << 10

type questionsResponse struct {
	Gender    models.Gender     `json:"gender"`
	Questions []models.Question `json:"questions"`
}

func (h *Handler) GetQuestions(c *gin.Context) {
	gender, questions, err := h.service.Questions(c.Query("gender"))
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, questionsResponse{Gender: gender, Questions: questions})
}

func (h *Handler) GetTreatments(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Catalog())
}

func (h *Handler) CreateAssessment(c *gin.Context) {
	body, err := h.readBody(c)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	result, err := validation.ValidateAssessment(body)
	if err != nil {
		h.errors.Respond(c, apperrors.NewInvalidInputError(err.Error()))
		return
	}
	if !result.Valid {
		h.errors.Respond(c, invalidBody(result))
		return
	}

	var req funnel.AssessRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.errors.Respond(c, apperrors.NewInvalidInputError(err.Error()))
		return
	}
	if req.Contact != nil {
		if errs := validation.ContactFieldErrors(req.Contact.Email, req.Contact.Phone); len(errs) > 0 {
			h.errors.Respond(c, invalidBody(&validation.ValidationResult{Errors: errs}))
			return
		}
	}

	outcome, err := h.service.Assess(c.Request.Context(), req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) AttachContact(c *gin.Context) {
	body, err := h.readBody(c)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	result, err := validation.ValidateContact(body)
	if err != nil {
		h.errors.Respond(c, apperrors.NewInvalidInputError(err.Error()))
		return
	}
	if !result.Valid {
		h.errors.Respond(c, invalidBody(result))
		return
	}

	var contact models.Contact
	if err := json.Unmarshal(body, &contact); err != nil {
		h.errors.Respond(c, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	record, err := h.service.AttachContact(c.Request.Context(), c.Param("id"), contact)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) GetStats(c *gin.Context) {
	filter, err := models.ParseTimeFilter(c.Query("range"))
	if err != nil {
		h.errors.Respond(c, apperrors.NewInvalidInputError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, h.service.Stats(c.Request.Context(), filter))
}

func (h *Handler) ListLeads(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Leads(c.Request.Context()))
}

func (h *Handler) ExportLeads(c *gin.Context) {
	var buf bytes.Buffer
	filename, err := h.service.ExportCSV(c.Request.Context(), &buf)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) ClearLeads(c *gin.Context) {
	confirm, _ := strconv.ParseBool(c.Query("confirm"))
	if !confirm {
		h.errors.Respond(c, apperrors.NewInvalidInputError("clearing all leads requires confirm=true"))
		return
	}
	if err := h.service.Clear(c.Request.Context()); err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("failed to read request body: %v", err))
	}
	return body, nil
}

func invalidBody(result *validation.ValidationResult) *apperrors.StandardError {
	return apperrors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; ")).
		WithMetadata("errors", result.Errors)
}
