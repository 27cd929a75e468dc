// internal/api/router.go
package api

import (
	"github.com/gin-gonic/gin"

	apperrors "pelviu-funnel/internal/common/errors"
	"pelviu-funnel/internal/common/logger"
	"pelviu-funnel/internal/funnel"
)

const AdminPINHeader = "X-Admin-PIN"

type Handler struct {
	service *funnel.Service
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(service *funnel.Service, log logger.Logger) *Handler {
	log = logger.ForComponent(log, "api")
	return &Handler{
		service: service,
		errors:  apperrors.NewErrorHandler(log),
		logger:  log,
	}
}

// NewRouter builds the gin engine with the public funnel routes and the
// PIN-gated admin routes.
func NewRouter(service *funnel.Service, adminPIN string, log logger.Logger) *gin.Engine {
	h := NewHandler(service, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(h.logger))
	r.Use(Cors())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/questions", h.GetQuestions)
		v1.POST("/assessments", h.CreateAssessment)
		v1.PATCH("/leads/:id/contact", h.AttachContact)
		v1.GET("/treatments", h.GetTreatments)

		admin := v1.Group("/admin")
		admin.Use(AdminPIN(adminPIN, h.errors))
		{
			admin.GET("/stats", h.GetStats)
			admin.GET("/leads", h.ListLeads)
			admin.GET("/export", h.ExportLeads)
			admin.DELETE("/leads", h.ClearLeads)
		}
	}

	return r
}
