package funnel

import (
	"context"
	"fmt"

	"pelviu-funnel/internal/common/metrics"
	"pelviu-funnel/internal/common/zoho"
	"pelviu-funnel/internal/models"
)

// followUp mirrors the record and, for leads, pushes it to the CRM and the
// clinic. It runs detached from the request so a slow integration never
// delays the result.
func (s *Service) followUp(ctx context.Context, record models.LeadRecord, isLead bool) {
	if s.indexer == nil && (!isLead || (s.crm == nil && s.notifier == nil)) {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), followUpTimeout)
	s.followUps.Add(1)
	go func() {
		defer s.followUps.Done()
		defer cancel()

		if s.indexer != nil {
			if err := s.indexer.Index(ctx, record); err != nil {
				s.integrationFailed("index", record.ID, err)
			}
		}
		if !isLead {
			return
		}
		if s.crm != nil {
			if zohoID, err := s.crm.CreateLead(ctx, crmLead(record)); err != nil {
				s.integrationFailed("crm", record.ID, err)
			} else {
				s.logger.Info("lead pushed to crm", map[string]interface{}{"leadId": record.ID, "zohoId": zohoID})
			}
		}
		if s.notifier != nil {
			if _, err := s.notifier.NotifyNewLead(ctx, record); err != nil {
				s.integrationFailed("notify", record.ID, err)
			}
		}
	}()
}

func (s *Service) integrationFailed(integration, leadID string, err error) {
	metrics.IntegrationErrors.WithLabelValues(integration).Inc()
	s.logger.Warn("lead follow-up failed", map[string]interface{}{
		"integration": integration,
		"leadId":      leadID,
		"error":       err.Error(),
	})
}

func crmLead(r models.LeadRecord) *zoho.Lead {
	first, last := zoho.SplitName(r.Contact.Name)
	return &zoho.Lead{
		FirstName: first,
		LastName:  last,
		Email:     r.Contact.Email,
		Phone:     r.Contact.Phone,
		Source:    crmLeadSource,
		Description: fmt.Sprintf("Evaluación %s: %d%% (%s). Edad: %s. Ref: %s",
			r.Gender, r.Score, r.Treatment, r.Contact.Age, r.ID),
	}
}
