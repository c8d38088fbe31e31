package service

import (
	"context"
	"time"

	"github.com/deppfellow/vdpulizie/internal/errs"
	"github.com/deppfellow/vdpulizie/internal/metrics"
	"github.com/deppfellow/vdpulizie/internal/model"
	"github.com/deppfellow/vdpulizie/internal/server"
	"github.com/deppfellow/vdpulizie/internal/sqlerr"
)

// ListLimit caps the number of leads returned by ListLeads.
const ListLimit = 50

// LeadNotifier tells staff about a stored lead.
type LeadNotifier interface {
	NotifyNewLead(ctx context.Context, id string, lead *model.Lead) error
}

type leadRepository interface {
	Create(ctx context.Context, lead *model.Lead) (string, error)
	List(ctx context.Context, limit int) ([]model.Lead, error)
}

type LeadService struct {
	server   *server.Server
	leads    leadRepository
	notifier LeadNotifier
	now      func() time.Time
}

// NewLeadService builds the service. notifier may be nil, in which case
// no notifications are sent.
func NewLeadService(s *server.Server, leads leadRepository, notifier LeadNotifier) *LeadService {
	return &LeadService{
		server:   s,
		leads:    leads,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateLead stores a new lead with source "website" and status "nuovo"
// and returns its id.
func (s *LeadService) CreateLead(ctx context.Context, req *model.CreateLeadRequest) (string, error) {
	lead := req.ToLead(s.now())
	if err := lead.Validate(); err != nil {
		s.RecordRejected(lead.ServiceType)
		return "", errs.ValidationError(err)
	}

	id, err := s.leads.Create(ctx, lead)
	if err != nil {
		s.server.Metrics.ObserveLead(metrics.OutcomeFailed, string(lead.ServiceType))
		s.server.Logger.Error().Err(err).Msg("failed to store lead")
		return "", sqlerr.HandleError(err, model.LeadCollection)
	}

	s.server.Metrics.ObserveLead(metrics.OutcomeCreated, string(lead.ServiceType))
	s.server.Logger.Info().
		Str("lead_id", id).
		Str("service_type", string(lead.ServiceType)).
		Msg("lead created")

	s.notify(ctx, id, lead)

	return id, nil
}

// RecordRejected counts a submission that failed validation. Unknown
// service types share one label.
func (s *LeadService) RecordRejected(serviceType model.ServiceType) {
	label := string(serviceType)
	if !serviceType.Valid() {
		label = metrics.LabelInvalid
	}
	s.server.Metrics.ObserveLead(metrics.OutcomeRejected, label)
}

// notify never fails the request: the lead is already stored.
func (s *LeadService) notify(ctx context.Context, id string, lead *model.Lead) {
	if s.notifier == nil {
		s.server.Metrics.ObserveNotification(metrics.NotifySkipped)
		return
	}

	if err := s.notifier.NotifyNewLead(ctx, id, lead); err != nil {
		s.server.Metrics.ObserveNotification(metrics.NotifyFailed)
		s.server.Logger.Warn().
			Err(err).
			Str("lead_id", id).
			Msg("failed to enqueue lead notification")
		return
	}

	s.server.Metrics.ObserveNotification(metrics.NotifyEnqueued)
}

// ListLeads returns up to ListLimit leads, oldest first.
func (s *LeadService) ListLeads(ctx context.Context) ([]model.Lead, error) {
	leads, err := s.leads.List(ctx, ListLimit)
	if err != nil {
		s.server.Logger.Error().Err(err).Msg("failed to list leads")
		return nil, sqlerr.HandleError(err, model.LeadCollection)
	}
	return leads, nil
}
