package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/vdpulizie/internal/config"
	"github.com/deppfellow/vdpulizie/internal/lib/email"
	"github.com/deppfellow/vdpulizie/internal/metrics"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// LeadMailer sends the staff notification for a lead.
type LeadMailer interface {
	SendNewLeadEmail(ctx context.Context, to string, lead email.NewLead) error
}

// InitHandlers sets up the dependencies of the task handlers.
func (j *JobService) InitHandlers(cfg *config.Config, logger *zerolog.Logger) {
	j.mailer = email.NewClient(cfg, logger)
	j.notifyTo = cfg.Integration.NotifyEmail
	if cfg.Integration.ResendAPIKey == "" {
		j.notifyTo = ""
	}
}

func (j *JobService) handleLeadNotificationTask(ctx context.Context, t *asynq.Task) error {
	var p LeadNotificationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal lead notification payload: %w: %w", err, asynq.SkipRetry)
	}

	if j.notifyTo == "" || j.mailer == nil {
		j.logger.Warn().
			Str("lead_id", p.LeadID).
			Msg("lead notification skipped, email integration not configured")
		j.metrics.ObserveNotification(metrics.NotifySkipped)
		return nil
	}

	j.logger.Info().
		Str("type", TaskLeadNotify).
		Str("lead_id", p.LeadID).
		Msg("Processing lead notification task")

	lead := email.NewLead{
		LeadID:       p.LeadID,
		Name:         p.Name,
		Email:        p.Email,
		Phone:        p.Phone,
		ServiceType:  p.ServiceType,
		SquareMeters: p.SquareMeters,
	}
	if p.Frequency != nil {
		lead.Frequency = *p.Frequency
	}
	if p.Message != nil {
		lead.Message = *p.Message
	}

	if err := j.mailer.SendNewLeadEmail(ctx, j.notifyTo, lead); err != nil {
		j.logger.Error().
			Str("type", TaskLeadNotify).
			Str("lead_id", p.LeadID).
			Err(err).
			Msg("Failed to send lead notification")
		j.metrics.ObserveNotification(metrics.NotifyFailed)
		return err
	}

	j.logger.Info().
		Str("type", TaskLeadNotify).
		Str("lead_id", p.LeadID).
		Msg("Successfully sent lead notification")
	j.metrics.ObserveNotification(metrics.NotifySent)

	return nil
}
