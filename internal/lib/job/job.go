// Package job provides background job processing using Asynq.
//
// Tasks are enqueued with an asynq.Client and processed by an
// asynq.Server, both backed by Redis.
package job

import (
	"context"

	"github.com/deppfellow/vdpulizie/internal/config"
	"github.com/deppfellow/vdpulizie/internal/metrics"
	"github.com/deppfellow/vdpulizie/internal/model"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	Client *asynq.Client
	server *asynq.Server
	logger *zerolog.Logger

	metrics  *metrics.Metrics
	mailer   LeadMailer
	notifyTo string
}

// NewJobService creates a JobService using the Redis at cfg.Redis.Address.
func NewJobService(logger *zerolog.Logger, cfg *config.Config, m *metrics.Metrics) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	return &JobService{
		Client:  asynq.NewClient(redisOpt),
		server:  server,
		logger:  logger,
		metrics: m,
	}
}

// NotifyNewLead enqueues the staff notification for a stored lead.
func (j *JobService) NotifyNewLead(ctx context.Context, id string, lead *model.Lead) error {
	task, err := NewLeadNotificationTask(id, lead)
	if err != nil {
		return err
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Str("lead_id", id).
		Msg("enqueued lead notification")
	return nil
}

// Start registers the task handlers and starts the worker server. It
// returns once the workers are running.
func (j *JobService) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskLeadNotify, j.handleLeadNotificationTask)

	j.logger.Info().Msg("Starting background job server")

	return j.server.Start(mux)
}

// Stop shuts the workers down and closes the enqueue client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}
