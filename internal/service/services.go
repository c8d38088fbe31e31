// Package service contains the business logic.
//
// It sits between the handler and repository layers: handlers pass in
// validated requests, services build the records, call repositories and
// trigger side effects.
package service

import (
	"github.com/deppfellow/vdpulizie/internal/lib/job"
	"github.com/deppfellow/vdpulizie/internal/repository"
	"github.com/deppfellow/vdpulizie/internal/server"
)

type Services struct {
	Lead *LeadService
	Job  *job.JobService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	var notifier LeadNotifier
	if s.Job != nil {
		notifier = s.Job
	}

	return &Services{
		Lead: NewLeadService(s, repos.Lead, notifier),
		Job:  s.Job,
	}, nil
}
