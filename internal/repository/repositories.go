// Package repository maps domain records to store documents.
//
// Repositories hold no business rules: they translate between model types
// and store.Document and pass calls through to the store.
package repository

import (
	"github.com/deppfellow/vdpulizie/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Lead *LeadRepository
}

func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Lead: NewLeadRepository(s.Store),
	}
}
