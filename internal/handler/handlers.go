package handler

import (
	"github.com/deppfellow/vdpulizie/internal/server"
	"github.com/deppfellow/vdpulizie/internal/service"
)

// Handlers groups every HTTP handler so the router receives one value.
type Handlers struct {
	Root    *RootHandler
	Lead    *LeadHandler
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Root:    NewRootHandler(s),
		Lead:    NewLeadHandler(s, services.Lead),
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
	}
}
