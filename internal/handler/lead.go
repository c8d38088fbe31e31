package handler

import (
	"github.com/deppfellow/vdpulizie/internal/model"
	"github.com/deppfellow/vdpulizie/internal/server"
	"github.com/deppfellow/vdpulizie/internal/service"
	"github.com/labstack/echo/v4"
)

type LeadHandler struct {
	Handler
	leadService *service.LeadService
}

func NewLeadHandler(s *server.Server, leadService *service.LeadService) *LeadHandler {
	return &LeadHandler{
		Handler:     NewHandler(s),
		leadService: leadService,
	}
}

func (h *LeadHandler) CreateLead(c echo.Context, req *model.CreateLeadRequest) (*model.CreateLeadResponse, error) {
	id, err := h.leadService.CreateLead(c.Request().Context(), req)
	if err != nil {
		return nil, err
	}

	return &model.CreateLeadResponse{
		Success: true,
		ID:      id,
	}, nil
}

// RejectLead counts a submission refused before it reached the service.
func (h *LeadHandler) RejectLead(_ echo.Context, req *model.CreateLeadRequest, _ error) {
	h.leadService.RecordRejected(req.ServiceType)
}

func (h *LeadHandler) ListLeads(c echo.Context, _ *model.ListLeadsRequest) ([]model.Lead, error) {
	return h.leadService.ListLeads(c.Request().Context())
}
