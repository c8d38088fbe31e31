package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/vdpulizie/internal/lib/utils"
	"github.com/deppfellow/vdpulizie/internal/middleware"
	"github.com/deppfellow/vdpulizie/internal/server"
	"github.com/deppfellow/vdpulizie/internal/store"
	"github.com/labstack/echo/v4"
)

const (
	rootMessage = "VD Pulizie Backend attivo"

	// maxDiagnosticCollections caps the collections listed by /test.
	maxDiagnosticCollections = 10
	// maxDiagnosticError caps error text, in runes, in /test strings.
	maxDiagnosticError = 50
)

type RootResponse struct {
	Message string `json:"message"`
}

// DiagnosticsResponse is the body of GET /test.
type DiagnosticsResponse struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	DatabaseURL      string   `json:"database_url"`
	DatabaseName     string   `json:"database_name"`
	ConnectionStatus string   `json:"connection_status"`
	Collections      []string `json:"collections"`
}

// RootHandler serves the liveness message and the diagnostic probe.
type RootHandler struct {
	Handler
}

func NewRootHandler(s *server.Server) *RootHandler {
	return &RootHandler{
		Handler: NewHandler(s),
	}
}

func (h *RootHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, RootResponse{Message: rootMessage})
}

// Diagnostics reports backend and database status. It always answers 200:
// failures, panics included, are rendered into the status strings.
func (h *RootHandler) Diagnostics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	resp := h.probe(ctx)

	cfg := h.server.Config.Database
	resp.DatabaseURL = utils.Mark(cfg.URL != "", "Set", "Not Set")
	resp.DatabaseName = utils.Mark(cfg.Name != "", "Set", "Not Set")

	if resp.ConnectionStatus != "Connected" {
		middleware.GetLogger(c).Warn().Str("database", resp.Database).Msg("diagnostic probe found database issues")
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *RootHandler) probe(ctx context.Context) (resp DiagnosticsResponse) {
	resp = DiagnosticsResponse{
		Backend:          "✅ Running",
		Database:         "❌ Not Available",
		ConnectionStatus: "Not Connected",
		Collections:      []string{},
	}

	defer func() {
		if r := recover(); r != nil {
			resp.Database = "❌ Error: " + utils.Truncate(fmt.Sprint(r), maxDiagnosticError)
		}
	}()

	if !store.Persistent(h.server.Store) {
		resp.Database = "⚠️  Available but not initialized"
		return resp
	}

	resp.Database = "✅ Available"
	resp.ConnectionStatus = "Connected"

	collections, err := h.server.Store.ListCollections(ctx)
	if err != nil {
		resp.Database = "⚠️  Connected but Error: " + utils.Truncate(err.Error(), maxDiagnosticError)
		return resp
	}

	if len(collections) > maxDiagnosticCollections {
		collections = collections[:maxDiagnosticCollections]
	}
	resp.Collections = collections
	resp.Database = "✅ Connected & Working"

	return resp
}
