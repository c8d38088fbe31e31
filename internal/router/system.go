package router

import (
	"github.com/deppfellow/vdpulizie/internal/handler"
	"github.com/deppfellow/vdpulizie/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerSystemRoutes registers endpoints outside the lead API: liveness,
// diagnostics, health, metrics and docs.
func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/", h.Root.Root)
	r.GET("/test", h.Root.Diagnostics)

	r.GET("/status", h.Health.CheckHealth)
	r.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})))

	r.StaticFS("/static", handler.StaticFS)
	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
