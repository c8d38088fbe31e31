// Package router builds the echo instance: global middleware in order,
// then the system and lead routes.
package router

import (
	"net/http"

	"github.com/deppfellow/vdpulizie/internal/handler"
	"github.com/deppfellow/vdpulizie/internal/middleware"
	"github.com/deppfellow/vdpulizie/internal/server"
	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	mw := middleware.NewMiddlewares(s)

	r := echo.New()
	r.HideBanner = true
	r.HidePort = true
	r.HTTPErrorHandler = mw.Global.GlobalErrorHandler

	// Order matters: tracing first so the logger can pick up trace ids,
	// request id before the context enhancer that logs it.
	r.Use(
		mw.Tracing.NewRelicMiddleware(),
		mw.Tracing.EnhanceTracing(),
		middleware.RequestID(),
		mw.ContextEnhancer.EnhanceContext(),
		mw.Global.CORS(),
		mw.Global.Secure(),
		mw.Global.RequestLogger(),
		mw.Global.Recover(),
	)

	registerSystemRoutes(r, s, h)
	registerLeadRoutes(r, h, mw)

	return r
}

func registerLeadRoutes(r *echo.Echo, h *handler.Handlers, mw *middleware.Middlewares) {
	leads := r.Group("/api/leads")

	leads.GET("", handler.Handle(h.Lead.Handler, h.Lead.ListLeads, http.StatusOK))
	leads.POST("", handler.Handle(h.Lead.Handler, h.Lead.CreateLead, http.StatusOK, h.Lead.RejectLead), mw.RateLimit.PerIP())
}
