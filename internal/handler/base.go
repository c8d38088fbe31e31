// Package handler is the HTTP entry point after the router: it binds and
// validates requests, calls the service layer and writes responses.
package handler

import (
	"net/http"
	"time"

	"github.com/deppfellow/vdpulizie/internal/errs"
	"github.com/deppfellow/vdpulizie/internal/middleware"
	"github.com/deppfellow/vdpulizie/internal/server"
	"github.com/deppfellow/vdpulizie/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Handler holds the shared dependencies of every concrete handler.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc is a typed endpoint receiving a bound and validated request.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// RejectFunc observes a request that failed binding or validation. req
// holds whatever was bound before the failure.
type RejectFunc[Req validation.Validatable] func(c echo.Context, req Req, err error)

// Handle adapts a typed handler into an echo.HandlerFunc. Every request
// binds into a freshly allocated T:
//
//	leads.POST("", handler.Handle(h.Lead.Handler, h.Lead.CreateLead, http.StatusOK, h.Lead.RejectLead))
func Handle[T any, Req interface {
	*T
	validation.Validatable
}, Res any](
	h Handler,
	handler HandlerFunc[Req, Res],
	status int,
	onReject ...RejectFunc[Req],
) echo.HandlerFunc {
	return func(c echo.Context) error {
		rt := h.begin(c)

		req := Req(new(T))
		if err := validation.BindAndValidate(c, req); err != nil {
			for _, fn := range onReject {
				fn(c, req, err)
			}
			return rt.fail(err, "validation", "request validation failed")
		}
		rt.mark("validation")

		result, err := handler(c, req)
		if err != nil {
			return rt.fail(err, "handler", "handler execution failed")
		}
		rt.mark("handler")

		if err := c.JSON(status, result); err != nil {
			return err
		}
		rt.done(c.Response().Status)
		return nil
	}
}

// requestTrace times the phases of one request and reports them to the
// logger, New Relic and Prometheus.
type requestTrace struct {
	h      Handler
	route  string
	start  time.Time
	phase  time.Time
	txn    *newrelic.Transaction
	logger zerolog.Logger
	event  map[string]time.Duration
}

func (h Handler) begin(c echo.Context) *requestTrace {
	now := time.Now()
	rt := &requestTrace{
		h:     h,
		route: c.Path(),
		start: now,
		phase: now,
		txn:   newrelic.FromContext(c.Request().Context()),
		event: make(map[string]time.Duration, 2),
	}
	rt.logger = middleware.GetLogger(c).With().Str("route", rt.route).Logger()

	if rt.txn != nil {
		rt.txn.AddAttribute("handler.name", rt.route)
	}
	rt.logger.Debug().Msg("handling request")
	return rt
}

// mark closes the current phase as successful.
func (rt *requestTrace) mark(phase string) {
	d := time.Since(rt.phase)
	rt.phase = time.Now()
	rt.event[phase] = d

	if rt.txn != nil {
		rt.txn.AddAttribute(phase+".status", "success")
		rt.txn.AddAttribute(phase+".duration_ms", d.Milliseconds())
	}
}

func (rt *requestTrace) fail(err error, phase, msg string) error {
	d := time.Since(rt.phase)
	total := time.Since(rt.start)

	event := rt.logger.Error()
	if phase == "validation" {
		event = rt.logger.Warn()
	}
	event.
		Err(err).
		Dur(phase+"_duration", d).
		Dur("total_duration", total).
		Msg(msg)

	if rt.txn != nil {
		rt.txn.NoticeError(nrpkgerrors.Wrap(err))
		rt.txn.AddAttribute(phase+".status", "error")
		rt.txn.AddAttribute(phase+".duration_ms", d.Milliseconds())
		rt.txn.AddAttribute("total.duration_ms", total.Milliseconds())
	}

	rt.h.server.Metrics.ObserveRequest(rt.route, errorStatus(err), total.Seconds())
	return err
}

func (rt *requestTrace) done(status int) {
	total := time.Since(rt.start)

	if rt.txn != nil {
		rt.txn.AddAttribute("total.duration_ms", total.Milliseconds())
	}

	rt.logger.Info().
		Dur("validation_duration", rt.event["validation"]).
		Dur("handler_duration", rt.event["handler"]).
		Dur("total_duration", total).
		Msg("request completed successfully")

	rt.h.server.Metrics.ObserveRequest(rt.route, status, total.Seconds())
}

func errorStatus(err error) int {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return echoErr.Code
	}
	return http.StatusInternalServerError
}
