package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/deppfellow/vdpulizie/internal/config"
	"github.com/deppfellow/vdpulizie/internal/errs"
	"github.com/deppfellow/vdpulizie/internal/handler"
	"github.com/deppfellow/vdpulizie/internal/model"
	"github.com/deppfellow/vdpulizie/internal/repository"
	"github.com/deppfellow/vdpulizie/internal/server"
	"github.com/deppfellow/vdpulizie/internal/service"
	"github.com/deppfellow/vdpulizie/internal/store"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	server *server.Server
	echo   *echo.Echo
}

func newTestApp(t *testing.T, configure func(*config.Config)) *testApp {
	t.Helper()
	logger := zerolog.Nop()

	cfg := config.DefaultConfig()
	cfg.Store.Backend = config.BackendMemory
	cfg.RateLimit.Rate = 1000
	cfg.RateLimit.Burst = 1000
	if configure != nil {
		configure(cfg)
	}

	s, err := server.New(cfg, &logger, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	return &testApp{server: s}
}

// build wires repositories, services and handlers. Call it after any
// change to the server's dependencies.
func (a *testApp) build(t *testing.T) *testApp {
	t.Helper()
	services, err := service.NewService(a.server, repository.NewRepositories(a.server))
	require.NoError(t, err)
	a.echo = NewRouter(a.server, handler.NewHandlers(a.server, services))
	return a
}

func (a *testApp) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) listLeads(t *testing.T) []map[string]any {
	t.Helper()
	rec := a.do(http.MethodGet, "/api/leads", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var leads []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leads))
	return leads
}

const marioRossi = `{"name":"Mario Rossi","email":"m@example.com","phone":"123","service_type":"Uffici"}`

func TestRoot(t *testing.T) {
	app := newTestApp(t, nil).build(t)

	rec := app.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"VD Pulizie Backend attivo"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCreateThenListLead(t *testing.T) {
	app := newTestApp(t, nil).build(t)

	rec := app.do(http.MethodPost, "/api/leads", marioRossi)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created model.CreateLeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Success)
	_, err := uuid.Parse(created.ID)
	require.NoError(t, err)

	leads := app.listLeads(t)
	require.Len(t, leads, 1)
	assert.Equal(t, created.ID, leads[0]["_id"])
	assert.Equal(t, "nuovo", leads[0]["status"])
	assert.Equal(t, "website", leads[0]["source"])
	assert.Equal(t, "Mario Rossi", leads[0]["name"])
	assert.Nil(t, leads[0]["square_meters"])
}

func TestCreateLead_IgnoresClientStatusAndSource(t *testing.T) {
	app := newTestApp(t, nil).build(t)

	body := `{"name":"Anna","email":"anna@example.com","phone":"333","service_type":"Vetrate","status":"chiuso","source":"instagram","square_meters":45,"frequency":"Mensile","message":"Vetrine negozio"}`
	rec := app.do(http.MethodPost, "/api/leads", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	leads := app.listLeads(t)
	require.Len(t, leads, 1)
	assert.Equal(t, "nuovo", leads[0]["status"])
	assert.Equal(t, "website", leads[0]["source"])
	assert.Equal(t, float64(45), leads[0]["square_meters"])
	assert.Equal(t, "Mensile", leads[0]["frequency"])
	assert.Equal(t, "Vetrine negozio", leads[0]["message"])
}

func TestCreateLead_Rejected(t *testing.T) {
	cases := map[string]string{
		"unknown service type":   `{"name":"Mario","email":"m@example.com","phone":"123","service_type":"Giardinaggio"}`,
		"negative square meters": `{"name":"Mario","email":"m@example.com","phone":"123","service_type":"Uffici","square_meters":-1}`,
		"unknown frequency":      `{"name":"Mario","email":"m@example.com","phone":"123","service_type":"Uffici","frequency":"Annuale"}`,
		"invalid email":          `{"name":"Mario","email":"mario","phone":"123","service_type":"Uffici"}`,
		"missing phone":          `{"name":"Mario","email":"m@example.com","service_type":"Uffici"}`,
		"malformed json":         `{"name":`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			app := newTestApp(t, nil).build(t)

			rec := app.do(http.MethodPost, "/api/leads", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var httpErr errs.HTTPError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &httpErr))
			assert.Equal(t, http.StatusBadRequest, httpErr.Status)

			assert.Empty(t, app.listLeads(t))
		})
	}
}

func TestCreateLead_FieldErrors(t *testing.T) {
	app := newTestApp(t, nil).build(t)

	rec := app.do(http.MethodPost, "/api/leads", `{"name":"Mario","email":"m@example.com","phone":"123","service_type":"Giardinaggio"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var httpErr errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &httpErr))
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "service_type", httpErr.Errors[0].Field)
	assert.Contains(t, httpErr.Errors[0].Error, "Pulizie domestiche")
}

func TestCreateLead_SquareMetersOutOfRange(t *testing.T) {
	app := newTestApp(t, nil).build(t)

	body := `{"name":"Mario","email":"m@example.com","phone":"123","service_type":"Uffici","square_meters":9223372036854775807}`
	rec := app.do(http.MethodPost, "/api/leads", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var httpErr errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &httpErr))
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "square_meters", httpErr.Errors[0].Field)

	body = `{"name":"Mario","email":"m@example.com","phone":"123","service_type":"Uffici","square_meters":1000000}`
	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/api/leads", body).Code)

	leads := app.listLeads(t)
	require.Len(t, leads, 1)
	assert.Equal(t, float64(1000000), leads[0]["square_meters"])
}

func TestListLeads_CapsAtFifty(t *testing.T) {
	app := newTestApp(t, nil).build(t)

	for i := 0; i < 55; i++ {
		body := fmt.Sprintf(`{"name":"lead-%d","email":"l%d@example.com","phone":"1","service_type":"Altro"}`, i, i)
		require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/api/leads", body).Code)
	}

	leads := app.listLeads(t)
	assert.Len(t, leads, 50)
	for _, lead := range leads {
		_, ok := lead["_id"].(string)
		assert.True(t, ok)
	}
}

func TestListLeads_Empty(t *testing.T) {
	app := newTestApp(t, nil).build(t)

	rec := app.do(http.MethodGet, "/api/leads", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

type brokenStore struct {
	store.Store
	err error
}

func (b brokenStore) InsertOne(context.Context, string, store.Document) (uuid.UUID, error) {
	return uuid.Nil, b.err
}

func (b brokenStore) FindMany(context.Context, string, store.Filter, int) ([]store.Document, error) {
	return nil, b.err
}

func (b brokenStore) ListCollections(context.Context) ([]string, error) {
	return nil, b.err
}

func (b brokenStore) Ping(context.Context) error {
	return b.err
}

func TestStoreFailures(t *testing.T) {
	app := newTestApp(t, nil)
	app.server.Store = brokenStore{Store: app.server.Store, err: errors.New("server selection timeout: no reachable servers")}
	app.build(t)

	for _, tc := range []struct{ method, body string }{
		{http.MethodPost, marioRossi},
		{http.MethodGet, ""},
	} {
		rec := app.do(tc.method, "/api/leads", tc.body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, tc.method)

		var httpErr errs.HTTPError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &httpErr))
		assert.Equal(t, "server selection timeout: no reachable servers", httpErr.Message)
		assert.Equal(t, "LEAD_ERROR", httpErr.Code)
	}
}

func TestDiagnostics(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) {
		cfg.Database.Name = "vdpulizie"
		cfg.Store.Backend = config.BackendSQLite
		cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "leads.db")
	}).build(t)

	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/api/leads", marioRossi).Code)

	rec := app.do(http.MethodGet, "/test", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.DiagnosticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "✅ Running", resp.Backend)
	assert.Equal(t, "✅ Connected & Working", resp.Database)
	assert.Equal(t, "❌ Not Set", resp.DatabaseURL)
	assert.Equal(t, "✅ Set", resp.DatabaseName)
	assert.Equal(t, "Connected", resp.ConnectionStatus)
	assert.Equal(t, []string{"lead"}, resp.Collections)
}

func TestDiagnostics_StoreError(t *testing.T) {
	app := newTestApp(t, nil)
	app.server.Store = brokenStore{Store: app.server.Store, err: errors.New(strings.Repeat("e", 80))}
	app.build(t)

	rec := app.do(http.MethodGet, "/test", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.DiagnosticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "⚠️  Connected but Error: "+strings.Repeat("e", 50), resp.Database)
	assert.Empty(t, resp.Collections)
}

type panickingStore struct{ store.Store }

func (panickingStore) ListCollections(context.Context) ([]string, error) {
	panic("driver exploded")
}

func TestDiagnostics_Panic(t *testing.T) {
	app := newTestApp(t, nil)
	app.server.Store = panickingStore{Store: app.server.Store}
	app.build(t)

	rec := app.do(http.MethodGet, "/test", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.DiagnosticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "❌ Error: driver exploded", resp.Database)
	assert.Equal(t, "✅ Running", resp.Backend)
}

func TestDiagnostics_MemoryFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "8000")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	require.Equal(t, config.BackendMemory, cfg.Store.Backend)

	logger := zerolog.Nop()

	s, err := server.New(cfg, &logger, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	app := (&testApp{server: s}).build(t)
	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/api/leads", marioRossi).Code)

	rec := app.do(http.MethodGet, "/test", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.DiagnosticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "⚠️  Available but not initialized", resp.Database)
	assert.Equal(t, "Not Connected", resp.ConnectionStatus)
	assert.Equal(t, "❌ Not Set", resp.DatabaseURL)
	assert.Empty(t, resp.Collections)
}

func TestHealth(t *testing.T) {
	mr := miniredis.RunT(t)

	app := newTestApp(t, nil)
	app.server.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app.build(t)

	rec := app.do(http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "memory", resp.Store)
	assert.Equal(t, "healthy", resp.Checks["database"].Status)
	assert.Equal(t, "healthy", resp.Checks["redis"].Status)

	mr.Close()
	rec = app.do(http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Checks["redis"].Status)
}

func TestHealth_StoreDown(t *testing.T) {
	app := newTestApp(t, nil)
	app.server.Store = brokenStore{Store: app.server.Store, err: errors.New("connection refused")}
	app.build(t)

	rec := app.do(http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp handler.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "connection refused", resp.Checks["database"].Error)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, nil).build(t)
	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/api/leads", marioRossi).Code)

	rec := app.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `vdpulizie_leads_submissions_total{outcome="created",service_type="Uffici"} 1`)
	assert.Contains(t, rec.Body.String(), `vdpulizie_leads_notifications_total{result="skipped"} 1`)
}

func TestMetricsEndpoint_CountsRejectedLeads(t *testing.T) {
	app := newTestApp(t, nil).build(t)

	require.Equal(t, http.StatusBadRequest, app.do(http.MethodPost, "/api/leads",
		`{"name":"Mario","email":"m@example.com","phone":"123","service_type":"Giardinaggio"}`).Code)
	require.Equal(t, http.StatusBadRequest, app.do(http.MethodPost, "/api/leads",
		`{"name":"Mario","email":"mario","phone":"123","service_type":"Uffici"}`).Code)
	require.Equal(t, http.StatusBadRequest, app.do(http.MethodPost, "/api/leads", `{"name":`).Code)

	rec := app.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `vdpulizie_leads_submissions_total{outcome="rejected",service_type="invalid"} 2`)
	assert.Contains(t, body, `vdpulizie_leads_submissions_total{outcome="rejected",service_type="Uffici"} 1`)
	assert.NotContains(t, body, `service_type="Giardinaggio"`)
}

func TestDocs(t *testing.T) {
	app := newTestApp(t, nil).build(t)

	rec := app.do(http.MethodGet, "/docs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "/static/openapi.json")

	rec = app.do(http.MethodGet, "/static/openapi.json", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, json.Valid(rec.Body.Bytes()))
}

func TestCreateLead_RateLimited(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) {
		cfg.RateLimit.Rate = 0.001
		cfg.RateLimit.Burst = 1
	}).build(t)

	assert.Equal(t, http.StatusOK, app.do(http.MethodPost, "/api/leads", marioRossi).Code)

	rec := app.do(http.MethodPost, "/api/leads", marioRossi)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Len(t, app.listLeads(t), 1)
}

func TestCreateLead_RequestsDoNotShareState(t *testing.T) {
	app := newTestApp(t, nil).build(t)

	first := `{"name":"Primo","email":"p@example.com","phone":"1","service_type":"Uffici","square_meters":300,"frequency":"Settimanale","message":"piano terra"}`
	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/api/leads", first).Code)
	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/api/leads", `{"name":"Secondo","email":"s@example.com","phone":"2","service_type":"Altro"}`).Code)

	leads := app.listLeads(t)
	require.Len(t, leads, 2)
	assert.Equal(t, "Secondo", leads[1]["name"])
	assert.Nil(t, leads[1]["square_meters"])
	assert.Nil(t, leads[1]["frequency"])
	assert.Nil(t, leads[1]["message"])
}
