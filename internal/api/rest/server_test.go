package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/agent"
	"github.com/KevinKickass/mtconnect-core/internal/api/websocket"
	"github.com/KevinKickass/mtconnect-core/internal/auth"
	"github.com/KevinKickass/mtconnect-core/internal/catalog"
	"github.com/KevinKickass/mtconnect-core/internal/config"
	"github.com/KevinKickass/mtconnect-core/internal/formatter"
	"github.com/KevinKickass/mtconnect-core/internal/interfaces"
	"github.com/KevinKickass/mtconnect-core/internal/metrics"
	"github.com/KevinKickass/mtconnect-core/internal/observation"
	"github.com/KevinKickass/mtconnect-core/internal/storage"
	"github.com/KevinKickass/mtconnect-core/internal/streams"
)

type fakeLifecycle struct {
	cfg *config.Config
}

func (f *fakeLifecycle) Config() *config.Config { return f.cfg }

func (f *fakeLifecycle) GetCurrentStatus(context.Context) interfaces.SystemStatus {
	return interfaces.SystemStatus{State: "RUNNING", Storage: "memory"}
}

func (f *fakeLifecycle) Shutdown(context.Context) error { return nil }

type testEnv struct {
	handler http.Handler
	agent   *agent.Service
	auth    *auth.AuthService
}

func newTestEnv(t *testing.T, authEnabled bool) testEnv {
	t.Helper()
	t.Setenv("MTC_REST_TEST_SECRET", "0123456789abcdef0123456789abcdef")

	cfg := &config.Config{
		Server: config.ServerConfig{HTTPPort: 0, DefaultFormat: formatter.JSON, ShutdownTimeout: time.Second},
		Auth: config.AuthConfig{
			Enabled:        authEnabled,
			JWTSecretEnv:   "MTC_REST_TEST_SECRET",
			Issuer:         "test",
			AccessTokenTTL: time.Hour,
		},
	}

	cat := catalog.Default()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	registry := formatter.NewRegistry(cat, formatter.Options{}, zap.NewNop())
	svc := agent.NewService(registry, storage.NewMemoryStore(), m, config.HeaderConfig{Sender: "test"}, zap.NewNop())
	authService := auth.NewAuthService(cfg.Auth, zap.NewNop())
	hub := websocket.NewHub(registry, authService, formatter.JSON, zap.NewNop())

	server := NewServer(cfg, Dependencies{
		Lifecycle:   &fakeLifecycle{cfg: cfg},
		Agent:       svc,
		Catalog:     cat,
		Hub:         hub,
		AuthService: authService,
		Gatherer:    reg,
	}, zap.NewNop())

	return testEnv{handler: server.Handler(), agent: svc, auth: authService}
}

func (e testEnv) do(t *testing.T, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func temperatureJSON(t *testing.T, svc *agent.Service) []byte {
	t.Helper()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := streams.Document{
		Header: streams.Header{CreationTime: ts, InstanceID: 1},
		Devices: []streams.DeviceStream{{
			Name: "mill", UUID: "m1",
			Components: []streams.ComponentStream{{
				Component: "Controller", ComponentID: "c1",
				Observations: []*observation.Observation{{
					DataItemID: "temp1", Type: "TEMPERATURE", Category: observation.CategorySample,
					Timestamp: ts, Sequence: 1, Payload: observation.Value{Result: "23.5"},
				}},
			}},
		}},
	}
	data, _, err := svc.Format(formatter.JSON, doc)
	require.NoError(t, err)
	return data
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestServer_Convert(t *testing.T) {
	env := newTestEnv(t, false)
	input := temperatureJSON(t, env.agent)

	tests := []struct {
		name        string
		target      string
		headers     map[string]string
		body        []byte
		wantCode    int
		wantContent string
	}{
		{
			name:        "query formats",
			target:      "/api/v1/convert?from=JSON&to=XML",
			body:        input,
			wantCode:    http.StatusOK,
			wantContent: `<Temperature dataItemId="temp1"`,
		},
		{
			name:        "content negotiation",
			target:      "/api/v1/convert",
			headers:     map[string]string{"Content-Type": "application/json", "Accept": "text/html, application/xml;q=0.9"},
			body:        input,
			wantCode:    http.StatusOK,
			wantContent: `<Temperature dataItemId="temp1"`,
		},
		{
			name:        "cppagent flavor",
			target:      "/api/v1/convert?from=JSON&to=JSON-cppagent",
			body:        input,
			wantCode:    http.StatusOK,
			wantContent: `"category":"SAMPLE"`,
		},
		{
			name:        "unknown format",
			target:      "/api/v1/convert?from=JSON&to=CSV",
			body:        input,
			wantCode:    http.StatusBadRequest,
			wantContent: "FORMAT_400",
		},
		{
			name:        "missing input format",
			target:      "/api/v1/convert",
			body:        input,
			wantCode:    http.StatusBadRequest,
			wantContent: "FORMAT_400",
		},
		{
			name:        "empty body",
			target:      "/api/v1/convert?from=JSON",
			wantCode:    http.StatusBadRequest,
			wantContent: "DOCUMENT_400",
		},
		{
			name:        "malformed document",
			target:      "/api/v1/convert?from=XML&to=JSON",
			body:        []byte(`<MTConnectStreams><Streams>`),
			wantCode:    http.StatusUnprocessableEntity,
			wantContent: "DOCUMENT_422",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.target, tt.body, tt.headers)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantContent)
		})
	}
}

func TestServer_IngestAndCurrent(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/api/v1/ingest", temperatureJSON(t, env.agent),
		map[string]string{"Content-Type": "application/json"})
	require.Equal(t, http.StatusAccepted, w.Code)

	var result agent.IngestResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Observations)

	w = env.do(t, http.MethodGet, "/api/v1/current?format=xml", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `<DeviceStream name="mill" uuid="m1">`)
	assert.Contains(t, w.Body.String(), `>23.5</Temperature>`)

	w = env.do(t, http.MethodGet, "/api/v1/current/m1/temp1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out observation.ObservationOutput
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "TEMPERATURE", out.Type)

	w = env.do(t, http.MethodGet, "/api/v1/current/m1/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mtc_observations_ingested_total 1")
	assert.Contains(t, w.Body.String(), `mtc_documents_total{format="JSON",op="parse",outcome="ok"}`)
}

func TestServer_Catalog(t *testing.T) {
	env := newTestEnv(t, false)

	for _, name := range []string{"TEMPERATURE", "Temperature", "PositionTimeSeries"} {
		w := env.do(t, http.MethodGet, "/api/v1/catalog/types/"+name, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code, name)
	}

	w := env.do(t, http.MethodGet, "/api/v1/catalog/types/FluxCapacitor", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/catalog/types?category=CONDITION", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"category":"SAMPLE"`)
	assert.Contains(t, w.Body.String(), `"category":"CONDITION"`)
}

func TestServer_Auth(t *testing.T) {
	env := newTestEnv(t, true)
	input := temperatureJSON(t, env.agent)
	jsonHeaders := map[string]string{"Content-Type": "application/json"}

	w := env.do(t, http.MethodPost, "/api/v1/ingest", input, jsonHeaders)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	reader, err := env.auth.IssueToken("dashboard", auth.RoleReader)
	require.NoError(t, err)
	w = env.do(t, http.MethodPost, "/api/v1/ingest", input, map[string]string{
		"Content-Type": "application/json", "Authorization": "Bearer " + reader,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin, err := env.auth.IssueToken("ops", auth.RoleAdmin)
	require.NoError(t, err)
	w = env.do(t, http.MethodPost, "/api/v1/auth/tokens", []byte(`{"subject":"adapter-7","role":"adapter"}`), map[string]string{
		"Content-Type": "application/json", "Authorization": "Bearer " + admin,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var issued IssueTokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issued))
	w = env.do(t, http.MethodPost, "/api/v1/ingest", input, map[string]string{
		"Content-Type": "application/json", "Authorization": "Bearer " + issued.AccessToken,
	})
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = env.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_SystemStatus(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/api/v1/system/status", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"state":"RUNNING"`))

	w = env.do(t, http.MethodGet, "/api/v1/formats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"JSON-cppagent"`)
}
