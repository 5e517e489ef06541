package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/ariqhikari/SnaillyJaya/internal/http/handlers"
	"github.com/ariqhikari/SnaillyJaya/internal/http/response"
	"github.com/ariqhikari/SnaillyJaya/internal/repos/testutil"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		Log:           testutil.Logger(t),
		HealthHandler: httpH.NewHealthHandler(nil),
	})
}

func TestHealthRoute(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestReadyRouteWithoutReadiness(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestNilHandlersLeaveRoutesUnregistered(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("unregistered route must 404, got %d", w.Code)
	}
}

func TestUpdateLabelRoutesUsePut(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)
	r := NewRouter(RouterConfig{
		Log:          log,
		LabelHandler: httpH.NewLabelHandler(log, nil, nil),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/update-label", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("POST /update-label must not be routed, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/update-label", strings.NewReader(`{"label":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("PUT /update-label without id must 400, got %d", w.Code)
	}

	var envelope response.ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("error envelope: %v", err)
	}
	if envelope.Error.Code != "missing_required_field" {
		t.Fatalf("code = %q", envelope.Error.Code)
	}
}
