package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"timber-platform/internal/catalog"
	"timber-platform/internal/engine"
	"timber-platform/internal/models"
	"timber-platform/internal/services"
	"timber-platform/pkg/logging"
	"timber-platform/pkg/metrics"
)

// One collector per test binary: prometheus panics on duplicate registration.
var testMetrics = metrics.NewCollector("timber_handlers_test")

func newTestRouter() *mux.Router {
	logger := logging.NewStructuredLogger("handler-test", "test", logging.ErrorLevel)
	cat := catalog.Default()

	estimation := services.NewEstimationService(cat, logger, testMetrics)
	catalogSvc := services.NewCatalogService(cat, logger, testMetrics)
	handler := NewEstimateHandler(estimation, catalogSvc, logger, testMetrics)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func estimateBody() engine.Request {
	rules := models.DefaultMerchRules()
	rules.MaxLogLength = 32
	rules.MinLogLength = 8
	rules.MinMerchLength = 8
	rules.MinTopPrimary = 6
	rules.MinTopSecondary = 0

	return engine.Request{
		Key:     models.NewJurisdictionKey(6, "", ""),
		Species: 202,
		Product: "01",
		Measurement: models.TreeMeasurement{
			DBHOutsideBark: 20.0,
			TotalHeight:    100.0,
			FormClass:      80,
			BarkRatio:      0.90,
			Live:           true,
		},
		Rules: rules,
		Units: models.AllUnits(),
	}
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestEstimateEndpoint(t *testing.T) {
	router := newTestRouter()

	rr := doJSON(t, router, "POST", "/api/estimate", estimateBody())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var res struct {
		EquationID string  `json:"equation_id"`
		Status     string  `json:"status"`
		CubicTotal float64 `json:"cuft_total"`
		NumLogs    int     `json:"num_logs"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if res.Status != "OK" {
		t.Errorf("status = %q, want OK", res.Status)
	}
	if res.EquationID != "F01PNWW202" {
		t.Errorf("equation_id = %q", res.EquationID)
	}
	if res.NumLogs != 3 {
		t.Errorf("num_logs = %d, want 3", res.NumLogs)
	}
	if res.CubicTotal < 80 || res.CubicTotal > 95 {
		t.Errorf("cuft_total = %.2f, want around 87", res.CubicTotal)
	}
}

// Engine rejections are still HTTP 200: the payload carries the status.
func TestEstimateEndpointEngineFailure(t *testing.T) {
	router := newTestRouter()

	body := estimateBody()
	body.Key = models.NewJurisdictionKey(99, "", "")

	rr := doJSON(t, router, "POST", "/api/estimate", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var res struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if res.Status != "UNKNOWN_JURISDICTION" {
		t.Errorf("status = %q, want UNKNOWN_JURISDICTION", res.Status)
	}
}

func TestEstimateEndpointBadBody(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("POST", "/api/estimate", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestResolveEquationEndpoint(t *testing.T) {
	router := newTestRouter()

	rr := doJSON(t, router, "GET", "/api/equations?region=6&species=202&product=01", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var res services.Resolution
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if res.EquationID != "F01PNWW202" {
		t.Errorf("equation_id = %q", res.EquationID)
	}
	if res.CatalogVersion != catalog.EmbeddedVersion {
		t.Errorf("catalog_version = %q", res.CatalogVersion)
	}
	if res.Traits.Name != "Douglas-fir" {
		t.Errorf("species_traits.name = %q", res.Traits.Name)
	}
}

func TestResolveEquationErrors(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name string
		path string
		want int
	}{
		{"unknown region", "/api/equations?region=99&species=202", http.StatusNotFound},
		{"non-numeric region", "/api/equations?region=west&species=202", http.StatusBadRequest},
		{"missing species", "/api/equations?region=6", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, router, "GET", tt.path, nil)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestStemEndpoints(t *testing.T) {
	router := newTestRouter()

	diamBody := struct {
		engine.Request
		Height float64 `json:"height"`
	}{Request: estimateBody(), Height: 17.3}

	rr := doJSON(t, router, "POST", "/api/stem/diameter", diamBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("diameter status = %d, body %s", rr.Code, rr.Body.String())
	}
	var diam map[string]float64
	if err := json.Unmarshal(rr.Body.Bytes(), &diam); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got := diam["diameter_ib"]; got < 15.9 || got > 16.1 {
		t.Errorf("diameter_ib at 17.3 ft = %.2f, want 16.0", got)
	}

	heightBody := struct {
		engine.Request
		TargetDiameter float64 `json:"target_diameter"`
	}{Request: estimateBody(), TargetDiameter: 6.0}

	rr = doJSON(t, router, "POST", "/api/stem/height", heightBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("height status = %d, body %s", rr.Code, rr.Body.String())
	}
	var height map[string]float64
	if err := json.Unmarshal(rr.Body.Bytes(), &height); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got := height["height"]; got < 85.5 || got > 85.8 {
		t.Errorf("height at 6 in = %.2f, want 85.65", got)
	}

	// A target wider than the ground line is unprocessable.
	heightBody.TargetDiameter = 30
	rr = doJSON(t, router, "POST", "/api/stem/height", heightBody)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
}

func TestVersionAndHealthEndpoints(t *testing.T) {
	router := newTestRouter()

	rr := doJSON(t, router, "GET", "/api/version", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("version status = %d", rr.Code)
	}
	var version map[string]int
	if err := json.Unmarshal(rr.Body.Bytes(), &version); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if version["engine_version"] < 20250000 {
		t.Errorf("engine_version = %d", version["engine_version"])
	}

	rr = doJSON(t, router, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("health status = %d", rr.Code)
	}
}
