package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"timber-platform/internal/engine"
	"timber-platform/internal/models"
	"timber-platform/internal/services"
	"timber-platform/pkg/logging"
	"timber-platform/pkg/metrics"
)

// EstimateHandler handles the volume estimation API endpoints
type EstimateHandler struct {
	estimation *services.EstimationService
	catalog    *services.CatalogService
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewEstimateHandler creates a new estimate handler
func NewEstimateHandler(
	estimation *services.EstimationService,
	catalogService *services.CatalogService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *EstimateHandler {
	return &EstimateHandler{
		estimation: estimation,
		catalog:    catalogService,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// stemQuery is the request body for the stem dissection endpoints.
type stemQuery struct {
	engine.Request
	Height         float64 `json:"height,omitempty"`          // diameter endpoint
	TargetDiameter float64 `json:"target_diameter,omitempty"` // height endpoint
}

// Estimate handles POST /api/estimate. Engine failures are not HTTP errors:
// the result carries its own status code and zeroed volumes.
func (h *EstimateHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/estimate").Observe(duration.Seconds())
	}()

	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Key = models.NewJurisdictionKey(req.Key.Region, req.Key.Forest, req.Key.District)

	result := h.estimation.Estimate(ctx, req)

	h.metrics.RecordAPIRequest("/api/estimate", "POST", "200")
	h.sendJSON(w, result, http.StatusOK)
}

// ResolveEquation handles GET /api/equations
func (h *EstimateHandler) ResolveEquation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/equations").Observe(duration.Seconds())
	}()

	q := r.URL.Query()
	region, err := strconv.Atoi(q.Get("region"))
	if err != nil {
		h.sendError(w, r, "invalid region, expected integer", http.StatusBadRequest)
		return
	}
	species, err := strconv.Atoi(q.Get("species"))
	if err != nil {
		h.sendError(w, r, "invalid species, expected integer FIA code", http.StatusBadRequest)
		return
	}

	key := models.NewJurisdictionKey(region, q.Get("forest"), q.Get("district"))
	resolution, err := h.catalog.Resolve(ctx, key, species, q.Get("product"))
	if err != nil {
		h.sendEngineError(w, r, "/api/equations", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/equations", "GET", "200")
	h.sendJSON(w, resolution, http.StatusOK)
}

// StemDiameter handles POST /api/stem/diameter
func (h *EstimateHandler) StemDiameter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var q stemQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		h.sendError(w, r, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	dob, dib, err := h.estimation.DiameterAt(ctx, q.Request, q.Height)
	if err != nil {
		h.sendEngineError(w, r, "/api/stem/diameter", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/stem/diameter", "POST", "200")
	h.sendJSON(w, map[string]float64{
		"height":      q.Height,
		"diameter_ob": dob,
		"diameter_ib": dib,
	}, http.StatusOK)
}

// StemHeight handles POST /api/stem/height
func (h *EstimateHandler) StemHeight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var q stemQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		h.sendError(w, r, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	height, err := h.estimation.HeightAtDiameter(ctx, q.Request, q.TargetDiameter)
	if err != nil {
		h.sendEngineError(w, r, "/api/stem/height", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/stem/height", "POST", "200")
	h.sendJSON(w, map[string]float64{
		"target_diameter": q.TargetDiameter,
		"height":          height,
	}, http.StatusOK)
}

// Version handles GET /api/version
func (h *EstimateHandler) Version(w http.ResponseWriter, r *http.Request) {
	h.metrics.RecordAPIRequest("/api/version", "GET", "200")
	h.sendJSON(w, map[string]int{"engine_version": h.estimation.EngineVersion()}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *EstimateHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// sendEngineError maps typed engine failures to HTTP statuses: catalog
// misses read as not-found, measurement and rule problems as unprocessable.
func (h *EstimateHandler) sendEngineError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	code, ok := models.CodeOf(err)
	if !ok {
		h.logger.Error(r.Context(), "[API_INTERNAL_ERROR] Unclassified failure", logging.Fields{
			"endpoint": endpoint,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "internal error", http.StatusInternalServerError)
		return
	}

	httpStatus := http.StatusUnprocessableEntity
	switch code {
	case models.StatusUnknownJurisdiction, models.StatusNoEquationAvailable:
		httpStatus = http.StatusNotFound
	}
	h.metrics.RecordAPIError(code.String(), endpoint)
	h.sendError(w, r, err.Error(), httpStatus)
}

// sendJSON sends a JSON response
func (h *EstimateHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *EstimateHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RequestIDMiddleware tags every request context with a fresh identifier so
// log lines from one call can be correlated.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// RegisterRoutes registers all estimation API routes
func (h *EstimateHandler) RegisterRoutes(router *mux.Router) {
	router.Use(RequestIDMiddleware)
	router.HandleFunc("/api/estimate", h.Estimate).Methods("POST")
	router.HandleFunc("/api/equations", h.ResolveEquation).Methods("GET")
	router.HandleFunc("/api/stem/diameter", h.StemDiameter).Methods("POST")
	router.HandleFunc("/api/stem/height", h.StemHeight).Methods("POST")
	router.HandleFunc("/api/version", h.Version).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
