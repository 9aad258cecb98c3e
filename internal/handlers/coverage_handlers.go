package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"climate-coverage/internal/models"
	"climate-coverage/internal/services"
	"climate-coverage/internal/timeframes"
	"climate-coverage/pkg/logging"
	"climate-coverage/pkg/metrics"
)

// CoverageHandler handles station and coverage API endpoints
type CoverageHandler struct {
	stationService   *services.StationService
	timeframeService *services.TimeframeService
	coverageService  *services.CoverageService
	logger           *logging.StructuredLogger
	metrics          *metrics.Collector
}

// NewCoverageHandler creates a new coverage handler
func NewCoverageHandler(
	stationService *services.StationService,
	timeframeService *services.TimeframeService,
	coverageService *services.CoverageService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *CoverageHandler {
	return &CoverageHandler{
		stationService:   stationService,
		timeframeService: timeframeService,
		coverageService:  coverageService,
		logger:           logger,
		metrics:          metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data  interface{} `json:"data"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// ListStations handles GET /api/stations
func (h *CoverageHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/stations").Observe(duration.Seconds())
	}()

	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	page := 1
	limit := 100
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 1000 {
		limit = l
	}
	offset := (page - 1) * limit

	stations, err := h.stationService.ListStations(ctx, ds, limit, offset)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_STATIONS_ERROR] Failed to list stations", logging.Fields{
			"page":  page,
			"limit": limit,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/stations")
		h.sendError(w, r, "failed to retrieve stations", http.StatusInternalServerError)
		return
	}

	response := PaginatedResponse{
		Data:  stations,
		Page:  page,
		Limit: limit,
	}

	h.metrics.RecordAPIRequest("/api/stations", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetStation handles GET /api/stations/{id}
func (h *CoverageHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/stations/{id}").Observe(duration.Seconds())
	}()

	stationID, ok := h.stationID(w, r)
	if !ok {
		return
	}
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	station, err := h.stationService.GetStation(ctx, stationID, ds)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_STATION_ERROR] Failed to get station", logging.Fields{
			"station": stationID,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/stations/{id}")
		h.sendError(w, r, "failed to retrieve station", http.StatusInternalServerError)
		return
	}

	if !station.Populated {
		h.sendError(w, r, "station not in directory", http.StatusNotFound)
		return
	}

	h.metrics.RecordAPIRequest("/api/stations/{id}", "GET", "200")
	h.sendJSON(w, station, http.StatusOK)
}

// GetTimeframes handles GET /api/stations/{id}/timeframes
func (h *CoverageHandler) GetTimeframes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/stations/{id}/timeframes").Observe(duration.Seconds())
	}()

	stationID, ok := h.stationID(w, r)
	if !ok {
		return
	}
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}
	withRows := r.URL.Query().Get("rows") == "true"

	frames, err := h.timeframeService.Segmentation(ctx, ds, stationID, withRows)
	if err != nil {
		var empty *timeframes.EmptySeriesError
		if errors.As(err, &empty) {
			h.sendError(w, r, "no readings stored for station", http.StatusNotFound)
			return
		}
		h.logger.Error(ctx, "[API_TIMEFRAMES_ERROR] Failed to segment series", logging.Fields{
			"station": stationID,
			"dataset": ds.Key,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/stations/{id}/timeframes")
		h.sendError(w, r, "failed to compute timeframes", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/stations/{id}/timeframes", "GET", "200")
	h.sendJSON(w, timeframes.NewDocument(ds.Fields, frames, withRows), http.StatusOK)
}

// GetCoverage handles GET /api/stations/{id}/coverage
func (h *CoverageHandler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/stations/{id}/coverage").Observe(duration.Seconds())
	}()

	stationID, ok := h.stationID(w, r)
	if !ok {
		return
	}
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	tolerance := 0
	if t := r.URL.Query().Get("tolerance"); t != "" {
		v, err := strconv.Atoi(t)
		if err != nil || v < 0 {
			h.sendError(w, r, "invalid tolerance, expected non-negative integer", http.StatusBadRequest)
			return
		}
		tolerance = v
	}

	report, err := h.coverageService.Report(ctx, ds, stationID, tolerance)
	if err != nil {
		h.logger.Error(ctx, "[API_COVERAGE_ERROR] Failed to compute coverage", logging.Fields{
			"station": stationID,
			"dataset": ds.Key,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/stations/{id}/coverage")
		h.sendError(w, r, "failed to compute coverage", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/stations/{id}/coverage", "GET", "200")
	h.sendJSON(w, report, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *CoverageHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// stationID parses the path id segment; on failure it answers the request.
func (h *CoverageHandler) stationID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		h.sendError(w, r, "invalid station id, expected positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// dataset resolves the dataset query parameter, defaulting to daily climate.
func (h *CoverageHandler) dataset(w http.ResponseWriter, r *http.Request) (models.Dataset, bool) {
	key := r.URL.Query().Get("dataset")
	if key == "" {
		return models.DailyClimate, true
	}
	ds, ok := models.DatasetByKey(key)
	if !ok {
		h.sendError(w, r, "unknown dataset key", http.StatusBadRequest)
		return models.Dataset{}, false
	}
	return ds, true
}

// sendJSON sends a JSON response
func (h *CoverageHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *CoverageHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all coverage API routes
func (h *CoverageHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/stations", h.ListStations).Methods("GET")
	router.HandleFunc("/api/stations/{id}", h.GetStation).Methods("GET")
	router.HandleFunc("/api/stations/{id}/timeframes", h.GetTimeframes).Methods("GET")
	router.HandleFunc("/api/stations/{id}/coverage", h.GetCoverage).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
