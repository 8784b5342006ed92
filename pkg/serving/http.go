package serving

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/cardio/pkg/cardio"
	"github.com/synaptica-ai/cardio/pkg/common/logger"
	"github.com/synaptica-ai/cardio/pkg/common/models"
)

const (
	HeaderPatientID = "X-Patient-ID"
	HeaderRequestID = "X-Request-ID"
)

type HTTPHandler struct {
	service *Service
	catalog cardio.Catalog
	maxBody int64
}

func NewHTTPHandler(service *Service, catalog cardio.Catalog, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, catalog: catalog, maxBody: maxBody}
}

// RegisterRoot mounts the unversioned endpoints kept for existing clients.
func (h *HTTPHandler) RegisterRoot(router *mux.Router) {
	router.HandleFunc("/", h.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/predict", h.handlePredict).Methods(http.MethodPost)
	router.HandleFunc("/features", h.handleFeatures).Methods(http.MethodGet)
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/predict", h.handlePredict).Methods(http.MethodPost)
	router.HandleFunc("/features", h.handleFeatures).Methods(http.MethodGet)
	router.HandleFunc("/assessments/recent", h.handleRecent).Methods(http.MethodGet)
	router.HandleFunc("/patients/{id}/assessment", h.handleLatest).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Cardiovascular Disease Prediction API",
		"status":  "running",
		"endpoints": map[string]string{
			"/api/v1/predict":                  "POST - Get prediction with patient data",
			"/api/v1/features":                 "GET - Expected input features",
			"/api/v1/assessments/recent":       "GET - Recent assessments from the audit log",
			"/api/v1/patients/{id}/assessment": "GET - Latest cached assessment for a patient",
			"/health":                          "GET - API health check",
			"/metrics":                         "GET - Prometheus metrics",
		},
	})
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{Status: "healthy", ModelLoaded: h.service.Ready()}
	code := http.StatusOK
	if model := h.service.Model(); model != nil {
		status.ModelVersion = model.Version()
	} else {
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (h *HTTPHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var record cardio.PatientRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		logger.Log.WithError(err).Warn("invalid prediction payload")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	meta := Meta{
		PatientID: r.Header.Get(HeaderPatientID),
		RequestID: r.Header.Get(HeaderRequestID),
		Channel:   "http",
	}
	assessment, err := h.service.Assess(r.Context(), record, meta)
	if err != nil {
		h.writeAssessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (h *HTTPHandler) writeAssessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cardio.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, cardio.ErrEmptyRecord):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cardio.ErrInvalidFeatureValue):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Log.WithError(err).Error("failed to assess record")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *HTTPHandler) handleFeatures(w http.ResponseWriter, r *http.Request) {
	var schema cardio.Schema
	if model := h.service.Model(); model != nil {
		schema = model.Schema()
	}
	writeJSON(w, http.StatusOK, models.FeatureCatalog{
		Features:     schema.Names(),
		Descriptions: h.catalog.Describe(schema),
		ExampleInput: h.catalog.Example,
	})
}

func (h *HTTPHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	records, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		if errors.Is(err, ErrAuditLogDisabled) {
			writeError(w, http.StatusNotImplemented, err.Error())
			return
		}
		logger.Log.WithError(err).Error("failed to fetch recent assessments")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *HTTPHandler) handleLatest(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["id"]

	assessment, found, err := h.service.Latest(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, ErrCacheDisabled) {
			writeError(w, http.StatusNotImplemented, err.Error())
			return
		}
		logger.Log.WithError(err).Error("failed to fetch cached assessment")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no assessment for patient")
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Warn("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Success: false, Error: message})
}
