package serving

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/cardio/pkg/cardio"
	"github.com/synaptica-ai/cardio/pkg/common/models"
)

func newTestRouter(svc *Service) *mux.Router {
	handler := NewHTTPHandler(svc, cardio.DefaultCatalog(), 1<<20)
	router := mux.NewRouter()
	handler.RegisterRoot(router)
	handler.Register(router.PathPrefix("/api/v1").Subrouter())
	return router
}

func doRequest(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthReflectsModelState(t *testing.T) {
	rec := doRequest(newTestRouter(NewService(nil, Options{})), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var status models.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.False(t, status.ModelLoaded)

	svc := NewService(newTestModel(t, &fixedClassifier{probability: 0.1}), Options{})
	rec = doRequest(newTestRouter(svc), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.True(t, status.ModelLoaded)
	assert.Equal(t, "test-v1", status.ModelVersion)
}

func TestPredictWithoutModel(t *testing.T) {
	router := newTestRouter(NewService(nil, Options{}))
	for _, path := range []string{"/predict", "/api/v1/predict"} {
		rec := doRequest(router, http.MethodPost, path, `{"age": 50}`, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		resp := decodeError(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, "model not loaded", resp.Error)
	}
}

func TestPredictRejectsBadInput(t *testing.T) {
	router := newTestRouter(NewService(newTestModel(t, &fixedClassifier{probability: 0.1}), Options{}))

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "no body", body: "", message: "no input data provided"},
		{name: "empty object", body: "{}", message: "no input data provided"},
		{name: "malformed json", body: "{", message: "invalid request body"},
		{name: "zero height", body: `{"height": 0, "weight": 70}`, message: "height"},
		{name: "non numeric", body: `{"cholesterol": "high"}`, message: "cholesterol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(router, http.MethodPost, "/api/v1/predict", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeError(t, rec)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Error, tt.message)
		})
	}
}

func TestPredictReturnsComposedAssessment(t *testing.T) {
	store := &memoryStore{}
	cache := &memoryCache{}
	svc := NewService(newTestModel(t, &fixedClassifier{probability: 0.734}), Options{Store: store, Cache: cache})
	router := newTestRouter(svc)

	body := `{"cholesterol": 3, "ap_hi": 150, "ap_lo": 95, "smoke": 1, "alco": 1,
		"active": 0, "height": 170, "weight": 90, "age": 58}`
	rec := doRequest(router, http.MethodPost, "/api/v1/predict", body, map[string]string{
		HeaderPatientID: "patient-7",
		HeaderRequestID: "req-7",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got models.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, 73.4, got.Probability)
	assert.Equal(t, "High Risk", got.RiskCategory)
	assert.Equal(t, "High Risk", got.Prediction)
	assert.Len(t, got.Recommendations, 7)
	assert.Equal(t, "BMI is 31.1. Aim for a healthy weight.", got.Recommendations[5])
	assert.Equal(t, trainedFeatures, got.FeaturesUsed)

	// features_values fed back in produces the same vector.
	replay := doRequest(router, http.MethodPost, "/predict", mustJSON(t, got.FeaturesValues), nil)
	require.Equal(t, http.StatusOK, replay.Code)
	var again models.Assessment
	require.NoError(t, json.Unmarshal(replay.Body.Bytes(), &again))
	assert.Equal(t, got.FeaturesValues, again.FeaturesValues)

	latest := doRequest(router, http.MethodGet, "/api/v1/patients/patient-7/assessment", "", nil)
	require.Equal(t, http.StatusOK, latest.Code)
	var cached models.Assessment
	require.NoError(t, json.Unmarshal(latest.Body.Bytes(), &cached))
	assert.Equal(t, got.AssessmentID, cached.AssessmentID)

	missing := doRequest(router, http.MethodGet, "/api/v1/patients/nobody/assessment", "", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	recent := doRequest(router, http.MethodGet, "/api/v1/assessments/recent?limit=1", "", nil)
	require.Equal(t, http.StatusOK, recent.Code)
	var records []models.AssessmentRecord
	require.NoError(t, json.Unmarshal(recent.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, again.AssessmentID, records[0].ID)
}

func TestPredictRejectsOversizedBody(t *testing.T) {
	svc := NewService(newTestModel(t, &fixedClassifier{probability: 0.1}), Options{})
	handler := NewHTTPHandler(svc, cardio.DefaultCatalog(), 64)
	router := mux.NewRouter()
	handler.RegisterRoot(router)

	body := `{"age": 50, "note": "` + strings.Repeat("x", 128) + `"}`
	rec := doRequest(router, http.MethodPost, "/predict", body, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "request body too large", decodeError(t, rec).Error)

	rec = doRequest(router, http.MethodPost, "/predict", `{"age": 50}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPredictHidesInternalErrors(t *testing.T) {
	router := newTestRouter(NewService(newTestModel(t, &fixedClassifier{probability: 1.5}), Options{}))
	rec := doRequest(router, http.MethodPost, "/api/v1/predict", `{"age": 61}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeError(t, rec).Error)
}

func TestRecentValidatesLimit(t *testing.T) {
	router := newTestRouter(NewService(nil, Options{Store: &memoryStore{}}))
	for _, limit := range []string{"0", "-3", "501", "ten"} {
		rec := doRequest(router, http.MethodGet, "/api/v1/assessments/recent?limit="+limit, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
	}
}

func TestOptionalEndpointsWhenSinksDisabled(t *testing.T) {
	router := newTestRouter(NewService(nil, Options{}))
	rec := doRequest(router, http.MethodGet, "/api/v1/assessments/recent", "", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	rec = doRequest(router, http.MethodGet, "/api/v1/patients/p/assessment", "", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestFeaturesListsSchemaAndDescriptions(t *testing.T) {
	router := newTestRouter(NewService(newTestModel(t, &fixedClassifier{}), Options{}))
	rec := doRequest(router, http.MethodGet, "/api/v1/features", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var catalog models.FeatureCatalog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalog))
	assert.Equal(t, trainedFeatures, catalog.Features)
	for _, name := range trainedFeatures {
		assert.NotEmpty(t, catalog.Descriptions[name], name)
	}
	assert.Contains(t, catalog.Descriptions, "age")
	assert.NotEmpty(t, catalog.ExampleInput)
}

func TestIndexListsEndpoints(t *testing.T) {
	rec := doRequest(newTestRouter(NewService(nil, Options{})), http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/predict")
}

func TestAssessmentsFromWorkerAndHTTPShareCache(t *testing.T) {
	cache := &memoryCache{}
	svc := NewService(newTestModel(t, &fixedClassifier{probability: 0.9}), Options{Cache: cache})
	_, err := svc.Assess(context.Background(), cardio.NewRecord(map[string]interface{}{"age": 70}), Meta{PatientID: "p-2", Channel: "kafka"})
	require.NoError(t, err)

	rec := doRequest(newTestRouter(svc), http.MethodGet, "/api/v1/patients/p-2/assessment", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Very High Risk")
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
