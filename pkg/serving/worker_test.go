package serving

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptica-ai/cardio/pkg/cardio"
	"github.com/synaptica-ai/cardio/pkg/common/models"
)

func recordEvent(data map[string]interface{}) models.Event {
	return models.Event{
		ID:       "evt-1",
		Type:     models.EventPatientRecord,
		Source:   "ingestion",
		Data:     data,
		Metadata: map[string]string{"patient_id": "p-42"},
	}
}

func TestHandleRecordEventPublishesAssessment(t *testing.T) {
	publisher := &recordingPublisher{}
	cache := &memoryCache{}
	svc := NewService(newTestModel(t, &fixedClassifier{probability: 0.35}), Options{Cache: cache, Publisher: publisher})

	err := svc.HandleRecordEvent(context.Background(), recordEvent(map[string]interface{}{"age": 52.0, "smoke": 1.0}))
	require.NoError(t, err)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "p-42", publisher.events[0].metadata["patient_id"])
	assert.Equal(t, "evt-1", publisher.events[0].metadata["request_id"])
	assert.Equal(t, "Moderate Risk", publisher.events[0].data["risk_category"])

	cached, found, err := svc.Latest(context.Background(), "p-42")
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, cached.Recommendations, cardio.AdviceSmoking)
}

func TestHandleRecordEventAcknowledgesBadRecords(t *testing.T) {
	classifier := &fixedClassifier{probability: 0.35}
	svc := NewService(newTestModel(t, classifier), Options{})

	assert.NoError(t, svc.HandleRecordEvent(context.Background(), recordEvent(nil)))
	assert.NoError(t, svc.HandleRecordEvent(context.Background(), recordEvent(map[string]interface{}{"height": 0.0, "weight": 80.0})))
	assert.NoError(t, svc.HandleRecordEvent(context.Background(), models.Event{Type: models.EventRiskAssessed}))
	assert.Zero(t, classifier.calls())
}

func TestHandleRecordEventRetriesWhenUnavailable(t *testing.T) {
	svc := NewService(nil, Options{})
	err := svc.HandleRecordEvent(context.Background(), recordEvent(map[string]interface{}{"age": 40.0}))
	assert.ErrorIs(t, err, cardio.ErrServiceUnavailable)
}
