package serving

import (
	"context"
	"errors"

	"github.com/synaptica-ai/cardio/pkg/cardio"
	"github.com/synaptica-ai/cardio/pkg/common/logger"
	"github.com/synaptica-ai/cardio/pkg/common/models"
)

// HandleRecordEvent scores a patient.record event. Records that can never
// be scored are logged and acknowledged; other failures are returned and the
// consumer retries the same message before reading further.
func (s *Service) HandleRecordEvent(ctx context.Context, event models.Event) error {
	if event.Type != models.EventPatientRecord {
		logger.Log.WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Debug("ignoring event")
		return nil
	}

	meta := Meta{
		PatientID: event.Metadata["patient_id"],
		RequestID: event.ID,
		Channel:   "kafka",
	}
	_, err := s.Assess(ctx, cardio.NewRecord(event.Data), meta)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cardio.ErrEmptyRecord), errors.Is(err, cardio.ErrInvalidFeatureValue):
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"patient_id": meta.PatientID,
		}).Warn("dropping unscorable record")
		return nil
	default:
		return err
	}
}
