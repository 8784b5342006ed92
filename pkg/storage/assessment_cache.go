package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/synaptica-ai/cardio/pkg/common/logger"
	"github.com/synaptica-ai/cardio/pkg/common/models"
)

// AssessmentCache keeps the latest assessment per patient in Redis.
type AssessmentCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewAssessmentCache(client redis.Cmdable, prefix string, ttl time.Duration) *AssessmentCache {
	if prefix == "" {
		prefix = "assessment"
	}
	return &AssessmentCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *AssessmentCache) key(patientID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, patientID)
}

func (c *AssessmentCache) Put(ctx context.Context, patientID string, assessment models.Assessment) error {
	data, err := json.Marshal(assessment)
	if err != nil {
		return err
	}

	key := c.key(patientID)
	logger.Log.WithFields(map[string]interface{}{
		"key":  key,
		"size": len(data),
	}).Debug("Caching assessment")

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Latest returns the cached assessment; found is false on a cache miss.
func (c *AssessmentCache) Latest(ctx context.Context, patientID string) (models.Assessment, bool, error) {
	data, err := c.client.Get(ctx, c.key(patientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Assessment{}, false, nil
	}
	if err != nil {
		return models.Assessment{}, false, err
	}

	var assessment models.Assessment
	if err := json.Unmarshal(data, &assessment); err != nil {
		return models.Assessment{}, false, fmt.Errorf("decoding cached assessment: %w", err)
	}
	return assessment, true, nil
}
