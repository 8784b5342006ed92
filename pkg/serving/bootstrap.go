package serving

import (
	"context"
	"time"

	"github.com/synaptica-ai/cardio/pkg/common/config"
	"github.com/synaptica-ai/cardio/pkg/common/database"
	"github.com/synaptica-ai/cardio/pkg/common/kafka"
	"github.com/synaptica-ai/cardio/pkg/common/logger"
	"github.com/synaptica-ai/cardio/pkg/gateway/httpclient"
	"github.com/synaptica-ai/cardio/pkg/storage"
	"gorm.io/gorm"
)

var connectRetry = httpclient.Policy{
	Attempts:  3,
	BaseDelay: 500 * time.Millisecond,
	MaxDelay:  2 * time.Second,
	Retriable: httpclient.IsRetriable,
}

// LoadModel loads the artifacts named by cfg. A failure is logged and
// yields a nil context so the process can still start and report unhealthy.
func LoadModel(cfg *config.Config) *ModelContext {
	model, err := LoadModelContext(cfg.ModelArtifactDir, cfg.ModelVersion)
	if err != nil {
		logger.Log.WithError(err).WithField("dir", cfg.ModelArtifactDir).Warn("Model artifacts unavailable; serving without a model")
		return nil
	}
	logger.Log.WithFields(map[string]interface{}{
		"dir":      cfg.ModelArtifactDir,
		"version":  model.Version(),
		"features": model.Schema().Len(),
	}).Info("Model loaded")
	return model
}

// ConnectSinks opens the optional side-effect sinks enabled in cfg. The
// returned close func releases whatever was opened.
func ConnectSinks(ctx context.Context, cfg *config.Config) (Options, func(), error) {
	var opts Options
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.PredictionLogEnabled {
		var db *gorm.DB
		err := httpclient.Retry(ctx, connectRetry, func() error {
			var err error
			db, err = database.ConnectPostgres(cfg)
			return err
		})
		if err != nil {
			closeAll()
			return Options{}, func() {}, err
		}
		repo := NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			_ = database.ClosePostgres(db)
			closeAll()
			return Options{}, func() {}, err
		}
		opts.Store = repo
		closers = append(closers, func() { _ = database.ClosePostgres(db) })
	}

	if cfg.AssessmentCacheEnabled {
		client, err := database.ConnectRedis(ctx, cfg)
		if err != nil {
			closeAll()
			return Options{}, func() {}, err
		}
		opts.Cache = storage.NewAssessmentCache(client, "assessment", cfg.AssessmentCacheTTL)
		closers = append(closers, func() { _ = client.Close() })
	}

	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaAssessmentsTopic)
		opts.Publisher = producer
		closers = append(closers, func() { _ = producer.Close() })
	}

	return opts, closeAll, nil
}
