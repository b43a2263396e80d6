package storage

import (
	"github.com/askroshan/india-angel-forge-sub003/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.storage",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) (Provider, error) {
	switch cfg.StorageBackend {
	case "s3":
		return NewS3(S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
	default:
		log.Named("storage").Info("using local document storage", zap.String("dir", cfg.StorageDir))
		return NewLocal(cfg.StorageDir), nil
	}
}
