package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"medadmin/m/internal/auth"
	"medadmin/m/internal/catalog"
	"medadmin/m/internal/config"
	"medadmin/m/internal/database"
	"medadmin/m/internal/docstore"
	"medadmin/m/internal/imagehost"
	"medadmin/m/internal/migrations"
)

func openDatabase(cfg config.Config) (*sqlx.DB, error) {
	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// newRegistry uses Redis when an address is configured and falls back to an
// in-process registry otherwise.
func newRegistry(ctx context.Context, cfg config.RedisConfig) (auth.Registry, func(), error) {
	if cfg.Addr == "" {
		log.Info().Msg("REDIS_ADDR not set, sessions are kept in memory")
		return auth.NewMemoryRegistry(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return auth.NewRedisRegistry(client), func() { _ = client.Close() }, nil
}

func newUploader(ctx context.Context, cfg config.ImageConfig) (imagehost.Uploader, error) {
	processor := imagehost.NewProcessor(cfg.MaxBytes, cfg.MaxDimension)

	var backend imagehost.Uploader
	switch cfg.Host {
	case config.ImageHostMinIO:
		store, err := imagehost.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return nil, err
		}
		backend = store
	case config.ImageHostImgBB, "":
		if cfg.ImgBB.APIKey == "" {
			log.Warn().Msg("IMGBB_API_KEY is empty, image uploads will be rejected")
		}
		backend = imagehost.NewImgBB(cfg.ImgBB.Endpoint, cfg.ImgBB.APIKey, &http.Client{Timeout: 30 * time.Second})
	default:
		return nil, fmt.Errorf("unknown IMAGE_HOST %q", cfg.Host)
	}
	return imagehost.NewPipeline(processor, backend), nil
}

func newProvider(db *sqlx.DB, registry auth.Registry, cfg config.Config) *auth.Provider {
	return auth.NewProvider(db, registry, auth.Options{
		Secret:           cfg.Secret,
		TTL:              cfg.SessionTTL,
		AdminEmailSuffix: cfg.AdminEmailSuffix,
		MinPasswordLen:   cfg.MinPasswordLen,
	})
}

func newRecordStore(db *sqlx.DB, cfg config.Config) *catalog.DocumentStore {
	return catalog.NewDocumentStore(docstore.NewSQLStore(db), cfg.Collection)
}
