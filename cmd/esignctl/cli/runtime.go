package cli

import (
	"fmt"

	"gorm.io/gorm"

	"esign.backend/internal/config"
	"esign.backend/internal/infrastructure/datasources/postgres"
	"esign.backend/internal/infrastructure/repositories"
	"esign.backend/internal/usecases"
)

var (
	openDB    = postgres.NewConnection
	migrateDB = postgres.Migrate
)

type runtime struct {
	db      *gorm.DB
	apiKeys *usecases.ApiKeyUsecase
}

func (r *runtime) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *session) openRuntime() (*config.Config, *runtime, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, nil, err
	}
	db, err := openDB(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, &runtime{
		db:      db,
		apiKeys: usecases.NewApiKeyUsecase(repositories.NewApiKeyRepository(db)),
	}, nil
}
