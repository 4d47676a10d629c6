package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// SettingRepository manages persisted scheduling settings.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository constructs a SettingRepository.
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// GetByKey fetches one setting.
func (r *SettingRepository) GetByKey(ctx context.Context, key string) (*models.Setting, error) {
	const query = `SELECT key, value, type, description, updated_by, updated_at FROM settings WHERE key = $1`
	var setting models.Setting
	if err := r.db.GetContext(ctx, &setting, query, key); err != nil {
		return nil, err
	}
	return &setting, nil
}

// GetAll returns every setting ordered by key.
func (r *SettingRepository) GetAll(ctx context.Context) ([]models.Setting, error) {
	const query = `SELECT key, value, type, description, updated_by, updated_at FROM settings ORDER BY key ASC`
	var settings []models.Setting
	if err := r.db.SelectContext(ctx, &settings, query); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// Upsert writes a setting value, creating the row when absent.
func (r *SettingRepository) Upsert(ctx context.Context, setting *models.Setting) error {
	setting.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO settings (key, value, type, description, updated_by, updated_at)
        VALUES (:key, :value, :type, :description, :updated_by, :updated_at)
        ON CONFLICT (key) DO UPDATE SET
            value = EXCLUDED.value,
            type = EXCLUDED.type,
            description = COALESCE(EXCLUDED.description, settings.description),
            updated_by = EXCLUDED.updated_by,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, setting); err != nil {
		return fmt.Errorf("upsert setting %s: %w", setting.Key, err)
	}
	return nil
}
