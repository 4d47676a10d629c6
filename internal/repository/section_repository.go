package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// SectionRepository manages persistence for sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs a SectionRepository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// ListActive returns active sections ordered by code.
func (r *SectionRepository) ListActive(ctx context.Context) ([]models.Section, error) {
	const query = `SELECT id, code, name, ta_id, ta_name, is_active, created_at, updated_at
        FROM sections WHERE is_active = true ORDER BY code ASC`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, fmt.Errorf("list active sections: %w", err)
	}
	return sections, nil
}

// FindByID fetches a section by ID.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT id, code, name, ta_id, ta_name, is_active, created_at, updated_at
        FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}
