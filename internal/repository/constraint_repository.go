package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// ConstraintRepository reads per-student scheduling constraints.
type ConstraintRepository struct {
	db *sqlx.DB
}

// NewConstraintRepository constructs a ConstraintRepository.
func NewConstraintRepository(db *sqlx.DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

const constraintColumns = `id, student_id, constraint_type, constraint_value, description, is_active, created_at`

// ListActiveByStudent returns a student's active constraints.
func (r *ConstraintRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]models.Constraint, error) {
	query := fmt.Sprintf(`SELECT %s FROM constraints WHERE student_id = $1 AND is_active = true ORDER BY created_at ASC`, constraintColumns)
	var constraints []models.Constraint
	if err := r.db.SelectContext(ctx, &constraints, query, studentID); err != nil {
		return nil, fmt.Errorf("list constraints for student %s: %w", studentID, err)
	}
	return constraints, nil
}

// MapActiveBySection loads active constraints for every student of a section,
// keyed by student ID. One query per scheduling run instead of one per
// student.
func (r *ConstraintRepository) MapActiveBySection(ctx context.Context, sectionID string) (map[string][]models.Constraint, error) {
	const query = `SELECT c.id, c.student_id, c.constraint_type, c.constraint_value, c.description, c.is_active, c.created_at
        FROM constraints c
        JOIN students s ON s.id = c.student_id
        WHERE s.section_id = $1 AND c.is_active = true
        ORDER BY c.created_at ASC`
	var constraints []models.Constraint
	if err := r.db.SelectContext(ctx, &constraints, query, sectionID); err != nil {
		return nil, fmt.Errorf("list constraints for section %s: %w", sectionID, err)
	}
	byStudent := make(map[string][]models.Constraint)
	for _, c := range constraints {
		byStudent[c.StudentID] = append(byStudent[c.StudentID], c)
	}
	return byStudent, nil
}
