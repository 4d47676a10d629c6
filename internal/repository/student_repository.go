package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/exam-slot-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("s.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.Cohort != "" {
		conditions = append(conditions, fmt.Sprintf("s.cohort = $%d", len(args)+1))
		args = append(args, filter.Cohort)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("s.is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.sis_user_id, s.full_name, s.email, s.section_id, s.cohort, s.section_override, s.is_active, s.created_at, s.updated_at
        %s ORDER BY s.full_name ASC LIMIT %d OFFSET %d`, base, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, sis_user_id, full_name, email, section_id, cohort, section_override, is_active, created_at, updated_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListActiveBySection returns active students of a section ordered by ID so
// scheduling runs see a stable input order.
func (r *StudentRepository) ListActiveBySection(ctx context.Context, sectionID string) ([]models.Student, error) {
	const query = `SELECT id, sis_user_id, full_name, email, section_id, cohort, section_override, is_active, created_at, updated_at
        FROM students WHERE section_id = $1 AND is_active = true ORDER BY id ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, sectionID); err != nil {
		return nil, fmt.Errorf("list active students for section %s: %w", sectionID, err)
	}
	return students, nil
}

// CountActiveBySection returns the number of active students per section.
func (r *StudentRepository) CountActiveBySection(ctx context.Context) (map[string]int, error) {
	const query = `SELECT section_id, COUNT(*) AS total FROM students
        WHERE is_active = true AND section_id IS NOT NULL GROUP BY section_id`
	rows := []struct {
		SectionID string `db:"section_id"`
		Total     int    `db:"total"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count active students: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.SectionID] = row.Total
	}
	return counts, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, sis_user_id, full_name, email, section_id, cohort, section_override, is_active, created_at, updated_at)
        VALUES (:id, :sis_user_id, :full_name, :email, :section_id, :cohort, :section_override, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET sis_user_id = :sis_user_id, full_name = :full_name, email = :email,
        section_id = :section_id, cohort = :cohort, section_override = :section_override,
        is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// UpdateCohort sets the cohort for a single student.
func (r *StudentRepository) UpdateCohort(ctx context.Context, exec sqlx.ExtContext, studentID string, cohort models.Cohort) error {
	const query = `UPDATE students SET cohort = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, studentID, string(cohort), time.Now().UTC()); err != nil {
		return fmt.Errorf("update cohort for student %s: %w", studentID, err)
	}
	return nil
}

// ResetCohorts clears every student's cohort assignment.
func (r *StudentRepository) ResetCohorts(ctx context.Context, exec sqlx.ExtContext) error {
	const query = `UPDATE students SET cohort = NULL, updated_at = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, time.Now().UTC()); err != nil {
		return fmt.Errorf("reset cohorts: %w", err)
	}
	return nil
}

// Deactivate marks a student as inactive.
func (r *StudentRepository) Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `UPDATE students SET is_active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return nil
}
