package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skillacademy/backend/internal/models"
)

// enrollmentRepository implements EnrollmentRepository
type enrollmentRepository struct {
	db *sql.DB
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *sql.DB) *enrollmentRepository {
	return &enrollmentRepository{
		db: db,
	}
}

const enrollmentColumns = `id, user_id, course_id, progress_percentage, module_progress, completed,
		completed_at, payment_ref, created_at, updated_at`

// Create inserts a new enrollment. A second enrollment for the same user and course returns ErrDuplicate.
func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.ModuleProgress == nil {
		enrollment.ModuleProgress = models.ModuleProgress{}
	}

	query := `
		INSERT INTO enrollments (id, user_id, course_id, progress_percentage, module_progress, completed, completed_at, payment_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		enrollment.ID,
		enrollment.UserID,
		enrollment.CourseID,
		enrollment.ProgressPercentage,
		enrollment.ModuleProgress,
		enrollment.Completed,
		enrollment.CompletedAt,
		enrollment.PaymentRef,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: enrollment for user %s in course %s", ErrDuplicate, enrollment.UserID, enrollment.CourseID)
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	return nil
}

// GetByUserAndCourse retrieves the enrollment of a user in a course
func (r *enrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE user_id = ? AND course_id = ?
		LIMIT 1
	`

	return r.scanOne(ctx, query, userID, courseID)
}

// GetForUpdate retrieves the enrollment and locks its row until the surrounding transaction ends.
// It must be called with a context produced by Transactor.WithinTx.
func (r *enrollmentRepository) GetForUpdate(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE user_id = ? AND course_id = ?
		LIMIT 1
		FOR UPDATE
	`

	return r.scanOne(ctx, query, userID, courseID)
}

// Exists checks whether the user is enrolled in the course
func (r *enrollmentRepository) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	query := `SELECT COUNT(*) FROM enrollments WHERE user_id = ? AND course_id = ?`

	var count int
	if err := executor(ctx, r.db).QueryRowContext(ctx, query, userID, courseID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check enrollment existence: %w", err)
	}

	return count > 0, nil
}

// UpdateProgress persists the aggregated progress of an enrollment.
// completed and completed_at are only ever moved forward; a stored completion is never cleared.
func (r *enrollmentRepository) UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		UPDATE enrollments
		SET progress_percentage = ?,
			module_progress = ?,
			completed = completed OR ?,
			completed_at = COALESCE(completed_at, ?),
			updated_at = ?
		WHERE id = ?
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		enrollment.ProgressPercentage,
		enrollment.ModuleProgress,
		enrollment.Completed,
		enrollment.CompletedAt,
		time.Now().UTC(),
		enrollment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update enrollment progress: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *enrollmentRepository) scanOne(ctx context.Context, query string, args ...any) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{}
	var completedAt sql.NullTime
	var paymentRef sql.NullString

	err := executor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&enrollment.ID,
		&enrollment.UserID,
		&enrollment.CourseID,
		&enrollment.ProgressPercentage,
		&enrollment.ModuleProgress,
		&enrollment.Completed,
		&completedAt,
		&paymentRef,
		&enrollment.CreatedAt,
		&enrollment.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if completedAt.Valid {
		enrollment.CompletedAt = &completedAt.Time
	}
	if paymentRef.Valid {
		enrollment.PaymentRef = &paymentRef.String
	}

	return enrollment, nil
}
