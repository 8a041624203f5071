package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/skillacademy/backend/internal/models"
)

// lessonCompletionRepository implements LessonCompletionRepository
type lessonCompletionRepository struct {
	db *sql.DB
}

// NewLessonCompletionRepository creates a new lesson completion repository
func NewLessonCompletionRepository(db *sql.DB) *lessonCompletionRepository {
	return &lessonCompletionRepository{
		db: db,
	}
}

// Upsert records a lesson completion. Re-marking a lesson refreshes its timestamp
// instead of creating a second row.
func (r *lessonCompletionRepository) Upsert(ctx context.Context, completion *models.LessonCompletion) error {
	if completion.ID == "" {
		completion.ID = uuid.NewString()
	}

	query := `
		INSERT INTO lesson_completions (id, user_id, lesson_id, course_id, completed_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			completed_at = VALUES(completed_at)
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		completion.ID,
		completion.UserID,
		completion.LessonID,
		completion.CourseID,
		completion.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert lesson completion: %w", err)
	}

	return nil
}
