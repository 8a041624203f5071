package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skillacademy/backend/internal/models"
)

// courseRepository implements CourseRepository
type courseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB) *courseRepository {
	return &courseRepository{
		db: db,
	}
}

// GetByID retrieves a course by ID
func (r *courseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	query := `
		SELECT id, title, price, currency, is_published, students_count, created_at
		FROM courses
		WHERE id = ?
		LIMIT 1
	`

	course := &models.Course{}
	err := executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&course.ID,
		&course.Title,
		&course.Price,
		&course.Currency,
		&course.IsPublished,
		&course.StudentsCount,
		&course.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}

	return course, nil
}

// GetStructure retrieves the ordered modules of a course with their ordered lesson IDs.
// Modules without lessons are kept; they contribute nothing to the lesson count.
func (r *courseRepository) GetStructure(ctx context.Context, courseID string) (*models.CourseStructure, error) {
	query := `
		SELECT m.id, m.position, l.id
		FROM course_modules m
		LEFT JOIN lessons l ON l.module_id = m.id
		WHERE m.course_id = ?
		ORDER BY m.position, m.id, l.position, l.id
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query course structure: %w", err)
	}
	defer rows.Close()

	structure := &models.CourseStructure{CourseID: courseID}
	for rows.Next() {
		var moduleID string
		var position int
		var lessonID sql.NullString
		if err := rows.Scan(&moduleID, &position, &lessonID); err != nil {
			return nil, fmt.Errorf("failed to scan course structure: %w", err)
		}

		last := len(structure.Modules) - 1
		if last < 0 || structure.Modules[last].ID != moduleID {
			structure.Modules = append(structure.Modules, models.CourseModule{
				ID:       moduleID,
				CourseID: courseID,
				Position: position,
			})
			last++
		}
		if lessonID.Valid {
			structure.Modules[last].LessonIDs = append(structure.Modules[last].LessonIDs, lessonID.String)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course structure: %w", err)
	}

	return structure, nil
}

// GetLessonLocation resolves the module and course a lesson belongs to
func (r *courseRepository) GetLessonLocation(ctx context.Context, lessonID string) (*models.LessonLocation, error) {
	query := `
		SELECT l.id, l.module_id, m.course_id
		FROM lessons l
		JOIN course_modules m ON m.id = l.module_id
		WHERE l.id = ?
		LIMIT 1
	`

	location := &models.LessonLocation{}
	err := executor(ctx, r.db).QueryRowContext(ctx, query, lessonID).Scan(
		&location.LessonID,
		&location.ModuleID,
		&location.CourseID,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson location: %w", err)
	}

	return location, nil
}

// IncrementStudentsCount adds one to the denormalized student counter of a course
func (r *courseRepository) IncrementStudentsCount(ctx context.Context, courseID string) error {
	query := `UPDATE courses SET students_count = students_count + 1 WHERE id = ?`

	if _, err := executor(ctx, r.db).ExecContext(ctx, query, courseID); err != nil {
		return fmt.Errorf("failed to increment students count: %w", err)
	}

	return nil
}

// RecountStudents rewrites every drifted student counter from the enrollments table
// and returns the number of courses that were corrected.
func (r *courseRepository) RecountStudents(ctx context.Context) (int, error) {
	query := `
		UPDATE courses c
		LEFT JOIN (
			SELECT course_id, COUNT(*) AS total
			FROM enrollments
			GROUP BY course_id
		) e ON e.course_id = c.id
		SET c.students_count = COALESCE(e.total, 0)
		WHERE c.students_count <> COALESCE(e.total, 0)
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to recount students: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}
