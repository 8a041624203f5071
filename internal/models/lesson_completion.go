package models

import "time"

// LessonCompletion records that a user finished a lesson
type LessonCompletion struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	LessonID    string    `json:"lessonId"`
	CourseID    string    `json:"courseId"`
	CompletedAt time.Time `json:"completedAt"`
}
