package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Course represents a catalog entry
type Course struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	IsPublished   bool            `json:"isPublished"`
	StudentsCount int             `json:"studentsCount"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// IsFree reports whether the course can be enrolled without payment
func (c *Course) IsFree() bool {
	return c.Price.Sign() <= 0
}

// CourseModule represents an ordered module of a course together with its ordered lesson IDs
type CourseModule struct {
	ID        string   `json:"id"`
	CourseID  string   `json:"courseId"`
	Position  int      `json:"position"`
	LessonIDs []string `json:"lessonIds"`
}

// CourseStructure is the current module/lesson layout of a course
type CourseStructure struct {
	CourseID string         `json:"courseId"`
	Modules  []CourseModule `json:"modules"`
}

// TotalLessons returns the number of lessons across all modules
func (s *CourseStructure) TotalLessons() int {
	total := 0
	for _, m := range s.Modules {
		total += len(m.LessonIDs)
	}
	return total
}

// HasLesson reports whether the lesson belongs to the given module
func (s *CourseStructure) HasLesson(moduleID, lessonID string) bool {
	for _, m := range s.Modules {
		if m.ID != moduleID {
			continue
		}
		for _, id := range m.LessonIDs {
			if id == lessonID {
				return true
			}
		}
	}
	return false
}

// LessonLocation identifies where a lesson sits in the course tree
type LessonLocation struct {
	LessonID string `json:"lessonId"`
	ModuleID string `json:"moduleId"`
	CourseID string `json:"courseId"`
}
