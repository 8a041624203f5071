package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// CompletionThreshold is the course percentage at which an enrollment is promoted to completed
const CompletionThreshold = 100.0

// completionEpsilon absorbs floating point drift when comparing against CompletionThreshold
const completionEpsilon = 1e-9

// ModuleProgress maps module ID -> lesson ID -> lesson percentage (0..100)
type ModuleProgress map[string]map[string]float64

// Set merges a single lesson percentage without touching other lessons or modules
func (p ModuleProgress) Set(moduleID, lessonID string, percentage float64) {
	lessons, ok := p[moduleID]
	if !ok {
		lessons = make(map[string]float64)
		p[moduleID] = lessons
	}
	lessons[lessonID] = percentage
}

// Get returns the recorded percentage of a lesson, 0 when absent
func (p ModuleProgress) Get(moduleID, lessonID string) float64 {
	return p[moduleID][lessonID]
}

// CoursePercentage computes the mean of all lesson percentages of the course structure.
// Lessons without an entry count as 0 and entries for lessons no longer in the course are ignored.
// The result is clamped to [0, 100].
func (p ModuleProgress) CoursePercentage(structure *CourseStructure) float64 {
	total := structure.TotalLessons()
	if total == 0 {
		return 0
	}

	var sum float64
	for _, m := range structure.Modules {
		for _, lessonID := range m.LessonIDs {
			sum += p.Get(m.ID, lessonID)
		}
	}

	return clampPercentage(sum / float64(total))
}

// Validate checks that every recorded percentage is a finite value in [0, 100]
func (p ModuleProgress) Validate() error {
	for moduleID, lessons := range p {
		if moduleID == "" {
			return fmt.Errorf("module progress: empty module id")
		}
		for lessonID, pct := range lessons {
			if lessonID == "" {
				return fmt.Errorf("module progress: empty lesson id in module %s", moduleID)
			}
			if !ValidPercentage(pct) {
				return fmt.Errorf("module progress: invalid percentage %v for lesson %s", pct, lessonID)
			}
		}
	}
	return nil
}

// Value implements driver.Valuer, storing the map as a JSON document
func (p ModuleProgress) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal module progress: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner; the shape is validated instead of trusted
func (p *ModuleProgress) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = ModuleProgress{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("module progress: unsupported source type %T", src)
	}

	if len(raw) == 0 {
		*p = ModuleProgress{}
		return nil
	}

	decoded := ModuleProgress{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("module progress: malformed document: %w", err)
	}
	if err := decoded.Validate(); err != nil {
		return err
	}

	*p = decoded
	return nil
}

// ValidPercentage reports whether v is a finite percentage in [0, 100]
func ValidPercentage(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 100
}

func clampPercentage(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// Enrollment represents a user's enrollment in a course
type Enrollment struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"userId"`
	CourseID           string         `json:"courseId"`
	ProgressPercentage float64        `json:"progressPercentage"`
	ModuleProgress     ModuleProgress `json:"moduleProgress"`
	Completed          bool           `json:"completed"`
	CompletedAt        *time.Time     `json:"completedAt,omitempty"`
	PaymentRef         *string        `json:"paymentRef,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// Recalculate recomputes the course percentage from the module progress map and
// promotes the enrollment to completed when the threshold is reached.
// Completion is one-way: once completed, CompletedAt is never touched again.
func (e *Enrollment) Recalculate(structure *CourseStructure, now time.Time) {
	e.ProgressPercentage = e.ModuleProgress.CoursePercentage(structure)

	if e.Completed {
		return
	}
	if e.ProgressPercentage >= CompletionThreshold-completionEpsilon {
		e.Completed = true
		stamp := now
		e.CompletedAt = &stamp
	}
}

// Progress is the course level view of an enrollment returned to the learning UI
type Progress struct {
	CourseID           string         `json:"courseId"`
	ProgressPercentage float64        `json:"progressPercentage"`
	ModuleProgress     ModuleProgress `json:"moduleProgress"`
	Completed          bool           `json:"completed"`
	CompletedAt        *time.Time     `json:"completedAt,omitempty"`
}

// ToProgress converts an enrollment into its progress view
func (e *Enrollment) ToProgress() *Progress {
	return &Progress{
		CourseID:           e.CourseID,
		ProgressPercentage: e.ProgressPercentage,
		ModuleProgress:     e.ModuleProgress,
		Completed:          e.Completed,
		CompletedAt:        e.CompletedAt,
	}
}

// CompletionResult is returned after a lesson has been marked complete
type CompletionResult struct {
	CourseID           string     `json:"courseId"`
	LessonID           string     `json:"lessonId"`
	ProgressPercentage float64    `json:"progressPercentage"`
	Completed          bool       `json:"completed"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
}
