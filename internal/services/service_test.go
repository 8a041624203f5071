package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skillacademy/backend/internal/models"
	"github.com/skillacademy/backend/internal/repositories"
)

// fakeStore is an in-memory ledger. A transaction holds the store lock for its whole
// duration and restores a snapshot when it fails.
type fakeStore struct {
	mu sync.Mutex

	users       map[string]models.User
	courses     map[string]models.Course
	structures  map[string]models.CourseStructure
	payments    map[string]models.Payment
	enrollments map[string]models.Enrollment
	completions map[string]models.LessonCompletion

	eventsMu sync.Mutex
	events   []models.WebhookEvent

	// failures maps an operation name such as "payments.Create" to the error it returns
	failures map[string]error
}

type fakeTxKey struct{}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]models.User{},
		courses:     map[string]models.Course{},
		structures:  map[string]models.CourseStructure{},
		payments:    map[string]models.Payment{},
		enrollments: map[string]models.Enrollment{},
		completions: map[string]models.LessonCompletion{},
		failures:    map[string]error{},
	}
}

func (s *fakeStore) addUser(user models.User) *fakeStore {
	s.users[user.ID] = user
	return s
}

func (s *fakeStore) addCourse(course models.Course, modules ...models.CourseModule) *fakeStore {
	s.courses[course.ID] = course
	s.structures[course.ID] = models.CourseStructure{CourseID: course.ID, Modules: modules}
	return s
}

func (s *fakeStore) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// guard locks the store unless the caller already runs inside a transaction
func (s *fakeStore) guard(ctx context.Context) func() {
	if ctx.Value(fakeTxKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *fakeStore) failure(op string) error {
	return s.failures[op]
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failure("tx.Begin"); err != nil {
		return err
	}

	snapshot := s.snapshot()
	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type storeSnapshot struct {
	courses     map[string]models.Course
	payments    map[string]models.Payment
	enrollments map[string]models.Enrollment
	completions map[string]models.LessonCompletion
}

func (s *fakeStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		courses:     map[string]models.Course{},
		payments:    map[string]models.Payment{},
		enrollments: map[string]models.Enrollment{},
		completions: map[string]models.LessonCompletion{},
	}
	for k, v := range s.courses {
		snap.courses[k] = v
	}
	for k, v := range s.payments {
		snap.payments[k] = v
	}
	for k, v := range s.enrollments {
		snap.enrollments[k] = cloneEnrollment(v)
	}
	for k, v := range s.completions {
		snap.completions[k] = v
	}
	return snap
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.courses = snap.courses
	s.payments = snap.payments
	s.enrollments = snap.enrollments
	s.completions = snap.completions
}

func cloneEnrollment(e models.Enrollment) models.Enrollment {
	progress := models.ModuleProgress{}
	for moduleID, lessons := range e.ModuleProgress {
		for lessonID, pct := range lessons {
			progress.Set(moduleID, lessonID, pct)
		}
	}
	e.ModuleProgress = progress
	return e
}

func enrollmentKey(userID, courseID string) string {
	return userID + "|" + courseID
}

// read accessors used by assertions

func (s *fakeStore) paymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

func (s *fakeStore) enrollment(userID, courseID string) (models.Enrollment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[enrollmentKey(userID, courseID)]
	return cloneEnrollment(e), ok
}

func (s *fakeStore) enrollmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.enrollments)
}

func (s *fakeStore) studentsCount(courseID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.courses[courseID].StudentsCount
}

func (s *fakeStore) auditEvents() []models.WebhookEvent {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	return append([]models.WebhookEvent(nil), s.events...)
}

func (s *fakeStore) setStructure(courseID string, modules ...models.CourseModule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.structures[courseID] = models.CourseStructure{CourseID: courseID, Modules: modules}
}

// payments

type fakePaymentRepo struct{ *fakeStore }

func (r fakePaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	defer r.guard(ctx)()
	if err := r.failure("payments.Create"); err != nil {
		return err
	}
	if _, ok := r.payments[payment.Reference]; ok {
		return fmt.Errorf("%w: payment reference %s", repositories.ErrDuplicate, payment.Reference)
	}
	if payment.ID == "" {
		payment.ID = fmt.Sprintf("p%d", len(r.payments)+1)
	}
	r.payments[payment.Reference] = *payment
	return nil
}

func (r fakePaymentRepo) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	defer r.guard(ctx)()
	if err := r.failure("payments.GetByReference"); err != nil {
		return nil, err
	}
	payment, ok := r.payments[reference]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &payment, nil
}

// enrollments

type fakeEnrollmentRepo struct{ *fakeStore }

func (r fakeEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	defer r.guard(ctx)()
	if err := r.failure("enrollments.Create"); err != nil {
		return err
	}
	key := enrollmentKey(enrollment.UserID, enrollment.CourseID)
	if _, ok := r.enrollments[key]; ok {
		return fmt.Errorf("%w: enrollment %s", repositories.ErrDuplicate, key)
	}
	if enrollment.ID == "" {
		enrollment.ID = fmt.Sprintf("e%d", len(r.enrollments)+1)
	}
	enrollment.CreatedAt = time.Now()
	r.enrollments[key] = cloneEnrollment(*enrollment)
	return nil
}

func (r fakeEnrollmentRepo) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	defer r.guard(ctx)()
	if err := r.failure("enrollments.Exists"); err != nil {
		return false, err
	}
	_, ok := r.enrollments[enrollmentKey(userID, courseID)]
	return ok, nil
}

func (r fakeEnrollmentRepo) GetByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	defer r.guard(ctx)()
	if err := r.failure("enrollments.Get"); err != nil {
		return nil, err
	}
	e, ok := r.enrollments[enrollmentKey(userID, courseID)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := cloneEnrollment(e)
	return &clone, nil
}

func (r fakeEnrollmentRepo) GetForUpdate(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	if ctx.Value(fakeTxKey{}) == nil {
		return nil, fmt.Errorf("GetForUpdate called outside a transaction")
	}
	return r.GetByUserAndCourse(ctx, userID, courseID)
}

func (r fakeEnrollmentRepo) UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error {
	defer r.guard(ctx)()
	if err := r.failure("enrollments.UpdateProgress"); err != nil {
		return err
	}
	key := enrollmentKey(enrollment.UserID, enrollment.CourseID)
	stored, ok := r.enrollments[key]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.ProgressPercentage = enrollment.ProgressPercentage
	stored.ModuleProgress = enrollment.ModuleProgress
	// mirrors the SQL: completion only moves forward
	if enrollment.Completed && !stored.Completed {
		stored.Completed = true
		stored.CompletedAt = enrollment.CompletedAt
	}
	r.enrollments[key] = cloneEnrollment(stored)
	return nil
}

// courses

type fakeCourseRepo struct{ *fakeStore }

func (r fakeCourseRepo) GetByID(ctx context.Context, id string) (*models.Course, error) {
	defer r.guard(ctx)()
	if err := r.failure("courses.GetByID"); err != nil {
		return nil, err
	}
	course, ok := r.courses[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &course, nil
}

func (r fakeCourseRepo) GetStructure(ctx context.Context, courseID string) (*models.CourseStructure, error) {
	defer r.guard(ctx)()
	if err := r.failure("courses.GetStructure"); err != nil {
		return nil, err
	}
	structure := r.structures[courseID]
	structure.CourseID = courseID
	return &structure, nil
}

func (r fakeCourseRepo) GetLessonLocation(ctx context.Context, lessonID string) (*models.LessonLocation, error) {
	defer r.guard(ctx)()
	for courseID, structure := range r.structures {
		for _, m := range structure.Modules {
			for _, id := range m.LessonIDs {
				if id == lessonID {
					return &models.LessonLocation{LessonID: lessonID, ModuleID: m.ID, CourseID: courseID}, nil
				}
			}
		}
	}
	return nil, repositories.ErrNotFound
}

func (r fakeCourseRepo) IncrementStudentsCount(ctx context.Context, courseID string) error {
	defer r.guard(ctx)()
	if err := r.failure("courses.IncrementStudentsCount"); err != nil {
		return err
	}
	course := r.courses[courseID]
	course.StudentsCount++
	r.courses[courseID] = course
	return nil
}

func (r fakeCourseRepo) RecountStudents(ctx context.Context) (int, error) {
	defer r.guard(ctx)()
	if err := r.failure("courses.RecountStudents"); err != nil {
		return 0, err
	}
	counts := map[string]int{}
	for _, e := range r.enrollments {
		counts[e.CourseID]++
	}
	corrected := 0
	for id, course := range r.courses {
		if course.StudentsCount != counts[id] {
			course.StudentsCount = counts[id]
			r.courses[id] = course
			corrected++
		}
	}
	return corrected, nil
}

// users

type fakeUserRepo struct{ *fakeStore }

func (r fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	defer r.guard(ctx)()
	if err := r.failure("users.GetByID"); err != nil {
		return nil, err
	}
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &user, nil
}

// lesson completions

type fakeCompletionRepo struct{ *fakeStore }

func (r fakeCompletionRepo) Upsert(ctx context.Context, completion *models.LessonCompletion) error {
	defer r.guard(ctx)()
	if err := r.failure("completions.Upsert"); err != nil {
		return err
	}
	key := completion.UserID + "|" + completion.LessonID
	if existing, ok := r.completions[key]; ok {
		existing.CompletedAt = completion.CompletedAt
		r.completions[key] = existing
		return nil
	}
	r.completions[key] = *completion
	return nil
}

// audit log, written outside transactions

type fakeEventRepo struct{ *fakeStore }

func (r fakeEventRepo) Create(ctx context.Context, event *models.WebhookEvent) error {
	r.mu.Lock()
	err := r.failure("events.Create")
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()
	event.ID = fmt.Sprintf("w%d", len(r.events)+1)
	event.CreatedAt = time.Now()
	r.events = append(r.events, *event)
	return nil
}

func (r fakeEventRepo) ListUnappliedReferences(ctx context.Context, since time.Time, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure("events.ListUnappliedReferences"); err != nil {
		return nil, err
	}

	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()
	seen := map[string]bool{}
	references := []string{}
	for _, e := range r.events {
		if e.Reason != models.ReasonStoreUnavailable || e.Reference == "" || e.CreatedAt.Before(since) {
			continue
		}
		if _, paid := r.payments[e.Reference]; paid || seen[e.Reference] {
			continue
		}
		seen[e.Reference] = true
		references = append(references, e.Reference)
		if len(references) == limit {
			break
		}
	}
	return references, nil
}
