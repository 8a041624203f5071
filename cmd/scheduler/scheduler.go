package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/skillacademy/backend/internal/tasks"
	"go.uber.org/zap"
)

const lockKeyPrefix = "scheduler:lock:"

// Locker is the subset of the redis client used for the leader lock
type Locker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Enqueuer is the subset of the asynq client used to publish tasks
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// job is one periodic maintenance trigger
type job struct {
	name     string
	schedule cron.Schedule
	build    func() (*asynq.Task, error)
}

// Scheduler enqueues maintenance tasks on cron schedules.
// Every tick takes a redis lock first, so running several schedulers enqueues each task once.
type Scheduler struct {
	cron       *cron.Cron
	locker     Locker
	enqueuer   Enqueuer
	logger     *zap.Logger
	instanceID string
	jobs       []job
	now        func() time.Time
}

// NewScheduler creates a new scheduler instance for the given cron specs
func NewScheduler(locker Locker, enqueuer Enqueuer, logger *zap.Logger, instanceID, recountSpec, replaySpec string) (*Scheduler, error) {
	s := &Scheduler{
		cron:       cron.New(),
		locker:     locker,
		enqueuer:   enqueuer,
		logger:     logger,
		instanceID: instanceID,
		now:        time.Now,
	}

	if err := s.addJob(tasks.TypeRecountStudents, recountSpec, func() (*asynq.Task, error) {
		return tasks.NewRecountTask(), nil
	}); err != nil {
		return nil, err
	}
	if err := s.addJob(tasks.TypeReplayDeliveries, replaySpec, func() (*asynq.Task, error) {
		return tasks.NewReplayTask(tasks.ReplayPayload{})
	}); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) addJob(name, spec string, build func() (*asynq.Task, error)) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}

	j := job{name: name, schedule: schedule, build: build}
	s.jobs = append(s.jobs, j)
	s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.runJob(context.Background(), j)
	}))
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// runJob enqueues one task if this instance wins the lock for the current tick
func (s *Scheduler) runJob(ctx context.Context, j job) bool {
	ttl := s.lockTTL(j.schedule)
	acquired, err := s.locker.SetNX(ctx, lockKeyPrefix+j.name, s.instanceID, ttl).Result()
	if err != nil {
		s.logger.Error("Failed to acquire scheduler lock", zap.String("task", j.name), zap.Error(err))
		return false
	}
	if !acquired {
		s.logger.Debug("Scheduler lock held by another instance", zap.String("task", j.name))
		return false
	}

	task, err := j.build()
	if err != nil {
		s.logger.Error("Failed to build task", zap.String("task", j.name), zap.Error(err))
		return false
	}

	info, err := s.enqueuer.Enqueue(task, asynq.Unique(ttl))
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			s.logger.Info("Task already queued", zap.String("task", j.name))
			return false
		}
		s.logger.Error("Failed to enqueue task", zap.String("task", j.name), zap.Error(err))
		return false
	}

	s.logger.Info("Enqueued maintenance task", zap.String("task", j.name), zap.String("id", info.ID))
	return true
}

// lockTTL keeps the lock for half of the schedule interval so the next tick can take it again
func (s *Scheduler) lockTTL(schedule cron.Schedule) time.Duration {
	next := schedule.Next(s.now())
	interval := schedule.Next(next).Sub(next)
	if ttl := interval / 2; ttl > time.Second {
		return ttl
	}
	return time.Second
}
