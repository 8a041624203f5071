// Package tasks defines the background maintenance tasks processed by the worker
package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypeRecountStudents rewrites drifted course student counters
	TypeRecountStudents = "students:recount"
	// TypeReplayDeliveries re-verifies charges whose webhook delivery failed on a store outage
	TypeReplayDeliveries = "deliveries:replay"

	// QueueMaintenance is the asynq queue for all maintenance tasks
	QueueMaintenance = "maintenance"
)

const (
	DefaultReplayWindow = 72 * time.Hour
	DefaultReplayLimit  = 100
)

// ReplayPayload bounds a replay run
type ReplayPayload struct {
	WindowHours int `json:"windowHours"`
	Limit       int `json:"limit"`
}

// Window returns the replay look-back window, falling back to the default
func (p ReplayPayload) Window() time.Duration {
	if p.WindowHours <= 0 {
		return DefaultReplayWindow
	}
	return time.Duration(p.WindowHours) * time.Hour
}

// MaxReferences returns the replay limit, falling back to the default
func (p ReplayPayload) MaxReferences() int {
	if p.Limit <= 0 {
		return DefaultReplayLimit
	}
	return p.Limit
}

// NewRecountTask creates a students:recount task
func NewRecountTask() *asynq.Task {
	return asynq.NewTask(TypeRecountStudents, nil, asynq.Queue(QueueMaintenance), asynq.MaxRetry(3))
}

// NewReplayTask creates a deliveries:replay task
func NewReplayTask(payload ReplayPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal replay payload: %w", err)
	}
	return asynq.NewTask(TypeReplayDeliveries, data, asynq.Queue(QueueMaintenance), asynq.MaxRetry(3)), nil
}

// ParseReplayPayload decodes a deliveries:replay payload. An empty payload means defaults.
func ParseReplayPayload(data []byte) (ReplayPayload, error) {
	var payload ReplayPayload
	if len(data) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("invalid replay payload: %w", err)
	}
	return payload, nil
}
