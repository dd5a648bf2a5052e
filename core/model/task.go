package model

import (
	"fmt"
	"time"
)

// TaskStatus is the progress state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "Pending"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
	TaskBlocked    TaskStatus = "Blocked"
)

var TaskStatuses = []TaskStatus{TaskPending, TaskInProgress, TaskCompleted, TaskBlocked}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskBlocked:
		return true
	}
	return false
}

// Priority ranks tasks.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task is a unit of installation work on a vehicle assigned to a technician.
type Task struct {
	ID                string     `json:"id"`
	VehicleID         string     `json:"vehicle_id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	Status            TaskStatus `json:"status"`
	AssignedTo        string     `json:"assigned_to"`
	Priority          Priority   `json:"priority"`
	EstimatedDuration int        `json:"estimated_duration,omitempty"`
	StartDate         Date       `json:"start_date"`
	EndDate           Date       `json:"end_date"`
	DurationDays      int        `json:"duration_days,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	CreatedAt         time.Time  `json:"created_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at,omitempty"`
}

func (t Task) Check() error {
	if t.ID == "" {
		return fmt.Errorf("task: empty id")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("task %s: unknown status %q", t.ID, t.Status)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("task %s: unknown priority %q", t.ID, t.Priority)
	}
	if t.EstimatedDuration < 0 || t.DurationDays < 0 {
		return fmt.Errorf("task %s: negative duration", t.ID)
	}
	return nil
}

func (t Task) Key() string { return t.ID }
