package model

import (
	"fmt"
	"time"
)

// TeamMember is a technician. Tasks reference members by Name.
type TeamMember struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	Specializations []string  `json:"specializations"`
	CompletionRate  float64   `json:"completion_rate"`
	AverageTaskTime float64   `json:"average_task_time"`
	QualityScore    float64   `json:"quality_score"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

func (m TeamMember) Check() error {
	if m.ID == "" {
		return fmt.Errorf("team member: empty id")
	}
	if m.Name == "" {
		return fmt.Errorf("team member %s: empty name", m.ID)
	}
	return nil
}

func (m TeamMember) Key() string { return m.ID }
