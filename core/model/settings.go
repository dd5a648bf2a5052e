package model

import "time"

// SettingsID is the identity of the project settings singleton.
const SettingsID = "default"

// ProjectSettings holds the project start date, the single source of truth for
// mapping day indices to calendar dates.
type ProjectSettings struct {
	ID               string    `json:"id"`
	ProjectStartDate Date      `json:"project_start_date"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

func (s ProjectSettings) Check() error { return nil }

func (s ProjectSettings) Key() string { return s.ID }
