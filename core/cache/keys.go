package cache

import "time"

// Collection keys.
const (
	KeyVehicles        = "vehicles"
	KeyLocations       = "locations"
	KeyTeamMembers     = "team_members"
	KeyTasks           = "tasks"
	KeyProjectSettings = "project_settings"
	KeyComments        = "comments"
)

// DefaultStale applies to keys without a configured window.
const DefaultStale = 30 * time.Second

// DefaultStaleness holds the per-key staleness windows.
var DefaultStaleness = map[string]time.Duration{
	KeyVehicles:        30 * time.Second,
	KeyLocations:       60 * time.Second,
	KeyTeamMembers:     60 * time.Second,
	KeyTasks:           15 * time.Second,
	KeyProjectSettings: 60 * time.Second,
	KeyComments:        15 * time.Second,
}
