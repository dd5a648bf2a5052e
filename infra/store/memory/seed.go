package memory

import (
	"context"
	"time"

	"github.com/kilianp07/fleetrollout/core/model"
)

// Seed is a bulk fixture loaded into a Store.
type Seed struct {
	Vehicles    []model.Vehicle    `json:"vehicles" yaml:"vehicles"`
	Locations   []model.Location   `json:"locations" yaml:"locations"`
	TeamMembers []model.TeamMember `json:"team_members" yaml:"team_members"`
	Tasks       []model.Task       `json:"tasks" yaml:"tasks"`
	Comments    []model.Comment    `json:"comments" yaml:"comments"`
	StartDate   model.Date         `json:"project_start_date" yaml:"project_start_date"`
}

// Load inserts every row of seed, stopping at the first error.
func (s *Store) Load(ctx context.Context, seed Seed) error {
	for _, v := range seed.Vehicles {
		if err := s.vehicles.Insert(ctx, v); err != nil {
			return err
		}
	}
	for _, l := range seed.Locations {
		if err := s.locations.Insert(ctx, l); err != nil {
			return err
		}
	}
	for _, m := range seed.TeamMembers {
		if err := s.team.Insert(ctx, m); err != nil {
			return err
		}
	}
	for _, t := range seed.Tasks {
		if err := s.tasks.Insert(ctx, t); err != nil {
			return err
		}
	}
	for _, c := range seed.Comments {
		if err := s.comments.Insert(ctx, c); err != nil {
			return err
		}
	}
	if !seed.StartDate.IsZero() {
		return s.settings.Upsert(ctx, model.ProjectSettings{
			ID:               model.SettingsID,
			ProjectStartDate: seed.StartDate,
			UpdatedAt:        time.Now().UTC(),
		})
	}
	return nil
}

// DemoSeed is a small project used by the CLI demo backend.
func DemoSeed() Seed {
	now := time.Now().UTC()
	return Seed{
		StartDate: model.NewDate(2025, time.January, 6),
		Locations: []model.Location{
			{Name: "Addis Ababa", Duration: "5 days", Vehicles: 3, GPSDevices: 3, FuelSensors: 4},
			{Name: "Bahir Dar", Duration: "4 days", Vehicles: 2, GPSDevices: 2, FuelSensors: 2},
			{Name: "Hawassa", Duration: "3 days", Vehicles: 1, GPSDevices: 1, FuelSensors: 1},
		},
		Vehicles: []model.Vehicle{
			{ID: "V001", Type: "Truck", Location: "Addis Ababa", Day: 1, TimeSlot: "08:00-10:00", Status: model.VehicleCompleted, GPSRequired: 1, FuelSensors: 2, FuelTanks: 2},
			{ID: "V002", Type: "Van", Location: "Addis Ababa", Day: 1, TimeSlot: "10:00-12:00", Status: model.VehicleInProgress, GPSRequired: 1, FuelSensors: 1, FuelTanks: 1},
			{ID: "V003", Type: "Truck", Location: "Addis Ababa", Day: 2, TimeSlot: "08:00-10:00", Status: model.VehiclePending, GPSRequired: 1, FuelSensors: 1, FuelTanks: 1},
			{ID: "V004", Type: "Pickup", Location: "Bahir Dar", Day: 6, TimeSlot: "14:00-16:00", Status: model.VehiclePending, GPSRequired: 1, FuelSensors: 1, FuelTanks: 1},
			{ID: "V005", Type: "Truck", Location: "Bahir Dar", Day: 7, TimeSlot: "08:00-10:00", Status: model.VehiclePending, GPSRequired: 1, FuelSensors: 1, FuelTanks: 1},
			{ID: "V006", Type: "Bus", Location: "Hawassa", Day: 10, TimeSlot: "10:00-12:00", Status: model.VehiclePending, GPSRequired: 1, FuelSensors: 1, FuelTanks: 1},
		},
		TeamMembers: []model.TeamMember{
			{ID: "M1", Name: "Abebe", Role: "Lead Technician", Specializations: []string{"GPS", "Fuel Sensors"}, CompletionRate: 92, AverageTaskTime: 3.5, QualityScore: 95},
			{ID: "M2", Name: "Sara", Role: "Technician", Specializations: []string{"GPS"}, CompletionRate: 85, AverageTaskTime: 4, QualityScore: 88},
		},
		Tasks: []model.Task{
			{ID: "T1", VehicleID: "V001", Name: "Install GPS", Status: model.TaskCompleted, AssignedTo: "Abebe", Priority: model.PriorityHigh, CreatedAt: now.Add(-2 * time.Hour)},
			{ID: "T2", VehicleID: "V002", Name: "Install fuel sensor", Status: model.TaskInProgress, AssignedTo: "Sara", Priority: model.PriorityMedium, CreatedAt: now.Add(-time.Hour)},
			{ID: "T3", VehicleID: "V004", Name: "Calibrate sensors", Status: model.TaskPending, AssignedTo: "Abebe", Priority: model.PriorityLow, CreatedAt: now},
		},
	}
}
