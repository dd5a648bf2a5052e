// Package validation checks entities before they are written. Validators
// report every problem they find as a human readable message; an empty result
// means the entity may be written.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/fleetrollout/core/model"
)

// Validator checks each entity type.
type Validator interface {
	ValidateVehicle(v model.Vehicle) []string
	ValidateLocation(l model.Location) []string
	ValidateTeamMember(m model.TeamMember) []string
	ValidateTask(t model.Task) []string
	ValidateComment(c model.Comment) []string
}

// Error carries the messages of a rejected entity.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Check turns messages into an *Error, or nil when there are none.
func Check(msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &Error{Messages: msgs}
}

// Messages extracts the messages of a validation error found in err's chain.
func Messages(err error) ([]string, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Messages, true
	}
	return nil, false
}

// Default holds the field rules of the data managers.
type Default struct{}

var _ Validator = Default{}

type messages []string

func (m *messages) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		*m = append(*m, field+" is required")
	}
}

func (m *messages) nonNegative(field string, n int) {
	if n < 0 {
		*m = append(*m, field+" cannot be negative")
	}
}

func (m *messages) percent(field string, f float64) {
	if f < 0 || f > 100 {
		*m = append(*m, field+" must be between 0 and 100")
	}
}

func (Default) ValidateVehicle(v model.Vehicle) []string {
	var m messages
	m.required("Vehicle ID", v.ID)
	m.required("Vehicle type", v.Type)
	m.required("Location", v.Location)
	m.required("Time slot", v.TimeSlot)
	if v.Day < 1 {
		m = append(m, "Day must be at least 1")
	}
	if !v.Status.Valid() {
		m = append(m, fmt.Sprintf("Status %q is not one of %v", v.Status, model.VehicleStatuses))
	}
	m.nonNegative("GPS required", v.GPSRequired)
	m.nonNegative("Fuel sensors", v.FuelSensors)
	m.nonNegative("Fuel tanks", v.FuelTanks)
	if v.FuelSensors > v.FuelTanks && v.FuelTanks >= 0 {
		m = append(m, "Fuel sensors cannot exceed fuel tanks")
	}
	return m
}

func (Default) ValidateLocation(l model.Location) []string {
	var m messages
	m.required("Location name", l.Name)
	m.nonNegative("Vehicles", l.Vehicles)
	m.nonNegative("GPS devices", l.GPSDevices)
	m.nonNegative("Fuel sensors", l.FuelSensors)
	return m
}

func (Default) ValidateTeamMember(tm model.TeamMember) []string {
	var m messages
	m.required("Name", tm.Name)
	m.required("Role", tm.Role)
	m.percent("Completion rate", tm.CompletionRate)
	m.percent("Quality score", tm.QualityScore)
	if tm.AverageTaskTime < 0 {
		m = append(m, "Average task time cannot be negative")
	}
	return m
}

func (Default) ValidateTask(t model.Task) []string {
	var m messages
	m.required("Task name", t.Name)
	m.required("Vehicle ID", t.VehicleID)
	if !t.Status.Valid() {
		m = append(m, fmt.Sprintf("Status %q is not one of %v", t.Status, model.TaskStatuses))
	}
	if !t.Priority.Valid() {
		m = append(m, fmt.Sprintf("Priority %q is not one of %v", t.Priority, model.Priorities))
	}
	m.nonNegative("Estimated duration", t.EstimatedDuration)
	m.nonNegative("Duration days", t.DurationDays)
	if !t.StartDate.IsZero() && !t.EndDate.IsZero() && t.EndDate.Before(t.StartDate) {
		m = append(m, "End date cannot be before start date")
	}
	return m
}

func (Default) ValidateComment(c model.Comment) []string {
	var m messages
	m.required("Task ID", c.TaskID)
	m.required("Author", c.Author)
	m.required("Comment text", c.Text)
	return m
}
