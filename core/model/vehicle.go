package model

import (
	"fmt"
	"time"
)

// VehicleStatus is the installation state of a vehicle.
type VehicleStatus string

const (
	VehiclePending    VehicleStatus = "Pending"
	VehicleInProgress VehicleStatus = "In Progress"
	VehicleCompleted  VehicleStatus = "Completed"
)

// VehicleStatuses lists the statuses in lifecycle order.
var VehicleStatuses = []VehicleStatus{VehiclePending, VehicleInProgress, VehicleCompleted}

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehiclePending, VehicleInProgress, VehicleCompleted:
		return true
	}
	return false
}

// Vehicle is a fleet vehicle scheduled for hardware installation on a
// project-relative day and time slot.
type Vehicle struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	Location    string        `json:"location"`
	Day         int           `json:"day"`
	TimeSlot    string        `json:"time_slot"`
	Status      VehicleStatus `json:"status"`
	GPSRequired int           `json:"gps_required"`
	FuelSensors int           `json:"fuel_sensors"`
	FuelTanks   int           `json:"fuel_tanks"`
	CreatedAt   time.Time     `json:"created_at,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at,omitempty"`
}

// Check verifies the structural shape of a row read from the store: identity
// present, known status, positive day and non-negative counters. Business
// rules such as fuel_sensors <= fuel_tanks belong to the validator.
func (v Vehicle) Check() error {
	if v.ID == "" {
		return fmt.Errorf("vehicle: empty id")
	}
	if !v.Status.Valid() {
		return fmt.Errorf("vehicle %s: unknown status %q", v.ID, v.Status)
	}
	if v.Day < 1 {
		return fmt.Errorf("vehicle %s: day %d out of range", v.ID, v.Day)
	}
	if v.GPSRequired < 0 || v.FuelSensors < 0 || v.FuelTanks < 0 {
		return fmt.Errorf("vehicle %s: negative equipment count", v.ID)
	}
	return nil
}

// Key returns the identity of the vehicle.
func (v Vehicle) Key() string { return v.ID }

// HasSpecialRequirements reports whether the vehicle carries more than one
// fuel tank and therefore needs a multi-sensor installation.
func (v Vehicle) HasSpecialRequirements() bool { return v.FuelTanks > 1 }
