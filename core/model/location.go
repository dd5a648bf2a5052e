package model

import (
	"fmt"
	"time"
)

// Location is an installation site. Its counters are stored independently of
// the vehicles referencing it and can drift from the actual totals.
type Location struct {
	Name        string    `json:"name"`
	Duration    string    `json:"duration"`
	Vehicles    int       `json:"vehicles"`
	GPSDevices  int       `json:"gps_devices"`
	FuelSensors int       `json:"fuel_sensors"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

func (l Location) Check() error {
	if l.Name == "" {
		return fmt.Errorf("location: empty name")
	}
	if l.Vehicles < 0 || l.GPSDevices < 0 || l.FuelSensors < 0 {
		return fmt.Errorf("location %s: negative counter", l.Name)
	}
	return nil
}

func (l Location) Key() string { return l.Name }
