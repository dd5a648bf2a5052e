package aggregate

import (
	"math"
	"sort"

	"github.com/kilianp07/fleetrollout/core/model"
)

// Percent returns round(part/total*100), or 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// Fleet summarises installation progress over all vehicles.
type Fleet struct {
	Total               int `json:"total"`
	Completed           int `json:"completed"`
	InProgress          int `json:"in_progress"`
	Pending             int `json:"pending"`
	Percent             int `json:"percent"`
	GPSDevices          int `json:"gps_devices"`
	FuelSensors         int `json:"fuel_sensors"`
	SpecialRequirements int `json:"special_requirements"`
	Locations           int `json:"locations"`
}

// FleetStats computes fleet progress. Device totals are the counters declared
// on locations, not sums over vehicles.
func FleetStats(vehicles []model.Vehicle, locations []model.Location) Fleet {
	f := Fleet{Total: len(vehicles), Locations: len(locations)}
	for _, v := range vehicles {
		switch v.Status {
		case model.VehicleCompleted:
			f.Completed++
		case model.VehicleInProgress:
			f.InProgress++
		case model.VehiclePending:
			f.Pending++
		}
		if v.HasSpecialRequirements() {
			f.SpecialRequirements++
		}
	}
	for _, l := range locations {
		f.GPSDevices += l.GPSDevices
		f.FuelSensors += l.FuelSensors
	}
	f.Percent = Percent(f.Completed, f.Total)
	return f
}

// Counters are the equipment counters of a location.
type Counters struct {
	Vehicles    int `json:"vehicles"`
	GPSDevices  int `json:"gps_devices"`
	FuelSensors int `json:"fuel_sensors"`
}

// Progress is the state of one location. Declared holds the counters stored
// on the location row, Actual the sums over the vehicles referencing it and
// Drift their difference.
type Progress struct {
	Location   string   `json:"location"`
	Total      int      `json:"total"`
	Completed  int      `json:"completed"`
	InProgress int      `json:"in_progress"`
	Pending    int      `json:"pending"`
	Percent    int      `json:"percent"`
	Days       []int    `json:"days"`
	Actual     Counters `json:"actual"`
	Declared   Counters `json:"declared"`
	Drift      Counters `json:"drift"`
	NeedsSync  bool     `json:"needs_sync"`
}

// LocationProgress computes progress from the vehicles referencing name. An
// unknown or deleted location yields zero counts.
func LocationProgress(name string, vehicles []model.Vehicle) Progress {
	p := Progress{Location: name}
	days := map[int]struct{}{}
	for _, v := range vehicles {
		if v.Location != name {
			continue
		}
		p.Total++
		switch v.Status {
		case model.VehicleCompleted:
			p.Completed++
		case model.VehicleInProgress:
			p.InProgress++
		case model.VehiclePending:
			p.Pending++
		}
		p.Actual.Vehicles++
		p.Actual.GPSDevices += v.GPSRequired
		p.Actual.FuelSensors += v.FuelSensors
		days[v.Day] = struct{}{}
	}
	p.Percent = Percent(p.Completed, p.Total)
	p.Days = make([]int, 0, len(days))
	for d := range days {
		p.Days = append(p.Days, d)
	}
	sort.Ints(p.Days)
	return p
}

// AllLocationProgress computes progress for every location and compares the
// declared counters with the actual ones.
func AllLocationProgress(locations []model.Location, vehicles []model.Vehicle) []Progress {
	out := make([]Progress, 0, len(locations))
	for _, l := range locations {
		p := LocationProgress(l.Name, vehicles)
		p.Declared = Counters{Vehicles: l.Vehicles, GPSDevices: l.GPSDevices, FuelSensors: l.FuelSensors}
		p.Drift = Counters{
			Vehicles:    l.Vehicles - p.Actual.Vehicles,
			GPSDevices:  l.GPSDevices - p.Actual.GPSDevices,
			FuelSensors: l.FuelSensors - p.Actual.FuelSensors,
		}
		p.NeedsSync = p.Drift != (Counters{})
		out = append(out, p)
	}
	return out
}

// SyncedLocation returns l with its counters replaced by the actual sums.
func SyncedLocation(l model.Location, vehicles []model.Vehicle) model.Location {
	p := LocationProgress(l.Name, vehicles)
	l.Vehicles = p.Actual.Vehicles
	l.GPSDevices = p.Actual.GPSDevices
	l.FuelSensors = p.Actual.FuelSensors
	return l
}

// LocationTotals sums the declared counters of all locations.
func LocationTotals(locations []model.Location) Counters {
	var c Counters
	for _, l := range locations {
		c.Vehicles += l.Vehicles
		c.GPSDevices += l.GPSDevices
		c.FuelSensors += l.FuelSensors
	}
	return c
}
