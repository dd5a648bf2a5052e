// Package schedule maps project day indices to calendar dates, groups
// vehicles into a day x time-slot grid and reschedules installations.
package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/fleetrollout/core/model"
)

// DefaultSlots are the installation time slots of a day.
var DefaultSlots = []string{
	"08:00-10:00", "10:00-12:00", "12:00-14:00",
	"14:00-16:00", "16:00-18:00", "18:00-20:00",
}

const (
	DefaultProjectDays = 14
	DaysPerWeek        = 7
)

// DateForDay returns start + (day-1) calendar days. Day 1 is the start date.
// Weekends are not skipped and day is not range checked.
func DateForDay(start model.Date, day int) model.Date {
	return start.AddDays(day - 1)
}

// ProjectDays returns 1..total.
func ProjectDays(total int) []int {
	days := make([]int, 0, max(total, 0))
	for d := 1; d <= total; d++ {
		days = append(days, d)
	}
	return days
}

// Weeks returns the number of weeks covering total days.
func Weeks(total, perWeek int) int {
	if perWeek <= 0 || total <= 0 {
		return 0
	}
	return (total + perWeek - 1) / perWeek
}

// WeekDays returns the days of the zero-based week, clipped to total. A week
// past the end yields an empty, non-nil slice.
func WeekDays(week, perWeek, total int) []int {
	days := []int{}
	if perWeek <= 0 || week < 0 {
		return days
	}
	start := week*perWeek + 1
	end := min(start+perWeek-1, total)
	for d := start; d <= end; d++ {
		days = append(days, d)
	}
	return days
}

// Filter selects vehicles for the grid. Empty fields and "All" match
// everything; Query matches ID, type or location case-insensitively.
type Filter struct {
	Location string
	Status   model.VehicleStatus
	Query    string
}

func matchesAll(s string) bool { return s == "" || s == "All" }

func (f Filter) Match(v model.Vehicle) bool {
	if !matchesAll(f.Location) && v.Location != f.Location {
		return false
	}
	if !matchesAll(string(f.Status)) && v.Status != f.Status {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return strings.Contains(strings.ToLower(v.ID), q) ||
			strings.Contains(strings.ToLower(v.Type), q) ||
			strings.Contains(strings.ToLower(v.Location), q)
	}
	return true
}

// Grid groups vehicles by day then time slot. A cell holds every vehicle
// scheduled there; nothing is exclusive.
type Grid map[int]map[string][]model.Vehicle

// BuildGrid creates a cell for every day and slot given and adds the matching
// vehicles in input order. A nil days places every vehicle; otherwise, even
// when days is empty, vehicles on other days are left out. Vehicles on slots
// outside slots still get their own cell.
func BuildGrid(vehicles []model.Vehicle, days []int, slots []string, f Filter) Grid {
	g := Grid{}
	for _, d := range days {
		g[d] = make(map[string][]model.Vehicle, len(slots))
		for _, s := range slots {
			g[d][s] = nil
		}
	}
	for _, v := range vehicles {
		if !f.Match(v) {
			continue
		}
		if days != nil {
			if _, ok := g[v.Day]; !ok {
				continue
			}
		}
		row, ok := g[v.Day]
		if !ok {
			row = map[string][]model.Vehicle{}
			g[v.Day] = row
		}
		row[v.TimeSlot] = append(row[v.TimeSlot], v)
	}
	return g
}

// Cell returns the vehicles in day/slot.
func (g Grid) Cell(day int, slot string) []model.Vehicle {
	return g[day][slot]
}

// Count returns the number of placed vehicles.
func (g Grid) Count() int {
	n := 0
	for _, row := range g {
		for _, cell := range row {
			n += len(cell)
		}
	}
	return n
}

// Timeline is the Gantt view of the schedule.
type Timeline struct {
	MinDay   int             `json:"min_day"`
	MaxDay   int             `json:"max_day"`
	Days     []int           `json:"days"`
	Vehicles []model.Vehicle `json:"vehicles"`
}

// BuildTimeline spans the days of all vehicles and lists the vehicles of
// location ("" or "All" for every location) sorted by day.
func BuildTimeline(vehicles []model.Vehicle, location string) Timeline {
	t := Timeline{MinDay: 1, MaxDay: 1}
	if len(vehicles) == 0 {
		return t
	}
	t.MinDay, t.MaxDay = vehicles[0].Day, vehicles[0].Day
	for _, v := range vehicles {
		t.MinDay = min(t.MinDay, v.Day)
		t.MaxDay = max(t.MaxDay, v.Day)
		if matchesAll(location) || v.Location == location {
			t.Vehicles = append(t.Vehicles, v)
		}
	}
	for d := t.MinDay; d <= t.MaxDay; d++ {
		t.Days = append(t.Days, d)
	}
	sort.SliceStable(t.Vehicles, func(i, j int) bool { return t.Vehicles[i].Day < t.Vehicles[j].Day })
	return t
}

// Countdown is the time left before the project starts.
type Countdown struct {
	Days         int           `json:"days"`
	Hours        int           `json:"hours"`
	Minutes      int           `json:"minutes"`
	Seconds      int           `json:"seconds"`
	Remaining    time.Duration `json:"remaining"`
	Started      bool          `json:"started"`
	StartingSoon bool          `json:"starting_soon"`
}

// CountdownTo measures from now to midnight UTC of start.
func CountdownTo(now time.Time, start model.Date) Countdown {
	left := start.Time().Sub(now)
	if left <= 0 {
		return Countdown{Started: true}
	}
	c := Countdown{
		Days:      int(left / (24 * time.Hour)),
		Hours:     int(left % (24 * time.Hour) / time.Hour),
		Minutes:   int(left % time.Hour / time.Minute),
		Seconds:   int(left % time.Minute / time.Second),
		Remaining: left,
	}
	c.StartingSoon = c.Days <= 7
	return c
}
