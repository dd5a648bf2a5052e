package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/optimistic"
	"github.com/kilianp07/fleetrollout/core/store"
	"github.com/kilianp07/fleetrollout/internal/clock"
)

// ErrUnknownVehicle is returned when the vehicle is not in the cached
// collection.
var ErrUnknownVehicle = errors.New("schedule: unknown vehicle")

// Planner reschedules vehicles through the optimistic controller.
type Planner struct {
	ctl      *optimistic.Controller
	vehicles *cache.Resource[[]model.Vehicle]
	settings *cache.Resource[model.ProjectSettings]
	table    store.Table[model.Vehicle]
	clk      clock.Clock
}

func NewPlanner(ctl *optimistic.Controller, vehicles *cache.Resource[[]model.Vehicle], settings *cache.Resource[model.ProjectSettings], table store.Table[model.Vehicle], clk clock.Clock) *Planner {
	return &Planner{ctl: ctl, vehicles: vehicles, settings: settings, table: table, clk: clock.OrReal(clk)}
}

// StartDate returns the configured project start date, or today when none is
// set.
func (p *Planner) StartDate() model.Date {
	if p.settings != nil {
		if d := p.settings.Get().Data.ProjectStartDate; !d.IsZero() {
			return d
		}
	}
	return model.DateOf(p.clk.Now().UTC())
}

// DateForDay maps day to a date using the current settings.
func (p *Planner) DateForDay(day int) model.Date {
	return DateForDay(p.StartDate(), day)
}

func (p *Planner) find(id string) (model.Vehicle, bool) {
	for _, v := range p.vehicles.Peek().Data {
		if v.ID == id {
			return v, true
		}
	}
	return model.Vehicle{}, false
}

// Preview describes a reschedule before it is confirmed.
type Preview struct {
	Vehicle   model.Vehicle   `json:"vehicle"`
	Day       int             `json:"day"`
	TimeSlot  string          `json:"time_slot"`
	Date      model.Date      `json:"date"`
	Occupants []model.Vehicle `json:"occupants"`
	Unchanged bool            `json:"unchanged"`
}

// Preview returns the date of the target day and the vehicles already in the
// target cell. Occupants do not prevent the move.
func (p *Planner) Preview(vehicleID string, day int, slot string) (Preview, error) {
	v, ok := p.find(vehicleID)
	if !ok {
		return Preview{}, fmt.Errorf("%w: %s", ErrUnknownVehicle, vehicleID)
	}
	pv := Preview{
		Vehicle:   v,
		Day:       day,
		TimeSlot:  slot,
		Date:      p.DateForDay(day),
		Unchanged: v.Day == day && v.TimeSlot == slot,
	}
	for _, o := range p.vehicles.Peek().Data {
		if o.ID != vehicleID && o.Day == day && o.TimeSlot == slot {
			pv.Occupants = append(pv.Occupants, o)
		}
	}
	return pv, nil
}

// Reschedule moves the vehicle to day/slot. It reports false without any
// write when the vehicle is already there.
func (p *Planner) Reschedule(ctx context.Context, vehicleID string, day int, slot string) (bool, error) {
	v, ok := p.find(vehicleID)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownVehicle, vehicleID)
	}
	if v.Day == day && v.TimeSlot == slot {
		return false, nil
	}
	now := p.clk.Now().UTC()
	moved := v
	moved.Day, moved.TimeSlot, moved.UpdatedAt = day, slot, now

	m := optimistic.Mutation{Operation: "reschedule", EntityID: vehicleID, Payload: moved}
	err := optimistic.Apply(ctx, p.ctl, p.vehicles, m,
		func(in []model.Vehicle) []model.Vehicle {
			out := make([]model.Vehicle, len(in))
			copy(out, in)
			for i := range out {
				if out[i].ID == vehicleID {
					out[i].Day, out[i].TimeSlot, out[i].UpdatedAt = day, slot, now
				}
			}
			return out
		},
		func(ctx context.Context) error {
			cur, err := p.table.Get(ctx, vehicleID)
			if err != nil {
				return err
			}
			cur.Day, cur.TimeSlot, cur.UpdatedAt = day, slot, now
			return p.table.Update(ctx, vehicleID, cur)
		})
	if err != nil {
		return false, err
	}
	return true, nil
}
