package aggregate

import (
	"sync"

	"github.com/kilianp07/fleetrollout/core/model"
)

// ref identifies a slice by its backing array and length. The cache hands
// out the same slice until the entry changes, so equal refs mean equal input.
type ref[T any] struct {
	p *T
	n int
}

func refOf[T any](s []T) ref[T] {
	if len(s) == 0 {
		return ref[T]{}
	}
	return ref[T]{p: &s[0], n: len(s)}
}

type memo[A, B, R any] struct {
	a   ref[A]
	b   ref[B]
	set bool
	r   R
}

func (m *memo[A, B, R]) get(a []A, b []B, compute func() R) (R, bool) {
	ra, rb := refOf(a), refOf(b)
	if m.set && m.a == ra && m.b == rb {
		return m.r, true
	}
	m.a, m.b, m.r, m.set = ra, rb, compute(), true
	return m.r, false
}

// Engine memoises the aggregations on the identity of their inputs. Results
// are shared between callers and must not be modified.
type Engine struct {
	mu       sync.Mutex
	fleet    memo[model.Vehicle, model.Location, Fleet]
	location memo[model.Location, model.Vehicle, []Progress]
	team     memo[model.TeamMember, model.Task, []Workload]
	summary  memo[model.TeamMember, struct{}, Team]
	tasks    memo[model.Task, struct{}, Tasks]
	vehicles memo[model.Vehicle, model.Task, []VehicleTasks]
	hits     int
	misses   int
}

func NewEngine() *Engine { return &Engine{} }

func (e *Engine) count(hit bool) {
	if hit {
		e.hits++
	} else {
		e.misses++
	}
}

func (e *Engine) FleetStats(vehicles []model.Vehicle, locations []model.Location) Fleet {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, hit := e.fleet.get(vehicles, locations, func() Fleet { return FleetStats(vehicles, locations) })
	e.count(hit)
	return r
}

func (e *Engine) AllLocationProgress(locations []model.Location, vehicles []model.Vehicle) []Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, hit := e.location.get(locations, vehicles, func() []Progress { return AllLocationProgress(locations, vehicles) })
	e.count(hit)
	return r
}

func (e *Engine) TeamWorkload(members []model.TeamMember, tasks []model.Task) []Workload {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, hit := e.team.get(members, tasks, func() []Workload { return TeamWorkload(members, tasks) })
	e.count(hit)
	return r
}

func (e *Engine) TeamSummary(members []model.TeamMember) Team {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, hit := e.summary.get(members, nil, func() Team { return TeamSummary(members) })
	e.count(hit)
	return r
}

func (e *Engine) TaskStats(tasks []model.Task) Tasks {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, hit := e.tasks.get(tasks, nil, func() Tasks { return TaskStats(tasks) })
	e.count(hit)
	return r
}

func (e *Engine) VehicleTaskProgress(vehicles []model.Vehicle, tasks []model.Task) []VehicleTasks {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, hit := e.vehicles.get(vehicles, tasks, func() []VehicleTasks { return VehicleTaskProgress(vehicles, tasks) })
	e.count(hit)
	return r
}

// Stats reports memo hits and misses.
func (e *Engine) Stats() (hits, misses int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hits, e.misses
}
