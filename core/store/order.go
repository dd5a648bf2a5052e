package store

import (
	"sort"

	"github.com/kilianp07/fleetrollout/core/model"
)

// The orderings below are the list orders every backend returns.

func SortVehicles(v []model.Vehicle) {
	sort.SliceStable(v, func(i, j int) bool {
		if v[i].Day != v[j].Day {
			return v[i].Day < v[j].Day
		}
		return v[i].ID < v[j].ID
	})
}

func SortLocations(l []model.Location) {
	sort.SliceStable(l, func(i, j int) bool { return l[i].Name < l[j].Name })
}

func SortTeamMembers(m []model.TeamMember) {
	sort.SliceStable(m, func(i, j int) bool { return m[i].Name < m[j].Name })
}

// SortTasks orders tasks newest first.
func SortTasks(t []model.Task) {
	sort.SliceStable(t, func(i, j int) bool { return t[i].CreatedAt.After(t[j].CreatedAt) })
}

// SortComments orders comments oldest first, the order of a thread.
func SortComments(c []model.Comment) {
	sort.SliceStable(c, func(i, j int) bool { return c[i].CreatedAt.Before(c[j].CreatedAt) })
}
