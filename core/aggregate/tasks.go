package aggregate

import "github.com/kilianp07/fleetrollout/core/model"

// Tasks summarises task progress.
type Tasks struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	InProgress   int `json:"in_progress"`
	Pending      int `json:"pending"`
	Blocked      int `json:"blocked"`
	HighPriority int `json:"high_priority"`
	Percent      int `json:"percent"`
}

func TaskStats(tasks []model.Task) Tasks {
	s := Tasks{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case model.TaskCompleted:
			s.Completed++
		case model.TaskInProgress:
			s.InProgress++
		case model.TaskPending:
			s.Pending++
		case model.TaskBlocked:
			s.Blocked++
		}
		if t.Priority == model.PriorityHigh {
			s.HighPriority++
		}
	}
	s.Percent = Percent(s.Completed, s.Total)
	return s
}

// VehicleTasks is the task progress of one vehicle.
type VehicleTasks struct {
	VehicleID string `json:"vehicle_id"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Percent   int    `json:"percent"`
}

// VehicleTaskProgress groups tasks by vehicle, in vehicle order. Tasks
// referencing unknown vehicles are not counted.
func VehicleTaskProgress(vehicles []model.Vehicle, tasks []model.Task) []VehicleTasks {
	idx := make(map[string]int, len(vehicles))
	out := make([]VehicleTasks, len(vehicles))
	for i, v := range vehicles {
		idx[v.ID] = i
		out[i].VehicleID = v.ID
	}
	for _, t := range tasks {
		i, ok := idx[t.VehicleID]
		if !ok {
			continue
		}
		out[i].Total++
		if t.Status == model.TaskCompleted {
			out[i].Completed++
		}
	}
	for i := range out {
		out[i].Percent = Percent(out[i].Completed, out[i].Total)
	}
	return out
}
