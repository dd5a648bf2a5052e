package aggregate

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fleetrollout/core/model"
)

// Workload counts the tasks assigned to one member.
type Workload struct {
	Member         string `json:"member"`
	Total          int    `json:"total"`
	Completed      int    `json:"completed"`
	InProgress     int    `json:"in_progress"`
	Pending        int    `json:"pending"`
	Blocked        int    `json:"blocked"`
	CompletionRate int    `json:"completion_rate"`
}

// MemberWorkload matches tasks by assignee name.
func MemberWorkload(member string, tasks []model.Task) Workload {
	w := Workload{Member: member}
	for _, t := range tasks {
		if t.AssignedTo != member {
			continue
		}
		w.Total++
		switch t.Status {
		case model.TaskCompleted:
			w.Completed++
		case model.TaskInProgress:
			w.InProgress++
		case model.TaskPending:
			w.Pending++
		case model.TaskBlocked:
			w.Blocked++
		}
	}
	w.CompletionRate = Percent(w.Completed, w.Total)
	return w
}

// TeamWorkload returns the workload of every member, in member order.
func TeamWorkload(members []model.TeamMember, tasks []model.Task) []Workload {
	out := make([]Workload, 0, len(members))
	for _, m := range members {
		out = append(out, MemberWorkload(m.Name, tasks))
	}
	return out
}

// Team averages the stored performance figures of the members.
type Team struct {
	Members            int     `json:"members"`
	AvgCompletionRate  int     `json:"avg_completion_rate"`
	AvgQualityScore    int     `json:"avg_quality_score"`
	AvgTaskTime        float64 `json:"avg_task_time"`
	OverallPerformance int     `json:"overall_performance"`
}

// Performance is round((completion + quality) / 2) for one member.
func Performance(m model.TeamMember) int {
	return int(math.Round((m.CompletionRate + m.QualityScore) / 2))
}

// TeamSummary averages completion rate, quality score and task time.
func TeamSummary(members []model.TeamMember) Team {
	t := Team{Members: len(members)}
	if len(members) == 0 {
		return t
	}
	completion := make([]float64, len(members))
	quality := make([]float64, len(members))
	taskTime := make([]float64, len(members))
	for i, m := range members {
		completion[i] = m.CompletionRate
		quality[i] = m.QualityScore
		taskTime[i] = m.AverageTaskTime
	}
	c := stat.Mean(completion, nil)
	q := stat.Mean(quality, nil)
	t.AvgCompletionRate = int(math.Round(c))
	t.AvgQualityScore = int(math.Round(q))
	t.AvgTaskTime = math.Round(stat.Mean(taskTime, nil)*10) / 10
	t.OverallPerformance = int(math.Round((c + q) / 2))
	return t
}
