package workspace

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/optimistic"
	"github.com/kilianp07/fleetrollout/core/store"
	"github.com/kilianp07/fleetrollout/core/validation"
)

func (w *Workspace) Tasks() cache.View[[]model.Task] { return w.tasks.Get() }

// CreateTask adds a task. Missing ID, status and priority default to a new
// UUID, Pending and Medium.
func (w *Workspace) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	if t.Status == "" {
		t.Status = model.TaskPending
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if err := validation.Check(w.val.ValidateTask(t)); err != nil {
		return model.Task{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	} else if _, ok := find(w.tasks.Peek().Data, t.ID); ok {
		return model.Task{}, duplicate("task", t.ID)
	}
	now := w.now()
	t.CreatedAt, t.UpdatedAt = now, now
	m := optimistic.Mutation{Operation: "create", EntityID: t.ID, Payload: t}
	err := optimistic.Apply(ctx, w.ctl, w.tasks, m,
		func(in []model.Task) []model.Task { return with(in, t, store.SortTasks) },
		func(ctx context.Context) error { return w.st.Tasks().Insert(ctx, t) })
	return t, err
}

func (w *Workspace) UpdateTask(ctx context.Context, id string, t model.Task) (model.Task, error) {
	cur, ok := find(w.tasks.Peek().Data, id)
	if !ok {
		return model.Task{}, notFound("task", id)
	}
	t.ID, t.CreatedAt, t.UpdatedAt = id, cur.CreatedAt, w.now()
	if err := validation.Check(w.val.ValidateTask(t)); err != nil {
		return model.Task{}, err
	}
	m := optimistic.Mutation{Operation: "update", EntityID: id, Payload: t}
	err := optimistic.Apply(ctx, w.ctl, w.tasks, m,
		func(in []model.Task) []model.Task { return replaced(in, id, t, store.SortTasks) },
		func(ctx context.Context) error { return w.st.Tasks().Update(ctx, id, t) })
	return t, err
}

func (w *Workspace) UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus) error {
	if !status.Valid() {
		return validation.Check([]string{fmt.Sprintf("Status %q is not one of %v", status, model.TaskStatuses)})
	}
	if _, ok := find(w.tasks.Peek().Data, id); !ok {
		return notFound("task", id)
	}
	now := w.now()
	set := func(t model.Task) model.Task {
		t.Status, t.UpdatedAt = status, now
		return t
	}
	m := optimistic.Mutation{Operation: "update_status", EntityID: id, Payload: map[string]any{"id": id, "status": status}}
	return optimistic.Apply(ctx, w.ctl, w.tasks, m,
		func(in []model.Task) []model.Task { return patched(in, id, set) },
		patchRemote(w.st.Tasks(), id, set))
}

// DeleteTask removes a task. Its comments are left in place.
func (w *Workspace) DeleteTask(ctx context.Context, id string) error {
	m := optimistic.Mutation{Operation: "delete", EntityID: id}
	return optimistic.Apply(ctx, w.ctl, w.tasks, m,
		func(in []model.Task) []model.Task { return without(in, id) },
		func(ctx context.Context) error { return w.st.Tasks().Delete(ctx, id) })
}

// AddComment appends c to the thread of its task.
func (w *Workspace) AddComment(ctx context.Context, c model.Comment) (model.Comment, error) {
	if err := validation.Check(w.val.ValidateComment(c)); err != nil {
		return model.Comment{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = w.now()
	m := optimistic.Mutation{Operation: "create", EntityID: c.ID, Payload: c}
	err := optimistic.Apply(ctx, w.ctl, w.comments, m,
		func(in []model.Comment) []model.Comment { return with(in, c, store.SortComments) },
		func(ctx context.Context) error { return w.st.Comments().Insert(ctx, c) })
	return c, err
}

// EditComment replaces the text of a comment.
func (w *Workspace) EditComment(ctx context.Context, id, text string) error {
	cur, ok := find(w.comments.Peek().Data, id)
	if !ok {
		return notFound("comment", id)
	}
	cur.Text = text
	if err := validation.Check(w.val.ValidateComment(cur)); err != nil {
		return err
	}
	set := func(c model.Comment) model.Comment {
		c.Text = text
		return c
	}
	m := optimistic.Mutation{Operation: "update", EntityID: id, Payload: cur}
	return optimistic.Apply(ctx, w.ctl, w.comments, m,
		func(in []model.Comment) []model.Comment { return patched(in, id, set) },
		patchRemote[model.Comment](w.st.Comments(), id, set))
}

func (w *Workspace) DeleteComment(ctx context.Context, id string) error {
	m := optimistic.Mutation{Operation: "delete", EntityID: id}
	return optimistic.Apply(ctx, w.ctl, w.comments, m,
		func(in []model.Comment) []model.Comment { return without(in, id) },
		func(ctx context.Context) error { return w.st.Comments().Delete(ctx, id) })
}

// TaskComments returns the thread of a task, oldest first.
func (w *Workspace) TaskComments(taskID string) []model.Comment {
	var out []model.Comment
	for _, c := range w.comments.Get().Data {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	return out
}
