package workspace

import (
	"context"

	"github.com/google/uuid"

	"github.com/kilianp07/fleetrollout/core/cache"
	"github.com/kilianp07/fleetrollout/core/model"
	"github.com/kilianp07/fleetrollout/core/optimistic"
	"github.com/kilianp07/fleetrollout/core/store"
	"github.com/kilianp07/fleetrollout/core/validation"
)

func (w *Workspace) TeamMembers() cache.View[[]model.TeamMember] { return w.team.Get() }

// CreateTeamMember adds a member, generating its ID when empty.
func (w *Workspace) CreateTeamMember(ctx context.Context, tm model.TeamMember) (model.TeamMember, error) {
	if err := validation.Check(w.val.ValidateTeamMember(tm)); err != nil {
		return model.TeamMember{}, err
	}
	if tm.ID == "" {
		tm.ID = uuid.NewString()
	} else if _, ok := find(w.team.Peek().Data, tm.ID); ok {
		return model.TeamMember{}, duplicate("team member", tm.ID)
	}
	tm.CreatedAt = w.now()
	m := optimistic.Mutation{Operation: "create", EntityID: tm.ID, Payload: tm}
	err := optimistic.Apply(ctx, w.ctl, w.team, m,
		func(in []model.TeamMember) []model.TeamMember { return with(in, tm, store.SortTeamMembers) },
		func(ctx context.Context) error { return w.st.TeamMembers().Insert(ctx, tm) })
	return tm, err
}

func (w *Workspace) UpdateTeamMember(ctx context.Context, id string, tm model.TeamMember) (model.TeamMember, error) {
	cur, ok := find(w.team.Peek().Data, id)
	if !ok {
		return model.TeamMember{}, notFound("team member", id)
	}
	tm.ID, tm.CreatedAt = id, cur.CreatedAt
	if err := validation.Check(w.val.ValidateTeamMember(tm)); err != nil {
		return model.TeamMember{}, err
	}
	m := optimistic.Mutation{Operation: "update", EntityID: id, Payload: tm}
	err := optimistic.Apply(ctx, w.ctl, w.team, m,
		func(in []model.TeamMember) []model.TeamMember { return replaced(in, id, tm, store.SortTeamMembers) },
		func(ctx context.Context) error { return w.st.TeamMembers().Update(ctx, id, tm) })
	return tm, err
}

// DeleteTeamMember removes a member. Tasks keep their assignee name.
func (w *Workspace) DeleteTeamMember(ctx context.Context, id string) error {
	m := optimistic.Mutation{Operation: "delete", EntityID: id}
	return optimistic.Apply(ctx, w.ctl, w.team, m,
		func(in []model.TeamMember) []model.TeamMember { return without(in, id) },
		func(ctx context.Context) error { return w.st.TeamMembers().Delete(ctx, id) })
}
