package workspace

import (
	"context"

	"github.com/kilianp07/fleetrollout/core/store"
)

// The helpers below never modify their input: cached slices are shared with
// readers.

func find[T store.Entity](rows []T, id string) (T, bool) {
	for _, r := range rows {
		if r.Key() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

func with[T store.Entity](rows []T, row T, order func([]T)) []T {
	out := make([]T, 0, len(rows)+1)
	out = append(out, rows...)
	out = append(out, row)
	order(out)
	return out
}

func replaced[T store.Entity](rows []T, id string, row T, order func([]T)) []T {
	out := make([]T, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].Key() == id {
			out[i] = row
		}
	}
	order(out)
	return out
}

func patched[T store.Entity](rows []T, id string, patch func(T) T) []T {
	out := make([]T, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].Key() == id {
			out[i] = patch(out[i])
		}
	}
	return out
}

func without[T store.Entity](rows []T, id string) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if r.Key() != id {
			out = append(out, r)
		}
	}
	return out
}

// patchRemote reads the current row and writes patch(row) back, so fields
// changed concurrently elsewhere survive.
func patchRemote[T store.Entity](t store.Table[T], id string, patch func(T) T) func(context.Context) error {
	return func(ctx context.Context) error {
		cur, err := t.Get(ctx, id)
		if err != nil {
			return err
		}
		return t.Update(ctx, id, patch(cur))
	}
}
