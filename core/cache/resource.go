package cache

import (
	"context"
	"fmt"
	"time"
)

// View is a typed Snapshot.
type View[T any] struct {
	Data          T
	Status        Status
	Err           error
	LastFetchedAt time.Time
	Version       uint64
	Validating    bool
}

func (v View[T]) IsLoading() bool { return v.Status == StatusLoading }

func viewOf[T any](s Snapshot) View[T] {
	data, _ := s.Data.(T)
	return View[T]{
		Data:          data,
		Status:        s.Status,
		Err:           s.Err,
		LastFetchedAt: s.LastFetchedAt,
		Version:       s.Version,
		Validating:    s.Validating,
	}
}

// Resource is the typed facade of one key.
type Resource[T any] struct {
	store *Store
	key   string
}

// NewResource registers key on s with a typed fetcher.
func NewResource[T any](s *Store, key string, fetch func(context.Context) (T, error)) (*Resource[T], error) {
	err := s.Register(key, func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return &Resource[T]{store: s, key: key}, nil
}

func (r *Resource[T]) Key() string { return r.key }

func (r *Resource[T]) Store() *Store { return r.store }

// Get returns the cached value, refreshing in the background when stale.
func (r *Resource[T]) Get() View[T] { return viewOf[T](r.store.Get(r.key)) }

// Peek returns the cached value without triggering a refresh.
func (r *Resource[T]) Peek() View[T] {
	s, _ := r.store.Peek(r.key)
	return viewOf[T](s)
}

func (r *Resource[T]) Refresh(ctx context.Context) (T, error) {
	return typed[T](r.store.Refresh(ctx, r.key))
}

func (r *Resource[T]) Revalidate(ctx context.Context) (T, error) {
	return typed[T](r.store.Revalidate(ctx, r.key))
}

func (r *Resource[T]) MutateLocal(data T, revalidate bool) error {
	return r.store.MutateLocal(r.key, data, revalidate)
}

// Restore replaces the value while keeping the entry's status and error.
func (r *Resource[T]) Restore(data T) error {
	return r.store.Restore(r.key, data)
}

func (r *Resource[T]) Subscribe(fn func(View[T])) (unsubscribe func()) {
	return r.store.Subscribe(r.key, func(s Snapshot) { fn(viewOf[T](s)) })
}

func typed[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: unexpected value type %T", v)
	}
	return t, nil
}
