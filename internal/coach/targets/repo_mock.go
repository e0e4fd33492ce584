package targets

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type repoMock struct {
	mx      sync.Mutex
	targets map[uuid.UUID]*Target
}

func NewMockTargetRepo() *repoMock {
	return &repoMock{
		targets: make(map[uuid.UUID]*Target),
	}
}

func (r *repoMock) Add(_ context.Context, target *Target) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	t := *target
	r.targets[target.ID] = &t
	return nil
}

func (r *repoMock) Get(_ context.Context, id uuid.UUID) (*Target, error) {
	r.mx.Lock()
	defer r.mx.Unlock()
	target, ok := r.targets[id]
	if !ok {
		return nil, ErrTargetNotFound
	}
	t := *target
	return &t, nil
}

func (r *repoMock) Update(_ context.Context, target *Target) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	if _, ok := r.targets[target.ID]; !ok {
		return ErrTargetNotFound
	}
	t := *target
	r.targets[target.ID] = &t
	return nil
}

func (r *repoMock) ActiveForUser(_ context.Context, userID int) ([]Target, error) {
	r.mx.Lock()
	defer r.mx.Unlock()
	var active []Target
	for _, t := range r.targets {
		if t.UserID == userID && t.Status == StatusActive {
			active = append(active, *t)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active, nil
}
