package uservector

import (
	"context"
	"fmt"
	"sort"
	"time"
)

type repoMock struct {
	vectors   map[string]*UserVector
	snapshots map[string]*Snapshot
}

func NewMockVectorRepo() *repoMock {
	return &repoMock{
		vectors:   make(map[string]*UserVector),
		snapshots: make(map[string]*Snapshot),
	}
}

func vectorKey(userID int, profile string) string {
	return fmt.Sprintf("%d|%s", userID, profile)
}

func (r *repoMock) Upsert(_ context.Context, uv UserVector) error {
	r.vectors[vectorKey(uv.UserID, uv.Profile)] = &uv
	return nil
}

func (r *repoMock) Get(_ context.Context, userID int, profile string) (*UserVector, error) {
	uv, ok := r.vectors[vectorKey(userID, profile)]
	if !ok {
		return nil, ErrUserVectorNotFound
	}
	return uv, nil
}

func (r *repoMock) SaveSnapshot(_ context.Context, snapshot Snapshot) error {
	key := fmt.Sprintf("%d|%s|%s", snapshot.UserID, snapshot.Profile, snapshot.SnapshotDate.Format("2006-01-02"))
	r.snapshots[key] = &snapshot
	return nil
}

func (r *repoMock) SnapshotsInRange(
	_ context.Context,
	userID int,
	profile string,
	from, to time.Time,
) ([]Snapshot, error) {
	var snapshots []Snapshot
	for _, s := range r.snapshots {
		if s.UserID != userID || s.Profile != profile {
			continue
		}
		if s.SnapshotDate.Before(from) || s.SnapshotDate.After(to) {
			continue
		}
		snapshots = append(snapshots, *s)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].SnapshotDate.Before(snapshots[j].SnapshotDate)
	})
	return snapshots, nil
}
