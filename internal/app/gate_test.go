package app

import (
	"context"
	"errors"
	"testing"

	"github.com/aeroplan/collab/internal/domain"
)

type fakePermStore struct {
	records map[domain.UserID]map[domain.ProjectID]domain.AccessLevel
	err     error
}

func (s *fakePermStore) PermissionsForUser(_ context.Context, uid domain.UserID) ([]domain.Permission, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Permission
	for pid, level := range s.records[uid] {
		out = append(out, domain.Permission{UserID: uid, ProjectID: pid, Level: level})
	}
	return out, nil
}

func (s *fakePermStore) PermissionFor(_ context.Context, uid domain.UserID, pid domain.ProjectID) (*domain.Permission, error) {
	if s.err != nil {
		return nil, s.err
	}
	level, ok := s.records[uid][pid]
	if !ok {
		return nil, nil
	}
	return &domain.Permission{UserID: uid, ProjectID: pid, Level: level}, nil
}

func TestGate_Check(t *testing.T) {
	gate := NewGate(&fakePermStore{records: map[domain.UserID]map[domain.ProjectID]domain.AccessLevel{
		1: {"7": domain.LevelCollaborator, "12": domain.LevelViewer},
	}})
	ctx := context.Background()

	tests := []struct {
		name     string
		uid      domain.UserID
		pid      domain.ProjectID
		required domain.AccessLevel
		want     bool
	}{
		{"collaborator may chat", 1, "7", domain.LevelCollaborator, true},
		{"collaborator may view", 1, "7", domain.LevelViewer, true},
		{"collaborator is not admin", 1, "7", domain.LevelAdmin, false},
		{"viewer may not chat", 1, "12", domain.LevelCollaborator, false},
		{"no record is false", 1, "99", domain.LevelViewer, false},
		{"unknown user is false", 2, "7", domain.LevelViewer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate.Check(ctx, tt.uid, tt.pid, tt.required); got != tt.want {
				t.Errorf("Check(%d, %s, %v) = %v, want %v", tt.uid, tt.pid, tt.required, got, tt.want)
			}
		})
	}
}

func TestGate_StoreFailureDegradesToDeny(t *testing.T) {
	gate := NewGate(&fakePermStore{err: errors.New("db down")})
	ctx := context.Background()

	if gate.Check(ctx, 1, "7", domain.LevelViewer) {
		t.Error("Check with failing store = true, want false")
	}
	if got := gate.ListProjects(ctx, 1); len(got) != 0 {
		t.Errorf("ListProjects with failing store = %v, want empty", got)
	}
}

func TestGate_ListProjects(t *testing.T) {
	gate := NewGate(&fakePermStore{records: map[domain.UserID]map[domain.ProjectID]domain.AccessLevel{
		1: {"7": domain.LevelCollaborator, "12": domain.LevelViewer},
	}})

	got := gate.ListProjects(context.Background(), 1)
	if len(got) != 2 {
		t.Fatalf("ListProjects len = %d, want 2", len(got))
	}
	seen := map[domain.ProjectID]bool{}
	for _, pid := range got {
		seen[pid] = true
	}
	if !seen["7"] || !seen["12"] {
		t.Errorf("ListProjects = %v, want projects 7 and 12", got)
	}
}
