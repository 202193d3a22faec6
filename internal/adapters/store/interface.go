package store

import (
	"context"

	"github.com/aeroplan/collab/internal/core"
	"github.com/aeroplan/collab/internal/domain"
)

// DataStore is the full persistence surface. The default backend is
// SQLite; the split into read/write slices keeps test fakes small.
type DataStore interface {
	UserReadProvider
	UserWriteProvider
	ProjectProvider
	PermissionProvider
	MessageProvider

	Close() error
}

type UserReadProvider interface {
	GetUserByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

type UserWriteProvider interface {
	CreateUser(ctx context.Context, screenname, email, passwordHash string) (*domain.User, error)
}

type ProjectProvider interface {
	CreateProject(ctx context.Context, name string) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
}

type PermissionProvider interface {
	SetPermission(ctx context.Context, uid domain.UserID, pid domain.ProjectID, level domain.AccessLevel) error
	core.PermissionStore
}

type MessageProvider interface {
	core.MessageStore
	MessagesForProject(ctx context.Context, pid domain.ProjectID, limit int) ([]domain.Message, error)
}

// Compile-time check: *Store implements DataStore.
var _ DataStore = (*Store)(nil)
