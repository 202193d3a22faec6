package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/aeroplan/collab/internal/core"
	"github.com/aeroplan/collab/internal/domain"
)

// Gate answers "can user U perform action A on project P?" against the
// permission records. Absence of a record is an ordinary false result;
// a store failure degrades to false with a log line, never an error,
// so callers keep their fire-and-forget shape.
type Gate struct {
	perms core.PermissionStore
}

func NewGate(perms core.PermissionStore) *Gate {
	return &Gate{perms: perms}
}

// ListProjects returns every project the user has any record for.
func (g *Gate) ListProjects(ctx context.Context, uid domain.UserID) []domain.ProjectID {
	records, err := g.perms.PermissionsForUser(ctx, uid)
	if err != nil {
		log.Error().Err(err).Str("module", "app.gate").Int64("uid", int64(uid)).Msg("list permissions")
		return nil
	}
	out := make([]domain.ProjectID, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.ProjectID)
	}
	return out
}

// Check reports whether a record exists for the pair and grants at
// least the required level.
func (g *Gate) Check(ctx context.Context, uid domain.UserID, pid domain.ProjectID, required domain.AccessLevel) bool {
	rec, err := g.perms.PermissionFor(ctx, uid, pid)
	if err != nil {
		log.Error().Err(err).Str("module", "app.gate").Int64("uid", int64(uid)).Str("project", string(pid)).Msg("permission lookup")
		return false
	}
	if rec == nil {
		return false
	}
	return rec.Level.AtLeast(required)
}
