package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/aeroplan/collab/internal/core"
	"github.com/aeroplan/collab/internal/domain"
)

type sessionEntry struct {
	Conn     core.ClientConn
	UserID   domain.UserID
	Authed   bool
	Projects map[domain.ProjectID]struct{}
}

// Registry is the single shared mutable structure of the relay: the
// live mapping from session id to identity, connection and joined
// projects. Every mutation and every read used for broadcast goes
// through one RWMutex, together with the derived project index.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[core.SessionID]*sessionEntry
	byProject map[domain.ProjectID]map[core.SessionID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:  make(map[core.SessionID]*sessionEntry),
		byProject: make(map[domain.ProjectID]map[core.SessionID]struct{}),
	}
}

// Register creates an anonymous session entry. Re-registering an id
// replaces the prior entry wholesale: a transport session id is
// assigned fresh on each physical connect, so a duplicate means the
// old connection is gone.
func (r *Registry) Register(sid core.SessionID, conn core.ClientConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[sid]; ok {
		r.dropMembershipsLocked(sid, old)
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("replaced stale session")
	}
	r.sessions[sid] = &sessionEntry{
		Conn:     conn,
		Projects: make(map[domain.ProjectID]struct{}),
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("registered session")
}

// AttachUser binds identity after authentication. A no-op for an
// unknown sid: the session may have disconnected while the token was
// being verified, and that race is tolerated, not fatal.
func (r *Registry) AttachUser(sid core.SessionID, uid domain.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Msg("attach on unknown session")
		return false
	}
	e.UserID = uid
	e.Authed = true
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int64("uid", int64(uid)).Msg("attached user")
	return true
}

// UserOf returns the authenticated identity of a session, if any.
func (r *Registry) UserOf(sid core.SessionID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || !e.Authed {
		return 0, false
	}
	return e.UserID, true
}

// Conn returns the connection bound at Register time.
func (r *Registry) Conn(sid core.SessionID) (core.ClientConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	return e.Conn, true
}

// AddMembership records a joined project. Additive and idempotent;
// a no-op for an unknown sid.
func (r *Registry) AddMembership(sid core.SessionID, pid domain.ProjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.Projects[pid] = struct{}{}
	idx, ok := r.byProject[pid]
	if !ok {
		idx = make(map[core.SessionID]struct{})
		r.byProject[pid] = idx
	}
	idx[sid] = struct{}{}
	return true
}

// Projects returns the membership set of a session.
func (r *Registry) Projects(sid core.SessionID) []domain.ProjectID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	out := make([]domain.ProjectID, 0, len(e.Projects))
	for pid := range e.Projects {
		out = append(out, pid)
	}
	return out
}

// SessionsInProject is the derived view used for broadcast bookkeeping.
func (r *Registry) SessionsInProject(pid domain.ProjectID) []core.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := r.byProject[pid]
	out := make([]core.SessionID, 0, len(idx))
	for sid := range idx {
		out = append(out, sid)
	}
	return out
}

// Remove deletes the session and all its memberships. Safe to call
// for an unknown sid. After Remove returns no derived view includes
// the session.
func (r *Registry) Remove(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return
	}
	r.dropMembershipsLocked(sid, e)
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("removed session")
}

// RemoveIfConn removes the session only if conn is still the
// registered connection, and returns the memberships it dropped.
// Session ids are reused across reconnects, so a replaced entry must
// survive the old connection's teardown; the check and the removal
// happen under one lock so a concurrent Register cannot interleave.
func (r *Registry) RemoveIfConn(sid core.SessionID, conn core.ClientConn) ([]domain.ProjectID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok || e.Conn != conn {
		log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Msg("ignored stale teardown")
		return nil, false
	}
	projects := make([]domain.ProjectID, 0, len(e.Projects))
	for pid := range e.Projects {
		projects = append(projects, pid)
	}
	r.dropMembershipsLocked(sid, e)
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("removed session")
	return projects, true
}

// Exists reports whether the session is still registered.
func (r *Registry) Exists(sid core.SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[sid]
	return ok
}

func (r *Registry) dropMembershipsLocked(sid core.SessionID, e *sessionEntry) {
	for pid := range e.Projects {
		if idx, ok := r.byProject[pid]; ok {
			delete(idx, sid)
			if len(idx) == 0 {
				delete(r.byProject, pid)
			}
		}
	}
}
