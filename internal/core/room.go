package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/aeroplan/collab/internal/domain"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	project domain.ProjectID
	mu      sync.RWMutex
	members map[SessionID]ClientConn
}

func NewRoom(project domain.ProjectID) Room {
	return &roomImpl{
		project: project,
		members: make(map[SessionID]ClientConn),
	}
}

func (r *roomImpl) Project() domain.ProjectID { return r.project }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) AddMember(sid SessionID, conn ClientConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[sid] = conn
	log.Info().Str("module", "core.room").Str("project", string(r.project)).Str("sid", string(sid)).Msg("member added")
}

func (r *roomImpl) RemoveMember(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, sid)
	log.Info().Str("module", "core.room").Str("project", string(r.project)).Str("sid", string(sid)).Msg("member removed")
}

// Broadcast fans out to the membership as observed at the moment of
// the call. Delivery is best-effort: a slow or closing connection is
// reported in Dropped, never retried.
func (r *roomImpl) Broadcast(data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for sid, conn := range r.members {
		if err := conn.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("project", string(r.project)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
