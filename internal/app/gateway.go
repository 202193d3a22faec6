package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aeroplan/collab/internal/core"
	"github.com/aeroplan/collab/internal/domain"
)

// EventChatMessage is the outbound event delivered to every session in
// a project's room when a chat line is accepted.
const EventChatMessage = "chat-message-client"

// Gateway wires inbound connection events to the registry, the rooms
// and the permission gate. One Gateway serves all sessions; every
// method is safe for concurrent use and no lock is held across the
// verifier, permission or persistence calls.
type Gateway struct {
	Registry *Registry
	Rooms    core.RoomManager
	Gate     *Gate
	Tokens   core.TokenVerifier
	Messages core.MessageStore
}

// Connect creates an anonymous session. No network action beyond the
// registry entry.
func (g *Gateway) Connect(sid core.SessionID, conn core.ClientConn) {
	g.Registry.Register(sid, conn)
}

// Start authenticates the session and joins it to one room per
// project the user holds a permission record for. An invalid token
// leaves the session anonymous; no error frame is sent.
func (g *Gateway) Start(ctx context.Context, sid core.SessionID, token string) {
	user, ok := g.Tokens.Verify(ctx, token)
	if !ok {
		log.Info().Str("module", "app.gateway").Str("sid", string(sid)).Msg("start rejected: bad token")
		return
	}
	if !g.Registry.AttachUser(sid, user.ID) {
		// Disconnected while the token was in flight.
		return
	}
	conn, ok := g.Registry.Conn(sid)
	if !ok {
		return
	}
	projects := g.Gate.ListProjects(ctx, user.ID)
	for _, pid := range projects {
		g.Rooms.Join(pid, sid, conn)
		g.Registry.AddMembership(sid, pid)
	}
	// A disconnect racing the loop above leaves room slots behind the
	// registry no longer knows about; sweep them here.
	if !g.Registry.Exists(sid) {
		g.leaveAll(sid, projects)
		return
	}
	log.Info().Str("module", "app.gateway").Str("sid", string(sid)).Int64("uid", int64(user.ID)).Int("projects", len(projects)).Msg("session joined")
}

type chatEvent struct {
	Type      string           `json:"type"`
	ProjectID domain.ProjectID `json:"p_id"`
	Text      string           `json:"message_text"`
}

// Chat handles one chat-send. The token is re-verified per message
// rather than trusting the session's cached identity, so a rotated or
// revoked token stops working mid-session. Permission failures drop
// the message silently; the broadcast happens before persistence and
// is never rolled back if persistence fails.
func (g *Gateway) Chat(ctx context.Context, sid core.SessionID, pid domain.ProjectID, token, text string) {
	user, ok := g.Tokens.Verify(ctx, token)
	if !ok {
		log.Info().Str("module", "app.gateway").Str("sid", string(sid)).Msg("chat rejected: bad token")
		return
	}
	if !g.Gate.Check(ctx, user.ID, pid, domain.LevelCollaborator) {
		log.Info().Str("module", "app.gateway").Str("sid", string(sid)).Int64("uid", int64(user.ID)).Str("project", string(pid)).Msg("chat denied")
		return
	}

	frame, err := json.Marshal(chatEvent{Type: EventChatMessage, ProjectID: pid, Text: text})
	if err != nil {
		log.Error().Err(err).Str("module", "app.gateway").Msg("encode chat event")
		return
	}
	if room, ok := g.Rooms.Get(pid); ok {
		room.Broadcast(frame)
	}

	msg := domain.Message{
		UserID:    user.ID,
		ProjectID: pid,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := g.Messages.AddMessage(ctx, msg); err != nil {
		// Durability is best-effort relative to live delivery.
		log.Error().Err(err).Str("module", "app.gateway").Str("project", string(pid)).Msg("persist chat message")
	}
}

// Disconnect tears the session down: out of every room, then out of
// the registry. After Remove returns no later broadcast delivers to
// this session. Safe to call for an unknown sid.
func (g *Gateway) Disconnect(sid core.SessionID) {
	g.leaveAll(sid, g.Registry.Projects(sid))
	g.Registry.Remove(sid)
}

// DisconnectConn tears the session down only if conn is still the
// session's registered connection. The transport calls this on socket
// teardown: session ids are reused across reconnects, so a stale
// socket closing late must not destroy the replacement session.
func (g *Gateway) DisconnectConn(sid core.SessionID, conn core.ClientConn) {
	projects, ok := g.Registry.RemoveIfConn(sid, conn)
	if !ok {
		return
	}
	g.leaveAll(sid, projects)
}

func (g *Gateway) leaveAll(sid core.SessionID, projects []domain.ProjectID) {
	for _, pid := range projects {
		room, ok := g.Rooms.Get(pid)
		if !ok {
			continue
		}
		room.RemoveMember(sid)
		g.Rooms.RemoveIfEmpty(pid)
	}
}
