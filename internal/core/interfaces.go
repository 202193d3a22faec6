package core

import (
	"context"

	"github.com/aeroplan/collab/internal/domain"
)

// Frame is an encoded event ready for the wire.
type Frame []byte

// SessionID identifies one live client connection. It is assigned by
// the transport layer and carries no user identity.
type SessionID string

// ClientConn abstracts the outbound half of a client connection.
// Owned by the adapter; the adapter must Close() it.
type ClientConn interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats to the gateway.
type PublishResult struct {
	SentTo  int
	Dropped []SessionID
}

// Room is one broadcast group, keyed by a project id. It owns the
// membership set but never closes adapter-owned connections.
type Room interface {
	Project() domain.ProjectID
	MemberCount() int
	AddMember(sid SessionID, conn ClientConn)
	RemoveMember(sid SessionID)
	Broadcast(data Frame) PublishResult
}

type RoomInfo struct {
	Project     domain.ProjectID `json:"project"`
	MemberCount int              `json:"member_count"`
}

// RoomManager creates rooms on demand and drops them once empty.
// Joins and the empty-room reap share the manager's lock, so a
// concurrent join can never be stranded in an untracked room.
type RoomManager interface {
	GetOrCreate(p domain.ProjectID) Room
	Get(p domain.ProjectID) (Room, bool)
	Join(p domain.ProjectID, sid SessionID, conn ClientConn) Room
	List() []RoomInfo
	Remove(p domain.ProjectID)
	RemoveIfEmpty(p domain.ProjectID)
}

// TokenVerifier resolves a bearer token to a user. A bad, expired or
// unknown token is reported as ok=false, never as an error: the relay
// treats authentication failure as a silent drop.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.User, bool)
}

// PermissionStore is the read side of the permission records.
type PermissionStore interface {
	// PermissionsForUser returns every record the user appears in.
	PermissionsForUser(ctx context.Context, uid domain.UserID) ([]domain.Permission, error)
	// PermissionFor returns the record for one (user, project) pair,
	// or (nil, nil) when no record exists.
	PermissionFor(ctx context.Context, uid domain.UserID, pid domain.ProjectID) (*domain.Permission, error)
}

// MessageStore archives chat messages after broadcast.
type MessageStore interface {
	AddMessage(ctx context.Context, msg domain.Message) error
}
