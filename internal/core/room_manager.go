package core

import (
	"sync"

	"github.com/aeroplan/collab/internal/domain"
)

type roomManager struct {
	mu    sync.RWMutex
	rooms map[domain.ProjectID]Room
}

func NewRoomManager() RoomManager {
	return &roomManager{rooms: make(map[domain.ProjectID]Room)}
}

func (m *roomManager) GetOrCreate(p domain.ProjectID) Room {
	m.mu.RLock()
	room, ok := m.rooms[p]
	m.mu.RUnlock()
	if ok {
		return room
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok = m.rooms[p]; ok {
		return room
	}
	room = NewRoom(p)
	m.rooms[p] = room
	return room
}

func (m *roomManager) Get(p domain.ProjectID) (Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[p]
	return room, ok
}

// Join adds the member under the manager's lock. It exists so that
// RemoveIfEmpty can re-check membership without a join slipping in
// between its check and the delete.
func (m *roomManager) Join(p domain.ProjectID, sid SessionID, conn ClientConn) Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[p]
	if !ok {
		room = NewRoom(p)
		m.rooms[p] = room
	}
	room.AddMember(sid, conn)
	return room
}

func (m *roomManager) List() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for p, r := range m.rooms {
		out = append(out, RoomInfo{Project: p, MemberCount: r.MemberCount()})
	}
	return out
}

func (m *roomManager) Remove(p domain.ProjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, p)
}

// RemoveIfEmpty reaps the room only when no member holds a slot. The
// membership count is read under the manager's lock, the same lock
// Join takes, so the check cannot race a join into an orphaned room.
func (m *roomManager) RemoveIfEmpty(p domain.ProjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[p]
	if !ok || room.MemberCount() != 0 {
		return
	}
	delete(m.rooms, p)
}
