package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/aeroplan/collab/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
	fail   bool
}

func (c *fakeConn) TrySend(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("send failed")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestRoom_BroadcastReachesAllMembers(t *testing.T) {
	room := NewRoom("7")
	a, b := &fakeConn{}, &fakeConn{}
	room.AddMember("s1", a)
	room.AddMember("s2", b)

	res := room.Broadcast(Frame("hello"))
	if res.SentTo != 2 {
		t.Errorf("SentTo = %d, want 2", res.SentTo)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("deliveries = (%d, %d), want (1, 1)", a.count(), b.count())
	}
}

func TestRoom_BroadcastSkipsRemovedMember(t *testing.T) {
	room := NewRoom("7")
	a, b := &fakeConn{}, &fakeConn{}
	room.AddMember("s1", a)
	room.AddMember("s2", b)
	room.RemoveMember("s2")

	room.Broadcast(Frame("hello"))
	if a.count() != 1 {
		t.Errorf("remaining member deliveries = %d, want 1", a.count())
	}
	if b.count() != 0 {
		t.Errorf("removed member deliveries = %d, want 0", b.count())
	}
}

func TestRoom_BroadcastReportsDropped(t *testing.T) {
	room := NewRoom("7")
	slow := &fakeConn{fail: true}
	room.AddMember("s1", slow)
	room.AddMember("s2", &fakeConn{})

	res := room.Broadcast(Frame("x"))
	if res.SentTo != 1 {
		t.Errorf("SentTo = %d, want 1", res.SentTo)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != "s1" {
		t.Errorf("Dropped = %v, want [s1]", res.Dropped)
	}
}

func TestRoom_AddMemberIdempotent(t *testing.T) {
	room := NewRoom("7")
	a := &fakeConn{}
	room.AddMember("s1", a)
	room.AddMember("s1", a)

	if room.MemberCount() != 1 {
		t.Errorf("MemberCount = %d, want 1", room.MemberCount())
	}
	room.Broadcast(Frame("x"))
	if a.count() != 1 {
		t.Errorf("deliveries after duplicate join = %d, want 1", a.count())
	}
}

func TestRoom_BroadcastPreservesOrder(t *testing.T) {
	room := NewRoom("7")
	a := &fakeConn{}
	room.AddMember("s1", a)

	want := []string{"first", "second", "third", "fourth"}
	for _, text := range want {
		room.Broadcast(Frame(text))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.frames) != len(want) {
		t.Fatalf("deliveries = %d, want %d", len(a.frames), len(want))
	}
	for i, f := range a.frames {
		if string(f) != want[i] {
			t.Errorf("frame %d = %q, want %q", i, f, want[i])
		}
	}
}

func TestRoomManager_GetOrCreate(t *testing.T) {
	m := NewRoomManager()
	r1 := m.GetOrCreate("7")
	r2 := m.GetOrCreate("7")
	if r1 != r2 {
		t.Error("GetOrCreate returned distinct rooms for one project")
	}
	if r1.Project() != domain.ProjectID("7") {
		t.Errorf("Project() = %q, want 7", r1.Project())
	}

	if _, ok := m.Get("12"); ok {
		t.Error("Get(12) ok = true before creation")
	}
	m.GetOrCreate("12")
	if got := len(m.List()); got != 2 {
		t.Errorf("List() len = %d, want 2", got)
	}

	m.Remove("7")
	if _, ok := m.Get("7"); ok {
		t.Error("Get(7) ok = true after Remove")
	}
}

func TestRoomManager_RemoveIfEmpty(t *testing.T) {
	m := NewRoomManager()
	c := &fakeConn{}

	m.Join("7", "s1", c)
	m.RemoveIfEmpty("7")
	if _, ok := m.Get("7"); !ok {
		t.Fatal("occupied room reaped")
	}

	// The interleave a non-atomic check would lose: one member leaves,
	// another joins before the reap runs. The room must survive with
	// the new member still tracked by the manager.
	room, _ := m.Get("7")
	room.RemoveMember("s1")
	m.Join("7", "s2", &fakeConn{})
	m.RemoveIfEmpty("7")

	got, ok := m.Get("7")
	if !ok {
		t.Fatal("room reaped while a member holds a slot")
	}
	if got.MemberCount() != 1 {
		t.Errorf("member count = %d, want 1", got.MemberCount())
	}

	got.RemoveMember("s2")
	m.RemoveIfEmpty("7")
	if _, ok := m.Get("7"); ok {
		t.Error("empty room not reaped")
	}

	// Unknown project is a no-op.
	m.RemoveIfEmpty("404")
}

func TestRoomManager_JoinReusesRoom(t *testing.T) {
	m := NewRoomManager()
	r1 := m.Join("7", "s1", &fakeConn{})
	r2 := m.Join("7", "s2", &fakeConn{})
	if r1 != r2 {
		t.Error("Join created distinct rooms for one project")
	}
	if r1.MemberCount() != 2 {
		t.Errorf("member count = %d, want 2", r1.MemberCount())
	}
}
