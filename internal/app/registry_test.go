package app

import (
	"fmt"
	"sync"
	"testing"

	"github.com/aeroplan/collab/internal/core"
	"github.com/aeroplan/collab/internal/domain"
)

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry()
	r.Register("s1", nopConn{})

	if _, ok := r.UserOf("s1"); ok {
		t.Error("UserOf before AttachUser reported an identity")
	}
	if !r.AttachUser("s1", 42) {
		t.Fatal("AttachUser on live session = false")
	}
	uid, ok := r.UserOf("s1")
	if !ok || uid != 42 {
		t.Errorf("UserOf = (%d, %v), want (42, true)", uid, ok)
	}

	r.AddMembership("s1", "7")
	r.AddMembership("s1", "12")
	r.AddMembership("s1", "7") // idempotent

	if got := len(r.Projects("s1")); got != 2 {
		t.Errorf("Projects len = %d, want 2", got)
	}
	if got := r.SessionsInProject("7"); len(got) != 1 || got[0] != "s1" {
		t.Errorf("SessionsInProject(7) = %v, want [s1]", got)
	}

	r.Remove("s1")
	if r.Exists("s1") {
		t.Error("Exists after Remove = true")
	}
	if got := r.SessionsInProject("7"); len(got) != 0 {
		t.Errorf("SessionsInProject(7) after Remove = %v, want empty", got)
	}
	if got := r.SessionsInProject("12"); len(got) != 0 {
		t.Errorf("SessionsInProject(12) after Remove = %v, want empty", got)
	}
}

func TestRegistry_UnknownSessionOps(t *testing.T) {
	r := NewRegistry()

	// All of these race with disconnect in production and must no-op.
	if r.AttachUser("ghost", 1) {
		t.Error("AttachUser on unknown session = true")
	}
	if r.AddMembership("ghost", "7") {
		t.Error("AddMembership on unknown session = true")
	}
	r.Remove("ghost")
	if got := r.SessionsInProject("7"); len(got) != 0 {
		t.Errorf("SessionsInProject = %v, want empty", got)
	}
}

func TestRegistry_ReRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register("s1", nopConn{})
	r.AttachUser("s1", 42)
	r.AddMembership("s1", "7")

	// Reconnect with the same transport id before a disconnect event.
	r.Register("s1", nopConn{})

	if _, ok := r.UserOf("s1"); ok {
		t.Error("identity survived re-register")
	}
	if got := r.SessionsInProject("7"); len(got) != 0 {
		t.Errorf("SessionsInProject(7) after re-register = %v, want empty", got)
	}
	if got := len(r.Projects("s1")); got != 0 {
		t.Errorf("Projects after re-register = %d, want 0", got)
	}
}

func TestRegistry_RemoveIfConnChecksIdentity(t *testing.T) {
	r := NewRegistry()
	stale, fresh := &recConn{}, &recConn{}

	r.Register("s1", stale)
	r.AttachUser("s1", 42)
	r.AddMembership("s1", "7")
	r.Register("s1", fresh)
	r.AttachUser("s1", 42)
	r.AddMembership("s1", "7")

	// The replaced connection's late teardown must not remove the
	// replacement entry.
	if _, ok := r.RemoveIfConn("s1", stale); ok {
		t.Fatal("RemoveIfConn removed the entry for a stale conn")
	}
	if !r.Exists("s1") {
		t.Fatal("session gone after stale RemoveIfConn")
	}
	if got := r.SessionsInProject("7"); len(got) != 1 {
		t.Errorf("SessionsInProject(7) = %v, want [s1]", got)
	}

	projects, ok := r.RemoveIfConn("s1", fresh)
	if !ok {
		t.Fatal("RemoveIfConn for the live conn = false")
	}
	if len(projects) != 1 || projects[0] != "7" {
		t.Errorf("removed projects = %v, want [7]", projects)
	}
	if r.Exists("s1") {
		t.Error("session survived its own RemoveIfConn")
	}
	if got := r.SessionsInProject("7"); len(got) != 0 {
		t.Errorf("SessionsInProject(7) after removal = %v, want empty", got)
	}
}

func TestRegistry_ConcurrentConnectDisconnect(t *testing.T) {
	r := NewRegistry()
	const n = 64

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := core.SessionID(fmt.Sprintf("s%d", i))
			r.Register(sid, nopConn{})
			r.AttachUser(sid, domain.UserID(i))
			r.AddMembership(sid, "7")
			if i%2 == 0 {
				r.Remove(sid)
			}
		}(i)
	}
	wg.Wait()

	if got := len(r.SessionsInProject("7")); got != n/2 {
		t.Errorf("SessionsInProject(7) len = %d, want %d", got, n/2)
	}
	for i := 0; i < n; i++ {
		sid := core.SessionID(fmt.Sprintf("s%d", i))
		if want := i%2 != 0; r.Exists(sid) != want {
			t.Errorf("Exists(%s) = %v, want %v", sid, !want, want)
		}
	}
}
