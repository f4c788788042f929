package core

import (
	"testing"

	"github.com/Ali4mini/internal-comms/internal/domain"
)

type nopConn struct{}

func (nopConn) TrySend(Frame) error { return nil }
func (nopConn) Close()              {}

func sessionFor(name string) PeerSession {
	return NewPeerSession(domain.Identity{Username: name, Role: domain.DefaultRole}, nopConn{})
}

func TestRoom_AddCapturesPriorMembers(t *testing.T) {
	r := NewRoom("room-1")

	added, prior, ok := r.Add("a", sessionFor("alice"))
	if !ok || !added || len(prior) != 0 {
		t.Fatalf("first add: added=%v prior=%d ok=%v", added, len(prior), ok)
	}

	added, prior, ok = r.Add("b", sessionFor("bob"))
	if !ok || !added {
		t.Fatalf("second add rejected")
	}
	if len(prior) != 1 || prior[0].ID != "a" {
		t.Fatalf("prior snapshot wrong: %#v", prior)
	}
}

func TestRoom_RepeatAddIsNoop(t *testing.T) {
	r := NewRoom("room-1")
	r.Add("a", sessionFor("alice"))

	added, prior, ok := r.Add("a", sessionFor("alice"))
	if !ok {
		t.Fatalf("repeat add reported closed room")
	}
	if added || prior != nil {
		t.Fatalf("repeat add not a no-op: added=%v prior=%#v", added, prior)
	}
	if r.MemberCount() != 1 {
		t.Fatalf("member count = %d, want 1", r.MemberCount())
	}
}

func TestRoom_CloseIfEmpty(t *testing.T) {
	r := NewRoom("room-1")
	r.Add("a", sessionFor("alice"))

	if r.CloseIfEmpty() {
		t.Fatalf("closed a populated room")
	}

	if remaining := r.Remove("a"); remaining != 0 {
		t.Fatalf("remaining = %d, want 0", remaining)
	}
	if !r.CloseIfEmpty() {
		t.Fatalf("empty room not closed")
	}

	// A closed room refuses members; the caller must fetch a fresh one.
	if _, _, ok := r.Add("b", sessionFor("bob")); ok {
		t.Fatalf("closed room accepted a member")
	}
}
