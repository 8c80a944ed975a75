package core

import (
	"testing"

	"github.com/wavechat/wavechat-server/internal/store"
)

func TestHubRegisterAndResolveAnnouncesPresence(t *testing.T) {
	hub := NewHub(nil)

	alice := NewClient("conn-a")
	bob := NewClient("conn-b")

	if !hub.Register(alice) {
		t.Fatal("expected alice to be admitted")
	}
	if !hub.Register(bob) {
		t.Fatal("expected bob to be admitted")
	}

	// Unidentified connections receive announcements but the set is empty.
	ev := mustEvent(t, bob.Events, EventPresence)
	if len(ev.Online) != 0 {
		t.Fatalf("expected empty online set, got %+v", ev.Online)
	}

	hub.ResolveIdentity(alice, IdentityClaim{UserID: "u1", Username: "alice"})
	hub.ResolveIdentity(bob, IdentityClaim{UserID: "u2", Username: "bob"})

	for _, c := range []*Client{alice, bob} {
		ev := lastPresence(t, c.Events)
		if !sameIDs(onlineUserIDs(ev), []string{"u1", "u2"}) {
			t.Fatalf("expected online set {u1,u2}, got %+v", ev.Online)
		}
	}
}

func TestHubRejectsDuplicateConnectionID(t *testing.T) {
	hub := NewHub(nil)

	first := NewClient("conn-a")
	dup := NewClient("conn-a")

	if !hub.Register(first) {
		t.Fatal("expected first registration to succeed")
	}
	if hub.Register(dup) {
		t.Fatal("expected duplicate connection id to be rejected")
	}
	if got := len(hub.Snapshot()); got != 1 {
		t.Fatalf("expected one registry entry, got %d", got)
	}
}

func TestHubResolveIdentityIsExactlyOnce(t *testing.T) {
	hub := NewHub(nil)

	alice := NewClient("conn-a")
	hub.Register(alice)

	if !hub.ResolveIdentity(alice, IdentityClaim{UserID: "u1", Username: "alice"}) {
		t.Fatal("expected first claim to attach")
	}
	if hub.ResolveIdentity(alice, IdentityClaim{UserID: "u9", Username: "mallory"}) {
		t.Fatal("expected second claim to be a no-op")
	}

	snapshot := hub.Snapshot()
	if len(snapshot) != 1 || snapshot[0].UserID != "u1" || snapshot[0].Username != "alice" {
		t.Fatalf("first claim must win, got %+v", snapshot)
	}
}

func TestHubResolveIdentityRequiresRegistration(t *testing.T) {
	hub := NewHub(nil)

	ghost := NewClient("conn-x")
	if hub.ResolveIdentity(ghost, IdentityClaim{UserID: "u1", Username: "ghost"}) {
		t.Fatal("expected unregistered connection to be rejected")
	}
}

func TestHubUnregisterIsIdempotentAndAnnounces(t *testing.T) {
	hub := NewHub(nil)

	alice := NewClient("conn-a")
	bob := NewClient("conn-b")
	hub.Register(alice)
	hub.Register(bob)
	hub.ResolveIdentity(alice, IdentityClaim{UserID: "u1", Username: "alice"})
	hub.ResolveIdentity(bob, IdentityClaim{UserID: "u2", Username: "bob"})

	hub.Unregister(alice)
	hub.Unregister(alice) // second removal is a no-op

	if got := len(hub.Snapshot()); got != 1 {
		t.Fatalf("expected one registry entry after removal, got %d", got)
	}

	ev := lastPresence(t, bob.Events)
	if !sameIDs(onlineUserIDs(ev), []string{"u2"}) {
		t.Fatalf("expected online set {u2} after eviction, got %+v", ev.Online)
	}
}

func TestHubAnnounceWithoutChangeIsIdentical(t *testing.T) {
	hub := NewHub(nil)

	alice := NewClient("conn-a")
	hub.Register(alice)
	hub.ResolveIdentity(alice, IdentityClaim{UserID: "u1", Username: "alice"})

	before := onlineUserIDs(lastPresence(t, alice.Events))

	hub.Announce()

	after := onlineUserIDs(mustEvent(t, alice.Events, EventPresence))
	if !sameIDs(before, after) {
		t.Fatalf("re-announcement changed the set: %v vs %v", before, after)
	}
}

func TestHubDeliverReachesOnlyRecipientConnections(t *testing.T) {
	hub := NewHub(nil)

	alice := NewClient("conn-a")
	bob := NewClient("conn-b")
	anon := NewClient("conn-c")
	hub.Register(alice)
	hub.Register(bob)
	hub.Register(anon)
	hub.ResolveIdentity(alice, IdentityClaim{UserID: "u1", Username: "alice"})
	hub.ResolveIdentity(bob, IdentityClaim{UserID: "u2", Username: "bob"})

	msg := &store.Message{ID: "m1", Sender: "u1", Recipient: "u2", Text: "hi"}
	if delivered := hub.Deliver(msg); delivered != 1 {
		t.Fatalf("expected exactly one delivery, got %d", delivered)
	}

	ev := mustEvent(t, bob.Events, EventMessage)
	if ev.Message.ID != "m1" || ev.Message.Text != "hi" || ev.Message.Sender != "u1" {
		t.Fatalf("unexpected delivery: %+v", ev.Message)
	}

	// Sender and anonymous connections see nothing.
	for _, c := range []*Client{alice, anon} {
		select {
		case ev := <-c.Events:
			if ev.Kind == EventMessage {
				t.Fatalf("unexpected delivery to %s", c.ID)
			}
		default:
		}
	}
}

func TestHubDeliverToOfflineRecipientIsNoop(t *testing.T) {
	hub := NewHub(nil)

	alice := NewClient("conn-a")
	hub.Register(alice)
	hub.ResolveIdentity(alice, IdentityClaim{UserID: "u1", Username: "alice"})

	msg := &store.Message{ID: "m1", Sender: "u1", Recipient: "u2", Text: "hi"}
	if delivered := hub.Deliver(msg); delivered != 0 {
		t.Fatalf("expected no deliveries, got %d", delivered)
	}
}

func TestHubDeliverAfterUnregisterIsNoop(t *testing.T) {
	hub := NewHub(nil)

	bob := NewClient("conn-b")
	hub.Register(bob)
	hub.ResolveIdentity(bob, IdentityClaim{UserID: "u2", Username: "bob"})
	hub.Unregister(bob)

	msg := &store.Message{ID: "m1", Sender: "u1", Recipient: "u2", Text: "hi"}
	if delivered := hub.Deliver(msg); delivered != 0 {
		t.Fatalf("expected no deliveries to removed connection, got %d", delivered)
	}
}
