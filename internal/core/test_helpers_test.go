package core

import (
	"sort"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// lastPresence drains ch and returns the most recent presence event.
func lastPresence(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()

	var latest *Event
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == EventPresence {
				latest = ev
			}
		default:
			if latest != nil {
				return latest
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
	if latest == nil {
		t.Fatal("no presence event received")
	}
	return latest
}

func onlineUserIDs(ev *Event) []string {
	ids := make([]string, 0, len(ev.Online))
	for _, p := range ev.Online {
		ids = append(ids, p.UserID)
	}
	sort.Strings(ids)
	return ids
}

func sameIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
