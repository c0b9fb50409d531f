package sse

import (
	"testing"

	"github.com/google/uuid"

	"github.com/Leeloo90/storygraph-backend/internal/logger"
)

func TestBroadcastReachesOnlyProjectSubscribers(t *testing.T) {
	h := NewHub(logger.NewNop())
	projectA, projectB := uuid.New(), uuid.New()

	a := h.Subscribe(projectA)
	b := h.Subscribe(projectB)
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	h.Broadcast(projectA, EventUnitCreated, "u1")

	select {
	case msg := <-a.Outbound:
		if msg.Project != projectA || msg.Event != EventUnitCreated {
			t.Fatalf("unexpected message %+v", msg)
		}
	default:
		t.Fatal("subscriber of the broadcast project got nothing")
	}
	select {
	case msg := <-b.Outbound:
		t.Fatalf("subscriber of another project got %+v", msg)
	default:
	}
}

func TestBroadcastDropsWhenSubscriberIsFull(t *testing.T) {
	h := NewHub(logger.NewNop())
	project := uuid.New()
	c := h.Subscribe(project)
	defer h.Unsubscribe(c)

	// Fill the outbound buffer and then some. Broadcast must never
	// block a mutation on a slow client.
	for i := 0; i < cap(c.Outbound)+5; i++ {
		h.Broadcast(project, EventUnitUpdated, i)
	}
	if got := len(c.Outbound); got != cap(c.Outbound) {
		t.Fatalf("outbound len = %d, want full buffer %d", got, cap(c.Outbound))
	}
}

func TestUnsubscribeClosesDone(t *testing.T) {
	h := NewHub(logger.NewNop())
	c := h.Subscribe(uuid.New())

	select {
	case <-c.Done():
		t.Fatal("Done closed before unsubscribe")
	default:
	}

	h.Unsubscribe(c)
	h.Unsubscribe(c) // idempotent

	select {
	case <-c.Done():
	default:
		t.Fatal("Done must be closed after unsubscribe")
	}

	// Broadcasts after removal go nowhere.
	h.Broadcast(c.Project, EventUnitDeleted, nil)
	if len(c.Outbound) != 0 {
		t.Fatalf("removed client still received %d messages", len(c.Outbound))
	}
}
