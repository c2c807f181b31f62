package realtime

import (
	"testing"
	"time"

	"github.com/yungbote/traffic-backend/internal/logger"
	"github.com/yungbote/traffic-backend/internal/types"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan Message, timeout time.Duration) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for realtime message")
	}
	return Message{}
}

func staticSnapshot(states []types.LocationState) func() []types.LocationState {
	return func() []types.LocationState { return states }
}

func TestHubSnapshotArrivesBeforeAnyUpdate(t *testing.T) {
	snapshot := []types.LocationState{{LocationID: 10, CurrentOccupancy: 3}}
	hub := NewHub(mustTestLogger(t), staticSnapshot(snapshot))

	client, err := hub.Register()
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	event := types.TrafficEvent{LocationID: 10, CustomersIn: 1, Timestamp: time.Now().UTC()}
	state := types.LocationState{LocationID: 10, CurrentOccupancy: 4, LastUpdated: event.Timestamp}
	hub.Publish(event, state)

	first := recvMessage(t, client.Outbound, time.Second)
	if first.Type != MessageInitialStateSnapshot {
		t.Fatalf("first message: want=%s got=%s", MessageInitialStateSnapshot, first.Type)
	}
	states, ok := first.Payload.([]types.LocationState)
	if !ok || len(states) != 1 || states[0].CurrentOccupancy != 3 {
		t.Fatalf("snapshot payload: got=%+v", first.Payload)
	}

	second := recvMessage(t, client.Outbound, time.Second)
	if second.Type != MessageNewTrafficEvent {
		t.Fatalf("second message: want=%s got=%s", MessageNewTrafficEvent, second.Type)
	}
	third := recvMessage(t, client.Outbound, time.Second)
	if third.Type != MessageLocationStateUpdate {
		t.Fatalf("third message: want=%s got=%s", MessageLocationStateUpdate, third.Type)
	}
	got, ok := third.Payload.(types.LocationState)
	if !ok || got.CurrentOccupancy != 4 {
		t.Fatalf("state payload: got=%+v", third.Payload)
	}
}

func TestHubSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := NewHub(mustTestLogger(t), staticSnapshot(nil))

	slow, err := hub.Register()
	if err != nil {
		t.Fatalf("Register slow: %v", err)
	}
	fast, err := hub.Register()
	if err != nil {
		t.Fatalf("Register fast: %v", err)
	}
	// Drain only the fast client's snapshot; the slow one is never read.
	recvMessage(t, fast.Outbound, time.Second)

	event := types.TrafficEvent{LocationID: 10, CustomersIn: 1}
	state := types.LocationState{LocationID: 10, CurrentOccupancy: 1}

	const publishes = 100
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < publishes; i++ {
			hub.Publish(event, state)
			// Keep the fast client drained so it sees every pair.
			recvMessage(t, fast.Outbound, time.Second)
			recvMessage(t, fast.Outbound, time.Second)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("publishing stalled behind a slow subscriber")
	}

	// The slow client's buffer capped out and overflow was dropped.
	if got := len(slow.Outbound); got != cap(slow.Outbound) {
		t.Fatalf("slow client buffer: want=%d buffered got=%d", cap(slow.Outbound), got)
	}
}

func TestHubDeregisterIsIdempotent(t *testing.T) {
	hub := NewHub(mustTestLogger(t), staticSnapshot(nil))

	client, err := hub.Register()
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	recvMessage(t, client.Outbound, time.Second)

	hub.Deregister(client)
	hub.Deregister(client)
	hub.Deregister(nil)

	select {
	case _, open := <-client.Outbound:
		if open {
			t.Fatalf("outbound should be closed after deregister")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for outbound close")
	}
}

func TestHubShutdownClosesClientsAndRefusesRegistration(t *testing.T) {
	hub := NewHub(mustTestLogger(t), staticSnapshot(nil))

	client, err := hub.Register()
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	recvMessage(t, client.Outbound, time.Second)

	hub.Shutdown()
	hub.Shutdown()

	select {
	case _, open := <-client.Outbound:
		if open {
			t.Fatalf("outbound should be closed after shutdown")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for outbound close")
	}

	if _, err := hub.Register(); err != ErrHubClosed {
		t.Fatalf("Register after shutdown: want=%v got=%v", ErrHubClosed, err)
	}
}
