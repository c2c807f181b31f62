package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/traffic-backend/internal/ingest"
	"github.com/yungbote/traffic-backend/internal/logger"
	"github.com/yungbote/traffic-backend/internal/realtime"
	"github.com/yungbote/traffic-backend/internal/store"
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

func recvMessage(t *testing.T, ch <-chan realtime.Message, timeout time.Duration) realtime.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for realtime message")
	}
	return realtime.Message{}
}

func TestIngestAppliesAndPublishes(t *testing.T) {
	log := mustTestLogger(t)
	st := store.New(log)
	hub := realtime.NewHub(log, st.GetAllStates)
	t.Cleanup(hub.Shutdown)
	svc := NewTrafficService(log, st, hub, nil)

	client, err := hub.Register()
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	recvMessage(t, client.Outbound, time.Second) // initial snapshot

	raw := []byte(`{"location_id":10,"customers_in":3,"customers_out":1,"timestamp":"2025-06-01T09:00:05Z"}`)
	if err := svc.Ingest(context.Background(), raw); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	state, ok := st.GetState(10)
	if !ok || state.CurrentOccupancy != 2 {
		t.Fatalf("state after ingest: ok=%v state=%+v", ok, state)
	}

	first := recvMessage(t, client.Outbound, time.Second)
	if first.Type != realtime.MessageNewTrafficEvent {
		t.Fatalf("first publish: want=%s got=%s", realtime.MessageNewTrafficEvent, first.Type)
	}
	second := recvMessage(t, client.Outbound, time.Second)
	if second.Type != realtime.MessageLocationStateUpdate {
		t.Fatalf("second publish: want=%s got=%s", realtime.MessageLocationStateUpdate, second.Type)
	}
}

func TestIngestDropsInvalidPayloadWithoutMutation(t *testing.T) {
	log := mustTestLogger(t)
	st := store.New(log)
	hub := realtime.NewHub(log, st.GetAllStates)
	t.Cleanup(hub.Shutdown)
	svc := NewTrafficService(log, st, hub, nil)

	client, err := hub.Register()
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	recvMessage(t, client.Outbound, time.Second) // initial snapshot

	raw := []byte(`{"location_id":10,"customers_out":1,"timestamp":"2025-06-01T09:00:05Z"}`)
	ingestErr := svc.Ingest(context.Background(), raw)
	if ingestErr == nil {
		t.Fatalf("expected validation error")
	}
	var vErr *ingest.ValidationError
	if !errors.As(ingestErr, &vErr) || vErr.Field != "customers_in" {
		t.Fatalf("want ValidationError on customers_in, got %v", ingestErr)
	}

	if _, ok := st.GetLatestEvent(); ok {
		t.Fatalf("latest event must be unchanged after invalid payload")
	}
	if got := len(st.GetAllStates()); got != 0 {
		t.Fatalf("no state may be created for invalid payload, got %d states", got)
	}

	select {
	case msg := <-client.Outbound:
		t.Fatalf("no message should be published for invalid payload, got %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}
