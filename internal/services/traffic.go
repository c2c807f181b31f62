package services

import (
	"context"

	"github.com/yungbote/traffic-backend/internal/ingest"
	"github.com/yungbote/traffic-backend/internal/logger"
	"github.com/yungbote/traffic-backend/internal/realtime"
	"github.com/yungbote/traffic-backend/internal/realtime/bus"
	"github.com/yungbote/traffic-backend/internal/store"
	"github.com/yungbote/traffic-backend/internal/types"
)

// TrafficService is the single ingestion choke point: every raw payload,
// whether from kafka, the mock generator, or anywhere else, passes through
// Validate -> ApplyEvent -> fan-out here, so all sources share semantics.
type TrafficService struct {
	log   *logger.Logger
	store *store.Store
	hub   *realtime.Hub
	bus   bus.Bus
}

// NewTrafficService wires the service. The bus is optional; when present,
// fan-out goes through it so every replica's subscribers are reached, and
// the bus forwarder feeds this instance's hub.
func NewTrafficService(log *logger.Logger, st *store.Store, hub *realtime.Hub, b bus.Bus) *TrafficService {
	return &TrafficService{
		log:   log.With("service", "TrafficService"),
		store: st,
		hub:   hub,
		bus:   b,
	}
}

// Ingest validates one raw payload, applies it to the store, and publishes
// the event plus the updated state to subscribers. A validation failure is
// logged, reported to the caller, and mutates nothing; it must never stop
// the pipeline.
func (s *TrafficService) Ingest(ctx context.Context, raw []byte) error {
	event, err := ingest.Validate(raw)
	if err != nil {
		s.log.Warn("Dropping invalid traffic payload", "error", err)
		return err
	}

	state := s.store.ApplyEvent(event)

	if s.bus != nil {
		if err := s.publishRemote(ctx, event, state); err == nil {
			return nil
		}
		// Bus unreachable: at least reach this instance's subscribers.
	}
	s.hub.Publish(event, state)
	return nil
}

func (s *TrafficService) publishRemote(ctx context.Context, event types.TrafficEvent, state types.LocationState) error {
	msgs := []realtime.Message{
		{Type: realtime.MessageNewTrafficEvent, Payload: event},
		{Type: realtime.MessageLocationStateUpdate, Payload: state},
	}
	for _, msg := range msgs {
		if err := s.bus.Publish(ctx, msg); err != nil {
			s.log.Warn("Failed to publish realtime message to bus", "type", msg.Type, "error", err)
			return err
		}
	}
	return nil
}
