package ingest

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/yungbote/traffic-backend/internal/logger"
	"github.com/yungbote/traffic-backend/internal/types"
)

var mockLocationIDs = []int64{10, 11, 12, 13, 14}

// MockGenerator synthesizes traffic events when no kafka broker is
// available, one event every 2-5 seconds across a fixed set of locations.
// Events go through the same sink as real ones, validator included.
type MockGenerator struct {
	log  *logger.Logger
	sink Sink
}

func NewMockGenerator(log *logger.Logger, sink Sink) *MockGenerator {
	return &MockGenerator{
		log:  log.With("component", "MockGenerator"),
		sink: sink,
	}
}

// Run generates events until the context ends.
func (g *MockGenerator) Run(ctx context.Context) error {
	g.log.Info("Mock traffic generation started")
	defer g.log.Info("Mock traffic generation stopped")

	for {
		delay := time.Duration(2000+rand.IntN(3001)) * time.Millisecond
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		event := g.randomEvent()
		raw, err := json.Marshal(event)
		if err != nil {
			g.log.Warn("Failed to marshal mock event", "error", err)
			continue
		}
		g.log.Debug("Generated mock event",
			"location_id", event.LocationID,
			"customers_in", event.CustomersIn,
			"customers_out", event.CustomersOut)
		_ = g.sink.Ingest(ctx, raw)
	}
}

func (g *MockGenerator) randomEvent() types.TrafficEvent {
	event := types.TrafficEvent{
		LocationID: mockLocationIDs[rand.IntN(len(mockLocationIDs))],
		Timestamp:  time.Now().UTC(),
	}
	count := rand.IntN(4)
	if rand.IntN(2) == 0 {
		event.CustomersIn = count
	} else {
		event.CustomersOut = count
	}
	return event
}
