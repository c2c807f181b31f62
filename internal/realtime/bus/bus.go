package bus

import (
	"context"

	"github.com/yungbote/traffic-backend/internal/realtime"
)

// Bus fans realtime messages across service instances, so every replica's
// subscribers see events ingested anywhere.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error
	Close() error
}
