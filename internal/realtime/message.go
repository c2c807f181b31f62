package realtime

// MessageType is the closed set of tagged realtime messages a subscriber can
// receive.
type MessageType string

const (
	// MessageInitialStateSnapshot carries every known location state and is
	// always the first message a new subscriber receives.
	MessageInitialStateSnapshot MessageType = "initial_state_snapshot"
	// MessageLocationStateUpdate carries the state produced by one applied
	// event.
	MessageLocationStateUpdate MessageType = "location_state_update"
	// MessageNewTrafficEvent carries the raw applied event.
	MessageNewTrafficEvent MessageType = "new_traffic_event"
)

// Message is the wire envelope pushed to subscribers.
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}
