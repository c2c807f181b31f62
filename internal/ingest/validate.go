package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/traffic-backend/internal/types"
)

// ValidationError names the first payload field that failed validation. The
// caller is expected to drop the message and keep consuming.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid traffic event: field %q %s", e.Field, e.Reason)
}

// rawTrafficEvent mirrors the loosely-typed wire payload. Pointer fields
// distinguish a missing key from a zero value.
type rawTrafficEvent struct {
	LocationID   *int64  `json:"location_id"`
	CustomersIn  *int    `json:"customers_in"`
	CustomersOut *int    `json:"customers_out"`
	Timestamp    *string `json:"timestamp"`
}

// Validate decodes a raw payload into a well-typed TrafficEvent. It has no
// side effects; any violation is reported as a *ValidationError naming the
// offending field.
func Validate(raw []byte) (types.TrafficEvent, error) {
	var payload rawTrafficEvent
	if err := json.Unmarshal(bytes.TrimSpace(raw), &payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return types.TrafficEvent{}, &ValidationError{Field: typeErr.Field, Reason: "has the wrong type"}
		}
		return types.TrafficEvent{}, &ValidationError{Field: "payload", Reason: "is not valid JSON"}
	}

	if payload.LocationID == nil {
		return types.TrafficEvent{}, &ValidationError{Field: "location_id", Reason: "is required"}
	}
	if payload.CustomersIn == nil {
		return types.TrafficEvent{}, &ValidationError{Field: "customers_in", Reason: "is required"}
	}
	if *payload.CustomersIn < 0 {
		return types.TrafficEvent{}, &ValidationError{Field: "customers_in", Reason: "must not be negative"}
	}
	if payload.CustomersOut == nil {
		return types.TrafficEvent{}, &ValidationError{Field: "customers_out", Reason: "is required"}
	}
	if *payload.CustomersOut < 0 {
		return types.TrafficEvent{}, &ValidationError{Field: "customers_out", Reason: "must not be negative"}
	}
	if payload.Timestamp == nil {
		return types.TrafficEvent{}, &ValidationError{Field: "timestamp", Reason: "is required"}
	}
	ts, err := time.Parse(time.RFC3339, *payload.Timestamp)
	if err != nil {
		return types.TrafficEvent{}, &ValidationError{Field: "timestamp", Reason: "is not a valid RFC 3339 instant"}
	}

	return types.TrafficEvent{
		LocationID:   *payload.LocationID,
		CustomersIn:  *payload.CustomersIn,
		CustomersOut: *payload.CustomersOut,
		Timestamp:    ts,
	}, nil
}
