package types

import "time"

// TrafficEvent is one observed entry/exit delta for a location. Events are
// immutable once they have passed validation.
type TrafficEvent struct {
	LocationID   int64     `json:"location_id"`
	CustomersIn  int       `json:"customers_in"`
	CustomersOut int       `json:"customers_out"`
	Timestamp    time.Time `json:"timestamp"`
}

// LocationState is the current occupancy of one location. CurrentOccupancy is
// never negative; excess exits are clamped at zero. LastUpdated carries the
// timestamp of the event that produced the state, not wall-clock receive time.
type LocationState struct {
	LocationID       int64     `json:"location_id"`
	CurrentOccupancy int       `json:"current_occupancy"`
	LastUpdated      time.Time `json:"last_updated"`
}

// HourlyBucket aggregates traffic for one location over one UTC hour.
// NetChange always equals CustomersInTotal - CustomersOutTotal.
type HourlyBucket struct {
	LocationID        int64     `json:"location_id"`
	HourStart         time.Time `json:"hour_start"`
	CustomersInTotal  int       `json:"customers_in_total"`
	CustomersOutTotal int       `json:"customers_out_total"`
	NetChange         int       `json:"net_change"`
}
