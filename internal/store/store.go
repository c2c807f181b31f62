package store

import (
	"sort"
	"sync"
	"time"

	"github.com/yungbote/traffic-backend/internal/logger"
	"github.com/yungbote/traffic-backend/internal/types"
)

// historyWindow is the trailing interval history queries report on.
const historyWindow = 24 * time.Hour

// location holds everything owned for a single location id: its current
// state and its hourly buckets, guarded by one mutex so a reader can never
// observe the state updated without the matching bucket update.
type location struct {
	mu      sync.Mutex
	state   types.LocationState
	buckets map[time.Time]*types.HourlyBucket
}

// Store is the authoritative in-memory aggregation of traffic events:
// per-location occupancy plus per-location-per-hour history. Locking is
// per location, so concurrent applies for distinct locations do not contend.
// State lives for the process lifetime only.
type Store struct {
	log   *logger.Logger
	clock func() time.Time

	mu        sync.RWMutex
	locations map[int64]*location
	latest    *types.TrafficEvent
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to anchor history windows.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

func New(log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		log:       log.With("component", "TrafficStore"),
		clock:     time.Now,
		locations: make(map[int64]*location),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyEvent folds one validated event into the location's current state and
// its hourly bucket, atomically with respect to every reader of that
// location. It returns a value snapshot of the updated state.
func (s *Store) ApplyEvent(event types.TrafficEvent) types.LocationState {
	loc := s.location(event.LocationID, event.Timestamp)

	loc.mu.Lock()
	occupancy := loc.state.CurrentOccupancy + event.CustomersIn - event.CustomersOut
	if occupancy < 0 {
		occupancy = 0
	}
	loc.state.CurrentOccupancy = occupancy
	loc.state.LastUpdated = event.Timestamp

	// The bucket key comes from the event's own timestamp, so a late event
	// lands in the historical hour it belongs to rather than the newest one.
	hour := event.Timestamp.UTC().Truncate(time.Hour)
	bucket, ok := loc.buckets[hour]
	if !ok {
		bucket = &types.HourlyBucket{LocationID: event.LocationID, HourStart: hour}
		loc.buckets[hour] = bucket
	}
	bucket.CustomersInTotal += event.CustomersIn
	bucket.CustomersOutTotal += event.CustomersOut
	// Full recompute from the totals; an incremental delta could drift.
	bucket.NetChange = bucket.CustomersInTotal - bucket.CustomersOutTotal

	updated := loc.state
	loc.mu.Unlock()

	s.mu.Lock()
	ev := event
	s.latest = &ev
	s.mu.Unlock()

	s.log.Debug("Applied traffic event",
		"location_id", event.LocationID,
		"customers_in", event.CustomersIn,
		"customers_out", event.CustomersOut,
		"current_occupancy", updated.CurrentOccupancy)
	return updated
}

// GetState returns the current state for one location.
func (s *Store) GetState(locationID int64) (types.LocationState, bool) {
	s.mu.RLock()
	loc, ok := s.locations[locationID]
	s.mu.RUnlock()
	if !ok {
		return types.LocationState{}, false
	}
	loc.mu.Lock()
	state := loc.state
	loc.mu.Unlock()
	return state, true
}

// GetAllStates returns a snapshot of every known location's state. Order is
// unspecified.
func (s *Store) GetAllStates() []types.LocationState {
	s.mu.RLock()
	locs := make([]*location, 0, len(s.locations))
	for _, loc := range s.locations {
		locs = append(locs, loc)
	}
	s.mu.RUnlock()

	states := make([]types.LocationState, 0, len(locs))
	for _, loc := range locs {
		loc.mu.Lock()
		states = append(states, loc.state)
		loc.mu.Unlock()
	}
	return states
}

// GetHistory returns the hourly buckets whose hour falls inside the trailing
// 24-hour window, newest hour first, ties broken by ascending location id.
// A nil locationID means all locations.
func (s *Store) GetHistory(locationID *int64) []types.HourlyBucket {
	now := s.clock()
	windowStart := now.Add(-historyWindow)

	s.mu.RLock()
	locs := make([]*location, 0, len(s.locations))
	for id, loc := range s.locations {
		if locationID != nil && id != *locationID {
			continue
		}
		locs = append(locs, loc)
	}
	s.mu.RUnlock()

	result := make([]types.HourlyBucket, 0)
	for _, loc := range locs {
		loc.mu.Lock()
		for hour, bucket := range loc.buckets {
			if hour.Before(windowStart) || hour.After(now) {
				continue
			}
			result = append(result, *bucket)
		}
		loc.mu.Unlock()
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].HourStart.Equal(result[j].HourStart) {
			return result[i].HourStart.After(result[j].HourStart)
		}
		return result[i].LocationID < result[j].LocationID
	})
	return result
}

// GetLatestEvent returns the most recently applied event across all
// locations, if any event has been applied yet.
func (s *Store) GetLatestEvent() (types.TrafficEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return types.TrafficEvent{}, false
	}
	return *s.latest, true
}

// location fetches the entry for a location id, lazily creating it with zero
// occupancy on first sight. Entries are never deleted.
func (s *Store) location(locationID int64, firstSeen time.Time) *location {
	s.mu.RLock()
	loc, ok := s.locations[locationID]
	s.mu.RUnlock()
	if ok {
		return loc
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if loc, ok = s.locations[locationID]; ok {
		return loc
	}
	loc = &location{
		state: types.LocationState{
			LocationID:  locationID,
			LastUpdated: firstSeen,
		},
		buckets: make(map[time.Time]*types.HourlyBucket),
	}
	s.locations[locationID] = loc
	return loc
}
