package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/traffic-backend/internal/apierr"
	"github.com/yungbote/traffic-backend/internal/logger"
	"github.com/yungbote/traffic-backend/internal/store"
)

// TrafficHandler exposes the read-only query surface over the store.
type TrafficHandler struct {
	Log   *logger.Logger
	Store *store.Store
}

func NewTrafficHandler(log *logger.Logger, st *store.Store) *TrafficHandler {
	return &TrafficHandler{
		Log:   log.With("handler", "TrafficHandler"),
		Store: st,
	}
}

// ListLocations handles GET /api/locations.
func (h *TrafficHandler) ListLocations(c *gin.Context) {
	states := h.Store.GetAllStates()
	RespondOK(c, gin.H{"data": states, "total": len(states)})
}

// GetLocation handles GET /api/locations/:id.
func (h *TrafficHandler) GetLocation(c *gin.Context) {
	locationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondWithError(c, apierr.New(http.StatusBadRequest, "invalid_location_id",
			fmt.Errorf("invalid location id %q", c.Param("id"))))
		return
	}

	state, ok := h.Store.GetState(locationID)
	if !ok {
		RespondWithError(c, apierr.New(http.StatusNotFound, "location_not_found",
			fmt.Errorf("location %d not found", locationID)))
		return
	}
	RespondOK(c, gin.H{"data": state})
}

// GetHistory handles GET /api/history with an optional location_id filter.
func (h *TrafficHandler) GetHistory(c *gin.Context) {
	var locationID *int64
	if raw := c.Query("location_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			RespondWithError(c, apierr.New(http.StatusBadRequest, "invalid_location_id",
				fmt.Errorf("invalid location id %q", raw)))
			return
		}
		locationID = &id
	}

	buckets := h.Store.GetHistory(locationID)
	RespondOK(c, gin.H{"data": buckets, "total": len(buckets)})
}

// GetLatestEvent handles GET /api/latest-event.
func (h *TrafficHandler) GetLatestEvent(c *gin.Context) {
	event, ok := h.Store.GetLatestEvent()
	if !ok {
		RespondWithError(c, apierr.New(http.StatusNotFound, "no_events",
			fmt.Errorf("no traffic events applied yet")))
		return
	}
	RespondOK(c, gin.H{"data": event})
}
