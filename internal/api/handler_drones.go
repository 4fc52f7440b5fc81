package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"drone-dispatch-backend/internal/dispatch"
	"drone-dispatch-backend/internal/mw"
)

// Coordinates bind as pointers so a destination on the equator or the prime
// meridian is not mistaken for an absent field.
type locationDTO struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

type assignRequest struct {
	DroneID     int64        `json:"droneId" binding:"required"`
	EndLocation *locationDTO `json:"endLocation" binding:"required"`
}

// PostRoutes handles POST /api/drones/routes: reserve a drone for one trip
// from its hive to the requested destination.
func (h *Handler) PostRoutes(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.engine.Assign(c.Request.Context(), mw.CallerPhone(c), req.DroneID,
		dispatch.Location{Lat: *req.EndLocation.Lat, Lng: *req.EndLocation.Lng})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"droneId":  ticket.DroneID,
		"eta":      ticket.ETAMinutes,
		"distance": ticket.Distance,
	})
}

type droneIDRequest struct {
	DroneID int64 `json:"droneId" binding:"required"`
}

// PostCancel handles POST /api/drones/cancel: release a reservation before
// the device handshake.
func (h *Handler) PostCancel(c *gin.Context) {
	var req droneIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.Cancel(c.Request.Context(), mw.CallerPhone(c), req.DroneID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type matchRequest struct {
	DroneID   int64 `json:"droneId" binding:"required"`
	DroneCode int   `json:"droneCode" binding:"required"`
}

// PostMatch handles POST /api/drones/match: confirm the physical device's
// code and flip the reservation to an active flight.
func (h *Handler) PostMatch(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.engine.Match(c.Request.Context(), mw.CallerPhone(c), req.DroneID, req.DroneCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"droneId": res.DroneID,
		"hiveIp":  res.HiveIP,
	})
}

// PostEnd handles POST /api/drones/end: complete an active flight and return
// the drone to the available pool.
func (h *Handler) PostEnd(c *gin.Context) {
	var req droneIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.End(c.Request.Context(), mw.CallerPhone(c), req.DroneID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type batteryRequest struct {
	DroneID int64 `json:"droneId" binding:"required"`
	Battery *int  `json:"battery" binding:"required"`
}

// PostBattery handles POST /api/drones/battery: the telemetry feed's battery
// level report. A pointer field so a literal zero still binds.
func (h *Handler) PostBattery(c *gin.Context) {
	var req batteryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.UpdateBattery(c.Request.Context(), req.DroneID, *req.Battery); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
