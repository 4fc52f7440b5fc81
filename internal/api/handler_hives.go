package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"drone-dispatch-backend/internal/model"
	"drone-dispatch-backend/internal/mw"
)

// hiveDroneResponse is what the directory exposes about each docked drone.
// The device code never leaves the server.
type hiveDroneResponse struct {
	ID      int64  `json:"id"`
	Battery int    `json:"battery"`
	Status  string `json:"status"`
}

// hiveResponse represents the API response for a single hive.
type hiveResponse struct {
	ID        int64               `json:"id"`
	Name      string              `json:"name"`
	HiveNo    int                 `json:"hiveNo"`
	Direction string              `json:"direction"`
	Lat       float64             `json:"lat"`
	Lng       float64             `json:"lng"`
	Drones    []hiveDroneResponse `json:"drones"`
}

// GetHives handles the GET /api/hives request: the public docking station
// directory with each station's docked drones.
func (h *Handler) GetHives(c *gin.Context) {
	hives, err := h.store.ListHives(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve hives"})
		return
	}

	responses := make([]hiveResponse, 0, len(hives))
	for _, hive := range hives {
		drones := make([]hiveDroneResponse, 0, len(hive.Drones))
		for _, d := range hive.Drones {
			drones = append(drones, hiveDroneResponse{
				ID: d.ID, Battery: d.Battery, Status: d.Status.String(),
			})
		}
		responses = append(responses, hiveResponse{
			ID: hive.ID, Name: hive.Name, HiveNo: hive.HiveNo,
			Direction: hive.Direction, Lat: hive.Lat, Lng: hive.Lng,
			Drones: drones,
		})
	}
	c.JSON(http.StatusOK, responses)
}

type createHiveRequest struct {
	Name      string   `json:"name" binding:"required"`
	HiveNo    int      `json:"hiveNo" binding:"required"`
	Direction string   `json:"direction" binding:"required"`
	Lat       *float64 `json:"lat" binding:"required"`
	Lng       *float64 `json:"lng" binding:"required"`
	IP        string   `json:"ip" binding:"required"`
}

// PostHive handles POST /api/admin/hives.
func (h *Handler) PostHive(c *gin.Context) {
	var req createHiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hive := &model.Hive{
		Name: req.Name, HiveNo: req.HiveNo, Direction: req.Direction,
		Lat: *req.Lat, Lng: *req.Lng, IP: req.IP,
	}
	if err := h.store.CreateHive(c.Request.Context(), hive); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create hive"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": hive.ID})
}

type createDroneRequest struct {
	HiveID  int64 `json:"hiveId" binding:"required"`
	Battery int   `json:"battery"`
	Code    int   `json:"code" binding:"required"`
}

// PostDrone handles POST /api/admin/drones: dock a new drone at a hive.
func (h *Handler) PostDrone(c *gin.Context) {
	var req createDroneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.store.HiveByID(c.Request.Context(), req.HiveID); err != nil {
		respondError(c, err)
		return
	}

	drone := &model.Drone{
		Battery: req.Battery,
		Status:  model.DroneAvailable,
		HiveID:  &req.HiveID,
		Code:    req.Code,
	}
	if err := h.store.CreateDrone(c.Request.Context(), drone); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create drone"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": drone.ID})
}

type createUserRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Username string `json:"username" binding:"required"`
}

// PostUser handles POST /api/admin/users: register a caller and hand back a
// signed token for the new identity.
func (h *Handler) PostUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &model.User{Phone: req.Phone, Username: req.Username}
	if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := mw.SignToken(h.jwtSecret, user.Phone, "user", h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "token": token})
}
