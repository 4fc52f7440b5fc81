package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"drone-dispatch-backend/internal/alert"
	"drone-dispatch-backend/internal/model"
	"drone-dispatch-backend/internal/mw"
)

func (h *Handler) caller(c *gin.Context) (*model.User, bool) {
	user, err := h.store.UserByPhone(c.Request.Context(), mw.CallerPhone(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return user, true
}

// GetEndPos handles GET /api/settings/endpos: the caller's saved default
// destination.
func (h *Handler) GetEndPos(c *gin.Context) {
	user, ok := h.caller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"detailAddress": user.EndDetail,
		"lat":           user.EndLat,
		"lng":           user.EndLng,
	})
}

type putEndPosRequest struct {
	DetailAddress string   `json:"detailAddress"`
	Lat           *float64 `json:"lat" binding:"required"`
	Lng           *float64 `json:"lng" binding:"required"`
}

// PutEndPos handles PUT /api/settings/endpos.
func (h *Handler) PutEndPos(c *gin.Context) {
	var req putEndPosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := h.caller(c)
	if !ok {
		return
	}
	user.EndDetail = req.DetailAddress
	user.EndLat = req.Lat
	user.EndLng = req.Lng
	if err := h.store.SaveUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save end position"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetGuardians handles GET /api/settings/guardians.
func (h *Handler) GetGuardians(c *gin.Context) {
	user, ok := h.caller(c)
	if !ok {
		return
	}
	guardians, err := h.store.GuardiansForUser(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve guardians"})
		return
	}
	c.JSON(http.StatusOK, guardians)
}

type guardianRequest struct {
	Relation string `json:"relation" binding:"required"`
	Phone    string `json:"phoneNumber" binding:"required"`
}

// PostGuardian handles POST /api/settings/guardians. A caller keeps at most
// three emergency contacts.
func (h *Handler) PostGuardian(c *gin.Context) {
	var req guardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := h.caller(c)
	if !ok {
		return
	}

	count, err := h.store.CountGuardians(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count guardians"})
		return
	}
	if count >= model.MaxGuardiansPerUser {
		c.JSON(http.StatusConflict, gin.H{"error": "guardian limit reached"})
		return
	}

	g := &model.Guardian{UserID: user.ID, Relation: req.Relation, Phone: req.Phone}
	if err := h.store.CreateGuardian(c.Request.Context(), g); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guardian"})
		return
	}
	c.JSON(http.StatusCreated, g)
}

func guardianIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid guardian ID"})
		return 0, false
	}
	return id, true
}

// PutGuardian handles PUT /api/settings/guardians/:id.
func (h *Handler) PutGuardian(c *gin.Context) {
	id, ok := guardianIDParam(c)
	if !ok {
		return
	}
	var req guardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := h.caller(c)
	if !ok {
		return
	}
	g, err := h.store.GuardianForUser(c.Request.Context(), id, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	g.Relation = req.Relation
	g.Phone = req.Phone
	if err := h.store.SaveGuardian(c.Request.Context(), g); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update guardian"})
		return
	}
	c.JSON(http.StatusOK, g)
}

// DeleteGuardian handles DELETE /api/settings/guardians/:id.
func (h *Handler) DeleteGuardian(c *gin.Context) {
	id, ok := guardianIDParam(c)
	if !ok {
		return
	}
	user, ok := h.caller(c)
	if !ok {
		return
	}
	g, err := h.store.GuardianForUser(c.Request.Context(), id, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.DeleteGuardian(c.Request.Context(), g); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete guardian"})
		return
	}
	c.Status(http.StatusNoContent)
}

type emergencyRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// PostEmergency handles POST /api/settings/emergency: enqueue a guardian
// alert for the caller's current position. Delivery is asynchronous; the
// request returns as soon as the job is queued.
func (h *Handler) PostEmergency(c *gin.Context) {
	var req emergencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := h.caller(c)
	if !ok {
		return
	}

	h.alerts.Dispatch(alert.Alert{UserID: user.ID, Lat: *req.Lat, Lng: *req.Lng})
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}
