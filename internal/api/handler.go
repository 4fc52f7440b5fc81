package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"drone-dispatch-backend/internal/alert"
	"drone-dispatch-backend/internal/dispatch"
	"drone-dispatch-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	engine    *dispatch.Engine
	alerts    *alert.WorkerPool
	webpush   *webpush.Options
	jwtSecret string
	tokenTTL  time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, engine *dispatch.Engine, alerts *alert.WorkerPool,
	webpushOptions *webpush.Options, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{
		store:     s,
		engine:    engine,
		alerts:    alerts,
		webpush:   webpushOptions,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// respondError maps domain and storage errors onto HTTP statuses. Unknown
// errors surface as 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	var derr *dispatch.Error
	if errors.As(err, &derr) {
		c.JSON(statusForCode(derr.Code), gin.H{"code": derr.Code, "error": derr.Message})
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func statusForCode(code string) int {
	switch code {
	case "INVALID_USER", "INVALID_DRONE", "INVALID_HIVE":
		return http.StatusNotFound
	case "DRONE_NOT_AVAILABLE", "USER_ALREADY_HAS_DRONE", "INVALID_DRONE_STATE":
		return http.StatusConflict
	case "SAME_START_AND_END_LOCATION", "OUT_OF_RANGE_BATTERY":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
