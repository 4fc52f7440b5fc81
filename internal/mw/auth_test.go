package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authed := r.Group("/", Auth(secret))
	authed.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"phone": CallerPhone(c)})
	})
	authed.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newAuthRouter(testSecret)

	t.Run("valid token passes identity through", func(t *testing.T) {
		tok, err := SignToken(testSecret, "01012345678", "user", time.Hour)
		require.NoError(t, err)
		w := doGet(r, "/whoami", tok)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "01012345678")
	})

	t.Run("missing header", func(t *testing.T) {
		w := doGet(r, "/whoami", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := SignToken("other-secret", "01012345678", "user", time.Hour)
		require.NoError(t, err)
		w := doGet(r, "/whoami", tok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		tok, err := SignToken(testSecret, "01012345678", "user", -time.Minute)
		require.NoError(t, err)
		w := doGet(r, "/whoami", tok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	r := newAuthRouter(testSecret)

	adminTok, err := SignToken(testSecret, "01000000001", RoleAdmin, time.Hour)
	require.NoError(t, err)
	userTok, err := SignToken(testSecret, "01000000002", "user", time.Hour)
	require.NoError(t, err)

	w := doGet(r, "/admin", adminTok)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doGet(r, "/admin", userTok)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
