package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/revlinehq/revline-api/internal/session"
	"github.com/revlinehq/revline-api/pkg/logger"
)

// SessionHandler exposes the session store to the web client.
type SessionHandler struct {
	store *session.Store
}

func NewSessionHandler(store *session.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// Register routes under the given group
func (h *SessionHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/session", h.Current)
	a := rg.Group("/auth")
	a.POST("/logout", h.Logout)
}

// Current returns the session snapshot including derived permission flags.
func (h *SessionHandler) Current(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// Logout signs the identity out on the auth platform. On failure the local
// session state is untouched and the client shows the error.
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.store.SignOut(c.Request.Context()); err != nil {
		logger.Errorf("logout failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
