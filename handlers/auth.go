package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tourvia/utils"
)

const sessionTokenTTL = 24 * time.Hour

// AuthHandler serves session token maintenance.
type AuthHandler struct {
	Logger *zap.Logger
}

func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	return &AuthHandler{Logger: logger}
}

// RefreshToken issues a fresh token for the already-authenticated caller so a
// long-lived session does not expire mid-booking.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	role, _ := c.Get("role")
	roleStr, _ := role.(string)

	token, err := utils.GenerateToken(currentUserID(c), roleStr, sessionTokenTTL)
	if err != nil {
		h.Logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresIn": int64(sessionTokenTTL.Seconds()),
	})
}
