package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tourvia/services/booking"
	"tourvia/services/notification"
	"tourvia/utils"
)

// NotificationHandler serves the in-app notification feed endpoints.
type NotificationHandler struct {
	Svc    notification.NotificationService
	Logger *zap.Logger
}

func NewNotificationHandler(svc notification.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{Svc: svc, Logger: logger}
}

// ListNotifications returns the caller's notifications, newest first.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	limit := int64(50)
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	items, err := h.Svc.ListForUser(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		utils.JSONDomainError(c, http.StatusBadGateway, booking.ErrCodeTransient, "failed to load notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// UnreadCount returns the caller's unread badge count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.Svc.UnreadCount(c.Request.Context(), currentUserID(c))
	if err != nil {
		utils.JSONDomainError(c, http.StatusBadGateway, booking.ErrCodeTransient, "failed to load unread count")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkRead marks the given notifications as read and returns the new unread
// count so the client can reconcile its badge.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var input struct {
		NotificationIDs []string `json:"notificationIds"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || len(input.NotificationIDs) == 0 {
		utils.JSONDomainError(c, http.StatusBadRequest, booking.ErrCodeValidation, "notificationIds is required")
		return
	}

	userID := currentUserID(c)
	if _, err := h.Svc.MarkRead(c.Request.Context(), userID, input.NotificationIDs); err != nil {
		utils.JSONDomainError(c, http.StatusBadGateway, booking.ErrCodeTransient, "failed to mark notifications read")
		return
	}
	unread, err := h.Svc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		utils.JSONDomainError(c, http.StatusBadGateway, booking.ErrCodeTransient, "failed to load unread count")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": unread})
}

// MarkAllRead clears the caller's unread state.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if _, err := h.Svc.MarkAllRead(c.Request.Context(), currentUserID(c)); err != nil {
		utils.JSONDomainError(c, http.StatusBadGateway, booking.ErrCodeTransient, "failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": 0})
}

// RegisterDevice stores an FCM device token for push mirroring.
func (h *NotificationHandler) RegisterDevice(c *gin.Context) {
	var input struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Token == "" {
		utils.JSONDomainError(c, http.StatusBadRequest, booking.ErrCodeValidation, "token is required")
		return
	}
	if err := h.Svc.RegisterDeviceToken(c.Request.Context(), currentUserID(c), input.Token); err != nil {
		utils.JSONDomainError(c, http.StatusBadGateway, booking.ErrCodeTransient, "failed to register device")
		return
	}
	c.Status(http.StatusNoContent)
}
