package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tourvia/database/repository"
	"tourvia/models"
	"tourvia/services/booking"
	"tourvia/utils"
)

// AdminHandler serves the back-office booking operations.
type AdminHandler struct {
	Svc    booking.StatusService
	Logger *zap.Logger
}

func NewAdminHandler(svc booking.StatusService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

// SearchBookings searches across all customers. Admins can filter by user,
// status, and free text on booking code or tour name.
func (h *AdminHandler) SearchBookings(c *gin.Context) {
	filter := repository.BookingSearchFilter{
		UserID: c.Query("userId"),
		Query:  c.Query("q"),
	}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseBookingStatus(raw)
		if err != nil {
			utils.JSONDomainError(c, http.StatusBadRequest, booking.ErrCodeValidation, err.Error())
			return
		}
		filter.Status = status
	}

	bookings, err := h.Svc.SearchBookings(c.Request.Context(), filter)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// ConfirmPayment acknowledges a customer's transfer proof and moves the
// booking from PENDING_CONFIRMATION to PAID.
func (h *AdminHandler) ConfirmPayment(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	b, err := h.Svc.CommitTransition(c.Request.Context(), id, models.StatusPaid, booking.ActorAdmin, "")
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBooking is the admin-side cancellation. The same reason guard applies
// as on the customer path, and the owed refund is credited as coins.
func (h *AdminHandler) CancelBooking(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONDomainError(c, http.StatusBadRequest, booking.ErrCodeValidation, "invalid input")
		return
	}

	b, err := h.Svc.CancelWithCoinRefund(c.Request.Context(), "", id, booking.ActorAdmin, input.Reason)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// SettleRefund finalizes a PENDING_REFUND booking after the operator has
// transferred the money. It goes through the same commit path the automatic
// reconciler uses, so the settled-transfer check still applies.
func (h *AdminHandler) SettleRefund(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	b, err := h.Svc.CommitTransition(c.Request.Context(), id, models.StatusCancelled, booking.ActorAdmin, "")
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
