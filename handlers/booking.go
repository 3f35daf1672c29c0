package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tourvia/database/repository"
	"tourvia/models"
	"tourvia/services/booking"
	"tourvia/utils"
)

// BookingHandler serves the customer-facing booking portal endpoints.
type BookingHandler struct {
	Svc    booking.StatusService
	Logger *zap.Logger
}

func NewBookingHandler(svc booking.StatusService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Svc: svc, Logger: logger}
}

// writeBookingError maps the domain error taxonomy onto HTTP responses. Every
// failure carries a machine-readable code so the client can show the right
// corrective action instead of a dead end.
func writeBookingError(c *gin.Context, err error) {
	switch {
	case booking.IsValidation(err):
		utils.JSONDomainError(c, http.StatusBadRequest, booking.ErrCodeValidation, err.Error())
	case booking.IsTransitionRejected(err):
		utils.JSONDomainError(c, http.StatusConflict, booking.ErrCodeTransitionRejected, err.Error())
	case errors.Is(err, booking.ErrReconciliationNotFound):
		utils.JSONDomainError(c, http.StatusNotFound, booking.ErrCodeTransferNotFound, err.Error())
	case errors.Is(err, booking.ErrBookingNotFound):
		utils.JSONDomainError(c, http.StatusNotFound, booking.ErrCodeNotFound, err.Error())
	default:
		utils.JSONDomainError(c, http.StatusBadGateway, booking.ErrCodeTransient, "temporary failure, please retry")
	}
}

func bookingIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.JSONDomainError(c, http.StatusBadRequest, booking.ErrCodeValidation, "invalid booking id")
		return 0, false
	}
	return id, true
}

func currentUserID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	id, _ := userID.(string)
	return id
}

// ListBookings returns the caller's bookings, filterable by status and a
// free-text query on code or tour name.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	filter := repository.BookingSearchFilter{
		UserID: currentUserID(c),
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

// GetBooking returns one booking owned by the caller.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	b, err := h.Svc.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	if b.UserID != currentUserID(c) {
		utils.JSONDomainError(c, http.StatusNotFound, booking.ErrCodeNotFound, "booking not found")
		return
	}
	c.JSON(http.StatusOK, b)
}

// GetBookingByCode looks a booking up by its human-readable code, as printed
// on transfer references and confirmation emails.
func (h *BookingHandler) GetBookingByCode(c *gin.Context) {
	b, err := h.Svc.GetBookingByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	if b.UserID != currentUserID(c) {
		utils.JSONDomainError(c, http.StatusNotFound, booking.ErrCodeNotFound, "booking not found")
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBooking cancels an unpaid booking, or a paid one over the store-credit
// path where the refund is converted into account coins.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
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

	b, err := h.Svc.CancelWithCoinRefund(c.Request.Context(), currentUserID(c), id, booking.ActorCustomer, input.Reason)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// RequestRefund submits a bank-transfer refund request. The response includes
// the transfer reference the refund QR code encodes.
func (h *BookingHandler) RequestRefund(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	var req models.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONDomainError(c, http.StatusBadRequest, booking.ErrCodeValidation, "invalid input")
		return
	}
	req.BookingID = id

	b, instructions, err := h.Svc.RequestBankRefund(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b, "refund": instructions})
}

// SubmitReview records a review for a paid booking.
func (h *BookingHandler) SubmitReview(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONDomainError(c, http.StatusBadRequest, booking.ErrCodeValidation, "invalid input")
		return
	}
	req.BookingID = id

	b, err := h.Svc.SubmitReview(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CommitStatus is the commit-transition endpoint every automatic and manual
// reconciliation path calls. The server is the arbiter: for refund
// reconciliation it succeeds only when a matching settled transfer exists.
func (h *BookingHandler) CommitStatus(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	var input struct {
		BookingStatus string `json:"bookingStatus"`
		CancelReason  string `json:"cancelReason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONDomainError(c, http.StatusBadRequest, booking.ErrCodeValidation, "invalid input")
		return
	}
	target, err := models.ParseBookingStatus(input.BookingStatus)
	if err != nil {
		utils.JSONDomainError(c, http.StatusBadRequest, booking.ErrCodeValidation, err.Error())
		return
	}

	actor := booking.ActorCustomer
	if role, _ := c.Get("role"); role == "admin" {
		actor = booking.ActorAdmin
	}

	b, err := h.Svc.CommitTransitionFor(c.Request.Context(), currentUserID(c), id, target, actor, input.CancelReason)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
