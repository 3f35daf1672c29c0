package notification

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tourvia/models"
)

func TestUserTopic(t *testing.T) {
	require.Equal(t, "notify.user.user-1", UserTopic("user-1"))
}

func TestBookingUpdateText(t *testing.T) {
	title, message, kind := bookingUpdateText("TOUR100", models.StatusPaid)
	require.Equal(t, "Booking confirmed", title)
	require.Contains(t, message, "TOUR100")
	require.Equal(t, models.NotificationTypePayment, kind)

	title, _, kind = bookingUpdateText("TOUR100", models.StatusCancelled)
	require.Equal(t, "Booking cancelled", title)
	require.Equal(t, models.NotificationTypeBooking, kind)

	_, message, _ = bookingUpdateText("TOUR100", models.StatusPendingConfirmation)
	require.Contains(t, message, "PENDING_CONFIRMATION")
}
