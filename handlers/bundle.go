package handlers

// HandlerBundle groups the handler sets so route registration takes a single
// dependency.
type HandlerBundle struct {
	Auth         *AuthHandler
	Booking      *BookingHandler
	Admin        *AdminHandler
	Notification *NotificationHandler
}
