package repository

import (
	bookingRepo "tourvia/database/repository/booking"
	notificationRepo "tourvia/database/repository/notification"
	walletRepo "tourvia/database/repository/wallet"
)

// Re-export the BookingRepository interface and constructor.
type BookingRepository = bookingRepo.BookingRepository

type BookingSearchFilter = bookingRepo.SearchFilter

var NewMongoBookingRepo = bookingRepo.NewMongoBookingRepo

// Re-export the NotificationRepository interface and constructor.
type NotificationRepository = notificationRepo.NotificationRepository

var NewMongoNotificationRepo = notificationRepo.NewMongoNotificationRepo

// Re-export the WalletRepository interface and constructor.
type WalletRepository = walletRepo.WalletRepository

var NewMongoWalletRepo = walletRepo.NewMongoWalletRepo
