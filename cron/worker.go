package cron

import (
	"context"
	"log"
	"time"

	"tourvia/config"
	"tourvia/services/booking"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeExpireOverdue = "booking:expire_overdue"

// InitExpiryWorker runs the async worker that sweeps unpaid bookings past
// their payment deadline into OVERDUE_PAYMENT. The sweep is enqueued every
// minute; the transition itself is idempotent, so overlapping sweeps after a
// restart are harmless.
func InitExpiryWorker(statusSvc booking.StatusService, logger *zap.Logger) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExpireOverdue, handleExpireTask(statusSvc, logger))

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{})
	if _, err := scheduler.Register("@every 1m", asynq.NewTask(TypeExpireOverdue, nil)); err != nil {
		log.Fatalf("[ExpiryWorker] failed to register sweep schedule: %v", err)
	}

	go func() {
		log.Println("[ExpiryWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ExpiryWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ExpiryWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()

	go func() {
		if err := scheduler.Run(); err != nil {
			log.Printf("[ExpiryWorker] scheduler stopped: %v", err)
		}
	}()
}

func handleExpireTask(statusSvc booking.StatusService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		// Close out bookings flagged on an earlier sweep before flagging new
		// ones, so every booking spends at least one interval visibly overdue.
		cancelled, err := statusSvc.CancelOverdueBookings(ctx)
		if err != nil {
			logger.Error("overdue cancellation sweep failed", zap.Error(err))
			return err
		}
		flagged, err := statusSvc.ExpireOverduePayments(ctx)
		if err != nil {
			logger.Error("overdue payment sweep failed", zap.Error(err))
			return err
		}
		if flagged > 0 || cancelled > 0 {
			logger.Info("payment deadline sweep",
				zap.Int("flagged", flagged), zap.Int("cancelled", cancelled))
		}
		return nil
	}
}
