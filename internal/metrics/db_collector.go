package metrics

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func StartDBCollectors(ctx context.Context, db *pgxpool.Pool, interval time.Duration, logger *log.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = log.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		updateDBGauges(ctx, db, logger)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				updateDBGauges(ctx, db, logger)
			}
		}
	}()
}

func updateDBGauges(ctx context.Context, db *pgxpool.Pool, logger *log.Logger) {
	// reminders counts by status
	{
		rows, err := db.Query(ctx, `SELECT status, COUNT(*) FROM reminders GROUP BY status`)
		if err != nil {
			logger.Printf("metrics db query reminders: %v", err)
		} else {
			defer rows.Close()
			for rows.Next() {
				var status string
				var cnt int64
				if err := rows.Scan(&status, &cnt); err != nil {
					logger.Printf("metrics db scan reminders: %v", err)
					continue
				}
				SetReminderStatusCount(status, cnt)
			}
		}
	}

	// total registered subscriptions
	{
		var cnt int64
		if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions`).Scan(&cnt); err != nil {
			logger.Printf("metrics db query subscriptions: %v", err)
			return
		}
		SetSubscriptionsCount(cnt)
	}
}
