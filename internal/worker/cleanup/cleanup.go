// Package cleanup は期限切れ取り置きの自動削除ジョブを提供する。
// expires_atを過ぎた取り置きを一定間隔のバッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/bookshelf/internal/metrics"
)

// defaultInterval はIntervalが未指定の場合の実行間隔。
const defaultInterval = 15 * time.Minute

// ReservationExpirer は期限切れ取り置きの削除を行うインターフェース。
type ReservationExpirer interface {
	ExpireReservations(ctx context.Context) (int64, error)
}

// ReservationExpiryJob は期限切れ取り置きの削除ジョブ。
// 削除は冪等で、対象が無い場合もエラーにならない。
type ReservationExpiryJob struct {
	expirer  ReservationExpirer
	recorder metrics.MetricsCollector
	logger   *slog.Logger
	Interval time.Duration
}

// NewReservationExpiryJob は新しいReservationExpiryJobを生成する。
// intervalが0以下の場合は15分間隔とする。
func NewReservationExpiryJob(expirer ReservationExpirer, recorder metrics.MetricsCollector, logger *slog.Logger, interval time.Duration) *ReservationExpiryJob {
	if interval <= 0 {
		interval = defaultInterval
	}
	if recorder == nil {
		recorder = metrics.NopCollector{}
	}
	return &ReservationExpiryJob{
		expirer:  expirer,
		recorder: recorder,
		logger:   logger,
		Interval: interval,
	}
}

// Run は期限切れの取り置きを1回削除する。
func (j *ReservationExpiryJob) Run(ctx context.Context) error {
	start := time.Now()

	deletedCount, err := j.expirer.ExpireReservations(ctx)
	if err != nil {
		j.logger.Error("取り置きクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("取り置きクリーンアップの実行に失敗: %w", err)
	}

	j.recorder.RecordReservationsExpired(deletedCount)
	j.logger.Info("取り置きクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start はInterval間隔でRunを繰り返す。起動直後に1回実行する。
// コンテキストがキャンセルされるまでブロックする。
func (j *ReservationExpiryJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	j.logger.Info("取り置きクリーンアップジョブを開始しました",
		slog.Duration("interval", j.Interval),
	)

	// 失敗はRun内でログ済みのため、次のサイクルで再試行する
	_ = j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("取り置きクリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
