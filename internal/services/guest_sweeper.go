package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// GuestPurger は期限切れゲストを削除する処理です。
type GuestPurger interface {
	PurgeExpiredGuests(ctx context.Context) (PurgeResult, error)
}

// GuestSweeper は一定間隔で期限切れゲストの削除を実行するバックグラウンドループです。
// 実行中のスイープは停止要求があっても最後まで完了します。
type GuestSweeper struct {
	purger   GuestPurger
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewGuestSweeper は新しいGuestSweeperを作成します。
func NewGuestSweeper(purger GuestPurger, interval time.Duration) *GuestSweeper {
	return &GuestSweeper{purger: purger, interval: interval}
}

// Run は ctx がキャンセルされるまでスイープを繰り返します。起動直後にも1回実行します。
func (w *GuestSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep はスイープを1回実行します。エラーはログに出すだけで、次回の実行に影響しません。
func (w *GuestSweeper) Sweep(ctx context.Context) {
	if _, err := w.purger.PurgeExpiredGuests(context.WithoutCancel(ctx)); err != nil {
		log.Printf("Guest sweep failed, will retry on next run: %v", err)
	}
}

// Start は Run を別のゴルーチンで開始します。
func (w *GuestSweeper) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go func() {
		defer close(w.done)
		w.Run(ctx)
	}()
	log.Printf("Guest sweeper started (interval %s)", w.interval)
}

// Stop はループを停止し、実行中のスイープの完了を待ちます。停止後は再び Start できます。
func (w *GuestSweeper) Stop(ctx context.Context) error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if done == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	// 停止後は再度 Start できる
	w.mu.Lock()
	if w.done == done {
		w.cancel, w.done = nil, nil
	}
	w.mu.Unlock()
	log.Println("Guest sweeper stopped")
	return nil
}
