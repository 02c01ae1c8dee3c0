package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notice_bot/internal/logger"
	"notice_bot/internal/notifier"
	"notice_bot/internal/queue"
)

// DefaultMaxRetryWait ограничивает паузу, которую может запросить канал при 429.
const DefaultMaxRetryWait = 30 * time.Second

// Worker пересылает объявления из очереди в Telegram.
type Worker struct {
	out          notifier.Notifier
	maxRetryWait time.Duration
}

func NewWorker(out notifier.Notifier) *Worker {
	return &Worker{out: out, maxRetryWait: DefaultMaxRetryWait}
}

// SetMaxRetryWait меняет верхнюю границу паузы перед возвратом сообщения в очередь.
func (w *Worker) SetMaxRetryWait(d time.Duration) {
	w.maxRetryWait = d
}

// HandleTask разбирает сообщение очереди и доставляет его.
// Битое сообщение и окончательный отказ доставки отклоняются через queue.ErrReject,
// временный сбой возвращается как есть, и сообщение вернётся в очередь.
func (w *Worker) HandleTask(ctx context.Context, body []byte) error {
	var msg notifier.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: decode: %v", queue.ErrReject, err)
	}

	log := logger.Log.WithFields(map[string]interface{}{
		"source":      msg.Notice.SourceKey,
		"external_id": msg.Notice.ExternalID,
	})

	if err := w.out.Send(ctx, msg); err != nil {
		if !notifier.IsRetryable(err) {
			log.Errorf("Delivery rejected: %v", err)
			return fmt.Errorf("%w: %v", queue.ErrReject, err)
		}
		wait := notifier.RetryAfter(err)
		if wait > w.maxRetryWait {
			wait = w.maxRetryWait
		}
		log.Warnf("Delivery failed, will retry after %s: %v", wait, err)
		// Сообщение вернётся в очередь только после паузы, иначе повтор упрётся в тот же лимит.
		if wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
			}
		}
		return err
	}

	log.Info("Relayed notice")
	return nil
}
