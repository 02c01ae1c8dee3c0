package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notice_bot/internal/models"
)

// Message - объявление вместе с тем, куда и от чьего имени его отправить.
// Пустой Channel означает канал по умолчанию.
type Message struct {
	Notice     models.Notice `json:"notice"`
	SourceName string        `json:"source_name"`
	Channel    string        `json:"channel,omitempty"`
}

// Notifier доставляет одно объявление. nil означает подтверждённую доставку.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Alerter отправляет служебный текст во вспомогательный канал.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// NotifyError - сбой доставки. Retryable отличает временный сбой от отказа по содержимому.
// RetryAfter - пауза, которую канал сам попросил выдержать перед повтором (0, если не просил).
type NotifyError struct {
	Retryable  bool
	RetryAfter time.Duration
	Err        error
}

func (e *NotifyError) Error() string {
	kind := "permanent"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("notify (%s): %v", kind, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// IsRetryable сообщает, имеет ли смысл повторить доставку.
// Ошибки, не являющиеся NotifyError, считаются временными.
func IsRetryable(err error) bool {
	var ne *NotifyError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return err != nil
}

// RetryAfter возвращает паузу, запрошенную каналом, или 0.
func RetryAfter(err error) time.Duration {
	var ne *NotifyError
	if errors.As(err, &ne) {
		return ne.RetryAfter
	}
	return 0
}
