package notifier

import (
	"context"
	"encoding/json"
)

// Publisher - то, что умеет положить тело в именованную очередь (queue.Producer).
type Publisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

// AMQP передаёт объявления в очередь; в Telegram их доставляет relay.
// Доставкой считается подтверждение брокера.
type AMQP struct {
	pub   Publisher
	queue string
}

func NewAMQP(pub Publisher, queueName string) *AMQP {
	return &AMQP{pub: pub, queue: queueName}
}

func (a *AMQP) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return &NotifyError{Retryable: false, Err: err}
	}
	if err := a.pub.Publish(ctx, a.queue, body); err != nil {
		return &NotifyError{Retryable: true, Err: err}
	}
	return nil
}
