package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"notice_bot/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrReject - обработчик отказывается от сообщения насовсем: оно не возвращается в очередь.
var ErrReject = errors.New("message rejected")

// Producer публикует сообщения с подтверждением от брокера.
type Producer struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	mu       sync.Mutex
	declared map[string]struct{}
}

func NewProducer(url string) (*Producer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	return &Producer{conn: conn, ch: ch, declared: make(map[string]struct{})}, nil
}

func declare(ch *amqp.Channel, queueName string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
}

// Publish кладёт body в очередь queueName и ждёт подтверждения брокера.
// Возврат nil означает, что брокер принял сообщение на хранение.
func (p *Producer) Publish(ctx context.Context, queueName string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.declared[queueName]; !ok {
		if _, err := declare(p.ch, queueName); err != nil {
			return err
		}
		p.declared[queueName] = struct{}{}
	}

	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(
		ctx,
		"",        // exchange
		queueName, // routing key (имя очереди)
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent, // Сохранять сообщения при перезапуске
			ContentType:  "application/json",
			Body:         body,
		},
	)
	if err != nil {
		return err
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return fmt.Errorf("broker nacked message for queue %s", queueName)
	}
	return nil
}

func (p *Producer) Close() {
	p.ch.Close()
	p.conn.Close()
}

// Consumer
type Consumer struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	workers int
}

func NewConsumer(url, queue string, workers int) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// Не больше одного неподтверждённого сообщения на воркер.
	if err := ch.Qos(workers, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Consumer{
		conn:    conn,
		ch:      ch,
		queue:   queue,
		workers: workers,
	}, nil
}

// Consume раздаёт сообщения воркерам до отмены ctx или закрытия канала.
// Успех обработчика подтверждает сообщение, ErrReject выбрасывает его,
// любая другая ошибка возвращает сообщение в очередь.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, []byte) error) error {
	// Объявляем очередь с теми же параметрами, что и Producer
	q, err := declare(c.ch, c.queue)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	logger.Log.Infof("Consuming queue: %s (messages: %d)", q.Name, q.Messages)

	msgs, err := c.ch.ConsumeWithContext(
		ctx,
		q.Name,
		"",    // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range msgs {
				err := handler(ctx, msg.Body)
				switch {
				case err == nil:
					msg.Ack(false)
				case errors.Is(err, ErrReject):
					msg.Nack(false, false)
					logger.Log.Errorf("Task rejected: %v", err)
				default:
					msg.Nack(false, true)
					logger.Log.Errorf("Task failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (c *Consumer) Close() {
	c.ch.Close()
	c.conn.Close()
}
