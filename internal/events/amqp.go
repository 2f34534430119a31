package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// Channel — часть amqp.Channel, нужная публикатору.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Connect подключается к RabbitMQ, повторяя попытки retries раз.
func Connect(ctx context.Context, connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "events.Connect"
	var conn *amqp.Connection
	var err error

	for i := 0; i < retries; i++ {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// AMQPPublisher публикует события в topic-exchange с ключом session.<kind>.
type AMQPPublisher struct {
	mu       sync.Mutex
	ch       Channel
	conn     *amqp.Connection
	exchange string
}

// NewAMQPPublisher объявляет exchange и возвращает публикатор.
func NewAMQPPublisher(ch Channel, exchange string) (*AMQPPublisher, error) {
	const op = "events.NewAMQPPublisher"

	err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AMQPPublisher{ch: ch, exchange: exchange}, nil
}

// Dial подключается к брокеру и создаёт публикатор поверх нового канала.
func Dial(ctx context.Context, url, exchange string) (*AMQPPublisher, error) {
	const op = "events.Dial"

	conn, err := Connect(ctx, url, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p, err := NewAMQPPublisher(ch, exchange)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.conn = conn
	return p, nil
}

// Publish отправляет событие. Канал amqp не потокобезопасен, поэтому
// публикации сериализуются.
func (p *AMQPPublisher) Publish(_ context.Context, e SessionEvent) error {
	const op = "events.Publish"
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.Publish(
		p.exchange,
		"session."+e.Kind,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    e.At,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает канал и соединение.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
