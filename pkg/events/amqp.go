package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPSink publishes events to a durable RabbitMQ queue.
type AMQPSink struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

func NewAMQPSink(url, queue string) (*AMQPSink, error) {
	conn, ch, q, err := dialQueue(url, queue)
	if err != nil {
		return nil, err
	}
	return &AMQPSink{conn: conn, channel: ch, queue: q}, nil
}

func dialQueue(url, queue string) (*amqp.Connection, *amqp.Channel, amqp.Queue, error) {
	if queue == "" {
		queue = DefaultChannel
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, amqp.Queue{}, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, amqp.Queue{}, fmt.Errorf("failed to open channel: %w", err)
	}
	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, amqp.Queue{}, fmt.Errorf("failed to declare queue: %w", err)
	}
	return conn, ch, q, nil
}

func (s *AMQPSink) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.channel.PublishWithContext(
		ctx,
		"",           // exchange
		s.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID,
			Type:         e.Type,
			Body:         body,
		},
	)
}

func (s *AMQPSink) Close() error {
	if err := s.channel.Close(); err != nil {
		log.Printf("[EVENTS] Failed to close AMQP channel: %v", err)
	}
	return s.conn.Close()
}

// ConsumeAMQP blocks, acknowledging each delivery after handle returns.
func ConsumeAMQP(ctx context.Context, url, queue string, handle Handler) error {
	conn, ch, q, err := dialQueue(url, queue)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer ch.Close()

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Println("[EVENTS] Consuming AMQP queue:", q.Name)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal(d.Body, &e); err != nil {
				log.Printf("[EVENTS] Invalid event format: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			handle(ctx, e)
			_ = d.Ack(false)
		}
	}
}
