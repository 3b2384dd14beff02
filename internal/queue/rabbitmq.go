package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitQueue publishes jobs to a durable RabbitMQ queue and consumes them
// with manual acknowledgements.
type RabbitQueue struct {
	conn      *amqp.Connection
	queueName string
	logger    *slog.Logger

	mu     sync.Mutex
	pubCh  *amqp.Channel
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// DialRabbit connects to the broker and checks that a channel can be opened.
func DialRabbit(ctx context.Context, url string) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Dial: amqp.DefaultDial(5 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	_ = ch.Close()

	if err := ctx.Err(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func NewRabbitQueue(conn *amqp.Connection, queueName string, logger *slog.Logger) *RabbitQueue {
	return &RabbitQueue{
		conn:      conn,
		queueName: queueName,
		logger:    logger,
	}
}

func (q *RabbitQueue) declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		q.queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}
	return nil
}

// publishChannel lazily opens a channel shared by publishers and reopens it
// after the broker closes it.
func (q *RabbitQueue) publishChannel() (*amqp.Channel, error) {
	if q.pubCh != nil && !q.pubCh.IsClosed() {
		return q.pubCh, nil
	}
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	if err := q.declare(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	q.pubCh = ch
	return ch, nil
}

func (q *RabbitQueue) Publish(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job payload failed: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	ch, err := q.publishChannel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(
		ctx,
		"",
		q.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish job failed: %w", err)
	}
	return nil
}

func (q *RabbitQueue) Start(ctx context.Context, h Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancel != nil {
		return nil
	}

	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := q.declare(ch); err != nil {
		_ = ch.Close()
		return err
	}
	if err := ch.Qos(4, 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("set qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		q.queueName,
		"",    // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					q.logger.Warn("rabbitmq delivery channel closed")
					return
				}
				q.handle(workerCtx, d, h)
			}
		}
	}()

	return nil
}

func (q *RabbitQueue) handle(ctx context.Context, d amqp.Delivery, h Handler) {
	var job Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		q.logger.Warn("decode job failed", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := h(ctx, job); err != nil {
		q.logger.Warn("job failed", "unique_id", job.UniqueID, "error", err)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

// Close stops consuming and closes the publish channel. The connection is
// owned by the caller.
func (q *RabbitQueue) Close() error {
	q.mu.Lock()
	cancel := q.cancel
	pubCh := q.pubCh
	q.pubCh = nil
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	q.wg.Wait()

	if pubCh != nil && !pubCh.IsClosed() {
		return pubCh.Close()
	}
	return nil
}
