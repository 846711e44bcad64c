// Package service publishes domain events to RabbitMQ.  Publishing is best
// effort: errors are logged and returned, and callers are free to ignore
// them without interrupting the request.
package service

import (
    "context"
    "encoding/json"
    "log"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/groovemind/internal/queue"
)

// BookingPublisher publishes booking events over one long-lived
// connection, redialling lazily after the broker drops it.
type BookingPublisher struct {
    url  string
    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

func NewBookingPublisher(url string) *BookingPublisher {
    return &BookingPublisher{url: url}
}

// channel returns an open channel with the booking queue declared, dialling
// if necessary.  Callers hold p.mu.
func (p *BookingPublisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.closeLocked()
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return nil, err
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, err
    }
    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(queue.BookingQueue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

// PublishBookingConfirmed sends ev to the booking queue as a persistent
// JSON message.
func (p *BookingPublisher) PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }
    p.mu.Lock()
    defer p.mu.Unlock()
    ch, err := p.channel()
    if err != nil {
        log.Printf("rabbitmq: connect failed: %v", err)
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    // default exchange, routing key = queue name
    if err := ch.PublishWithContext(ctx, "", queue.BookingQueue, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        p.closeLocked()
        return err
    }
    return nil
}

// Close releases the broker connection.
func (p *BookingPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.closeLocked()
    return nil
}

func (p *BookingPublisher) closeLocked() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

// NoopPublisher drops events.  It stands in when RABBITMQ_URL is unset.
type NoopPublisher struct{}

func (NoopPublisher) PublishBookingConfirmed(context.Context, queue.BookingConfirmedEvent) error {
    return nil
}
