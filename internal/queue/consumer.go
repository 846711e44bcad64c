package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "html/template"
    "log"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/groovemind/internal/email"
)

// BookingConsumer drains the booking queue.  For each event it appends one
// line to LogDir/booking.log and emails the participant a confirmation.
type BookingConsumer struct {
    URL    string
    LogDir string
    Mailer email.Sender
}

// Run connects to RabbitMQ and consumes until ctx is cancelled, redialling
// with exponential backoff (capped at 30s) whenever the broker goes away.
func (bc *BookingConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(bc.URL)
        if err != nil {
            log.Printf("booking-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = bc.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Printf("booking-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (bc *BookingConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(20, 0, false); err != nil {
        log.Printf("booking-consumer: set QoS failed: %v", err)
    }
    if _, err := ch.QueueDeclare(BookingQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.ConsumeWithContext(ctx, BookingQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := bc.Handle(ctx, d.Body); err != nil {
            log.Printf("booking-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false) // do not requeue a message that cannot be processed
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

// Handle processes one message body.  A failed log write is an error; a
// failed email is only logged, since redelivery would duplicate the log line.
func (bc *BookingConsumer) Handle(ctx context.Context, body []byte) error {
    var ev BookingConfirmedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := bc.appendLog(ev); err != nil {
        return err
    }
    if bc.Mailer != nil && ev.Email != "" {
        msg, err := confirmationEmail(ev)
        if err != nil {
            return err
        }
        if _, err := bc.Mailer.Send(ctx, msg); err != nil {
            log.Printf("booking-consumer: confirmation email to %s failed: %v", ev.Email, err)
        }
    }
    return nil
}

func (bc *BookingConsumer) appendLog(ev BookingConfirmedEvent) error {
    dir := bc.LogDir
    if dir == "" {
        dir = "logs"
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }
    f, err := os.OpenFile(filepath.Join(dir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(logLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// logLine formats one booking.log entry.  Events without a usable
// confirmation time are stamped with the time they were consumed.
func logLine(ev BookingConfirmedEvent) string {
    at := ev.ConfirmedAtTime()
    if at.IsZero() {
        at = time.Now().UTC()
    }
    name := strings.TrimSpace(ev.FirstName + " " + ev.LastName)
    return fmt.Sprintf("[%s] Booking confirmed | course_id=%s | course=%q | location=%q | participant=%q | email=%s\n",
        at.Format(time.RFC3339), ev.CourseID, ev.CourseName, ev.CourseLocation, name, ev.Email)
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(
    `<p>Hi {{.FirstName}},</p>
<p>Your place on <strong>{{.CourseName}}</strong>{{if .CourseLocation}} in {{.CourseLocation}}{{end}} is confirmed.</p>
{{if .FirstClass}}<p>Your first class is on {{.FirstClass}}.</p>{{end}}
{{with .ConfirmedAtTime}}{{if not .IsZero}}<p>Booked on {{.Format "2 Jan 2006 at 15:04"}} UTC.</p>{{end}}{{end}}
<p>See you on the dance floor,<br>GrooveMind Dance Collective</p>`))

func confirmationEmail(ev BookingConfirmedEvent) (email.Message, error) {
    var b strings.Builder
    if err := confirmationTmpl.Execute(&b, ev); err != nil {
        return email.Message{}, fmt.Errorf("render confirmation: %w", err)
    }
    return email.Message{
        To:      []string{ev.Email},
        Subject: "Booking confirmed: " + ev.CourseName,
        HTML:    b.String(),
    }, nil
}
