// Package queue defines the booking event exchanged over the message broker
// and the consumer that processes it.
package queue

import "time"

// BookingQueue is the durable queue booking events are published to.
const BookingQueue = "booking.confirmed"

// BookingConfirmedEvent is published after a booking has been stored.  It
// carries enough of the course for the consumer to log and email without
// reading the store.
type BookingConfirmedEvent struct {
    CourseID       string `json:"course_id"`
    CourseName     string `json:"course_name"`
    CourseLocation string `json:"course_location"`
    CourseDuration string `json:"course_duration"`
    FirstName      string `json:"first_name"`
    LastName       string `json:"last_name"`
    Email          string `json:"email"`
    Phone          string `json:"phone,omitempty"`
    FirstClass     string `json:"first_class,omitempty"` // "date time" of the first scheduled class
    ConfirmedAt    string `json:"confirmed_at"`          // RFC 3339, UTC
}

// ConfirmedAtTime parses ConfirmedAt, returning the zero time when unset
// or malformed.
func (ev BookingConfirmedEvent) ConfirmedAtTime() time.Time {
    t, err := time.Parse(time.RFC3339, ev.ConfirmedAt)
    if err != nil {
        return time.Time{}
    }
    return t
}
