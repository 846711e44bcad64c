package model

import "time"

// Course is a bookable offering.  It is stored as a single document in the
// `courses` collection with its classes and bookings embedded.
//
// Fields:
//  ID          – store-assigned identifier (not part of the stored body).
//  Name        – display name, e.g. "Beginner Salsa".
//  Description – markdown description shown on the course list.
//  Duration    – free text, e.g. "8 weeks".
//  Location    – venue; the course list can be filtered on it.
//  Price       – price in pounds.
//  Classes     – scheduled sessions in display order.
//  Bookings    – participant registrations in booking order.
type Course struct {
    ID          string    `json:"id,omitempty" yaml:"-"`
    Name        string    `json:"name" yaml:"name"`
    Description string    `json:"description" yaml:"description"`
    Duration    string    `json:"duration" yaml:"duration"`
    Location    string    `json:"location" yaml:"location"`
    Price       float64   `json:"price" yaml:"price"`
    Classes     []Class   `json:"classes" yaml:"classes"`
    Bookings    []Booking `json:"bookings" yaml:"-"`
}

// Class is one scheduled session of a course.  ID is assigned when the
// class is first stored and never changes; Index is the position within the
// course at read time and is never persisted.
type Class struct {
    ID          string `json:"id" yaml:"-"`
    Date        string `json:"date" yaml:"date"`
    Time        string `json:"time" yaml:"time"`
    Description string `json:"description" yaml:"description"`
    Index       int    `json:"-" yaml:"-"`
}

// Booking is one participant's registration for a course.  Bookings are
// appended and removed, never edited in place.
type Booking struct {
    FirstName string    `json:"firstName"`
    LastName  string    `json:"lastName"`
    Email     string    `json:"email"`
    Phone     string    `json:"phone,omitempty"`
    BookedAt  time.Time `json:"bookedAt"`
}

// Normalize guarantees that both embedded sequences are non-nil so that
// callers and templates always see arrays, possibly empty.
func (c *Course) Normalize() {
    if c.Classes == nil {
        c.Classes = []Class{}
    }
    if c.Bookings == nil {
        c.Bookings = []Booking{}
    }
}

// IndexedClasses returns a copy of the class sequence with Index set to the
// position of each class.
func (c Course) IndexedClasses() []Class {
    out := make([]Class, len(c.Classes))
    for i, k := range c.Classes {
        k.Index = i
        out[i] = k
    }
    return out
}
