package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/groovemind/internal/database"
	"github.com/iliyamo/groovemind/internal/model"
)

// CourseFields carries a partial course update.  Nil fields are left as
// they are; the embedded sequences are managed by their own operations.
type CourseFields struct {
	Name        *string
	Description *string
	Duration    *string
	Location    *string
	Price       *float64
}

// Empty reports whether no field is set.
func (f CourseFields) Empty() bool {
	return f.Name == nil && f.Description == nil && f.Duration == nil && f.Location == nil && f.Price == nil
}

// CourseRepo provides the course operations over the `courses` collection.
// Mutations of the embedded class and booking sequences are optimistic
// read-modify-writes; see database.Collection.Update.
type CourseRepo struct {
	docs *database.Collection[model.Course]
	now  func() time.Time
}

// NewCourseRepo constructs a CourseRepo on the migrated store.
func NewCourseRepo(db *sqlx.DB) *CourseRepo {
	return &CourseRepo{
		docs: database.NewCollection[model.Course](db, database.CoursesTable),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// ListAll returns every course in insertion order.
func (r *CourseRepo) ListAll(ctx context.Context) ([]model.Course, error) {
	docs, err := r.docs.Find(ctx, nil)
	if err != nil {
		return nil, wrap("list courses", err)
	}
	return courses(docs), nil
}

// ListByLocation returns the courses whose location matches exactly.
func (r *CourseRepo) ListByLocation(ctx context.Context, location string) ([]model.Course, error) {
	docs, err := r.docs.Find(ctx, func(c model.Course) bool { return c.Location == location })
	if err != nil {
		return nil, wrap("list courses by location", err)
	}
	return courses(docs), nil
}

// Create stores a new course and returns it with its id.  Classes get
// their ids here and the booking sequence starts empty.
func (r *CourseRepo) Create(ctx context.Context, c model.Course) (model.Course, error) {
	c.ID = uuid.NewString()
	c.Normalize()
	classes := make([]model.Class, len(c.Classes))
	for i, k := range c.Classes {
		classes[i] = newClass(k)
	}
	c.Classes = classes
	c.Bookings = []model.Booking{}
	if _, err := r.docs.Insert(ctx, c.ID, c); err != nil {
		return model.Course{}, wrap("create course", err)
	}
	return c, nil
}

// GetByID returns the course or ErrCourseNotFound.
func (r *CourseRepo) GetByID(ctx context.Context, id string) (model.Course, error) {
	doc, err := r.docs.FindOne(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return model.Course{}, ErrCourseNotFound
	}
	if err != nil {
		return model.Course{}, wrap("get course", err)
	}
	return course(doc), nil
}

// Update merges the set fields into the course and reports how many
// courses changed (0 when the id is unmatched).
func (r *CourseRepo) Update(ctx context.Context, id string, f CourseFields) (int, error) {
	n, err := r.docs.Update(ctx, id, func(c *model.Course) bool {
		if f.Name != nil {
			c.Name = *f.Name
		}
		if f.Description != nil {
			c.Description = *f.Description
		}
		if f.Duration != nil {
			c.Duration = *f.Duration
		}
		if f.Location != nil {
			c.Location = *f.Location
		}
		if f.Price != nil {
			c.Price = *f.Price
		}
		return true
	})
	return n, wrap("update course", err)
}

// Delete removes the course and reports how many were removed.
func (r *CourseRepo) Delete(ctx context.Context, id string) (int, error) {
	n, err := r.docs.Remove(ctx, id)
	return n, wrap("delete course", err)
}

// AppendBooking adds b to the end of the course's booking sequence.  An
// unmatched id is reported as 0 changed.
func (r *CourseRepo) AppendBooking(ctx context.Context, id string, b model.Booking) (int, error) {
	if b.BookedAt.IsZero() {
		b.BookedAt = r.now()
	}
	n, err := r.docs.Update(ctx, id, func(c *model.Course) bool {
		c.Bookings = append(c.Bookings, b)
		return true
	})
	return n, wrap("append booking", err)
}

// ListBookings returns the booking sequence, empty when the course has no
// bookings, or ErrCourseNotFound when the course itself does not exist.
func (r *CourseRepo) ListBookings(ctx context.Context, id string) ([]model.Booking, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Bookings, nil
}

// RemoveBookingByEmail drops every booking whose email equals email.  It
// reports 0 when the course is unmatched or no booking had that email.
func (r *CourseRepo) RemoveBookingByEmail(ctx context.Context, id, email string) (int, error) {
	n, err := r.docs.Update(ctx, id, func(c *model.Course) bool {
		kept := make([]model.Booking, 0, len(c.Bookings))
		for _, b := range c.Bookings {
			if b.Email != email {
				kept = append(kept, b)
			}
		}
		if len(kept) == len(c.Bookings) {
			return false
		}
		c.Bookings = kept
		return true
	})
	return n, wrap("remove booking", err)
}

// AppendClass adds k to the end of the class sequence and returns the
// stored class; the count is 0 when the course is unmatched.
func (r *CourseRepo) AppendClass(ctx context.Context, id string, k model.Class) (model.Class, int, error) {
	k = newClass(k)
	n, err := r.docs.Update(ctx, id, func(c *model.Course) bool {
		c.Classes = append(c.Classes, k)
		return true
	})
	return k, n, wrap("append class", err)
}

// ReplaceClassAt overwrites the class at position index, keeping its id.
// An out-of-range index or unmatched course changes nothing and reports 0.
func (r *CourseRepo) ReplaceClassAt(ctx context.Context, id string, index int, k model.Class) (int, error) {
	n, err := r.docs.Update(ctx, id, func(c *model.Course) bool {
		if index < 0 || index >= len(c.Classes) {
			return false
		}
		c.Classes[index] = replaceClass(c.Classes[index], k)
		return true
	})
	return n, wrap("replace class", err)
}

// RemoveClassAt deletes the class at position index.  An out-of-range
// index or unmatched course changes nothing and reports 0.
func (r *CourseRepo) RemoveClassAt(ctx context.Context, id string, index int) (int, error) {
	n, err := r.docs.Update(ctx, id, func(c *model.Course) bool {
		if index < 0 || index >= len(c.Classes) {
			return false
		}
		c.Classes = append(c.Classes[:index:index], c.Classes[index+1:]...)
		return true
	})
	return n, wrap("remove class", err)
}

// ReplaceClass overwrites the class with the given class id.  Unlike the
// positional form it is unaffected by concurrent inserts and deletes.
func (r *CourseRepo) ReplaceClass(ctx context.Context, id, classID string, k model.Class) (int, error) {
	n, err := r.docs.Update(ctx, id, func(c *model.Course) bool {
		i := classPosition(c.Classes, classID)
		if i < 0 {
			return false
		}
		c.Classes[i] = replaceClass(c.Classes[i], k)
		return true
	})
	return n, wrap("replace class", err)
}

// RemoveClass deletes the class with the given class id.
func (r *CourseRepo) RemoveClass(ctx context.Context, id, classID string) (int, error) {
	n, err := r.docs.Update(ctx, id, func(c *model.Course) bool {
		i := classPosition(c.Classes, classID)
		if i < 0 {
			return false
		}
		c.Classes = append(c.Classes[:i:i], c.Classes[i+1:]...)
		return true
	})
	return n, wrap("remove class", err)
}

// Count returns the number of stored courses.
func (r *CourseRepo) Count(ctx context.Context) (int, error) {
	n, err := r.docs.Count(ctx)
	return n, wrap("count courses", err)
}

func newClass(k model.Class) model.Class {
	k.ID = uuid.NewString()
	k.Index = 0
	return k
}

func replaceClass(old, k model.Class) model.Class {
	k.ID = old.ID
	k.Index = 0
	return k
}

func classPosition(classes []model.Class, classID string) int {
	for i, k := range classes {
		if k.ID == classID {
			return i
		}
	}
	return -1
}

func course(doc database.Document[model.Course]) model.Course {
	c := doc.Data
	c.ID = doc.ID
	c.Normalize()
	return c
}

func courses(docs []database.Document[model.Course]) []model.Course {
	out := make([]model.Course, 0, len(docs))
	for _, d := range docs {
		out = append(out, course(d))
	}
	return out
}
