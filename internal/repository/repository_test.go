package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/groovemind/internal/database"
	"github.com/iliyamo/groovemind/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func salsa() model.Course {
	return model.Course{
		Name:        "Beginner Salsa",
		Description: "Eight weeks of *salsa* basics.",
		Duration:    "8 weeks",
		Location:    "Glasgow",
		Price:       60,
		Classes: []model.Class{
			{Date: "2026-01-05", Time: "19:00", Description: "Basic step"},
			{Date: "2026-01-12", Time: "19:00", Description: "Turns"},
		},
	}
}

func strPtr(s string) *string { return &s }

func TestCreateThenGetByID(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepo(newTestDB(t))

	in := salsa()
	created, err := repo.Create(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Description, got.Description)
	assert.Equal(t, in.Duration, got.Duration)
	assert.Equal(t, in.Location, got.Location)
	assert.Equal(t, in.Price, got.Price)
	assert.Equal(t, []model.Booking{}, got.Bookings)
	require.Len(t, got.Classes, 2)
	for i, k := range got.Classes {
		assert.NotEmpty(t, k.ID)
		assert.Equal(t, in.Classes[i].Date, k.Date)
		assert.Equal(t, in.Classes[i].Description, k.Description)
	}
	assert.NotEqual(t, got.Classes[0].ID, got.Classes[1].ID)
}

func TestCreateWithoutClassesStoresEmptySequences(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepo(newTestDB(t))

	c, err := repo.Create(ctx, model.Course{Name: "Tango"})
	require.NoError(t, err)
	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Classes)
	assert.NotNil(t, got.Bookings)
	assert.Empty(t, got.Classes)
}

func TestGetByIDUnknown(t *testing.T) {
	_, err := NewCourseRepo(newTestDB(t)).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestListAllAndByLocation(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepo(newTestDB(t))
	for _, loc := range []string{"Glasgow", "Edinburgh", "Glasgow"} {
		c := salsa()
		c.Location = loc
		_, err := repo.Create(ctx, c)
		require.NoError(t, err)
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	gla, err := repo.ListByLocation(ctx, "Glasgow")
	require.NoError(t, err)
	assert.Len(t, gla, 2)

	none, err := repo.ListByLocation(ctx, "glasgow")
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestUpdateMergesSetFields(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepo(newTestDB(t))
	c, err := repo.Create(ctx, salsa())
	require.NoError(t, err)

	price := 75.5
	n, err := repo.Update(ctx, c.ID, CourseFields{Name: strPtr("Improver Salsa"), Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Improver Salsa", got.Name)
	assert.Equal(t, 75.5, got.Price)
	assert.Equal(t, "Glasgow", got.Location)
	assert.Len(t, got.Classes, 2)

	n, err = repo.Update(ctx, "missing", CourseFields{Name: strPtr("x")})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepo(newTestDB(t))
	c, err := repo.Create(ctx, salsa())
	require.NoError(t, err)

	n, err := repo.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = repo.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)

	n, err = repo.Delete(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBookingLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepo(newTestDB(t))
	c, err := repo.Create(ctx, salsa())
	require.NoError(t, err)

	bookings, err := repo.ListBookings(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, bookings)

	before := time.Now().UTC().Add(-time.Second)
	for _, email := range []string{"a@b.com", "c@d.com", "a@b.com"} {
		n, err := repo.AppendBooking(ctx, c.ID, model.Booking{FirstName: "Al", LastName: "Li", Email: email})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}

	bookings, err = repo.ListBookings(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, bookings, 3)
	assert.Equal(t, "c@d.com", bookings[1].Email)
	assert.True(t, bookings[0].BookedAt.After(before))

	n, err := repo.RemoveBookingByEmail(ctx, c.ID, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	bookings, err = repo.ListBookings(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "c@d.com", bookings[0].Email)

	n, err = repo.RemoveBookingByEmail(ctx, c.ID, "nobody@b.com")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBookingOnMissingCourse(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepo(newTestDB(t))

	n, err := repo.AppendBooking(ctx, "missing", model.Booking{Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = repo.ListBookings(ctx, "missing")
	assert.ErrorIs(t, err, ErrCourseNotFound)

	n, err = repo.RemoveBookingByEmail(ctx, "missing", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPositionalClassOperations(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepo(newTestDB(t))
	c, err := repo.Create(ctx, salsa())
	require.NoError(t, err)
	firstID := c.Classes[0].ID

	added, n, err := repo.AppendClass(ctx, c.ID, model.Class{Date: "2026-01-19", Time: "19:00", Description: "Shines"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotEmpty(t, added.ID)

	n, err = repo.ReplaceClassAt(ctx, c.ID, 0, model.Class{Date: "2026-01-06", Time: "20:00", Description: "Basic step (moved)"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Classes, 3)
	assert.Equal(t, firstID, got.Classes[0].ID, "replacement keeps the class id")
	assert.Equal(t, "20:00", got.Classes[0].Time)
	assert.Equal(t, added.ID, got.Classes[2].ID)

	n, err = repo.RemoveClassAt(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err = repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Classes, 2)
	assert.Equal(t, []string{firstID, added.ID}, []string{got.Classes[0].ID, got.Classes[1].ID})

	for _, idx := range []int{-1, 2, 99} {
		n, err = repo.ReplaceClassAt(ctx, c.ID, idx, model.Class{Description: "x"})
		require.NoError(t, err)
		assert.Equal(t, 0, n, "replace at %d", idx)
		n, err = repo.RemoveClassAt(ctx, c.ID, idx)
		require.NoError(t, err)
		assert.Equal(t, 0, n, "remove at %d", idx)
	}

	_, n, err = repo.AppendClass(ctx, "missing", model.Class{Description: "x"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestClassOperationsByID(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepo(newTestDB(t))
	c, err := repo.Create(ctx, salsa())
	require.NoError(t, err)
	second := c.Classes[1].ID

	n, err := repo.ReplaceClass(ctx, c.ID, second, model.Class{Date: "2026-01-13", Time: "18:30", Description: "Cross body lead"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Removing the first class shifts positions but not ids.
	n, err = repo.RemoveClassAt(ctx, c.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Classes, 1)
	assert.Equal(t, second, got.Classes[0].ID)
	assert.Equal(t, "Cross body lead", got.Classes[0].Description)

	n, err = repo.RemoveClass(ctx, c.ID, second)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.RemoveClass(ctx, c.ID, second)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	n, err = repo.ReplaceClass(ctx, c.ID, "unknown", model.Class{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestWrapClassifiesErrors(t *testing.T) {
	assert.NoError(t, wrap("op", nil))
	assert.ErrorIs(t, wrap("op", database.ErrVersionConflict), ErrConflict)

	boom := errors.New("disk full")
	err := wrap("append booking", boom)
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "append booking", se.Op)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "append booking: disk full", err.Error())
}

func TestStoreFailureSurfacesAsStoreError(t *testing.T) {
	db := newTestDB(t)
	repo := NewCourseRepo(db)
	require.NoError(t, db.Close())

	_, err := repo.ListAll(context.Background())
	var se *StoreError
	assert.ErrorAs(t, err, &se)
}

func TestUserCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepo(newTestDB(t), bcrypt.MinCost)

	u, err := users.Create(ctx, "ana", "salsa123", "")
	require.NoError(t, err)
	assert.Equal(t, model.RoleOrganiser, u.Role)
	assert.NotEqual(t, "salsa123", u.PasswordHash)

	got, err := users.Lookup(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("salsa123")))

	_, err = users.Lookup(ctx, "ANA")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepo(newTestDB(t), bcrypt.MinCost)

	_, err := users.Create(ctx, "ana", "salsa123", model.RoleMember)
	require.NoError(t, err)
	_, err = users.Create(ctx, "ana", "other123", model.RoleOrganiser)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, model.RoleMember, all[0].Role)
}

func TestUserDelete(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepo(newTestDB(t), bcrypt.MinCost)
	_, err := users.Create(ctx, "ana", "salsa123", "")
	require.NoError(t, err)

	n, err := users.Delete(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = users.Delete(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestEnsureOrganiser(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepo(newTestDB(t), bcrypt.MinCost)

	created, err := users.EnsureOrganiser(ctx, "admin", "changeme")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = users.EnsureOrganiser(ctx, "admin", "different")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := users.Lookup(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleOrganiser, u.EffectiveRole())
}

func TestMemorySessionRepo(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemorySessionRepo()
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Store(ctx, "s1", "ana", time.Hour))
	require.NoError(t, repo.Store(ctx, "s2", "ana", 0))
	require.NoError(t, repo.Store(ctx, "s3", "bob", time.Hour))

	ok, err := repo.Valid(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	ok, _ = repo.Valid(ctx, "s1")
	assert.False(t, ok, "expired")
	ok, _ = repo.Valid(ctx, "s2")
	assert.True(t, ok, "no expiry")

	require.NoError(t, repo.Revoke(ctx, "s2"))
	ok, _ = repo.Valid(ctx, "s2")
	assert.False(t, ok)

	require.NoError(t, repo.Store(ctx, "s4", "ana", 0))
	require.NoError(t, repo.RevokeAllForUser(ctx, "ana"))
	ok, _ = repo.Valid(ctx, "s4")
	assert.False(t, ok)
	ok, _ = repo.Valid(ctx, "s3")
	assert.False(t, ok, "s3 expired with the clock")

	ok, _ = repo.Valid(ctx, "unknown")
	assert.False(t, ok)
}

func TestRedisSessionRepoKeys(t *testing.T) {
	repo := NewRedisSessionRepo(nil, "")
	assert.Equal(t, "session:id:abc", repo.sessionKey("abc"))
	assert.Equal(t, "session:user:ana", repo.userKey("ana"))
}

func TestRedisSessionRepo(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	repo := NewRedisSessionRepo(rdb, "")

	require.NoError(t, repo.Store(ctx, "s1", "ana", time.Hour))
	require.NoError(t, repo.Store(ctx, "s2", "ana", time.Hour))
	require.NoError(t, repo.Store(ctx, "s3", "bob", 0))
	assert.Equal(t, time.Hour, mr.TTL("session:id:s1"))
	assert.Equal(t, time.Hour, mr.TTL("session:user:ana"))
	assert.Zero(t, mr.TTL("session:id:s3"))

	ok, err := repo.Valid(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Revoke(ctx, "s1"))
	ok, _ = repo.Valid(ctx, "s1")
	assert.False(t, ok)
	members, err := mr.Members("session:user:ana")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, members)
	require.NoError(t, repo.Revoke(ctx, "s1"), "revoking twice is a no-op")

	require.NoError(t, repo.RevokeAllForUser(ctx, "ana"))
	ok, _ = repo.Valid(ctx, "s2")
	assert.False(t, ok)
	assert.False(t, mr.Exists("session:user:ana"))
	ok, _ = repo.Valid(ctx, "s3")
	assert.True(t, ok, "other users keep their sessions")

	require.NoError(t, repo.Store(ctx, "s4", "bob", time.Minute))
	mr.FastForward(2 * time.Minute)
	ok, _ = repo.Valid(ctx, "s4")
	assert.False(t, ok, "expired with the ttl")
	ok, _ = repo.Valid(ctx, "s3")
	assert.True(t, ok)

	mr.SetError("ERR injected failure")
	_, err = repo.Valid(ctx, "s3")
	assert.Error(t, err)
}
