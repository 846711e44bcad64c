package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/groovemind/internal/database"
	"github.com/iliyamo/groovemind/internal/model"
	"github.com/iliyamo/groovemind/internal/utils"
)

// userNamespace seeds the name-based ids of user documents, so one username
// always maps to the same primary key.
var userNamespace = uuid.MustParse("6f1c8a52-3b9e-4d57-9a40-2c7e0d1b8f63")

type UserRepo struct {
	docs *database.Collection[model.User]
	cost int
}

func NewUserRepo(db *sqlx.DB, cost int) *UserRepo {
	return &UserRepo{docs: database.NewCollection[model.User](db, database.UsersTable), cost: cost}
}

func userID(username string) string {
	return uuid.NewSHA1(userNamespace, []byte(username)).String()
}

// Create hashes password and stores the user.  An empty role is stored as
// organiser.  A username that already resolves yields ErrUsernameTaken; the
// name-based id makes the store reject a concurrent duplicate as well.
func (r *UserRepo) Create(ctx context.Context, username, password, role string) (model.User, error) {
	username = strings.TrimSpace(username)
	if role == "" {
		role = model.RoleOrganiser
	}
	hash, err := utils.HashPassword(password, r.cost)
	if err != nil {
		return model.User{}, &StoreError{Op: "hash password", Err: err}
	}
	u := model.User{ID: userID(username), Username: username, PasswordHash: hash, Role: role}
	if _, err := r.docs.Insert(ctx, u.ID, u); err != nil {
		if isDuplicateKey(err) {
			return model.User{}, ErrUsernameTaken
		}
		return model.User{}, wrap("create user", err)
	}
	return u, nil
}

// Lookup returns the user with exactly this username or ErrUserNotFound.
func (r *UserRepo) Lookup(ctx context.Context, username string) (model.User, error) {
	doc, err := r.docs.FindOne(ctx, userID(username))
	if errors.Is(err, database.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, wrap("lookup user", err)
	}
	u := doc.Data
	u.ID = doc.ID
	return u, nil
}

// Delete removes the user by exact username and returns the count removed.
func (r *UserRepo) Delete(ctx context.Context, username string) (int, error) {
	n, err := r.docs.Remove(ctx, userID(username))
	return n, wrap("delete user", err)
}

// List returns every user in creation order.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	docs, err := r.docs.Find(ctx, nil)
	if err != nil {
		return nil, wrap("list users", err)
	}
	out := make([]model.User, 0, len(docs))
	for _, d := range docs {
		u := d.Data
		u.ID = d.ID
		out = append(out, u)
	}
	return out, nil
}

// EnsureOrganiser creates an organiser account unless the username already
// exists.  It reports whether an account was created.
func (r *UserRepo) EnsureOrganiser(ctx context.Context, username, password string) (bool, error) {
	_, err := r.Lookup(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return false, err
	}
	if _, err := r.Create(ctx, username, password, model.RoleOrganiser); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// isDuplicateKey recognises primary key violations from both engines:
// MySQL error 1062 and SQLite's UNIQUE constraint failure.
func isDuplicateKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "primary key")
}
