// Package repositorytest provides in-memory repositories for service and
// handler tests. They mimic the Postgres implementations' error contract.
package repositorytest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"otaku_hub/internal/common"
	"otaku_hub/internal/domain/model"
)

type UserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*model.User

	// Injected failures, returned before touching the maps.
	FindErr   error
	CreateErr error

	Calls int
}

func NewUserRepo() *UserRepo {
	return &UserRepo{byEmail: map[string]*model.User{}}
}

func (r *UserRepo) Create(_ context.Context, _ *sql.Tx, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.CreateErr != nil {
		return r.CreateErr
	}
	if _, ok := r.byEmail[user.Email]; ok {
		return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	r.byEmail[user.Email] = &cp
	return nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type ProfileRepo struct {
	mu       sync.Mutex
	byUserID map[string]*model.Profile

	FindErr   error
	UpsertErr error
	CreateErr error

	Calls int
}

func NewProfileRepo() *ProfileRepo {
	return &ProfileRepo{byUserID: map[string]*model.Profile{}}
}

func (r *ProfileRepo) Create(_ context.Context, _ *sql.Tx, p *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.CreateErr != nil {
		return r.CreateErr
	}
	if _, ok := r.byUserID[p.UserID]; ok {
		return fmt.Errorf("profile for user already exists: %w", common.ErrConflict)
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	r.byUserID[p.UserID] = clone(p)
	return nil
}

func (r *ProfileRepo) FindByUserID(_ context.Context, userID string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	p, ok := r.byUserID[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(p), nil
}

func (r *ProfileRepo) Upsert(_ context.Context, p *model.Profile) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.UpsertErr != nil {
		return nil, r.UpsertErr
	}
	now := time.Now().UTC()
	stored := clone(p)
	if existing, ok := r.byUserID[p.UserID]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	r.byUserID[p.UserID] = stored
	return clone(stored), nil
}

// Delete removes a profile out of band, as an operator would.
func (r *ProfileRepo) Delete(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUserID, userID)
}

func clone(p *model.Profile) *model.Profile {
	cp := *p
	cp.FavoriteGenres = append([]string{}, p.FavoriteGenres...)
	return &cp
}
