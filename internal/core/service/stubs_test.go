package service

import (
	"context"
	"sort"
	"strings"

	"github.com/entityhub/entity-manager/internal/core/domain"
)

type stubUserRepo struct {
	users map[string]*domain.User
	err   error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

type stubEntityRepo struct {
	entities map[string]domain.Entity
}

func newStubEntityRepo() *stubEntityRepo {
	return &stubEntityRepo{entities: make(map[string]domain.Entity)}
}

func (r *stubEntityRepo) List(_ context.Context, userID string, f domain.EntityFilter) ([]domain.Entity, error) {
	out := []domain.Entity{}
	for _, e := range r.entities {
		if e.UserID != userID {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.Priority != "" && e.Priority != f.Priority {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			desc := ""
			if e.Description != nil {
				desc = *e.Description
			}
			if !strings.Contains(strings.ToLower(e.Title), q) && !strings.Contains(strings.ToLower(desc), q) {
				continue
			}
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubEntityRepo) FindByID(_ context.Context, userID, id string) (*domain.Entity, error) {
	e, ok := r.entities[id]
	if !ok || e.UserID != userID {
		return nil, domain.ErrEntityNotFound
	}
	return &e, nil
}

func (r *stubEntityRepo) Create(_ context.Context, e *domain.Entity) error {
	r.entities[e.ID] = *e
	return nil
}

func (r *stubEntityRepo) Update(_ context.Context, e *domain.Entity) error {
	cur, ok := r.entities[e.ID]
	if !ok || cur.UserID != e.UserID {
		return domain.ErrEntityNotFound
	}
	r.entities[e.ID] = *e
	return nil
}

func (r *stubEntityRepo) Delete(_ context.Context, userID, id string) error {
	e, ok := r.entities[id]
	if !ok || e.UserID != userID {
		return domain.ErrEntityNotFound
	}
	delete(r.entities, id)
	return nil
}

func (r *stubEntityRepo) CountByUser(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, e := range r.entities {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}
