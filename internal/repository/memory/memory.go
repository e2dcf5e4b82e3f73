// Package memory keeps every record in process memory. It backs dev mode,
// handler tests and the end-to-end suite.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentoo/internal/domain"
	"rentoo/internal/repository"
)

// db is shared by the repositories of one Store.
type db struct {
	mu            sync.RWMutex
	seq           int64
	users         map[string]record[domain.User]
	categories    map[string]record[domain.Category]
	items         map[string]record[domain.Item]
	rentals       map[string]record[domain.Rental]
	messages      map[string]record[domain.Message]
	notifications map[string]record[domain.Notification]
	clock         func() time.Time
}

// record remembers insertion order so listings are stable within one second.
type record[T any] struct {
	seq int64
	v   T
}

// NewStore returns an empty in-memory store.
func NewStore() *repository.Store {
	return newStore(time.Now)
}

func newStore(clock func() time.Time) *repository.Store {
	d := &db{
		users:         map[string]record[domain.User]{},
		categories:    map[string]record[domain.Category]{},
		items:         map[string]record[domain.Item]{},
		rentals:       map[string]record[domain.Rental]{},
		messages:      map[string]record[domain.Message]{},
		notifications: map[string]record[domain.Notification]{},
		clock:         clock,
	}
	return &repository.Store{
		Users:         &userRepository{d},
		Categories:    &categoryRepository{d},
		Items:         &itemRepository{d},
		Rentals:       &rentalRepository{d},
		Messages:      &messageRepository{d},
		Notifications: &notificationRepository{d},
		Ping:          func(context.Context) error { return nil },
	}
}

func (d *db) now() string {
	return d.clock().UTC().Format(time.RFC3339)
}

func (d *db) next() int64 {
	d.seq++
	return d.seq
}

// newestFirst sorts records by descending insertion order.
func newestFirst[T any](rs []record[T]) []T {
	sort.Slice(rs, func(i, j int) bool { return rs[i].seq > rs[j].seq })
	out := make([]T, len(rs))
	for i, r := range rs {
		out[i] = r.v
	}
	return out
}

func oldestFirst[T any](rs []record[T]) []T {
	sort.Slice(rs, func(i, j int) bool { return rs[i].seq < rs[j].seq })
	out := make([]T, len(rs))
	for i, r := range rs {
		out[i] = r.v
	}
	return out
}

type userRepository struct{ d *db }

func (r *userRepository) Create(_ context.Context, u *domain.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = r.d.now()
	u.UpdatedAt = u.CreatedAt
	r.d.users[u.ID] = record[domain.User]{seq: r.d.next(), v: *u}
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	rec, ok := r.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := rec.v
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	for _, rec := range r.d.users {
		if strings.EqualFold(rec.v.Email, email) {
			u := rec.v
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) Update(_ context.Context, u *domain.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	rec, ok := r.d.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	rec.v.Name = u.Name
	rec.v.AvatarURL = u.AvatarURL
	rec.v.UpdatedAt = r.d.now()
	r.d.users[u.ID] = rec
	*u = rec.v
	return nil
}

type categoryRepository struct{ d *db }

func (r *categoryRepository) Create(_ context.Context, c *domain.Category) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = r.d.now()
	c.UpdatedAt = c.CreatedAt
	r.d.categories[c.Slug] = record[domain.Category]{seq: r.d.next(), v: *c}
	return nil
}

func (r *categoryRepository) GetBySlug(_ context.Context, slug string) (*domain.Category, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	rec, ok := r.d.categories[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := rec.v
	return &c, nil
}

func (r *categoryRepository) List(_ context.Context) ([]domain.Category, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	out := make([]domain.Category, 0, len(r.d.categories))
	for _, rec := range r.d.categories {
		out = append(out, rec.v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
