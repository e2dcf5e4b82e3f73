package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"

	"rentoo/internal/domain"
	"rentoo/internal/repository"
)

type itemRepository struct{ d *db }

func (r *itemRepository) Create(_ context.Context, it *domain.Item) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.Images == nil {
		it.Images = []string{}
	}
	it.CreatedAt = r.d.now()
	it.UpdatedAt = it.CreatedAt
	r.d.items[it.ID] = record[domain.Item]{seq: r.d.next(), v: cloneItem(*it)}
	return nil
}

func (r *itemRepository) GetByID(_ context.Context, id string) (*domain.Item, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	rec, ok := r.d.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	it := cloneItem(rec.v)
	return &it, nil
}

func (r *itemRepository) Update(_ context.Context, it *domain.Item) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	rec, ok := r.d.items[it.ID]
	if !ok {
		return repository.ErrNotFound
	}
	it.OwnerID = rec.v.OwnerID
	it.CreatedAt = rec.v.CreatedAt
	it.UpdatedAt = r.d.now()
	rec.v = cloneItem(*it)
	r.d.items[it.ID] = rec
	return nil
}

func (r *itemRepository) Delete(_ context.Context, id string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.d.items, id)
	// rentals of a deleted item go with it, as with ON DELETE CASCADE
	for rid, rec := range r.d.rentals {
		if rec.v.ItemID == id {
			delete(r.d.rentals, rid)
		}
	}
	return nil
}

func (r *itemRepository) ListByOwner(_ context.Context, ownerID string) ([]domain.Item, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var rs []record[domain.Item]
	for _, rec := range r.d.items {
		if rec.v.OwnerID == ownerID {
			rs = append(rs, record[domain.Item]{seq: rec.seq, v: cloneItem(rec.v)})
		}
	}
	return newestFirst(rs), nil
}

func (r *itemRepository) Search(_ context.Context, s repository.ItemSearch) ([]domain.Item, error) {
	r.d.mu.RLock()
	var rs []record[domain.Item]
	for _, rec := range r.d.items {
		if matches(rec.v, s) {
			rs = append(rs, record[domain.Item]{seq: rec.seq, v: cloneItem(rec.v)})
		}
	}
	r.d.mu.RUnlock()

	asc := s.SortOrder == "asc"
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if s.SortBy == "price" && a.v.PricePerDay != b.v.PricePerDay {
			if asc {
				return a.v.PricePerDay < b.v.PricePerDay
			}
			return a.v.PricePerDay > b.v.PricePerDay
		}
		if asc {
			return a.seq < b.seq
		}
		return a.seq > b.seq
	})

	items := make([]domain.Item, 0, len(rs))
	for _, rec := range rs {
		items = append(items, rec.v)
	}

	page, limit := s.Page, s.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return items, nil
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []domain.Item{}, nil
	}
	return items[start:min(start+limit, len(items))], nil
}

func matches(it domain.Item, s repository.ItemSearch) bool {
	if it.Status != domain.ItemStatusActive {
		return false
	}
	if s.Query != "" && !containsFold(it.Title, s.Query) && !containsFold(it.Description, s.Query) {
		return false
	}
	if s.Category != "" && it.Category != s.Category {
		return false
	}
	if s.MinPrice != nil && it.PricePerDay < *s.MinPrice {
		return false
	}
	if s.MaxPrice != nil && it.PricePerDay > *s.MaxPrice {
		return false
	}
	if s.Location != "" && (it.Location == nil || !containsFold(it.Location.Address, s.Location)) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func cloneItem(it domain.Item) domain.Item {
	it.Images = slices.Clone(it.Images)
	if it.Images == nil {
		it.Images = []string{}
	}
	if it.Location != nil {
		loc := *it.Location
		it.Location = &loc
	}
	if it.PricePerWeek != nil {
		v := *it.PricePerWeek
		it.PricePerWeek = &v
	}
	if it.PricePerMonth != nil {
		v := *it.PricePerMonth
		it.PricePerMonth = &v
	}
	it.Parameters = maps.Clone(it.Parameters)
	return it
}
