package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"rentoo/internal/domain"
)

type RentalCreate struct {
	ItemID    string `json:"item_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// RentalsAPI covers /api/rentals.
type RentalsAPI struct {
	p *Pipeline
}

// List returns rentals where the current user holds role. An empty role means all.
func (r *RentalsAPI) List(ctx context.Context, role domain.Role) ([]domain.Rental, error) {
	var query url.Values
	if role != "" {
		query = url.Values{"role": {string(role)}}
	}
	resp, err := r.p.Do(ctx, Request{Method: http.MethodGet, Path: "/api/rentals", Query: query})
	if err != nil {
		return nil, err
	}
	var out []domain.Rental
	if err := decodeEntities(resp.Body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RentalsAPI) Get(ctx context.Context, id string) (*domain.Rental, error) {
	resp, err := r.p.Do(ctx, Request{Method: http.MethodGet, Path: "/api/rentals/" + id})
	if err != nil {
		return nil, err
	}
	return decodeRental(resp.Body)
}

func (r *RentalsAPI) Create(ctx context.Context, req RentalCreate) (*domain.Rental, error) {
	resp, err := r.p.Do(ctx, Request{Method: http.MethodPost, Path: "/api/rentals", Body: req})
	if err != nil {
		return nil, err
	}
	return decodeRental(resp.Body)
}

// Confirm accepts (confirm=true) or rejects a pending rental.
func (r *RentalsAPI) Confirm(ctx context.Context, id string, confirm bool) (*domain.Rental, error) {
	body := struct {
		Confirm bool `json:"confirm"`
	}{confirm}
	resp, err := r.p.Do(ctx, Request{Method: http.MethodPut, Path: "/api/rentals/" + id + "/confirm", Body: body})
	if err != nil {
		return nil, err
	}
	return decodeRental(resp.Body)
}

func (r *RentalsAPI) Complete(ctx context.Context, id string) (*domain.Rental, error) {
	resp, err := r.p.Do(ctx, Request{Method: http.MethodPut, Path: "/api/rentals/" + id + "/complete"})
	if err != nil {
		return nil, err
	}
	return decodeRental(resp.Body)
}

func decodeRental(body []byte) (*domain.Rental, error) {
	var rental domain.Rental
	if err := decodeEntity(body, &rental); err != nil {
		return nil, err
	}
	return &rental, nil
}
