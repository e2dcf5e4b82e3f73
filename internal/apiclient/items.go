package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"rentoo/internal/domain"
)

// ItemSearch is the query of GET /api/items. Zero values are omitted.
type ItemSearch struct {
	Query     string
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	Location  string
	Page      int
	Limit     int
	SortBy    string // "created_at" or "price"
	SortOrder string // "asc" or "desc"
}

// Values encodes the search with the backend's parameter names.
func (s ItemSearch) Values() url.Values {
	v := url.Values{}
	if s.Query != "" {
		v.Set("query", s.Query)
	}
	if s.Category != "" {
		v.Set("category", s.Category)
	}
	if s.MinPrice != nil {
		v.Set("min_price", strconv.FormatFloat(*s.MinPrice, 'f', -1, 64))
	}
	if s.MaxPrice != nil {
		v.Set("max_price", strconv.FormatFloat(*s.MaxPrice, 'f', -1, 64))
	}
	if s.Location != "" {
		v.Set("location", s.Location)
	}
	if s.Page > 0 {
		v.Set("page", strconv.Itoa(s.Page))
	}
	if s.Limit > 0 {
		v.Set("limit", strconv.Itoa(s.Limit))
	}
	if s.SortBy != "" {
		v.Set("sort_by", s.SortBy)
	}
	if s.SortOrder != "" {
		v.Set("sort_order", s.SortOrder)
	}
	return v
}

type ItemCreate struct {
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	PricePerDay   float64          `json:"price_per_day"`
	PricePerWeek  *float64         `json:"price_per_week,omitempty"`
	PricePerMonth *float64         `json:"price_per_month,omitempty"`
	Location      *domain.Location `json:"location,omitempty"`
	Parameters    map[string]any   `json:"parameters,omitempty"`
	Images        []string         `json:"images,omitempty"`
}

// ItemUpdate is a partial ItemCreate; nil fields are left unchanged.
type ItemUpdate struct {
	Title         *string            `json:"title,omitempty"`
	Description   *string            `json:"description,omitempty"`
	Category      *string            `json:"category,omitempty"`
	PricePerDay   *float64           `json:"price_per_day,omitempty"`
	PricePerWeek  *float64           `json:"price_per_week,omitempty"`
	PricePerMonth *float64           `json:"price_per_month,omitempty"`
	Location      *domain.Location   `json:"location,omitempty"`
	Parameters    map[string]any     `json:"parameters,omitempty"`
	Images        []string           `json:"images,omitempty"`
	Status        *domain.ItemStatus `json:"status,omitempty"`
}

// ItemsAPI covers /api/items.
type ItemsAPI struct {
	p *Pipeline
}

func (i *ItemsAPI) List(ctx context.Context, search ItemSearch) ([]domain.Item, error) {
	resp, err := i.p.Do(ctx, Request{Method: http.MethodGet, Path: "/api/items", Query: search.Values()})
	if err != nil {
		return nil, err
	}
	return decodeItems(resp.Body)
}

func (i *ItemsAPI) Get(ctx context.Context, id string) (*domain.Item, error) {
	resp, err := i.p.Do(ctx, Request{Method: http.MethodGet, Path: "/api/items/" + id})
	if err != nil {
		return nil, err
	}
	return decodeItem(resp.Body)
}

// My lists the items owned by the current user, whatever their status.
func (i *ItemsAPI) My(ctx context.Context) ([]domain.Item, error) {
	resp, err := i.p.Do(ctx, Request{Method: http.MethodGet, Path: "/api/items/my"})
	if err != nil {
		return nil, err
	}
	return decodeItems(resp.Body)
}

func (i *ItemsAPI) Create(ctx context.Context, req ItemCreate) (*domain.Item, error) {
	resp, err := i.p.Do(ctx, Request{Method: http.MethodPost, Path: "/api/items", Body: req})
	if err != nil {
		return nil, err
	}
	return decodeItem(resp.Body)
}

func (i *ItemsAPI) Update(ctx context.Context, id string, req ItemUpdate) (*domain.Item, error) {
	resp, err := i.p.Do(ctx, Request{Method: http.MethodPut, Path: "/api/items/" + id, Body: req})
	if err != nil {
		return nil, err
	}
	return decodeItem(resp.Body)
}

func (i *ItemsAPI) Delete(ctx context.Context, id string) error {
	_, err := i.p.Do(ctx, Request{Method: http.MethodDelete, Path: "/api/items/" + id})
	return err
}

// UploadImage sends one image as the multipart field "file" and returns the
// item with the new image appended.
func (i *ItemsAPI) UploadImage(ctx context.Context, itemID, filename, contentType string, r io.Reader) (*domain.Item, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read image %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	resp, err := i.p.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        "/api/items/" + itemID + "/images",
		RawBody:     &buf,
		ContentType: mw.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	return decodeItem(resp.Body)
}

func decodeItem(body []byte) (*domain.Item, error) {
	var item domain.Item
	if err := decodeEntity(body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func decodeItems(body []byte) ([]domain.Item, error) {
	var items []domain.Item
	if err := decodeEntities(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}
