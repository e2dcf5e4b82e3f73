package http

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"rentoo/internal/domain"
	"rentoo/internal/repository"
	"rentoo/internal/service"
)

type itemRequest struct {
	Title         *string            `json:"title"`
	Description   *string            `json:"description"`
	Category      *string            `json:"category"`
	PricePerDay   *float64           `json:"price_per_day"`
	PricePerWeek  *float64           `json:"price_per_week"`
	PricePerMonth *float64           `json:"price_per_month"`
	Location      *domain.Location   `json:"location"`
	Parameters    map[string]any     `json:"parameters"`
	Images        []string           `json:"images"`
	Status        *domain.ItemStatus `json:"status"`
}

// create converts the body of POST /api/items, reporting absent required fields.
func (req itemRequest) create() (service.ItemInput, error) {
	var verr service.ValidationError
	in := service.ItemInput{
		PricePerWeek:  req.PricePerWeek,
		PricePerMonth: req.PricePerMonth,
		Location:      req.Location,
		Parameters:    req.Parameters,
		Images:        req.Images,
	}
	if req.Title == nil {
		verr.Add("title", "Field required")
	} else {
		in.Title = *req.Title
	}
	if req.Description == nil {
		verr.Add("description", "Field required")
	} else {
		in.Description = *req.Description
	}
	if req.Category == nil {
		verr.Add("category", "Field required")
	} else {
		in.Category = *req.Category
	}
	if req.PricePerDay == nil {
		verr.Add("price_per_day", "Field required")
	} else {
		in.PricePerDay = *req.PricePerDay
	}
	if req.Status != nil {
		in.Status = *req.Status
	}
	return in, verr.Err()
}

func (req itemRequest) patch() service.ItemPatch {
	return service.ItemPatch{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		PricePerDay:   req.PricePerDay,
		PricePerWeek:  req.PricePerWeek,
		PricePerMonth: req.PricePerMonth,
		Location:      req.Location,
		Parameters:    req.Parameters,
		Images:        req.Images,
		Status:        req.Status,
	}
}

// itemOut fills the fields clients expect to always be present.
func itemOut(item *domain.Item) *domain.Item {
	if item != nil && item.Images == nil {
		item.Images = []string{}
	}
	return item
}

func itemsOut(items []domain.Item) []domain.Item {
	for i := range items {
		itemOut(&items[i])
	}
	return orEmpty(items)
}

func parseItemSearch(q url.Values) (repository.ItemSearch, error) {
	var verr service.ValidationError
	s := repository.ItemSearch{
		Query:     q.Get("query"),
		Category:  q.Get("category"),
		Location:  q.Get("location"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	parsePrice := func(name string) *float64 {
		raw := q.Get(name)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			verr.Add(name, "Input should be a valid number")
			return nil
		}
		if v < 0 {
			verr.Add(name, "Input should be greater than or equal to 0")
		}
		return &v
	}
	parseInt := func(name string) int {
		raw := q.Get(name)
		if raw == "" {
			return 0
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add(name, "Input should be a valid integer")
			return 0
		}
		if v < 1 {
			// zero would otherwise fall back to the default
			verr.Add(name, "Input should be greater than or equal to 1")
		}
		return v
	}
	s.MinPrice = parsePrice("min_price")
	s.MaxPrice = parsePrice("max_price")
	s.Page = parseInt("page")
	s.Limit = parseInt("limit")
	return s, verr.Err()
}

func (h *Handler) SearchItems(w http.ResponseWriter, r *http.Request) {
	search, err := parseItemSearch(r.URL.Query())
	if err == nil {
		var items []domain.Item
		items, err = h.services.Items.Search(r.Context(), search)
		if err == nil {
			writeJSON(w, http.StatusOK, itemsOut(items))
			return
		}
	}
	writeErrorIn(w, r, err, "query")
}

func (h *Handler) MyItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.services.Items.ListMine(r.Context(), currentUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsOut(items))
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.services.Items.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemOut(item))
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.create()
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.services.Items.Create(r.Context(), currentUserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemOut(item))
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := h.services.Items.Update(r.Context(), currentUserID(r.Context()), mux.Vars(r)["id"], req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemOut(item))
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.services.Items.Delete(r.Context(), currentUserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
