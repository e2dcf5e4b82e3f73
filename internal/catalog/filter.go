package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"rentoo/internal/apiclient"
)

const (
	SortByCreatedAt = "created_at"
	SortByPrice     = "price"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Filter is the browse state of the catalog. It round-trips through the
// visible URL query string.
type Filter struct {
	Query     string
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	Location  string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// Search converts the filter into the listing request.
func (f Filter) Search() apiclient.ItemSearch {
	return apiclient.ItemSearch{
		Query:     f.Query,
		Category:  f.Category,
		MinPrice:  f.MinPrice,
		MaxPrice:  f.MaxPrice,
		Location:  f.Location,
		Page:      f.Page,
		Limit:     f.Limit,
		SortBy:    f.SortBy,
		SortOrder: f.SortOrder,
	}
}

// Values encodes the filter with the same keys the API uses.
func (f Filter) Values() url.Values {
	return f.Search().Values()
}

// Path returns the home route carrying the filter.
func (f Filter) Path() string {
	if q := f.Values().Encode(); q != "" {
		return "/?" + q
	}
	return "/"
}

// FilterFromValues parses a query string back into a Filter. Malformed
// numbers and unknown sort values are dropped rather than rejected.
func FilterFromValues(v url.Values) Filter {
	f := Filter{
		Query:    strings.TrimSpace(v.Get("query")),
		Category: v.Get("category"),
		Location: v.Get("location"),
		MinPrice: parseFloat(v.Get("min_price")),
		MaxPrice: parseFloat(v.Get("max_price")),
		Page:     parsePositive(v.Get("page")),
		Limit:    parsePositive(v.Get("limit")),
	}

	switch sortBy := v.Get("sort_by"); sortBy {
	case SortByCreatedAt, SortByPrice:
		f.SortBy = sortBy
	}
	switch order := v.Get("sort_order"); order {
	case SortAsc, SortDesc:
		f.SortOrder = order
	}
	return f
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

func parsePositive(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0
	}
	return n
}
