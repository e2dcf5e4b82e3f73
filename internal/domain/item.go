package domain

type ItemStatus string

const (
	ItemStatusDraft    ItemStatus = "draft"
	ItemStatusActive   ItemStatus = "active"
	ItemStatusInactive ItemStatus = "inactive"
	ItemStatusArchived ItemStatus = "archived"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusDraft, ItemStatusActive, ItemStatusInactive, ItemStatusArchived:
		return true
	}
	return false
}

type Location struct {
	Address string   `json:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

type Item struct {
	ID            string         `json:"id"`
	OwnerID       string         `json:"owner_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	PricePerDay   float64        `json:"price_per_day"`
	PricePerWeek  *float64       `json:"price_per_week,omitempty"`
	PricePerMonth *float64       `json:"price_per_month,omitempty"`
	Location      *Location      `json:"location,omitempty"`
	Parameters    map[string]any `json:"parameters,omitempty"`
	Images        []string       `json:"images"`
	Status        ItemStatus     `json:"status"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

// Rentable reports whether the item may receive new rental requests.
func (i Item) Rentable() bool {
	return i.Status == ItemStatusActive
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
