package form

import (
	"encoding/json"
	"strconv"
	"strings"

	"rentoo/internal/catalog"
	"rentoo/internal/domain"
)

// ImageTypes are the content types accepted for item photos.
const ImageTypes = "image/jpeg,image/png,image/webp"

// ItemFields is the add-item form. The category select offers the given
// categories by slug.
func ItemFields(categories []domain.Category) []Field {
	options := make([]Option, 0, len(categories))
	for _, c := range categories {
		options = append(options, Option{Value: c.Slug, Label: c.Name})
	}

	return []Field{
		{Name: "title", Label: "Title", Type: TypeText, Required: true, Min: ptr(1), Max: ptr(200)},
		{Name: "description", Label: "Description", Type: TypeTextarea, Required: true},
		{Name: "category", Label: "Category", Type: TypeSelect, Required: true, Options: options},
		{Name: "price_per_day", Label: "Price per day", Type: TypeNumber, Required: true, Min: ptr(0)},
		{Name: "price_per_week", Label: "Price per week", Type: TypeNumber, Min: ptr(0)},
		{Name: "price_per_month", Label: "Price per month", Type: TypeNumber, Min: ptr(0)},
		{Name: "location_address", Label: "Address", Type: TypeText},
		{Name: "images", Label: "Photos", Type: TypeFile, Accept: ImageTypes, Multiple: true, MaxFiles: 10},
		{Name: "parameters", Label: "Parameters (JSON)", Type: TypeTextarea},
	}
}

// DraftFromValues builds the create payload from validated add-item values.
// The parameters field must hold a JSON object when present.
func DraftFromValues(values map[string]string) (catalog.ItemDraft, Errors) {
	errs := Errors{}
	draft := catalog.ItemDraft{
		Title:       strings.TrimSpace(values["title"]),
		Description: strings.TrimSpace(values["description"]),
		Category:    values["category"],
	}

	if v, ok := parseNumber(values["price_per_day"]); ok {
		draft.PricePerDay = v
	} else {
		errs["price_per_day"] = "Enter a valid number"
	}
	draft.PricePerWeek = optionalNumber(values["price_per_week"], "price_per_week", errs)
	draft.PricePerMonth = optionalNumber(values["price_per_month"], "price_per_month", errs)

	if addr := strings.TrimSpace(values["location_address"]); addr != "" {
		draft.Location = &domain.Location{Address: addr}
	}

	if raw := strings.TrimSpace(values["parameters"]); raw != "" {
		var params map[string]any
		if err := json.Unmarshal([]byte(raw), &params); err != nil || params == nil {
			errs["parameters"] = "Parameters must be a JSON object"
		} else {
			draft.Parameters = params
		}
	}

	return draft, errs
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

// optionalNumber treats empty and zero as absent.
func optionalNumber(s, name string, errs Errors) *float64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	v, ok := parseNumber(s)
	if !ok {
		errs[name] = "Enter a valid number"
		return nil
	}
	if v == 0 {
		return nil
	}
	return &v
}
