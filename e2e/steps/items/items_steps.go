package items

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cucumber/godog"

	"rentoo/internal/apiclient"
	"rentoo/internal/app"
	"rentoo/internal/catalog"
	"rentoo/internal/domain"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Client(ctx context.Context, name string) (*app.App, error)
	SetItem(title string, item domain.Item)
	Item(title string) (domain.Item, error)
	SetResults(items []domain.Item)
	Results() []domain.Item
	SetError(err error)
}

// RegisterSteps registers catalog step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &itemSteps{tc: tc}

	ctx.Step(`^"([^"]*)" lists an item "([^"]*)" in "([^"]*)" for (\d+(?:\.\d+)?) per day$`, steps.listItem)
	ctx.Step(`^"([^"]*)" lists the items:$`, steps.listItems)
	ctx.Step(`^"([^"]*)" deactivates the item "([^"]*)"$`, steps.deactivate)
	ctx.Step(`^"([^"]*)" deletes the item "([^"]*)"$`, steps.deleteItem)
	ctx.Step(`^"([^"]*)" browses the catalog with "([^"]*)"$`, steps.browse)

	ctx.Step(`^"([^"]*)" sees the item "([^"]*)" with the fields it was listed with$`, steps.sameFields)
	ctx.Step(`^the item "([^"]*)" no longer exists for "([^"]*)"$`, steps.gone)
	ctx.Step(`^the results are "([^"]*)"$`, steps.resultsAre)
	ctx.Step(`^there are no results$`, steps.noResults)
}

type itemSteps struct {
	tc TestContext
}

func (s *itemSteps) listItem(ctx context.Context, name, title, category, price string) error {
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return err
	}
	result, errs, err := c.AddItem(ctx, map[string]string{
		"title":         title,
		"description":   "A " + strings.ToLower(title) + " for rent",
		"category":      category,
		"price_per_day": price,
	}, nil)
	if !errs.Empty() {
		return fmt.Errorf("item form rejected: %v", errs)
	}
	if err != nil {
		return err
	}
	s.tc.SetItem(title, *result.Item)
	return nil
}

func (s *itemSteps) listItems(ctx context.Context, name string, table *godog.Table) error {
	if len(table.Rows) < 2 {
		return errors.New("expected a header row and at least one item")
	}
	header := make(map[string]int, len(table.Rows[0].Cells))
	for i, cell := range table.Rows[0].Cells {
		header[cell.Value] = i
	}
	for _, col := range []string{"title", "category", "price"} {
		if _, ok := header[col]; !ok {
			return fmt.Errorf("missing column %q", col)
		}
	}

	for _, row := range table.Rows[1:] {
		cell := func(col string) string { return row.Cells[header[col]].Value }
		if err := s.listItem(ctx, name, cell("title"), cell("category"), cell("price")); err != nil {
			return err
		}
	}
	return nil
}

func (s *itemSteps) deactivate(ctx context.Context, name, title string) error {
	c, item, err := s.clientAndItem(ctx, name, title)
	if err != nil {
		return err
	}
	status := domain.ItemStatusInactive
	updated, err := c.Catalog.UpdateItem(ctx, item.ID, apiclient.ItemUpdate{Status: &status})
	if err != nil {
		return err
	}
	s.tc.SetItem(title, *updated)
	return nil
}

func (s *itemSteps) deleteItem(ctx context.Context, name, title string) error {
	c, item, err := s.clientAndItem(ctx, name, title)
	if err != nil {
		return err
	}
	return c.Catalog.Delete(ctx, item.ID)
}

// browse runs the catalog filter given as a query string, e.g.
// "category=sports&sort_by=price".
func (s *itemSteps) browse(ctx context.Context, name, query string) error {
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return err
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return err
	}
	found, err := c.Catalog.Browse(ctx, catalog.FilterFromValues(values))
	s.tc.SetError(err)
	if err != nil {
		return err
	}
	s.tc.SetResults(found)
	return nil
}

func (s *itemSteps) sameFields(ctx context.Context, name, title string) error {
	c, listed, err := s.clientAndItem(ctx, name, title)
	if err != nil {
		return err
	}
	if listed.ID == "" {
		return errors.New("listed item has no id")
	}
	got, err := c.Catalog.Item(ctx, listed.ID)
	if err != nil {
		return err
	}

	switch {
	case got.ID != listed.ID:
		return fmt.Errorf("id: want %s, got %s", listed.ID, got.ID)
	case got.Title != listed.Title:
		return fmt.Errorf("title: want %s, got %s", listed.Title, got.Title)
	case got.Description != listed.Description:
		return fmt.Errorf("description: want %s, got %s", listed.Description, got.Description)
	case got.Category != listed.Category:
		return fmt.Errorf("category: want %s, got %s", listed.Category, got.Category)
	case got.PricePerDay != listed.PricePerDay:
		return fmt.Errorf("price_per_day: want %v, got %v", listed.PricePerDay, got.PricePerDay)
	case got.OwnerID != listed.OwnerID:
		return fmt.Errorf("owner_id: want %s, got %s", listed.OwnerID, got.OwnerID)
	case got.Status != domain.ItemStatusActive:
		return fmt.Errorf("status: want active, got %s", got.Status)
	}
	return nil
}

func (s *itemSteps) gone(ctx context.Context, title, name string) error {
	c, item, err := s.clientAndItem(ctx, name, title)
	if err != nil {
		return err
	}
	_, err = c.Catalog.Item(ctx, item.ID)
	if apiclient.StatusCode(err) != http.StatusNotFound {
		return fmt.Errorf("expected 404 for deleted item, got %v", err)
	}
	return nil
}

func (s *itemSteps) resultsAre(_ context.Context, titles string) error {
	want := strings.Split(titles, ",")
	for i := range want {
		want[i] = strings.TrimSpace(want[i])
	}
	got := make([]string, 0, len(s.tc.Results()))
	for _, item := range s.tc.Results() {
		got = append(got, item.Title)
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected results %v, got %v", want, got)
	}
	return nil
}

func (s *itemSteps) noResults(context.Context) error {
	if n := len(s.tc.Results()); n != 0 {
		return fmt.Errorf("expected no results, got %d", n)
	}
	return nil
}

func (s *itemSteps) clientAndItem(ctx context.Context, name, title string) (*app.App, domain.Item, error) {
	item, err := s.tc.Item(title)
	if err != nil {
		return nil, domain.Item{}, err
	}
	c, err := s.tc.Client(ctx, name)
	if err != nil {
		return nil, domain.Item{}, err
	}
	return c, item, nil
}
