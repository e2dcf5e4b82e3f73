// Package catalog browses, creates and removes item listings.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"rentoo/internal/apiclient"
	"rentoo/internal/domain"
	"rentoo/internal/logger"
)

// ErrSuperseded is returned by Browse when a newer Browse started before
// this one's response arrived. The result must not be shown.
var ErrSuperseded = errors.New("browse superseded by a newer request")

// ItemDraft is the payload of a new listing.
type ItemDraft = apiclient.ItemCreate

// ItemsClient is the slice of the items API the catalog uses.
type ItemsClient interface {
	List(ctx context.Context, search apiclient.ItemSearch) ([]domain.Item, error)
	Get(ctx context.Context, id string) (*domain.Item, error)
	My(ctx context.Context) ([]domain.Item, error)
	Create(ctx context.Context, req apiclient.ItemCreate) (*domain.Item, error)
	Update(ctx context.Context, id string, req apiclient.ItemUpdate) (*domain.Item, error)
	Delete(ctx context.Context, id string) error
	UploadImage(ctx context.Context, itemID, filename, contentType string, r io.Reader) (*domain.Item, error)
}

// CategoriesClient lists categories.
type CategoriesClient interface {
	List(ctx context.Context) ([]domain.Category, error)
}

// URLUpdater replaces the visible location without adding history.
type URLUpdater interface {
	Replace(path string)
}

// ImageFile is one image queued for upload with a new item.
type ImageFile struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// CreateResult is the outcome of CreateItem. Warnings lists images that
// failed to upload; the item exists regardless.
type CreateResult struct {
	Item     *domain.Item
	Route    string
	Warnings []string
}

// Catalog is the client for item listings.
type Catalog struct {
	items      ItemsClient
	categories CategoriesClient
	location   URLUpdater

	generation atomic.Uint64
}

func New(items ItemsClient, categories CategoriesClient, location URLUpdater) *Catalog {
	return &Catalog{items: items, categories: categories, location: location}
}

// Browse fetches the listing for f. Every call hits the API; there is no
// cache. The visible URL is updated to carry f.
func (c *Catalog) Browse(ctx context.Context, f Filter) ([]domain.Item, error) {
	token := c.generation.Add(1)
	if c.location != nil {
		c.location.Replace(f.Path())
	}

	items, err := c.items.List(ctx, f.Search())
	if c.generation.Load() != token {
		logger.Debug("Dropping stale catalog response", "generation", token)
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Catalog) Item(ctx context.Context, id string) (*domain.Item, error) {
	return c.items.Get(ctx, id)
}

// MyItems lists the current user's items in every status.
func (c *Catalog) MyItems(ctx context.Context) ([]domain.Item, error) {
	return c.items.My(ctx)
}

func (c *Catalog) Categories(ctx context.Context) ([]domain.Category, error) {
	return c.categories.List(ctx)
}

func (c *Catalog) UpdateItem(ctx context.Context, id string, update apiclient.ItemUpdate) (*domain.Item, error) {
	return c.items.Update(ctx, id, update)
}

func (c *Catalog) Delete(ctx context.Context, id string) error {
	if err := c.items.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("Item deleted", "item_id", id)
	return nil
}

// CreateItem creates the listing, then uploads images one at a time in
// order. The first failed upload stops the sequence and is reported as a
// warning together with the images it left out; the item is kept as created.
func (c *Catalog) CreateItem(ctx context.Context, draft ItemDraft, images []ImageFile) (*CreateResult, error) {
	item, err := c.items.Create(ctx, draft)
	if err != nil {
		return nil, err
	}
	logger.Info("Item created", "item_id", item.ID, "images_queued", len(images))

	result := &CreateResult{Item: item, Route: ItemRoute(item.ID)}
	for i, img := range images {
		updated, err := c.upload(ctx, item.ID, img)
		if err != nil {
			logger.Warn("Image upload failed", "item_id", item.ID, "file", img.Name, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", img.Name, apiclient.UserMessage(err)))
			for _, skipped := range images[i+1:] {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: not uploaded", skipped.Name))
			}
			break
		}
		result.Item = updated
	}
	return result, nil
}

func (c *Catalog) upload(ctx context.Context, itemID string, img ImageFile) (*domain.Item, error) {
	if img.Open == nil {
		return nil, errors.New("no image data")
	}
	r, err := img.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return c.items.UploadImage(ctx, itemID, img.Name, img.ContentType, r)
}

// ItemRoute is the client route of an item's detail view.
func ItemRoute(id string) string {
	return "/items/" + id
}
