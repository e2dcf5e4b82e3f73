package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentoo/internal/domain"
	"rentoo/internal/repository"
	"rentoo/internal/storage"
)

func TestItemService_Create(t *testing.T) {
	ctx := context.Background()
	items := new(MockItemRepo)
	svc := NewItemService(items, new(MockImageStore))

	items.On("Create", ctx, mock.MatchedBy(func(it *domain.Item) bool {
		return it.OwnerID == "owner" && it.Status == domain.ItemStatusActive
	})).Run(func(args mock.Arguments) { args.Get(1).(*domain.Item).ID = "i1" }).Return(nil)

	item, err := svc.Create(ctx, "owner", ItemInput{
		Title: "Drill", Description: "Cordless", Category: "tools", PricePerDay: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "i1", item.ID)
	items.AssertExpectations(t)
}

func TestItemService_CreateValidation(t *testing.T) {
	svc := NewItemService(new(MockItemRepo), new(MockImageStore))
	week := -1.0

	_, err := svc.Create(context.Background(), "owner", ItemInput{
		Title: strings.Repeat("x", 201), PricePerDay: 0, PricePerWeek: &week, Status: "sold",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	got := map[string]bool{}
	for _, f := range verr.Fields {
		got[f.Field] = true
	}
	for _, field := range []string{"title", "description", "category", "price_per_day", "price_per_week", "status"} {
		assert.True(t, got[field], field)
	}
}

func TestItemService_SearchDefaults(t *testing.T) {
	ctx := context.Background()
	items := new(MockItemRepo)
	svc := NewItemService(items, nil)

	items.On("Search", ctx, repository.ItemSearch{
		Query: "drill", SortBy: "created_at", SortOrder: "desc", Page: 1, Limit: 20,
	}).Return([]domain.Item{{ID: "i1"}}, nil)

	found, err := svc.Search(ctx, repository.ItemSearch{Query: "drill"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	tests := []struct {
		name  string
		query repository.ItemSearch
		field string
	}{
		{"negative page", repository.ItemSearch{Page: -1}, "page"},
		{"huge limit", repository.ItemSearch{Limit: 101}, "limit"},
		{"bad sort", repository.ItemSearch{SortBy: "title"}, "sort_by"},
		{"bad order", repository.ItemSearch{SortOrder: "up"}, "sort_order"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(ctx, tt.query)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
}

func TestItemService_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	items := new(MockItemRepo)
	svc := NewItemService(items, new(MockImageStore))
	items.On("GetByID", ctx, "i1").Return(&domain.Item{ID: "i1", OwnerID: "owner"}, nil)

	title := "Hacked"
	_, err := svc.Update(ctx, "stranger", "i1", ItemPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Item not found or not authorized")

	err = svc.Delete(ctx, "stranger", "i1")
	assert.ErrorIs(t, err, ErrNotFound)
	items.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestItemService_DeleteRemovesImages(t *testing.T) {
	ctx := context.Background()
	items := new(MockItemRepo)
	images := new(MockImageStore)
	svc := NewItemService(items, images)

	items.On("GetByID", ctx, "i1").Return(&domain.Item{ID: "i1", OwnerID: "owner", Images: []string{"/uploads/items/a.jpg", "/uploads/items/b.jpg"}}, nil)
	items.On("Delete", ctx, "i1").Return(nil)
	images.On("Delete", ctx, "/uploads/items/a.jpg").Return(errors.New("gone"))
	images.On("Delete", ctx, "/uploads/items/b.jpg").Return(nil)

	require.NoError(t, svc.Delete(ctx, "owner", "i1"))
	images.AssertExpectations(t)
}

func TestItemService_AddImage(t *testing.T) {
	ctx := context.Background()

	t.Run("Stored", func(t *testing.T) {
		items := new(MockItemRepo)
		images := new(MockImageStore)
		svc := NewItemService(items, images)
		items.On("GetByID", ctx, "i1").Return(&domain.Item{ID: "i1", OwnerID: "owner"}, nil)
		images.On("Save", ctx, "items", "drill.png", "image/png", mock.Anything).Return("/uploads/items/x.png", nil)
		items.On("Update", ctx, mock.MatchedBy(func(it *domain.Item) bool {
			return len(it.Images) == 1 && it.Images[0] == "/uploads/items/x.png"
		})).Return(nil)

		item, err := svc.AddImage(ctx, "owner", "i1", "drill.png", "image/png", strings.NewReader("png"))
		require.NoError(t, err)
		assert.Equal(t, []string{"/uploads/items/x.png"}, item.Images)
	})

	t.Run("Rejected type", func(t *testing.T) {
		items := new(MockItemRepo)
		images := new(MockImageStore)
		svc := NewItemService(items, images)
		items.On("GetByID", ctx, "i1").Return(&domain.Item{ID: "i1", OwnerID: "owner"}, nil)
		images.On("Save", ctx, "items", "notes.txt", "text/plain", mock.Anything).Return("", storage.ErrInvalidType)

		_, err := svc.AddImage(ctx, "owner", "i1", "notes.txt", "text/plain", strings.NewReader("hi"))
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.EqualError(t, err, "Invalid file type or size")
		items.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
