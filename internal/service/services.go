package service

import (
	"rentoo/internal/metrics"
	"rentoo/internal/notify"
	"rentoo/internal/repository"
	"rentoo/internal/security"
	"rentoo/internal/storage"
)

// New wires every service over one store.
func New(store *repository.Store, tokens security.TokenManager, images storage.ImageStore, notifier notify.Notifier, m *metrics.Server) *Services {
	return &Services{
		Auth:          NewAuthService(store.Users, tokens),
		Users:         NewUserService(store.Users),
		Categories:    NewCategoryService(store.Categories),
		Items:         NewItemService(store.Items, images),
		Rentals:       NewRentalService(store.Rentals, store.Items, store.Users, store.Notifications, notifier, m),
		Messages:      NewMessageService(store.Messages, store.Rentals, store.Users, store.Notifications),
		Notifications: NewNotificationService(store.Notifications),
	}
}
