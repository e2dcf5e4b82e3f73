package service

import (
	"context"
	"errors"
	"strings"

	"rentoo/internal/domain"
	"rentoo/internal/repository"
)

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	return user, err
}

// Update changes the caller's own profile only.
func (s *userService) Update(ctx context.Context, actorID, id string, upd UserUpdate) (*domain.User, error) {
	if actorID != id {
		return nil, forbidden("Not enough permissions")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" || len([]rune(name)) > 100 {
			return nil, &ValidationError{Fields: []FieldError{{Field: "name", Msg: "Name must be between 1 and 100 characters"}}}
		}
		user.Name = name
	}
	if upd.AvatarURL != nil {
		user.AvatarURL = *upd.AvatarURL
	}
	if upd.Name == nil && upd.AvatarURL == nil {
		return user, nil
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
