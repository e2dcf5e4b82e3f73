package apiclient

import (
	"context"
	"net/http"

	"rentoo/internal/domain"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	User         *domain.User `json:"user"`
}

// AuthAPI covers /api/auth.
type AuthAPI struct {
	p *Pipeline
}

func (a *AuthAPI) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	resp, err := a.p.Do(ctx, Request{Method: http.MethodPost, Path: "/api/auth/register", Body: req})
	if err != nil {
		return nil, err
	}
	var user domain.User
	if err := decodeEntity(resp.Body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *AuthAPI) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	resp, err := a.p.Do(ctx, Request{Method: http.MethodPost, Path: LoginPath, Body: req})
	if err != nil {
		return nil, err
	}
	var out LoginResponse
	// the envelope itself has no id; decodeEntity normalizes the embedded user
	if err := decodeEntity(resp.Body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the user the current bearer token belongs to.
func (a *AuthAPI) Me(ctx context.Context) (*domain.User, error) {
	resp, err := a.p.Do(ctx, Request{Method: http.MethodGet, Path: "/api/auth/me"})
	if err != nil {
		return nil, err
	}
	var user domain.User
	if err := decodeEntity(resp.Body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type UserUpdate struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// UsersAPI covers /api/users.
type UsersAPI struct {
	p *Pipeline
}

func (u *UsersAPI) Get(ctx context.Context, id string) (*domain.User, error) {
	resp, err := u.p.Do(ctx, Request{Method: http.MethodGet, Path: "/api/users/" + id})
	if err != nil {
		return nil, err
	}
	var user domain.User
	if err := decodeEntity(resp.Body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UsersAPI) Update(ctx context.Context, id string, req UserUpdate) (*domain.User, error) {
	resp, err := u.p.Do(ctx, Request{Method: http.MethodPut, Path: "/api/users/" + id, Body: req})
	if err != nil {
		return nil, err
	}
	var user domain.User
	if err := decodeEntity(resp.Body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CategoriesAPI covers /api/categories.
type CategoriesAPI struct {
	p *Pipeline
}

func (c *CategoriesAPI) List(ctx context.Context) ([]domain.Category, error) {
	resp, err := c.p.Do(ctx, Request{Method: http.MethodGet, Path: "/api/categories"})
	if err != nil {
		return nil, err
	}
	var out []domain.Category
	if err := decodeEntities(resp.Body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
