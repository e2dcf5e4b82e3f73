// Package apiclient is the REST client of the Rentoo API. Every call goes
// through one Pipeline, which attaches the bearer token, applies the global
// 401 policy and normalizes entity identifiers.
package apiclient

// Client groups the resource APIs over a shared Pipeline.
type Client struct {
	Pipeline      *Pipeline
	Auth          *AuthAPI
	Users         *UsersAPI
	Categories    *CategoriesAPI
	Items         *ItemsAPI
	Rentals       *RentalsAPI
	Messages      *MessagesAPI
	Notifications *NotificationsAPI
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	p, err := NewPipeline(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithPipeline(p), nil
}

func NewWithPipeline(p *Pipeline) *Client {
	return &Client{
		Pipeline:      p,
		Auth:          &AuthAPI{p: p},
		Users:         &UsersAPI{p: p},
		Categories:    &CategoriesAPI{p: p},
		Items:         &ItemsAPI{p: p},
		Rentals:       &RentalsAPI{p: p},
		Messages:      &MessagesAPI{p: p},
		Notifications: &NotificationsAPI{p: p},
	}
}
