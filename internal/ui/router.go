// Package ui resolves client routes and renders the client's views as text.
package ui

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"rentoo/internal/logger"
)

const (
	RouteHome     = "/"
	RouteNewItem  = "/items/new"
	RouteItem     = "/items/{id}"
	RouteProfile  = "/profile"
	RouteLogin    = "/login"
	RouteRegister = "/register"
	RouteRentals  = "/rentals"
)

// Page names, as registered on the router.
const (
	PageCatalog  = "catalog"
	PageNewItem  = "new_item"
	PageItem     = "item"
	PageProfile  = "profile"
	PageLogin    = "login"
	PageRegister = "register"
	PageRentals  = "rentals"
)

var protected = map[string]bool{
	PageNewItem: true,
	PageProfile: true,
	PageRentals: true,
}

// Auth is the session state the router gates on.
type Auth interface {
	Ready() <-chan struct{}
	IsAuthenticated() bool
}

// Match is a resolved location.
type Match struct {
	Page  string
	Path  string
	Vars  map[string]string
	Query url.Values
	// Redirect is set when the location must be replaced before rendering.
	Redirect string
}

type Router struct {
	routes *mux.Router
	auth   Auth
}

func NewRouter(auth Auth) *Router {
	r := mux.NewRouter()
	r.Path(RouteHome).Name(PageCatalog)
	// Registered before RouteItem so "new" is not taken as an id.
	r.Path(RouteNewItem).Name(PageNewItem)
	r.Path(RouteItem).Name(PageItem)
	r.Path(RouteProfile).Name(PageProfile)
	r.Path(RouteLogin).Name(PageLogin)
	r.Path(RouteRegister).Name(PageRegister)
	r.Path(RouteRentals).Name(PageRentals)
	return &Router{routes: r, auth: auth}
}

// Resolve matches location. Unknown paths redirect home. Protected pages
// wait for the session to finish initializing, then redirect to the login
// page when nobody is logged in.
func (r *Router) Resolve(ctx context.Context, location string) (Match, error) {
	u, err := url.Parse(location)
	if err != nil || u.Path == "" {
		return Match{Page: PageCatalog, Path: RouteHome, Redirect: RouteHome}, nil
	}

	var rm mux.RouteMatch
	req := &http.Request{Method: http.MethodGet, URL: u}
	if !r.routes.Match(req, &rm) || rm.Route == nil {
		logger.Debug("Unknown route", "location", location)
		return Match{Page: PageCatalog, Path: RouteHome, Redirect: RouteHome}, nil
	}

	m := Match{Page: rm.Route.GetName(), Path: u.Path, Vars: rm.Vars, Query: u.Query()}
	if !protected[m.Page] || r.auth == nil {
		return m, nil
	}

	select {
	case <-r.auth.Ready():
	case <-ctx.Done():
		return Match{}, ctx.Err()
	}
	if !r.auth.IsAuthenticated() {
		return Match{Page: PageLogin, Path: RouteLogin, Redirect: RouteLogin}, nil
	}
	return m, nil
}

// Go navigates to location and follows a redirect by replacing the entry.
func (r *Router) Go(ctx context.Context, h *History, location string) (Match, error) {
	h.Navigate(location)
	m, err := r.Resolve(ctx, location)
	if err != nil {
		return Match{}, err
	}
	if m.Redirect != "" {
		h.Replace(m.Redirect)
	}
	return m, nil
}
