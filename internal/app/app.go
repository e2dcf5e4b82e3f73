// Package app assembles the client: one request pipeline, one session store
// and the feature clients on top of them, plus page loading for the router.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"rentoo/internal/apiclient"
	"rentoo/internal/catalog"
	"rentoo/internal/domain"
	"rentoo/internal/form"
	"rentoo/internal/inbox"
	"rentoo/internal/logger"
	"rentoo/internal/rental"
	"rentoo/internal/session"
	"rentoo/internal/ui"
)

// ErrStale is returned by Open when a newer navigation made the page
// obsolete before its data arrived. Nothing was rendered.
var ErrStale = errors.New("page superseded by a newer navigation")

type App struct {
	API     *apiclient.Client
	Session *session.Store
	Catalog *catalog.Catalog
	Rentals *rental.Controller
	Inbox   *inbox.Inbox
	History *ui.History
	Router  *ui.Router

	guard ui.Guard
}

// New wires a client for the API at baseURL. start is the initial location.
func New(baseURL string, tokens session.TokenStore, start string, opts ...apiclient.Option) (*App, error) {
	api, err := apiclient.New(baseURL, opts...)
	if err != nil {
		return nil, err
	}

	a := &App{API: api, History: ui.NewHistory(start)}
	a.Session = session.New(tokens, api.Auth, a.History)
	api.Pipeline.Bind(a.Session, a.Session)

	a.Catalog = catalog.New(api.Items, api.Categories, a.History)
	a.Rentals = rental.NewController(api.Rentals, a.Session)
	a.Inbox = inbox.New(api.Messages, api.Notifications, a.Session)
	a.Router = ui.NewRouter(a.Session)
	a.History.OnChange(func(string) { a.guard.Invalidate() })
	return a, nil
}

func (a *App) Init(ctx context.Context) error {
	return a.Session.Init(ctx)
}

func (a *App) Close() error {
	return a.Session.Close()
}

// Open navigates to location and renders the resolved page to w.
func (a *App) Open(ctx context.Context, location string, w io.Writer) (ui.Match, error) {
	m, err := a.Router.Go(ctx, a.History, location)
	if err != nil {
		return m, err
	}
	token := a.guard.Begin()

	render, err := a.load(ctx, m)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return m, err
		}
		if errors.Is(err, catalog.ErrSuperseded) || !a.guard.Active(token) {
			return m, ErrStale
		}
		return m, err
	}
	if !a.guard.Active(token) {
		logger.Debug("Dropping stale page", "location", location)
		return m, ErrStale
	}
	return m, render(w)
}

type renderFunc func(w io.Writer) error

func (a *App) load(ctx context.Context, m ui.Match) (renderFunc, error) {
	viewer := a.Session.CurrentUser()
	if viewer == nil && (m.Page == ui.PageProfile || m.Page == ui.PageRentals) {
		return nil, rental.ErrNotLoggedIn
	}

	switch m.Page {
	case ui.PageCatalog:
		f := catalog.FilterFromValues(m.Query)
		items, err := a.Catalog.Browse(ctx, f)
		if err != nil {
			return nil, err
		}
		return func(w io.Writer) error { return ui.RenderCatalog(w, items, f) }, nil

	case ui.PageItem:
		item, err := a.Catalog.Item(ctx, m.Vars["id"])
		if err != nil {
			return nil, err
		}
		return func(w io.Writer) error { return ui.RenderItem(w, *item, viewer) }, nil

	case ui.PageNewItem:
		categories, err := a.Catalog.Categories(ctx)
		if err != nil {
			return nil, err
		}
		return func(w io.Writer) error { return renderFields(w, form.ItemFields(categories)) }, nil

	case ui.PageProfile:
		var items []domain.Item
		var unread int
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			items, err = a.Catalog.MyItems(gctx)
			return err
		})
		g.Go(func() (err error) {
			unread, err = a.Inbox.UnreadCount(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return func(w io.Writer) error {
			if err := ui.RenderProfile(w, *viewer, items); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "\nUnread notifications: %d\n", unread)
			return err
		}, nil

	case ui.PageRentals:
		role := domain.Role(m.Query.Get("role"))
		if role == "" {
			role = domain.RoleAll
		}
		rentals, err := a.Rentals.List(ctx, role)
		if err != nil {
			return nil, err
		}
		return func(w io.Writer) error { return ui.RenderRentals(w, rentals, viewer.ID, role) }, nil

	case ui.PageLogin:
		return func(w io.Writer) error {
			_, err := fmt.Fprintln(w, "Log in with: rentoo login -email <email> -password <password>")
			return err
		}, nil

	case ui.PageRegister:
		return func(w io.Writer) error {
			_, err := fmt.Fprintln(w, "Create an account with: rentoo register -email <email> -name <name> -password <password>")
			return err
		}, nil
	}
	return nil, fmt.Errorf("no view for page %q", m.Page)
}

func renderFields(w io.Writer, fields []form.Field) error {
	fmt.Fprintln(w, "New item")
	for _, f := range fields {
		req := ""
		if f.Required {
			req = " (required)"
		}
		fmt.Fprintf(w, "  -%s  %s%s\n", f.Name, f.Label, req)
		for _, opt := range f.Options {
			fmt.Fprintf(w, "      %s  %s\n", opt.Value, opt.Label)
		}
	}
	return nil
}

// AddItem validates the add-item form, creates the item, uploads its images
// and navigates to the new item. Validation failures are returned as
// form.Errors without any request being made.
func (a *App) AddItem(ctx context.Context, values map[string]string, imagePaths []string) (*catalog.CreateResult, form.Errors, error) {
	categories, err := a.Catalog.Categories(ctx)
	if err != nil {
		return nil, nil, err
	}
	fields := form.ItemFields(categories)

	images := make([]catalog.ImageFile, 0, len(imagePaths))
	files := make([]form.File, 0, len(imagePaths))
	for _, p := range imagePaths {
		img := LocalImage(p)
		images = append(images, img)
		files = append(files, form.File{Name: img.Name, ContentType: img.ContentType})
	}

	errs := form.Validate(fields, form.Submission{Values: values, Files: map[string][]form.File{"images": files}})
	if !errs.Empty() {
		return nil, errs, nil
	}
	draft, errs := form.DraftFromValues(values)
	if !errs.Empty() {
		return nil, errs, nil
	}

	result, err := a.Catalog.CreateItem(ctx, draft, images)
	if err != nil {
		return nil, form.FromAPI(err), err
	}
	a.History.Navigate(result.Route)
	return result, nil, nil
}

// LocalImage describes a file on disk for upload. The content type is
// guessed from the extension.
func LocalImage(path string) catalog.ImageFile {
	return catalog.ImageFile{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}
}
