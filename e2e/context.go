package e2e

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	httpapi "rentoo/internal/api/http"
	"rentoo/internal/apiclient"
	"rentoo/internal/app"
	"rentoo/internal/domain"
	"rentoo/internal/metrics"
	"rentoo/internal/notify"
	"rentoo/internal/repository/memory"
	"rentoo/internal/security"
	"rentoo/internal/service"
	"rentoo/internal/session"
	"rentoo/internal/storage"
	"rentoo/internal/ui"
)

const (
	testSecret   = "e2e-secret-that-is-at-least-32-chars"
	testPassword = "s3cret-pass"
)

// TestContext is the world of one scenario: an in-process backend on the
// memory store and one client per named user.
type TestContext struct {
	server    *httptest.Server
	uploadDir string

	clients map[string]*app.App
	tokens  map[string]*session.MemoryTokenStore
	output  map[string]*bytes.Buffer

	items   map[string]domain.Item
	rental  *domain.Rental
	results []domain.Item
	lastErr error
}

func NewTestContext() *TestContext {
	return &TestContext{}
}

// Start boots a fresh backend. Every scenario gets its own store.
func (tc *TestContext) Start(ctx context.Context) error {
	dir, err := os.MkdirTemp("", "rentoo-e2e-*")
	if err != nil {
		return err
	}
	images, err := storage.NewLocalImageStore(storage.Config{
		Dir:          dir,
		URLPrefix:    "/uploads",
		MaxBytes:     1 << 20,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"},
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewServer(reg)
	tokens := security.NewTokenManager(testSecret, 30*time.Minute, time.Hour)
	services := service.New(memory.NewStore(), tokens, images, notify.LogNotifier{}, m)
	if _, err := services.Categories.Seed(ctx); err != nil {
		return err
	}

	tc.server = httptest.NewServer(httpapi.NewRouter(httpapi.Options{
		Services:     services,
		Metrics:      m,
		Gatherer:     reg,
		UploadDir:    images.Dir(),
		UploadPrefix: images.URLPrefix(),
		Version:      "e2e",
	}))
	tc.uploadDir = dir
	tc.clients = make(map[string]*app.App)
	tc.tokens = make(map[string]*session.MemoryTokenStore)
	tc.output = make(map[string]*bytes.Buffer)
	tc.items = make(map[string]domain.Item)
	tc.rental = nil
	tc.results = nil
	tc.lastErr = nil
	return nil
}

func (tc *TestContext) Stop() {
	for _, c := range tc.clients {
		_ = c.Close()
	}
	if tc.server != nil {
		tc.server.Close()
	}
	if tc.uploadDir != "" {
		_ = os.RemoveAll(tc.uploadDir)
	}
}

// Client returns the client of name, starting one on the home page if
// needed.
func (tc *TestContext) Client(ctx context.Context, name string) (*app.App, error) {
	if c, ok := tc.clients[name]; ok {
		return c, nil
	}
	store, ok := tc.tokens[name]
	if !ok {
		store = session.NewMemoryTokenStore()
		tc.tokens[name] = store
	}
	return tc.open(ctx, name, store)
}

// Reload replaces the client of name with a new one over the same token
// store, as a restarted process would.
func (tc *TestContext) Reload(ctx context.Context, name string) (*app.App, error) {
	store, ok := tc.tokens[name]
	if !ok {
		return nil, fmt.Errorf("%s has no client to reload", name)
	}
	delete(tc.clients, name)
	return tc.open(ctx, name, store)
}

func (tc *TestContext) open(ctx context.Context, name string, store *session.MemoryTokenStore) (*app.App, error) {
	c, err := app.New(tc.server.URL, store, ui.RouteHome, apiclient.WithTimeout(5*time.Second))
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	tc.clients[name] = c
	return c, nil
}

func (tc *TestContext) StoredTokens(name string) (session.Tokens, error) {
	store, ok := tc.tokens[name]
	if !ok {
		return session.Tokens{}, nil
	}
	return store.Load()
}

func (tc *TestContext) Email(name string) string {
	return strings.ToLower(name) + "@example.com"
}

func (tc *TestContext) Password() string {
	return testPassword
}

// Output is what the client of name rendered last.
func (tc *TestContext) Output(name string) *bytes.Buffer {
	buf, ok := tc.output[name]
	if !ok {
		buf = &bytes.Buffer{}
		tc.output[name] = buf
	}
	return buf
}

func (tc *TestContext) SetItem(title string, item domain.Item) {
	tc.items[title] = item
}

func (tc *TestContext) Item(title string) (domain.Item, error) {
	item, ok := tc.items[title]
	if !ok {
		return domain.Item{}, fmt.Errorf("no item %q in this scenario", title)
	}
	return item, nil
}

func (tc *TestContext) SetRental(r *domain.Rental) {
	tc.rental = r
}

func (tc *TestContext) Rental() (*domain.Rental, error) {
	if tc.rental == nil {
		return nil, fmt.Errorf("no rental requested in this scenario")
	}
	return tc.rental, nil
}

func (tc *TestContext) SetResults(items []domain.Item) {
	tc.results = items
}

func (tc *TestContext) Results() []domain.Item {
	return tc.results
}

func (tc *TestContext) SetError(err error) {
	tc.lastErr = err
}

func (tc *TestContext) LastError() error {
	return tc.lastErr
}
