package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentoo/internal/domain"
	"rentoo/internal/metrics"
	"rentoo/internal/notify"
	"rentoo/internal/repository/memory"
	"rentoo/internal/security"
	"rentoo/internal/service"
	"rentoo/internal/storage"
)

type fixture struct {
	t       *testing.T
	handler http.Handler
	metrics *metrics.Server
	reg     *prometheus.Registry
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()
	store := memory.NewStore()
	images, err := storage.NewLocalImageStore(storage.Config{
		Dir:          t.TempDir(),
		URLPrefix:    "/uploads",
		MaxBytes:     1 << 20,
		AllowedTypes: []string{"image/jpeg", "image/png"},
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.NewServer(reg)
	tokens := security.NewTokenManager("a-secret-that-is-at-least-32-chars!!", 30*time.Minute, time.Hour)
	services := service.New(store, tokens, images, notify.LogNotifier{}, m)
	_, err = services.Categories.Seed(context.Background())
	require.NoError(t, err)

	opts := Options{
		Services:     services,
		Metrics:      m,
		Gatherer:     reg,
		UploadDir:    images.Dir(),
		UploadPrefix: images.URLPrefix(),
		Version:      "test",
	}
	if mutate != nil {
		mutate(&opts)
	}
	return &fixture{t: t, handler: NewRouter(opts), metrics: m, reg: reg}
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// signup registers and logs in, returning the access token and user id.
func (f *fixture) signup(email, name string) (string, string) {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": email, "name": name, "password": "secret1"})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
	var res loginResponse
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.AccessToken, res.User.ID
}

func (f *fixture) createItem(token string, body map[string]any) domain.Item {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/api/items", token, body)
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	var item domain.Item
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &item))
	return item
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func bicycle() map[string]any {
	return map[string]any{
		"title": "Bicycle", "description": "City bike", "category": "sports",
		"price_per_day": 500, "location": map[string]any{"address": "Berlin"},
	}
}

func TestAuthEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	token, userID := f.signup("alice@example.com", "Alice")

	rec := f.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[domain.User](t, rec)
	assert.Equal(t, userID, me.ID)
	assert.NotContains(t, rec.Body.String(), "password")

	t.Run("Duplicate email", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "alice@example.com", "name": "A", "password": "secret1"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"detail":"Email already registered"}`, rec.Body.String())
	})

	t.Run("Validation", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "nope", "name": "A", "password": "secret1"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode[struct{ Detail []fieldDetail }](t, rec)
		require.Len(t, body.Detail, 1)
		assert.Equal(t, []string{"body", "email"}, body.Detail[0].Loc)
	})

	t.Run("Wrong password", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"detail":"Incorrect email or password"}`, rec.Body.String())
	})

	t.Run("Malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("Update other user", func(t *testing.T) {
		_, bobID := f.signup("bob@example.com", "Bob")
		rec := f.do(http.MethodPut, "/api/users/"+bobID, token, map[string]string{"name": "Mallory"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"detail":"Not enough permissions"}`, rec.Body.String())
	})
}

func TestAuthMiddleware(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = f.do(http.MethodGet, "/api/rentals", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Could not validate credentials"}`, rec.Body.String())

	// public routes need no token
	for _, path := range []string{"/", "/health", "/api/categories", "/api/items"} {
		rec := f.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = f.do(http.MethodGet, "/api/items", "", nil)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestItemEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	token, ownerID := f.signup("owner@example.com", "Olga")
	otherToken, _ := f.signup("other@example.com", "Oscar")

	item := f.createItem(token, bicycle())
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, ownerID, item.OwnerID)
	assert.Equal(t, domain.ItemStatusActive, item.Status)
	assert.Equal(t, []string{}, item.Images)
	f.createItem(token, map[string]any{"title": "Drill", "description": "Cordless", "category": "tools", "price_per_day": 10})

	rec := f.do(http.MethodGet, "/api/items/"+item.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.Item](t, rec)
	assert.Equal(t, "Bicycle", got.Title)
	assert.Equal(t, "Berlin", got.Location.Address)

	rec = f.do(http.MethodGet, "/api/items/my", token, nil)
	assert.Len(t, decode[[]domain.Item](t, rec), 2)

	t.Run("Search", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/items?query=bike&category=sports", "", nil)
		found := decode[[]domain.Item](t, rec)
		require.Len(t, found, 1)
		assert.Equal(t, item.ID, found[0].ID)

		rec = f.do(http.MethodGet, "/api/items?sort_by=price&sort_order=asc", "", nil)
		found = decode[[]domain.Item](t, rec)
		require.Len(t, found, 2)
		assert.Equal(t, "Drill", found[0].Title)

		rec = f.do(http.MethodGet, "/api/items?min_price=abc", "", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode[struct{ Detail []fieldDetail }](t, rec)
		assert.Equal(t, []string{"query", "min_price"}, body.Detail[0].Loc)
	})

	t.Run("Missing fields", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/items", token, map[string]any{"title": "Tent"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode[struct{ Detail []fieldDetail }](t, rec)
		assert.Len(t, body.Detail, 3)
	})

	t.Run("Update and delete are owner only", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/api/items/"+item.ID, otherToken, map[string]any{"title": "Mine"})
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = f.do(http.MethodPut, "/api/items/"+item.ID, token, map[string]any{"price_per_day": 450})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 450.0, decode[domain.Item](t, rec).PricePerDay)

		rec = f.do(http.MethodDelete, "/api/items/"+item.ID, otherToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = f.do(http.MethodDelete, "/api/items/"+item.ID, token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = f.do(http.MethodGet, "/api/items/"+item.ID, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func uploadRequest(t *testing.T, path, token, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadItemImage(t *testing.T) {
	f := newFixture(t, nil)
	token, _ := f.signup("owner@example.com", "Olga")
	item := f.createItem(token, bicycle())

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, uploadRequest(t, "/api/items/"+item.ID+"/images", token, "bike.PNG", "image/png", []byte("\x89PNG fake")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.Item](t, rec)
	require.Len(t, updated.Images, 1)
	assert.True(t, strings.HasPrefix(updated.Images[0], "/uploads/items/"))
	assert.True(t, strings.HasSuffix(updated.Images[0], ".png"))

	rec = f.do(http.MethodGet, updated.Images[0], "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "\x89PNG fake", rec.Body.String())

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, uploadRequest(t, "/api/items/"+item.ID+"/images", token, "notes.txt", "text/plain", []byte("hi")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Invalid file type or size"}`, rec.Body.String())
}

func TestRentalFlow(t *testing.T) {
	f := newFixture(t, nil)
	ownerToken, ownerID := f.signup("owner@example.com", "Olga")
	renterToken, renterID := f.signup("renter@example.com", "Rick")
	item := f.createItem(ownerToken, bicycle())

	start := time.Now().UTC().AddDate(0, 0, 2).Format(domain.DateLayout)
	end := time.Now().UTC().AddDate(0, 0, 4).Format(domain.DateLayout)

	rec := f.do(http.MethodPost, "/api/rentals", renterToken, map[string]string{"item_id": item.ID, "start_date": start, "end_date": end})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rental := decode[domain.Rental](t, rec)
	assert.Equal(t, 1500.0, rental.TotalPrice)
	assert.Equal(t, domain.RentalStatusPending, rental.Status)
	assert.Equal(t, ownerID, rental.OwnerID)

	rec = f.do(http.MethodPost, "/api/rentals", ownerToken, map[string]string{"item_id": item.ID, "start_date": start, "end_date": end})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Cannot rent your own item"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/rentals?role=owner", ownerToken, nil)
	owned := decode[[]domain.Rental](t, rec)
	require.Len(t, owned, 1)
	require.NotNil(t, owned[0].Item)
	assert.Equal(t, "Bicycle", owned[0].Item.Title)

	rec = f.do(http.MethodGet, "/api/rentals?role=landlord", ownerToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(http.MethodPut, "/api/rentals/"+rental.ID+"/confirm", renterToken, map[string]bool{"confirm": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"detail":"Only owner can confirm rental"}`, rec.Body.String())

	rec = f.do(http.MethodPut, "/api/rentals/"+rental.ID+"/confirm", ownerToken, map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(http.MethodPut, "/api/rentals/"+rental.ID+"/confirm", ownerToken, map[string]bool{"confirm": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.RentalStatusConfirmed, decode[domain.Rental](t, rec).Status)

	rec = f.do(http.MethodGet, "/api/rentals/"+rental.ID, renterToken, nil)
	assert.Equal(t, domain.RentalStatusConfirmed, decode[domain.Rental](t, rec).Status)

	t.Run("Messages", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/messages", renterToken, map[string]string{"rental_id": rental.ID, "receiver_id": ownerID, "content": "When can I pick it up?"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		msg := decode[domain.Message](t, rec)

		rec = f.do(http.MethodGet, "/api/messages/rental/"+rental.ID, ownerToken, nil)
		assert.Len(t, decode[[]domain.Message](t, rec), 1)

		rec = f.do(http.MethodPut, "/api/messages/"+msg.ID+"/read", renterToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = f.do(http.MethodPut, "/api/messages/"+msg.ID+"/read", ownerToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = f.do(http.MethodPost, "/api/messages", renterToken, map[string]string{"rental_id": rental.ID, "receiver_id": renterID, "content": "me"})
		assert.JSONEq(t, `{"detail":"Cannot send message to yourself"}`, rec.Body.String())
	})

	t.Run("Notifications", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/notifications?unread_only=true", renterToken, nil)
		notes := decode[[]domain.Notification](t, rec)
		require.Len(t, notes, 1)
		assert.Equal(t, domain.NotificationRentalConfirmed, notes[0].Type)

		for i := 0; i < 2; i++ {
			rec = f.do(http.MethodPut, "/api/notifications/"+notes[0].ID+"/read", renterToken, nil)
			assert.Equal(t, http.StatusNoContent, rec.Code)
		}
		rec = f.do(http.MethodPut, "/api/notifications/"+notes[0].ID+"/read", ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = f.do(http.MethodGet, "/api/notifications?unread_only=true", renterToken, nil)
		assert.Equal(t, "[]\n", rec.Body.String())
	})

	rec = f.do(http.MethodPut, "/api/rentals/"+rental.ID+"/complete", renterToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.RentalStatusCompleted, decode[domain.Rental](t, rec).Status)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RentalTransitions.WithLabelValues("completed")))
}

type stubLimiter struct {
	decision Decision
	err      error
	keys     []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.keys = append(l.keys, key)
	return l.decision, l.err
}

func TestLoginRateLimit(t *testing.T) {
	limiter := &stubLimiter{decision: Decision{Allowed: false, RetryAfter: 1500 * time.Millisecond}}
	f := newFixture(t, func(o *Options) { o.LoginLimiter = limiter })

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@example.com","password":"x"}`))
	req.RemoteAddr = "10.0.0.7:5123"
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, []string{"ratelimit:login:10.0.0.7"}, limiter.keys)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RateLimited))

	// an unreachable limiter does not lock users out
	limiter.err = errors.New("connection refused")
	rec = f.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@example.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// registration is never limited
	limiter.err = nil
	rec = f.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "a@example.com", "name": "A", "password": "secret1"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestServiceEndpoints(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.Ping = func(context.Context) error { return errors.New("database is down") }
	})

	rec := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = f.do(http.MethodGet, "/", "", nil)
	assert.JSONEq(t, `{"message":"Rentoo API","version":"test"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rentoo_http_requests_total{method="GET",route="/",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/health",status="503"`)
}
