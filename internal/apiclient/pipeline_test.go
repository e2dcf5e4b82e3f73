package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentoo/internal/domain"
	"rentoo/internal/metrics"
)

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

type recordingHandler struct {
	mu        sync.Mutex
	endpoints []string
}

func (r *recordingHandler) HandleUnauthorized(endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints = append(r.endpoints, endpoint)
}

func (r *recordingHandler) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.endpoints...)
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestPipeline_AttachesBearerAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(HeaderRequestID)
		io.WriteString(w, `{"id":"u1","email":"a@b.c","name":"A"}`)
	})
	c.Pipeline.Bind(staticToken("tok-123"), nil)

	user, err := c.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestPipeline_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `[]`)
	})
	c.Pipeline.Bind(staticToken(""), nil)

	_, err := c.Categories.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestPipeline_UnauthorizedPolicy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Could not validate credentials"}`)
	})
	rec := &recordingHandler{}
	c.Pipeline.Bind(staticToken("stale"), rec)

	_, err := c.Items.My(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, []string{"/api/items/my"}, rec.calls())
}

func TestPipeline_LoginUnauthorizedReachesHandler(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Incorrect email or password"}`)
	})
	rec := &recordingHandler{}
	c.Pipeline.Bind(staticToken(""), rec)

	_, err := c.Auth.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "Incorrect email or password", UserMessage(err))
	assert.Equal(t, []string{LoginPath}, rec.calls())
}

func TestPipeline_FieldErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":[{"loc":["body","title"],"msg":"field required"},{"loc":["body","price_per_day"],"msg":"must be greater than 0"}]}`)
	})

	_, err := c.Items.Create(context.Background(), ItemCreate{})
	var fe *FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusUnprocessableEntity, fe.StatusCode)
	assert.Equal(t, map[string]string{
		"title":         "field required",
		"price_per_day": "must be greater than 0",
	}, fe.Fields())
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestPipeline_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)

	_, err = c.Categories.List(context.Background())
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Contains(t, UserMessage(err), "Unable to reach the server")
}

func TestPipeline_Metrics(t *testing.T) {
	m := metrics.NewClient(prometheus.NewRegistry())
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"r1","status":"confirmed"}`)
	}, WithMetrics(m))

	_, err := c.Rentals.Confirm(context.Background(), "abc", true)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("PUT", "/api/rentals/{id}/confirm", "ok")))
}

func TestNewPipeline_RejectsRelativeURL(t *testing.T) {
	_, err := NewPipeline("/api")
	assert.Error(t, err)
}

func TestItemsAPI_ListQuery(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		io.WriteString(w, `[{"_id":"i1","title":"Bicycle","price_per_day":500,"status":"active","images":[]}]`)
	})

	minPrice := 100.0
	items, err := c.Items.List(context.Background(), ItemSearch{Query: "bike", MinPrice: &minPrice, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "i1", items[0].ID)
	assert.Equal(t, domain.ItemStatusActive, items[0].Status)
	assert.Equal(t, "min_price=100&query=bike&sort_by=price&sort_order=asc", gotQuery)
}

func TestItemsAPI_UploadImage(t *testing.T) {
	var gotName, gotType, gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/items/i1/images", r.URL.Path)
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		b, _ := io.ReadAll(file)
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotBody = string(b)
		io.WriteString(w, `{"id":"i1","images":["/uploads/items/x.png"]}`)
	})

	item, err := c.Items.UploadImage(context.Background(), "i1", "bike.png", "image/png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/items/x.png"}, item.Images)
	assert.Equal(t, "bike.png", gotName)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "PNGDATA", gotBody)
}

func TestRentalsAPI_ListRole(t *testing.T) {
	var gotRole string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotRole = r.URL.Query().Get("role")
		io.WriteString(w, `[{"id":7,"item":{"_id":"i9"},"renter_id":3,"owner_id":"o1","status":"pending"}]`)
	})

	rentals, err := c.Rentals.List(context.Background(), domain.RoleOwner)
	require.NoError(t, err)
	require.Len(t, rentals, 1)
	assert.Equal(t, "owner", gotRole)
	assert.Equal(t, "7", rentals[0].ID)
	assert.Equal(t, "i9", rentals[0].ItemID)
	assert.Equal(t, "3", rentals[0].RenterID)
}
