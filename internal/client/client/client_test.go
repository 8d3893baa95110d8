package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/client/apitest"
	"github.com/dmitrijs2005/shopkeeper/internal/client/models"
	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, baseURL string) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(baseURL, WithTimeout(2*time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func loggedIn(t *testing.T, srv *apitest.Server) *HTTPClient {
	t.Helper()
	srv.AddUser("alice", "alice@example.com", "secret1")
	c := newClient(t, srv.URL)
	resp, err := c.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	c.SetToken(resp.Token)
	return c
}

func TestNewHTTPClient_InvalidURL(t *testing.T) {
	_, err := NewHTTPClient("ftp://example.com")
	require.Error(t, err)

	_, err = NewHTTPClient("://nope")
	require.Error(t, err)
}

func TestTokenCell(t *testing.T) {
	c := newClient(t, "http://127.0.0.1:1")
	assert.Empty(t, c.Token())

	c.SetToken("abc")
	assert.Equal(t, "abc", c.Token())

	c.ClearToken()
	assert.Empty(t, c.Token())
}

func TestLogin_ReturnsTokenAndUser(t *testing.T) {
	srv := apitest.New(t)
	u := srv.AddUser("alice", "alice@example.com", "secret1")
	c := newClient(t, srv.URL)

	resp, err := c.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, u, resp.User)
	assert.Empty(t, c.Token(), "Login must not set the transport credential by itself")
}

func TestLogin_InvalidCredentials_DoesNotTriggerUnauthorizedHook(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("alice", "alice@example.com", "secret1")
	c := newClient(t, srv.URL)
	c.SetToken("stale")

	called := false
	c.OnUnauthorized(func(string) { called = true })

	_, err := c.Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, ErrAuth)
	assert.False(t, called, "login is sent without credential")
}

func TestRegister_ValidationFieldsSurface(t *testing.T) {
	srv := apitest.New(t)
	c := newClient(t, srv.URL)

	_, err := c.Register(context.Background(), "al", "nope", "123")
	require.ErrorIs(t, err, ErrValidation)

	fields := FieldErrors(err)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestRegister_ThenMe(t *testing.T) {
	srv := apitest.New(t)
	c := newClient(t, srv.URL)

	resp, err := c.Register(context.Background(), "bob", "bob@example.com", "secret1")
	require.NoError(t, err)

	c.SetToken(resp.Token)
	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, resp.User, *me)
}

func TestMe_WithoutToken_AuthError(t *testing.T) {
	srv := apitest.New(t)
	c := newClient(t, srv.URL)

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, ErrAuth)
}

func TestMe_MalformedResponse_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	t.Cleanup(ts.Close)

	c := newClient(t, ts.URL)
	c.SetToken("t")

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, ErrServer)
}

func TestUnreachableServer_NetworkError(t *testing.T) {
	srv := apitest.New(t)
	c := newClient(t, srv.URL)
	srv.Close()

	_, err := c.Login(context.Background(), "alice", "secret1")
	require.ErrorIs(t, err, ErrNetwork)
}

func TestUnauthorizedHook_ReceivesRejectedToken(t *testing.T) {
	srv := apitest.New(t)
	c := loggedIn(t, srv)
	token := c.Token()
	srv.Revoke(token)

	var (
		mu  sync.Mutex
		got string
	)
	c.OnUnauthorized(func(tok string) {
		mu.Lock()
		got = tok
		mu.Unlock()
	})

	_, err := c.ListProducts(context.Background(), models.ListParams{})
	require.ErrorIs(t, err, ErrAuth)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, token, got)
}

func TestRequestHeaders(t *testing.T) {
	var captured http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)

	c := newClient(t, ts.URL)
	c.SetToken("tok-123")

	require.NoError(t, c.DeleteProduct(context.Background(), 7))

	assert.Equal(t, "Bearer tok-123", captured.Get(common.AuthorizationHeaderName))
	_, err := uuid.Parse(captured.Get(common.RequestIDHeaderName))
	assert.NoError(t, err, "request id must be a uuid")
}

func TestProductCRUD(t *testing.T) {
	srv := apitest.New(t)
	c := loggedIn(t, srv)
	ctx := context.Background()

	created, err := c.CreateProduct(ctx, models.CreateProductRequest{Name: "Lamp", Description: "desk lamp", Price: 19.5, Stock: 3})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := c.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)

	updated, err := c.UpdateProduct(ctx, created.ID, models.UpdateProductRequest{Price: models.Ptr(9.99)})
	require.NoError(t, err)
	assert.Equal(t, 9.99, updated.Price)
	assert.Equal(t, "Lamp", updated.Name)
	assert.Equal(t, 3, updated.Stock)

	require.NoError(t, c.DeleteProduct(ctx, created.ID))
	err = c.DeleteProduct(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetProduct(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProduct_ServerValidation(t *testing.T) {
	srv := apitest.New(t)
	c := loggedIn(t, srv)

	_, err := c.CreateProduct(context.Background(), models.CreateProductRequest{Name: "", Price: -1})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, FieldErrors(err), "price")
}

func TestListProducts_PagesDoNotOverlap(t *testing.T) {
	srv := apitest.New(t)
	c := loggedIn(t, srv)
	srv.SeedProducts(25)
	ctx := context.Background()

	p1, err := c.ListProducts(ctx, models.ListParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	p2, err := c.ListProducts(ctx, models.ListParams{Page: 2, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 25, p1.Total)
	assert.Equal(t, 3, p1.TotalPages)
	assert.Len(t, p1.Items, 10)

	seen := map[int64]bool{}
	for _, p := range p1.Items {
		seen[p.ID] = true
	}
	for _, p := range p2.Items {
		assert.False(t, seen[p.ID], "id %d appears on both pages", p.ID)
	}
}

func TestListProducts_DefaultsAndSearch(t *testing.T) {
	srv := apitest.New(t)
	c := loggedIn(t, srv)
	srv.SeedProducts(12)
	srv.AddProduct(models.CreateProductRequest{Name: "Blue Widget", Description: "x"})
	srv.AddProduct(models.CreateProductRequest{Name: "Gadget", Description: "a WIDGET accessory"})
	ctx := context.Background()

	all, err := c.ListProducts(ctx, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, all.Page)
	assert.Equal(t, 10, all.Limit)
	assert.Len(t, all.Items, 10)

	found, err := c.ListProducts(ctx, models.ListParams{Search: "widget"})
	require.NoError(t, err)
	assert.Equal(t, 2, found.Total)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "Blue Widget", found.Items[0].Name)
	assert.Equal(t, "Gadget", found.Items[1].Name)
}

func TestListProducts_AcceptsLegacyShape(t *testing.T) {
	var query string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"data":[{"id":3,"name":"c"},{"id":1,"name":"a"}],"meta":{"total":12,"page":2,"limit":5,"total_page":3}}`))
	}))
	t.Cleanup(ts.Close)

	c := newClient(t, ts.URL)
	page, err := c.ListProducts(context.Background(), models.ListParams{Page: 2, Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, "limit=5&page=2", query)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(1), page.Items[0].ID, "items are ordered by id")
}

func TestListProducts_DerivesTotalPages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products":[],"meta":{"total":21}}`))
	}))
	t.Cleanup(ts.Close)

	c := newClient(t, ts.URL)
	page, err := c.ListProducts(context.Background(), models.ListParams{Search: "x"})
	require.NoError(t, err)

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 3, page.TotalPages)
	assert.NotNil(t, page.Items)
}

func TestServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database down"}`))
	}))
	t.Cleanup(ts.Close)

	c := newClient(t, ts.URL)
	_, err := c.GetProduct(context.Background(), 1)
	require.ErrorIs(t, err, ErrServer)
	assert.Contains(t, err.Error(), "database down")
}
