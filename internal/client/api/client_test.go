package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/netx"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Read(context.Context) (string, bool, error) {
	return s.token, s.token != "", s.err
}

// fakeAPI records the last request it saw.
type fakeAPI struct {
	lastAuth        string
	lastIdempotency string
	lastQuery       string
	lastBody        map[string]any
}

func (f *fakeAPI) router() http.Handler {
	r := mux.NewRouter()
	record := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			f.lastAuth = req.Header.Get("Authorization")
			f.lastIdempotency = req.Header.Get("Idempotency-Key")
			f.lastQuery = req.URL.RawQuery
			f.lastBody = nil
			_ = json.NewDecoder(req.Body).Decode(&f.lastBody)
			next(w, req)
		}
	}

	r.HandleFunc("/v1/auth/signin", record(func(w http.ResponseWriter, _ *http.Request) {
		if f.lastBody["password"] != "secret" {
			netx.WriteJSON(w, http.StatusUnauthorized, netx.ErrorBody{Message: "invalid username or password"})
			return
		}
		netx.WriteJSON(w, http.StatusOK, map[string]any{"token": "tok-1", "role": "USER", "expiresAt": "2026-10-17T13:00:00Z"})
	})).Methods(http.MethodPost)
	r.HandleFunc("/v1/auth/signup", record(func(w http.ResponseWriter, _ *http.Request) {
		netx.WriteJSON(w, http.StatusConflict, netx.ErrorBody{Error: "username already exists"})
	})).Methods(http.MethodPost)
	r.HandleFunc("/v1/products", record(func(w http.ResponseWriter, _ *http.Request) {
		netx.WriteJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "name": "mug", "price": "12.50", "stock": 4},
			{"id": 2, "name": "lamp", "price": 30, "stock": 0},
		})
	})).Methods(http.MethodGet)
	r.HandleFunc("/v1/products/{id}", record(func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["id"] != "1" {
			netx.WriteJSON(w, http.StatusNotFound, netx.ErrorBody{Message: "product not found"})
			return
		}
		netx.WriteJSON(w, http.StatusOK, map[string]any{"id": 1, "name": "mug", "price": "12.50", "stock": 4})
	})).Methods(http.MethodGet)
	r.HandleFunc("/v1/orders", record(func(w http.ResponseWriter, _ *http.Request) {
		netx.WriteJSON(w, http.StatusCreated, map[string]any{"id": 77, "status": "PENDING", "total": "25.00"})
	})).Methods(http.MethodPost)
	r.HandleFunc("/v1/orders", record(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})).Methods(http.MethodGet)
	return r
}

func newTestClient(t *testing.T, tokens TokenSource) (*Client, *fakeAPI) {
	t.Helper()
	f := &fakeAPI{}
	ts := httptest.NewServer(f.router())
	t.Cleanup(ts.Close)

	opts := []Option{WithHTTPClient(ts.Client())}
	if tokens != nil {
		opts = append(opts, WithTokens(tokens))
	}
	c, err := New(ts.URL+"/v1/", 5*time.Second, logging.Nop(), opts...)
	require.NoError(t, err)
	return c, f
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "://nope"} {
		_, err := New(raw, time.Second, logging.Nop())
		assert.Error(t, err, raw)
	}
}

func TestSignIn(t *testing.T) {
	c, f := newTestClient(t, nil)

	res, err := c.SignIn(context.Background(), "alice", []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.Token)
	assert.Equal(t, "USER", res.Role)
	require.NotNil(t, res.ExpiresAt)
	assert.True(t, res.ExpiresAt.Equal(time.Date(2026, 10, 17, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, "alice", f.lastBody["username"])
	assert.Empty(t, f.lastAuth)
}

func TestSignIn_BadCredentialsKeepServerMessage(t *testing.T) {
	c, _ := newTestClient(t, nil)

	_, err := c.SignIn(context.Background(), "alice", []byte("wrong"))
	require.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid username or password")
}

func TestSignUp_Conflict(t *testing.T) {
	c, f := newTestClient(t, nil)

	_, err := c.SignUp(context.Background(), "alice", "a@example.com", []byte("pw"))
	require.ErrorIs(t, err, common.ErrConflict)
	assert.Contains(t, err.Error(), "username already exists")
	assert.Equal(t, "a@example.com", f.lastBody["email"])
}

func TestListProducts(t *testing.T) {
	c, f := newTestClient(t, staticTokens{token: "tok-1"})

	products, err := c.ListProducts(context.Background(), ProductFilter{Category: "kitchen", Query: "mug"})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "mug", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("12.5")))
	assert.False(t, products[1].InStock())

	assert.Equal(t, "Bearer tok-1", f.lastAuth)
	assert.Equal(t, "category=kitchen&q=mug", f.lastQuery)
}

func TestGetProduct(t *testing.T) {
	c, _ := newTestClient(t, nil)

	p, err := c.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Stock)

	_, err = c.GetProduct(context.Background(), 2)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateOrder_SendsIdempotencyKey(t *testing.T) {
	c, f := newTestClient(t, staticTokens{token: "tok-1"})

	o, err := c.CreateOrder(context.Background(), models.OrderRequest{
		IdempotencyKey: "k-1",
		Items:          []models.OrderItem{{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")}},
		Total:          decimal.RequireFromString("25.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), o.ID)
	assert.Equal(t, "k-1", f.lastIdempotency)
	assert.Equal(t, "k-1", f.lastBody["idempotencyKey"])
}

func TestListOrders_ServerError(t *testing.T) {
	c, _ := newTestClient(t, staticTokens{token: "tok-1"})

	_, err := c.ListOrders(context.Background())
	require.ErrorIs(t, err, common.ErrUnavailable)
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := New(url, time.Second, logging.Nop())
	require.NoError(t, err)

	_, err = c.ListProducts(context.Background(), ProductFilter{})
	require.ErrorIs(t, err, common.ErrUnavailable)
}

func TestTokenReadFailureStopsRequest(t *testing.T) {
	c, f := newTestClient(t, staticTokens{err: assert.AnError})

	_, err := c.ListProducts(context.Background(), ProductFilter{})
	require.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, f.lastQuery)
	assert.Nil(t, f.lastBody)
}
