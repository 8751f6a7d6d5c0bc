// Package api is the REST client for the remote storefront API: sign-in and
// sign-up, the product catalog and orders.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/netx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const idempotencyKeyHeader = "Idempotency-Key"

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Read(ctx context.Context) (token string, ok bool, err error)
}

type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	log    logging.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokens attaches the stored bearer token to every request.
func WithTokens(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func New(baseURL string, timeout time.Duration, log logging.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		base: u,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return "api " + r.Method + " " + r.URL.Path
				})),
			Timeout: timeout,
		},
		log: log.With("component", "api"),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends a JSON request and decodes a JSON response into out, if out is
// not nil. Transport failures unwrap to common.ErrUnavailable.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, header http.Header) error {
	req, err := netx.NewJSONRequest(ctx, method, c.endpoint(path, query), in)
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if c.tokens != nil {
		token, ok, err := c.tokens.Read(ctx)
		if err != nil {
			return err
		}
		if ok {
			req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.log.Warn(ctx, "api request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %s %s: %v", common.ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if err := netx.CheckResponse(resp); err != nil {
		c.log.Debug(ctx, "api error response", "method", method, "path", path, "status", resp.StatusCode)
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges credentials for a token.
func (c *Client) SignIn(ctx context.Context, username string, password []byte) (*models.AuthResult, error) {
	var res models.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/signin", nil, signInRequest{Username: username, Password: string(password)}, &res, nil); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) SignUp(ctx context.Context, username, email string, password []byte) (*models.AuthResult, error) {
	var res models.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/signup", nil, signUpRequest{Username: username, Email: email, Password: string(password)}, &res, nil); err != nil {
		return nil, err
	}
	return &res, nil
}

// ProductFilter narrows ListProducts. Zero values are not sent.
type ProductFilter struct {
	Category string
	Query    string
}

func (f ProductFilter) values() url.Values {
	v := url.Values{}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	return v
}

func (c *Client) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, "/products", f.values(), nil, &products, nil); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+strconv.FormatInt(id, 10), nil, nil, &p, nil); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateOrder submits an order. The idempotency key is sent both in the body
// and as the Idempotency-Key header.
func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	h := http.Header{}
	if req.IdempotencyKey != "" {
		h.Set(idempotencyKeyHeader, req.IdempotencyKey)
	}
	var o models.Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, req, &o, h); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders returns the signed-in user's orders.
func (c *Client) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, nil, &orders, nil); err != nil {
		return nil, err
	}
	return orders, nil
}
