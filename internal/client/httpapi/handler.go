// Package httpapi is the local HTTP API (a backend-for-frontend) that lets a
// browser UI drive one storefront client instance: session, cart, wishlist
// and checkout.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/services"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/netx"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type Session interface {
	SignIn(ctx context.Context, username string, password []byte) (*models.Identity, error)
	SignUp(ctx context.Context, username, email string, password []byte) (*models.Identity, error)
	SignOut(ctx context.Context) error
	Current() *models.Identity
}

type Cart interface {
	Entries() []models.CartEntry
	Count() int
	Subtotal() decimal.Decimal
	Remove(ctx context.Context, id int64) error
	SetQuantity(ctx context.Context, id int64, quantity int) error
	Clear(ctx context.Context) error
}

type Wishlist interface {
	List() []models.Product
	Clear(ctx context.Context) error
}

type Handler struct {
	session  Session
	cart     Cart
	wishlist Wishlist
	catalog  services.CatalogService
	checkout services.CheckoutService
	log      logging.Logger
}

func NewHandler(session Session, cart Cart, wishlist Wishlist, catalog services.CatalogService, checkout services.CheckoutService, log logging.Logger) *Handler {
	return &Handler{
		session:  session,
		cart:     cart,
		wishlist: wishlist,
		catalog:  catalog,
		checkout: checkout,
		log:      log.With("component", "httpapi"),
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/session", h.GetSession).Methods(http.MethodGet)
	r.HandleFunc("/session/signin", h.SignIn).Methods(http.MethodPost)
	r.HandleFunc("/session/signup", h.SignUp).Methods(http.MethodPost)
	r.HandleFunc("/session", h.SignOut).Methods(http.MethodDelete)

	r.HandleFunc("/cart", h.GetCart).Methods(http.MethodGet)
	r.HandleFunc("/cart", h.ClearCart).Methods(http.MethodDelete)
	r.HandleFunc("/cart/count", h.CartCount).Methods(http.MethodGet)
	r.HandleFunc("/cart/items", h.AddItem).Methods(http.MethodPost)
	r.HandleFunc("/cart/items/{id:[0-9]+}", h.SetQuantity).Methods(http.MethodPut)
	r.HandleFunc("/cart/items/{id:[0-9]+}", h.RemoveItem).Methods(http.MethodDelete)

	r.HandleFunc("/wishlist", h.GetWishlist).Methods(http.MethodGet)
	r.HandleFunc("/wishlist", h.ClearWishlist).Methods(http.MethodDelete)
	r.HandleFunc("/wishlist/{id:[0-9]+}/toggle", h.ToggleWishlist).Methods(http.MethodPost)

	r.HandleFunc("/checkout", h.Checkout).Methods(http.MethodPost)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := netx.StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	netx.WriteError(w, err)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid product id", common.ErrValidation)
	}
	return id, nil
}

type sessionResponse struct {
	SignedIn bool             `json:"signedIn"`
	Identity *models.Identity `json:"identity,omitempty"`
}

func (h *Handler) GetSession(w http.ResponseWriter, _ *http.Request) {
	id := h.session.Current()
	netx.WriteJSON(w, http.StatusOK, sessionResponse{SignedIn: id != nil, Identity: id})
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	password := []byte(req.Password)
	defer clear(password)

	id, err := h.session.SignIn(r.Context(), req.Username, password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	netx.WriteJSON(w, http.StatusOK, sessionResponse{SignedIn: true, Identity: id})
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		h.writeError(w, r, fmt.Errorf("%w: username, email and password are required", common.ErrValidation))
		return
	}
	password := []byte(req.Password)
	defer clear(password)

	id, err := h.session.SignUp(r.Context(), req.Username, req.Email, password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	netx.WriteJSON(w, http.StatusCreated, sessionResponse{SignedIn: true, Identity: id})
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.session.SignOut(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cartResponse struct {
	Entries  []models.CartEntry `json:"entries"`
	Count    int                `json:"count"`
	Subtotal decimal.Decimal    `json:"subtotal"`
}

func (h *Handler) cartView() cartResponse {
	entries := h.cart.Entries()
	if entries == nil {
		entries = []models.CartEntry{}
	}
	return cartResponse{Entries: entries, Count: h.cart.Count(), Subtotal: h.cart.Subtotal()}
}

func (h *Handler) GetCart(w http.ResponseWriter, _ *http.Request) {
	netx.WriteJSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) CartCount(w http.ResponseWriter, _ *http.Request) {
	netx.WriteJSON(w, http.StatusOK, map[string]int{"count": h.cart.Count()})
}

type addItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type addItemResponse struct {
	Entry   models.CartEntry `json:"entry"`
	Warning string           `json:"warning,omitempty"`
}

// AddItem adds a product by id. When the stock ceiling cut the quantity the
// response carries a warning for the UI to show.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.ProductID <= 0 {
		h.writeError(w, r, fmt.Errorf("%w: productId is required", common.ErrValidation))
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	requested := req.Quantity
	for _, e := range h.cart.Entries() {
		if e.Product.ID == req.ProductID {
			requested += e.Quantity
		}
	}

	e, err := h.catalog.AddToCart(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := addItemResponse{Entry: e}
	if e.Quantity < requested {
		resp.Warning = fmt.Sprintf("only %d in stock", e.Product.Stock)
	}
	netx.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.cart.SetQuantity(r.Context(), id, req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}
	netx.WriteJSON(w, http.StatusOK, h.cartView())
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.cart.Remove(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetWishlist(w http.ResponseWriter, _ *http.Request) {
	products := h.wishlist.List()
	if products == nil {
		products = []models.Product{}
	}
	netx.WriteJSON(w, http.StatusOK, products)
}

func (h *Handler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	added, err := h.catalog.ToggleWishlist(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	netx.WriteJSON(w, http.StatusOK, map[string]bool{"inWishlist": added})
}

func (h *Handler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.wishlist.Clear(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	o, err := h.checkout.Checkout(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	netx.WriteJSON(w, http.StatusCreated, o)
}
