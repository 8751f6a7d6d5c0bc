package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/storefront/internal/client/app"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/services"
	"github.com/shopspring/decimal"
)

// Session is the part of *auth.Resolver the CLI uses.
type Session interface {
	SignIn(ctx context.Context, username string, password []byte) (*models.Identity, error)
	SignUp(ctx context.Context, username, email string, password []byte) (*models.Identity, error)
	SignOut(ctx context.Context) error
	Current() *models.Identity
}

// Cart is the part of *cart.Store the CLI uses.
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
	Len() int
}

type Orders interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
}

type App struct {
	session  Session
	cart     Cart
	wishlist Wishlist
	orders   Orders
	catalog  services.CatalogService
	checkout services.CheckoutService

	reader *bufio.Reader
	out    io.Writer
}

// NewApp builds the CLI over a wired storefront client, reading commands
// from in and writing to out.
func NewApp(a *app.App, in io.Reader, out io.Writer) *App {
	return &App{
		session:  a.Session,
		cart:     a.Cart,
		wishlist: a.Wishlist,
		orders:   a.API,
		catalog:  a.Catalog,
		checkout: a.Checkout,
		reader:   bufio.NewReader(in),
		out:      out,
	}
}

func (a *App) isSignedIn() bool {
	return a.session.Current() != nil
}

func (a *App) getStatus() string {
	s := ""
	if id := a.session.Current(); id != nil {
		s = id.Username
		if id.IsAdmin() {
			s += " admin"
		}
		s += " "
	}
	s += fmt.Sprintf("cart:%d", a.cart.Count())
	if n := a.wishlist.Len(); n > 0 {
		s += fmt.Sprintf(" fav:%d", n)
	}
	return "(" + s + ")"
}

// Run blocks in the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to the storefront CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
