package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/storefront/internal/client/api"
	"github.com/dmitrijs2005/storefront/internal/client/models"
)

var errUsage = errors.New("usage")

// getSimpleText and getPassword are indirections swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return id, nil
}

// SignIn prompts for credentials and signs in. The password is wiped
// before returning.
func (a *App) SignIn(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	id, err := a.session.SignIn(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", id.Username, id.Role)
	return nil
}

func (a *App) SignUp(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	id, err := a.session.SignUp(ctx, username, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", id.Username)
	return nil
}

func (a *App) SignOut(ctx context.Context) error {
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) WhoAmI(context.Context) error {
	id := a.session.Current()
	if id == nil {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> id=%d role=%s status=%s\n", id.Username, id.Email, id.ID, id.Role, id.Status)
	return nil
}

func (a *App) Products(ctx context.Context, args []string) error {
	products, err := a.catalog.Products(ctx, api.ProductFilter{Query: strings.Join(args, " ")})
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Fprintln(a.out, "No products")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK")
	for _, p := range products {
		stock := strconv.Itoa(p.Stock)
		if !p.InStock() {
			stock = "out"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(2), stock)
	}
	return tw.Flush()
}

func (a *App) quantityOf(id int64) int {
	for _, e := range a.cart.Entries() {
		if e.Product.ID == id {
			return e.Quantity
		}
	}
	return 0
}

// Add puts a product in the cart and warns when the stock ceiling cut the
// requested quantity.
func (a *App) Add(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: add <id> [qty]", errUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	qty := 1
	if len(args) == 2 {
		if qty, err = strconv.Atoi(args[1]); err != nil || qty < 1 {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
	}

	requested := a.quantityOf(id) + qty
	e, err := a.catalog.AddToCart(ctx, id, qty)
	if err != nil {
		return err
	}
	if e.Quantity < requested {
		fmt.Fprintf(a.out, "Only %d of %s in stock\n", e.Product.Stock, e.Product.Name)
	}
	fmt.Fprintf(a.out, "Cart: %d x %s\n", e.Quantity, e.Product.Name)
	return nil
}

func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: remove <id>", errUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return a.cart.Remove(ctx, id)
}

func (a *App) Quantity(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: qty <id> <n>", errUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}
	if err := a.cart.SetQuantity(ctx, id, n); err != nil {
		return err
	}
	if got := a.quantityOf(id); n > 0 && got < n {
		fmt.Fprintf(a.out, "Only %d in stock\n", got)
	}
	return nil
}

func (a *App) Cart(context.Context) error {
	entries := a.cart.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "Cart is empty")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tTOTAL")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", e.Product.ID, e.Product.Name, e.Quantity, e.Product.Price.StringFixed(2), e.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\t%d\t\t%s\n", a.cart.Count(), a.cart.Subtotal().StringFixed(2))
	return tw.Flush()
}

func (a *App) Clear(ctx context.Context) error {
	return a.cart.Clear(ctx)
}

func (a *App) Fav(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: fav <id>", errUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	added, err := a.catalog.ToggleWishlist(ctx, id)
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintln(a.out, "Added to wishlist")
	} else {
		fmt.Fprintln(a.out, "Removed from wishlist")
	}
	return nil
}

func (a *App) Wishlist(context.Context) error {
	products := a.wishlist.List()
	if len(products) == 0 {
		fmt.Fprintln(a.out, "Wishlist is empty")
		return nil
	}
	for _, p := range products {
		fmt.Fprintf(a.out, "%d\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(2))
	}
	return nil
}

func (a *App) Checkout(ctx context.Context) error {
	o, err := a.checkout.Checkout(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order #%d placed (%s), total %s\n", o.ID, orderStatus(o), o.Total.StringFixed(2))
	return nil
}

func (a *App) Orders(ctx context.Context) error {
	orders, err := a.orders.ListOrders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(a.out, "No orders yet")
		return nil
	}
	for _, o := range orders {
		fmt.Fprintf(a.out, "#%d\t%s\t%s\t%s\n", o.ID, o.CreatedAt.Format("2006-01-02"), orderStatus(&o), o.Total.StringFixed(2))
	}
	return nil
}

func orderStatus(o *models.Order) string {
	if o.Status == "" {
		return "PENDING"
	}
	return o.Status
}
