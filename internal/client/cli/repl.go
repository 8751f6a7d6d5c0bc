package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies
// it; tests provide a stub.
type execIface interface {
	isSignedIn() bool
	SignIn(ctx context.Context) error
	SignUp(ctx context.Context) error
	SignOut(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Products(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Quantity(ctx context.Context, args []string) error
	Cart(ctx context.Context) error
	Clear(ctx context.Context) error
	Fav(ctx context.Context, args []string) error
	Wishlist(ctx context.Context) error
	Checkout(ctx context.Context) error
	Orders(ctx context.Context) error
}

const (
	helpSignedOut = "Available commands: signin, signup, products [query], add <id> [qty], remove <id>, qty <id> <n>, cart, clear, fav <id>, wishlist, exit"
	helpSignedIn  = "Available commands: whoami, products [query], add <id> [qty], remove <id>, qty <id> <n>, cart, clear, fav <id>, wishlist, checkout, orders, signout, exit"
)

// runREPL reads a line from reader, parses the first token as the command
// and dispatches to a. The loop exits on EOF or when the user types "exit"
// or "quit". Handler errors are printed and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("shop %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isSignedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}
		case "signin", "login":
			report(a.SignIn(ctx))
		case "signup", "register":
			report(a.SignUp(ctx))
		case "signout", "logout":
			report(a.SignOut(ctx))
		case "whoami":
			report(a.WhoAmI(ctx))
		case "products", "p":
			report(a.Products(ctx, args))
		case "add":
			report(a.Add(ctx, args))
		case "remove", "rm":
			report(a.Remove(ctx, args))
		case "qty":
			report(a.Quantity(ctx, args))
		case "cart":
			report(a.Cart(ctx))
		case "clear":
			report(a.Clear(ctx))
		case "fav":
			report(a.Fav(ctx, args))
		case "wishlist":
			report(a.Wishlist(ctx))
		case "checkout":
			report(a.Checkout(ctx))
		case "orders":
			report(a.Orders(ctx))
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func report(err error) {
	if err != nil {
		printlnFn("Error:", err)
	}
}
