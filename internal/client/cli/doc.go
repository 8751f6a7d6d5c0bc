// Package cli provides the interactive storefront command-line client.
//
// It runs a REPL on top of an app.App: sign in and out, browse products,
// manage the cart and wishlist, and check out. The cart, wishlist and
// session stay in sync with other instances sharing the same origin, so the
// prompt's badge reflects changes made elsewhere.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
