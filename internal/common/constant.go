// Package common contains shared constants and sentinel errors used across
// the storefront client packages.
package common

// Storage keys. Each store is the sole writer of its own keys.
const (
	KeyAuthToken     = "auth.token"
	KeyAuthRole      = "auth.role"
	KeyAuthExpiresAt = "auth.expires_at"
	KeyAuthUser      = "auth.user"
	KeyCart          = "cart"
	KeyWishlist      = "wishlist"
)

// Change-notification topics.
const (
	TopicAuth     = "auth"
	TopicCart     = "cart"
	TopicWishlist = "wishlist"
)

// AuthorizationHeaderName carries the bearer token on outbound API requests.
const AuthorizationHeaderName = "Authorization"
