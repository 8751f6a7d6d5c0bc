// Package auth keeps the client-side authentication state: the bearer token
// and its cached role and expiry (TokenStore), the cached signed-in user
// (identity cache), and the Resolver that reconciles both on start-up and on
// sign-in, sign-up and sign-out.
//
// # Trust
//
// Tokens are decoded without verifying their signature. The decoded claims
// only drive what the client displays and which views it offers; the API
// remains the authorization boundary and must verify every request.
//
// # Precedence
//
// A cached Identity wins over token claims for every field it sets; missing
// fields are backfilled from the claims. When no cached Identity exists one is
// synthesised from the claims alone.
//
// # Failure handling
//
// Malformed tokens and corrupt cached identities never surface as errors:
// they degrade to "signed out" and the stored auth state is cleared. Storage
// failures and authentication-service failures are returned to the caller.
package auth
