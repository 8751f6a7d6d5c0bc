package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
)

var ErrMalformedToken = errors.New("malformed token")

// Claims are the decoded, unverified claims of a token.
type Claims map[string]any

// DecodeClaims splits token into its three segments, base64url-decodes the
// middle one and parses it as a JSON object. Neither the header nor the
// signature is looked at, so an unreadable header or an unknown "alg" does
// not prevent decoding.
func DecodeClaims(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: token has %d segments", ErrMalformedToken, len(parts))
	}

	p := jwt.NewParser(jwt.WithPaddingAllowed())
	raw, err := p.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: claims segment: %v", ErrMalformedToken, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var mc jwt.MapClaims
	if err := dec.Decode(&mc); err != nil {
		return nil, fmt.Errorf("%w: claims segment: %v", ErrMalformedToken, err)
	}
	if mc == nil {
		return nil, fmt.Errorf("%w: claims segment is not an object", ErrMalformedToken)
	}
	return Claims(mc), nil
}

// claimAccessor extracts one candidate value from the claims.
type claimAccessor func(Claims) (string, bool)

func stringClaim(name string) claimAccessor {
	return func(c Claims) (string, bool) {
		s, ok := scalarString(c[name])
		if !ok || strings.TrimSpace(s) == "" {
			return "", false
		}
		return s, true
	}
}

// roleClaim accepts a string, an array of strings, or an array of
// {"authority": "..."} objects, and reports ADMIN if any element mentions it.
func roleClaim(name string) claimAccessor {
	return func(c Claims) (string, bool) {
		var values []string
		switch v := c[name].(type) {
		case string:
			values = []string{v}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					values = append(values, s)
					continue
				}
				if m, ok := item.(map[string]any); ok {
					if s, ok := m["authority"].(string); ok {
						values = append(values, s)
					}
				}
			}
		}

		found := ""
		for _, s := range values {
			if strings.TrimSpace(s) == "" {
				continue
			}
			if models.NormalizeRole(s) == models.RoleAdmin {
				return string(models.RoleAdmin), true
			}
			found = string(models.RoleUser)
		}
		return found, found != ""
	}
}

// idClaim accepts non-negative integers and integer strings.
func idClaim(name string) claimAccessor {
	return func(c Claims) (string, bool) {
		s, ok := scalarString(c[name])
		if !ok {
			return "", false
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil || n < 0 {
			return "", false
		}
		return strconv.FormatInt(n, 10), true
	}
}

// Priority order matters: it mirrors the claim names used by the identity
// providers the API has been deployed behind.
var (
	roleClaims     = []claimAccessor{roleClaim("role"), roleClaim("roles"), roleClaim("authorities")}
	usernameClaims = []claimAccessor{stringClaim("username"), stringClaim("userName"), stringClaim("preferred_username"), stringClaim("sub")}
	emailClaims    = []claimAccessor{stringClaim("email"), stringClaim("mail"), stringClaim("upn")}
	idClaims       = []claimAccessor{idClaim("id"), idClaim("userId"), idClaim("user_id"), idClaim("uid"), idClaim("sub")}
)

func firstOf(c Claims, chain []claimAccessor) (string, bool) {
	for _, get := range chain {
		if v, ok := get(c); ok {
			return v, true
		}
	}
	return "", false
}

// Role returns the normalized role claim, or ok=false when none is usable.
func (c Claims) Role() (models.Role, bool) {
	v, ok := firstOf(c, roleClaims)
	if !ok {
		return "", false
	}
	return models.Role(v), true
}

func (c Claims) Username() string {
	v, _ := firstOf(c, usernameClaims)
	return v
}

func (c Claims) Email() string {
	v, _ := firstOf(c, emailClaims)
	return v
}

// ID returns the first integer-valued id claim, or 0.
func (c Claims) ID() int64 {
	v, ok := firstOf(c, idClaims)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}

// ExpiresAt reads "exp" as seconds since the epoch. Numbers and numeric
// strings are accepted.
func (c Claims) ExpiresAt() (time.Time, bool) {
	s, ok := scalarString(c["exp"])
	if !ok {
		return time.Time{}, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

// Expired reports whether the token must be treated as expired at now. A
// token without a usable exp claim is expired.
func (c Claims) Expired(now time.Time) bool {
	exp, ok := c.ExpiresAt()
	if !ok {
		return true
	}
	return !now.Before(exp)
}

// Identity synthesises an Identity from the claims alone.
func (c Claims) Identity() models.Identity {
	role, ok := c.Role()
	if !ok {
		role = models.RoleUser
	}
	return models.Identity{
		ID:       c.ID(),
		Username: c.Username(),
		Email:    c.Email(),
		Role:     role,
		Status:   models.StatusActive,
	}
}

func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	default:
		return "", false
	}
}
