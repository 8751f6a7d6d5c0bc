package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/notify"
	"github.com/dmitrijs2005/storefront/internal/client/storage"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

var ErrForbidden = errors.New("insufficient role")

// Authenticator is the remote authentication service.
type Authenticator interface {
	SignIn(ctx context.Context, username string, password []byte) (*models.AuthResult, error)
	SignUp(ctx context.Context, username, email string, password []byte) (*models.AuthResult, error)
}

type Option func(*Resolver)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// Resolver owns the auth.* keys and the in-memory signed-in Identity of one
// client instance.
type Resolver struct {
	st       storage.Storage
	tokens   *TokenStore
	cache    *identityCache
	authn    Authenticator
	notifier notify.Notifier
	log      logging.Logger
	now      func() time.Time

	// opMu serialises operations that touch storage; mu guards current.
	opMu    sync.Mutex
	mu      sync.RWMutex
	current *models.Identity
}

func NewResolver(st storage.Storage, authn Authenticator, n notify.Notifier, log logging.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		st:       st,
		tokens:   NewTokenStore(st),
		cache:    &identityCache{st: st},
		authn:    authn,
		notifier: n,
		log:      log.With("component", "session"),
		now:      time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Tokens exposes the underlying TokenStore, e.g. for attaching the bearer
// token to API requests.
func (r *Resolver) Tokens() *TokenStore {
	return r.tokens
}

// Current returns a copy of the resolved Identity, or nil when signed out.
func (r *Resolver) Current() *models.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == nil {
		return nil
	}
	id := *r.current
	return &id
}

func (r *Resolver) setCurrent(id *models.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == nil {
		r.current = nil
		return
	}
	cp := *id
	r.current = &cp
}

// Require returns the current Identity if it holds at least role. ADMIN
// satisfies USER. This gates views only; the API enforces access itself.
func (r *Resolver) Require(role models.Role) (*models.Identity, error) {
	id := r.Current()
	if id == nil {
		return nil, common.ErrNotSignedIn
	}
	if role == models.RoleAdmin && !id.IsAdmin() {
		return nil, ErrForbidden
	}
	return id, nil
}

// Resolve reconciles the stored token with the cached Identity and publishes
// the result as Current. It returns (nil, nil) when signed out; only storage
// failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context) (*models.Identity, error) {
	r.opMu.Lock()
	id, changed, err := r.resolve(ctx)
	r.opMu.Unlock()

	if changed {
		r.notify(ctx)
	}
	return id, err
}

// resolve reports changed=true when it cleared stored auth state.
func (r *Resolver) resolve(ctx context.Context) (*models.Identity, bool, error) {
	token, ok, err := r.tokens.Read(ctx)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		r.setCurrent(nil)
		if err := r.st.Delete(ctx, common.KeyAuthUser); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	claims, err := DecodeClaims(token)
	if err != nil {
		r.log.Warn(ctx, "stored token could not be decoded, signing out", "error", err)
		return nil, true, r.clearAll(ctx)
	}

	if r.expired(ctx, claims) {
		r.log.Info(ctx, "stored token expired, signing out")
		return nil, true, r.clearAll(ctx)
	}

	cached, err := r.cache.Load(ctx)
	if errors.Is(err, ErrCorruptIdentity) {
		r.log.Warn(ctx, "discarding corrupt cached identity", "error", err)
		return nil, true, r.clearAll(ctx)
	}
	if err != nil {
		return nil, false, err
	}

	storedRole, err := r.tokens.Role(ctx)
	if err != nil {
		return nil, false, err
	}

	var id models.Identity
	if cached != nil {
		id = backfill(*cached, claims, storedRole)
	} else {
		id = backfill(models.Identity{}, claims, storedRole)
	}

	if err := r.cache.Save(ctx, id); err != nil {
		return nil, false, err
	}
	r.setCurrent(&id)
	return &id, false, nil
}

// expired reports whether either the exp claim or the cached expiry has
// passed. With neither available the token counts as expired.
func (r *Resolver) expired(ctx context.Context, claims Claims) bool {
	now := r.now()

	claimExp, hasClaim := claims.ExpiresAt()
	if hasClaim && !now.Before(claimExp) {
		return true
	}

	cachedExp, err := r.tokens.ExpiresAt(ctx)
	if err != nil {
		r.log.Warn(ctx, "cached expiry unreadable", "error", err)
		return true
	}
	if cachedExp != nil && !now.Before(*cachedExp) {
		return true
	}
	return !hasClaim && cachedExp == nil
}

// backfill keeps every field id already has and fills the rest from claims,
// then from the separately cached role.
func backfill(id models.Identity, claims Claims, storedRole models.Role) models.Identity {
	if id.ID == 0 {
		id.ID = claims.ID()
	}
	if id.Username == "" {
		id.Username = claims.Username()
	}
	if id.Email == "" {
		id.Email = claims.Email()
	}
	if id.Role == "" {
		if role, ok := claims.Role(); ok {
			id.Role = role
		} else if storedRole != "" {
			id.Role = storedRole
		} else {
			id.Role = models.RoleUser
		}
	}
	if id.Status == "" {
		id.Status = models.StatusActive
	}
	return id
}

func (r *Resolver) clearAll(ctx context.Context) error {
	r.setCurrent(nil)
	if err := r.st.Delete(ctx, common.KeyAuthToken, common.KeyAuthRole, common.KeyAuthExpiresAt, common.KeyAuthUser); err != nil {
		return fmt.Errorf("clear auth state: %w", err)
	}
	return nil
}

// SignIn authenticates with the remote service and makes the result the
// current Identity. On failure nothing local changes.
func (r *Resolver) SignIn(ctx context.Context, username string, password []byte) (*models.Identity, error) {
	res, err := r.authn.SignIn(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return r.establish(ctx, res, models.Identity{Username: username})
}

// SignUp registers with the remote service and signs the new user in.
// username and email backfill whatever the token does not carry.
func (r *Resolver) SignUp(ctx context.Context, username, email string, password []byte) (*models.Identity, error) {
	res, err := r.authn.SignUp(ctx, username, email, password)
	if err != nil {
		return nil, err
	}
	return r.establish(ctx, res, models.Identity{Username: username, Email: email})
}

func (r *Resolver) establish(ctx context.Context, res *models.AuthResult, input models.Identity) (*models.Identity, error) {
	if res == nil || res.Token == "" {
		return nil, fmt.Errorf("%w: empty token in authentication response", ErrMalformedToken)
	}

	claims, err := DecodeClaims(res.Token)
	if err != nil {
		r.log.Warn(ctx, "issued token could not be decoded", "error", err)
		claims = Claims{}
	}

	opts := StoreOptions{ExpiresAt: res.ExpiresAt}
	if opts.ExpiresAt == nil {
		if exp, ok := claims.ExpiresAt(); ok {
			opts.ExpiresAt = &exp
		}
	}

	id := claims.Identity()
	if res.Role != "" {
		id.Role = models.NormalizeRole(res.Role)
		opts.Role = id.Role
	} else if role, ok := claims.Role(); ok {
		opts.Role = role
	}
	if id.Username == "" {
		id.Username = input.Username
	}
	if id.Email == "" {
		id.Email = input.Email
	}

	r.opMu.Lock()
	err = r.save(ctx, res.Token, opts, id)
	r.opMu.Unlock()
	if err != nil {
		return nil, err
	}

	r.notify(ctx)
	r.log.Info(ctx, "signed in", "username", id.Username, "role", id.Role)
	return &id, nil
}

func (r *Resolver) save(ctx context.Context, token string, opts StoreOptions, id models.Identity) error {
	if err := r.tokens.Store(ctx, token, opts); err != nil {
		return err
	}
	if err := r.cache.Save(ctx, id); err != nil {
		return err
	}
	r.setCurrent(&id)
	return nil
}

// SignOut clears the token and the cached Identity. The in-memory Identity
// is dropped even when the storage delete fails.
func (r *Resolver) SignOut(ctx context.Context) error {
	r.opMu.Lock()
	err := r.clearAll(ctx)
	r.opMu.Unlock()

	r.notify(ctx)
	return err
}

// Watch re-runs Resolve whenever another instance changes the auth keys,
// until ctx is done.
func (r *Resolver) Watch(ctx context.Context) error {
	cancel, err := r.notifier.OnChange(common.TopicAuth, func(e notify.Event) {
		if e.Source == r.notifier.Source() {
			return
		}
		if _, err := r.Resolve(ctx); err != nil {
			r.log.Error(ctx, "re-resolving session after external change failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer cancel()

	<-ctx.Done()
	return nil
}

func (r *Resolver) notify(ctx context.Context) {
	if err := r.notifier.Notify(ctx, common.TopicAuth); err != nil {
		r.log.Warn(ctx, "auth change notification failed", "error", err)
	}
}
