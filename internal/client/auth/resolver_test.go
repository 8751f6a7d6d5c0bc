package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/notify"
	"github.com/dmitrijs2005/storefront/internal/client/storage"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":      "17",
		"username": "alice",
		"email":    "alice@example.com",
		"roles":    []string{"ROLE_USER"},
		"exp":      testNow.Add(time.Hour).Unix(),
	}
}

func seedToken(t *testing.T, st storage.Storage, token string) {
	t.Helper()
	require.NoError(t, NewTokenStore(st).Store(context.Background(), token, StoreOptions{}))
}

func TestResolve_NoTokenIsSignedOut(t *testing.T) {
	st := storage.NewMemory("shop")
	require.NoError(t, st.Set(context.Background(), common.KeyAuthUser, []byte(`{"username":"ghost"}`)))
	tb := newTab(t, st, notify.NewLocalBus(), "tab-1", &fakeAuthn{})

	id, err := tb.resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Nil(t, id)
	assert.Nil(t, tb.resolver.Current())

	v, _ := st.Get(context.Background(), common.KeyAuthUser)
	assert.Nil(t, v, "identity without a token is dropped")
}

func TestResolve_SynthesisesIdentityFromClaims(t *testing.T) {
	st := storage.NewMemory("shop")
	seedToken(t, st, mint(t, validClaims()))
	tb := newTab(t, st, notify.NewLocalBus(), "tab-1", &fakeAuthn{})

	id, err := tb.resolver.Resolve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, models.Identity{
		ID:       17,
		Username: "alice",
		Email:    "alice@example.com",
		Role:     models.RoleUser,
		Status:   models.StatusActive,
	}, *id)

	cached, err := (&identityCache{st: st}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, cached, "synthesised identity is cached")
	assert.Empty(t, *tb.events, "a plain resolve writes no notification")
}

func TestResolve_CachedFieldsWinAndGapsAreBackfilled(t *testing.T) {
	st := storage.NewMemory("shop")
	claims := validClaims()
	claims["roles"] = []string{"ROLE_ADMIN"}
	seedToken(t, st, mint(t, claims))
	require.NoError(t, (&identityCache{st: st}).Save(context.Background(), models.Identity{
		Username: "Alice Cached",
		Status:   models.StatusDisabled,
	}))
	tb := newTab(t, st, notify.NewLocalBus(), "tab-1", &fakeAuthn{})

	id, err := tb.resolver.Resolve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "Alice Cached", id.Username)
	assert.Equal(t, models.StatusDisabled, id.Status)
	assert.Equal(t, int64(17), id.ID)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.Equal(t, models.RoleAdmin, id.Role)
}

func TestResolve_StoredRoleUsedWhenClaimsHaveNone(t *testing.T) {
	st := storage.NewMemory("shop")
	claims := validClaims()
	delete(claims, "roles")
	exp := testNow.Add(time.Hour)
	require.NoError(t, NewTokenStore(st).Store(context.Background(), mint(t, claims), StoreOptions{Role: models.RoleAdmin, ExpiresAt: &exp}))
	tb := newTab(t, st, notify.NewLocalBus(), "tab-1", &fakeAuthn{})

	id, err := tb.resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, id.Role)
}

func TestResolve_ExpiredTokenClearsEverything(t *testing.T) {
	st := storage.NewMemory("shop")
	claims := validClaims()
	claims["exp"] = testNow.Add(-time.Minute).Unix()
	seedToken(t, st, mint(t, claims))
	require.NoError(t, (&identityCache{st: st}).Save(context.Background(), models.Identity{Username: "alice"}))
	require.NoError(t, st.Set(context.Background(), common.KeyCart, []byte(`[]`)))
	tb := newTab(t, st, notify.NewLocalBus(), "tab-1", &fakeAuthn{})

	id, err := tb.resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Nil(t, id)

	all, _ := st.List(context.Background())
	assert.Equal(t, map[string][]byte{common.KeyCart: []byte(`[]`)}, all, "only auth keys are removed")
	require.Len(t, *tb.events, 1)
	assert.Equal(t, "auth", (*tb.events)[0].Topic)
}

func TestResolve_ExpiryFallsBackToCachedTimestamp(t *testing.T) {
	claims := validClaims()
	delete(claims, "exp")

	t.Run("no exp anywhere", func(t *testing.T) {
		st := storage.NewMemory("shop")
		seedToken(t, st, mint(t, claims))
		tb := newTab(t, st, notify.NewLocalBus(), "tab-1", &fakeAuthn{})

		id, err := tb.resolver.Resolve(context.Background())
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("cached expiry in the future", func(t *testing.T) {
		st := storage.NewMemory("shop")
		exp := testNow.Add(time.Minute)
		require.NoError(t, NewTokenStore(st).Store(context.Background(), mint(t, claims), StoreOptions{ExpiresAt: &exp}))
		tb := newTab(t, st, notify.NewLocalBus(), "tab-1", &fakeAuthn{})

		id, err := tb.resolver.Resolve(context.Background())
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, "alice", id.Username)
	})
}

func TestResolve_EitherExpiryPassedSignsOut(t *testing.T) {
	t.Run("cached expiry passed, exp claim in the future", func(t *testing.T) {
		st := storage.NewMemory("shop")
		exp := testNow.Add(-time.Minute)
		require.NoError(t, NewTokenStore(st).Store(context.Background(), mint(t, validClaims()), StoreOptions{ExpiresAt: &exp}))
		tb := newTab(t, st, notify.NewLocalBus(), "tab-1", &fakeAuthn{})

		id, err := tb.resolver.Resolve(context.Background())
		require.NoError(t, err)
		assert.Nil(t, id)

		_, ok, err := tb.resolver.Tokens().Read(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("exp claim passed, cached expiry in the future", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = testNow.Add(-time.Minute).Unix()
		st := storage.NewMemory("shop")
		exp := testNow.Add(time.Hour)
		require.NoError(t, NewTokenStore(st).Store(context.Background(), mint(t, claims), StoreOptions{ExpiresAt: &exp}))
		tb := newTab(t, st, notify.NewLocalBus(), "tab-1", &fakeAuthn{})

		id, err := tb.resolver.Resolve(context.Background())
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("both in the future", func(t *testing.T) {
		st := storage.NewMemory("shop")
		exp := testNow.Add(time.Minute)
		require.NoError(t, NewTokenStore(st).Store(context.Background(), mint(t, validClaims()), StoreOptions{ExpiresAt: &exp}))
		tb := newTab(t, st, notify.NewLocalBus(), "tab-1", &fakeAuthn{})

		id, err := tb.resolver.Resolve(context.Background())
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, "alice", id.Username)
	})
}

func TestResolve_UnreadableHeaderStillResolves(t *testing.T) {
	st := storage.NewMemory("shop")
	seedToken(t, st, rawToken("not-json", `{"sub":"5","username":"bob","exp":1999999999}`))
	tb := newTab(t, st, notify.NewLocalBus(), "tab-1", &fakeAuthn{})

	id, err := tb.resolver.Resolve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "bob", id.Username)
	assert.Equal(t, int64(5), id.ID)
}

func TestResolve_UndecodableTokenIsSignedOutNotAnError(t *testing.T) {
	st := storage.NewMemory("shop")
	exp := testNow.Add(time.Hour)
	require.NoError(t, NewTokenStore(st).Store(context.Background(), rawToken(`{"alg":"HS256"}`, "{{{"), StoreOptions{ExpiresAt: &exp}))
	tb := newTab(t, st, notify.NewLocalBus(), "tab-1", &fakeAuthn{})

	id, err := tb.resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Nil(t, id)

	_, ok, err := tb.resolver.Tokens().Read(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_CorruptCachedIdentityClearsAuth(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":      `{"username":`,
		"unknown role":  `{"username":"a","role":"ROOT"}`,
		"wrong type id": `{"id":"seven"}`,
	} {
		t.Run(name, func(t *testing.T) {
			st := storage.NewMemory("shop")
			seedToken(t, st, mint(t, validClaims()))
			require.NoError(t, st.Set(context.Background(), common.KeyAuthUser, []byte(raw)))
			tb := newTab(t, st, notify.NewLocalBus(), "tab-1", &fakeAuthn{})

			id, err := tb.resolver.Resolve(context.Background())
			require.NoError(t, err)
			assert.Nil(t, id)

			all, _ := st.List(context.Background())
			assert.Empty(t, all)
		})
	}
}

func TestResolve_StorageFailureIsReturned(t *testing.T) {
	r := NewResolver(&failingStorage{err: errDisk}, &fakeAuthn{}, notify.NewEmitter(notify.NewLocalBus(), "shop", "t"), logging.Nop())

	_, err := r.Resolve(context.Background())
	require.ErrorIs(t, err, errDisk)
}

func TestSignIn_PersistsAndBackfillsRoleFromClaims(t *testing.T) {
	st := storage.NewMemory("shop")
	claims := validClaims()
	claims["authorities"] = []string{"ROLE_ADMIN"}
	delete(claims, "roles")
	authn := &fakeAuthn{res: &models.AuthResult{Token: mint(t, claims)}}
	tb := newTab(t, st, notify.NewLocalBus(), "tab-1", authn)
	ctx := context.Background()

	id, err := tb.resolver.SignIn(ctx, "alice", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, id.Role)
	assert.Equal(t, "alice", authn.lastUser)

	tok, ok, err := tb.resolver.Tokens().Read(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, tok)

	role, _ := tb.resolver.Tokens().Role(ctx)
	assert.Equal(t, models.RoleAdmin, role)
	exp, _ := tb.resolver.Tokens().ExpiresAt(ctx)
	require.NotNil(t, exp, "expiry is taken from exp when the response omits it")
	assert.True(t, exp.Equal(testNow.Add(time.Hour)))

	resolved, err := tb.resolver.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, resolved)
	assert.Len(t, *tb.events, 1)
}

func TestSignIn_ResponseRoleWins(t *testing.T) {
	st := storage.NewMemory("shop")
	authn := &fakeAuthn{res: &models.AuthResult{Token: mint(t, validClaims()), Role: "admin"}}
	tb := newTab(t, st, notify.NewLocalBus(), "tab-1", authn)

	id, err := tb.resolver.SignIn(context.Background(), "alice", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, id.Role)
}

func TestSignIn_FailureLeavesStateUntouched(t *testing.T) {
	st := storage.NewMemory("shop")
	seedToken(t, st, mint(t, validClaims()))
	badCreds := errors.New("invalid username or password")
	tb := newTab(t, st, notify.NewLocalBus(), "tab-1", &fakeAuthn{err: badCreds})
	ctx := context.Background()

	before, err := tb.resolver.Resolve(ctx)
	require.NoError(t, err)
	snapshot, _ := st.List(ctx)

	_, err = tb.resolver.SignIn(ctx, "mallory", []byte("guess"))
	require.ErrorIs(t, err, badCreds)

	after, _ := st.List(ctx)
	assert.Equal(t, snapshot, after)
	assert.Equal(t, before, tb.resolver.Current())
	assert.Empty(t, *tb.events)
}

func TestSignIn_EmptyTokenRejected(t *testing.T) {
	tb := newTab(t, storage.NewMemory("shop"), notify.NewLocalBus(), "tab-1", &fakeAuthn{res: &models.AuthResult{}})

	_, err := tb.resolver.SignIn(context.Background(), "a", nil)
	require.ErrorIs(t, err, ErrMalformedToken)
	assert.Nil(t, tb.resolver.Current())
}

func TestSignUp_InputBackfillsMissingClaims(t *testing.T) {
	tok := mint(t, jwt.MapClaims{"sub": "99", "exp": testNow.Add(time.Hour).Unix()})
	exp := testNow.Add(30 * time.Minute)
	authn := &fakeAuthn{res: &models.AuthResult{Token: tok, ExpiresAt: &exp}}
	tb := newTab(t, storage.NewMemory("shop"), notify.NewLocalBus(), "tab-1", authn)

	id, err := tb.resolver.SignUp(context.Background(), "newbie", "newbie@example.com", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, int64(99), id.ID)
	assert.Equal(t, "99", id.Username, "sub is a username claim and wins over input")
	assert.Equal(t, "newbie@example.com", id.Email)
	assert.Equal(t, models.RoleUser, id.Role)
	assert.Equal(t, "newbie@example.com", authn.lastEmail)

	stored, _ := tb.resolver.Tokens().ExpiresAt(context.Background())
	assert.True(t, stored.Equal(exp), "explicit expiry from the response is kept")
}

func TestSignOut_ClearsAuthButNotCartOrWishlist(t *testing.T) {
	st := storage.NewMemory("shop")
	ctx := context.Background()
	authn := &fakeAuthn{res: &models.AuthResult{Token: mint(t, validClaims())}}
	tb := newTab(t, st, notify.NewLocalBus(), "tab-1", authn)

	_, err := tb.resolver.SignIn(ctx, "alice", []byte("pw"))
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, common.KeyCart, []byte(`[{"product":{"id":1},"quantity":2}]`)))
	require.NoError(t, st.Set(ctx, common.KeyWishlist, []byte(`[{"id":3}]`)))

	require.NoError(t, tb.resolver.SignOut(ctx))
	assert.Nil(t, tb.resolver.Current())

	all, _ := st.List(ctx)
	assert.Len(t, all, 2)
	assert.Contains(t, all, common.KeyCart)
	assert.Contains(t, all, common.KeyWishlist)
	assert.Len(t, *tb.events, 2)
}

func TestSignOut_DropsIdentityEvenWhenStorageFails(t *testing.T) {
	r := NewResolver(&failingStorage{err: errDisk}, &fakeAuthn{}, notify.NewEmitter(notify.NewLocalBus(), "shop", "t"), logging.Nop())
	r.setCurrent(&models.Identity{Username: "a"})

	require.ErrorIs(t, r.SignOut(context.Background()), errDisk)
	assert.Nil(t, r.Current())
}

func TestWatch_OtherTabConverges(t *testing.T) {
	st := storage.NewMemory("shop")
	bus := notify.NewLocalBus()
	authn := &fakeAuthn{res: &models.AuthResult{Token: mint(t, validClaims())}}
	a := newTab(t, st, bus, "tab-a", authn)
	b := newTab(t, st, bus, "tab-b", authn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watching := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(watching)
		done <- b.resolver.Watch(ctx)
	}()
	<-watching
	require.Eventually(t, func() bool {
		// Watch is subscribed once a's notification reaches b's resolver.
		if _, err := a.resolver.SignIn(context.Background(), "alice", []byte("pw")); err != nil {
			return false
		}
		return b.resolver.Current() != nil
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.resolver.SignOut(context.Background()))
	assert.Nil(t, b.resolver.Current(), "tab b signs out after tab a does")

	cancel()
	require.NoError(t, <-done)
}

func TestRequire(t *testing.T) {
	r := NewResolver(storage.NewMemory("shop"), &fakeAuthn{}, notify.NewEmitter(notify.NewLocalBus(), "shop", "t"), logging.Nop())

	_, err := r.Require(models.RoleUser)
	require.ErrorIs(t, err, common.ErrNotSignedIn)

	r.setCurrent(&models.Identity{Role: models.RoleUser})
	_, err = r.Require(models.RoleUser)
	require.NoError(t, err)
	_, err = r.Require(models.RoleAdmin)
	require.ErrorIs(t, err, ErrForbidden)

	r.setCurrent(&models.Identity{Role: models.RoleAdmin})
	id, err := r.Require(models.RoleUser)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())
}
