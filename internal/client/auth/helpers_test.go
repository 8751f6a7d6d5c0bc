package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/notify"
	"github.com/dmitrijs2005/storefront/internal/client/storage"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func mint(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func rawToken(header, claims string) string {
	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(header)) + "." + enc([]byte(claims)) + ".c2ln"
}

type fakeAuthn struct {
	res *models.AuthResult
	err error

	lastUser  string
	lastEmail string
	calls     int
}

func (f *fakeAuthn) SignIn(_ context.Context, username string, _ []byte) (*models.AuthResult, error) {
	f.calls++
	f.lastUser = username
	return f.res, f.err
}

func (f *fakeAuthn) SignUp(_ context.Context, username, email string, _ []byte) (*models.AuthResult, error) {
	f.calls++
	f.lastUser, f.lastEmail = username, email
	return f.res, f.err
}

// failingStorage fails every operation with err.
type failingStorage struct {
	storage.Memory
	err error
}

func (f *failingStorage) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f *failingStorage) Set(context.Context, string, []byte) error   { return f.err }
func (f *failingStorage) SetMany(context.Context, map[string][]byte) error {
	return f.err
}
func (f *failingStorage) Delete(context.Context, ...string) error { return f.err }

var errDisk = errors.New("disk unavailable")

type tab struct {
	st       *storage.Memory
	bus      notify.Bus
	resolver *Resolver
	events   *[]notify.Event
}

// newTab builds a resolver over st as if it were one browser tab.
func newTab(t *testing.T, st *storage.Memory, bus notify.Bus, source string, authn Authenticator) tab {
	t.Helper()
	em := notify.NewEmitter(bus, st.Origin(), source)
	events := &[]notify.Event{}
	cancel, err := em.OnChange("auth", func(e notify.Event) { *events = append(*events, e) })
	require.NoError(t, err)
	t.Cleanup(cancel)

	r := NewResolver(st, authn, em, logging.Nop(), WithClock(func() time.Time { return testNow }))
	return tab{st: st, bus: bus, resolver: r, events: events}
}
