package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DiegoxdGarcia2/smart-condominium/apiclient"
	"github.com/DiegoxdGarcia2/smart-condominium/internal/errors"
	"github.com/DiegoxdGarcia2/smart-condominium/token"
	tokenfakerepo "github.com/DiegoxdGarcia2/smart-condominium/token/repofake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type testConfig struct {
	baseURL string
}

func (c testConfig) GetAPIBaseURL() string         { return c.baseURL }
func (c testConfig) GetHTTPTimeout() time.Duration { return 5 * time.Second }
func (c testConfig) GetSignInRoute() string        { return "/sign-in" }
func (c testConfig) GetEnv() string                { return "TEST" }

// fakeBackend answers the token and profile endpoints. Only validAccess is
// accepted on the profile endpoint.
type fakeBackend struct {
	validAccess  string
	goodRefresh  string
	rotated      string
	refreshDelay time.Duration
	alwaysDeny   bool

	refreshCalls atomic.Int32
	profileCalls atomic.Int32
	lastAuth     atomic.Value
	lastReqID    atomic.Value
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token/", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access": b.validAccess, "refresh": b.goodRefresh})
	})
	mux.HandleFunc("POST /api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		time.Sleep(b.refreshDelay)
		var body struct{ Refresh string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Refresh != b.goodRefresh {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired", "code": "token_not_valid"})
			return
		}
		resp := map[string]string{"access": b.validAccess}
		if b.rotated != "" {
			resp["refresh"] = b.rotated
		}
		writeJSON(w, http.StatusOK, resp)
	})
	mux.HandleFunc("GET /api/administration/users/me/", func(w http.ResponseWriter, r *http.Request) {
		b.profileCalls.Add(1)
		b.lastAuth.Store(r.Header.Get("Authorization"))
		b.lastReqID.Store(r.Header.Get(apiclient.RequestIDHeader))
		if b.alwaysDeny || r.Header.Get("Authorization") != "Bearer "+b.validAccess {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "email": "ana@condo.test", "role_name": "Residente"})
	})
	mux.HandleFunc("GET /api/administration/boom/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database unavailable"})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type testFixture struct {
	backend   *fakeBackend
	store     *tokenfakerepo.FakeTokenStore
	client    *apiclient.Client
	navigated atomic.Int32
}

func setupTestFixture(t *testing.T, initial token.Pair, opts ...apiclient.Option) *testFixture {
	t.Helper()
	f := &testFixture{
		backend: &fakeBackend{validAccess: "a-new", goodRefresh: "r-good"},
		store:   tokenfakerepo.NewFakeTokenStore(initial),
	}
	srv := httptest.NewServer(f.backend.handler())
	t.Cleanup(srv.Close)

	opts = append([]apiclient.Option{
		apiclient.WithNavigator(apiclient.NavigatorFunc(func(route string) {
			assert.Equal(t, "/sign-in", route)
			f.navigated.Add(1)
		})),
	}, opts...)

	client, err := apiclient.New(testConfig{baseURL: srv.URL + "/api"}, f.store, opts...)
	require.NoError(t, err)
	f.client = client
	return f
}

func TestNew(t *testing.T) {
	_, err := apiclient.New(nil, tokenfakerepo.NewFakeTokenStore(token.Pair{}))
	require.Error(t, err)

	_, err = apiclient.New(testConfig{baseURL: "http://localhost/api"}, nil)
	require.Error(t, err)

	_, err = apiclient.New(testConfig{baseURL: "::not a url"}, tokenfakerepo.NewFakeTokenStore(token.Pair{}))
	require.Error(t, err)
}

func TestRequestPhase(t *testing.T) {
	ctx := context.Background()

	t.Run("attaches stored bearer and request id", func(t *testing.T) {
		f := setupTestFixture(t, token.Pair{Access: "a-new", Refresh: "r-good"})

		var profile map[string]any
		require.NoError(t, f.client.Get(ctx, apiclient.ProfilePath, nil, &profile))
		require.EqualValues(t, 7, profile["id"])
		require.Equal(t, "Bearer a-new", f.backend.lastAuth.Load())
		require.NotEmpty(t, f.backend.lastReqID.Load())
		require.Zero(t, f.backend.refreshCalls.Load())
	})

	t.Run("no token sends no authorization header", func(t *testing.T) {
		f := setupTestFixture(t, token.Pair{})

		_, err := f.client.Do(ctx, apiclient.Request{Path: apiclient.ProfilePath, NoAuth: true}, nil)
		require.ErrorIs(t, err, errors.ErrUnauthorized)
		require.Equal(t, "", f.backend.lastAuth.Load())
		require.Zero(t, f.backend.refreshCalls.Load())
	})

	t.Run("explicit bearer wins over the store", func(t *testing.T) {
		f := setupTestFixture(t, token.Pair{Access: "a-old"})

		_, err := f.client.Do(ctx, apiclient.Request{Path: apiclient.ProfilePath, Bearer: "a-new"}, nil)
		require.NoError(t, err)
		require.Equal(t, "Bearer a-new", f.backend.lastAuth.Load())
	})

	t.Run("custom interceptors run after the built-ins", func(t *testing.T) {
		var sawAuth string
		f := setupTestFixture(t, token.Pair{Access: "a-new"}, apiclient.WithInterceptors(func(r *http.Request) error {
			sawAuth = r.Header.Get("Authorization")
			r.Header.Set(apiclient.RequestIDHeader, "fixed-id")
			return nil
		}))

		resp, err := f.client.Do(ctx, apiclient.Request{Path: apiclient.ProfilePath}, nil)
		require.NoError(t, err)
		require.Equal(t, "Bearer a-new", sawAuth)
		require.Equal(t, "fixed-id", resp.RequestID)
	})

	t.Run("non 401 errors propagate with the backend message", func(t *testing.T) {
		f := setupTestFixture(t, token.Pair{Access: "a-new"})

		_, err := f.client.Do(ctx, apiclient.Request{Path: "/administration/boom/"}, nil)
		var httpErr *errors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		require.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
		require.Equal(t, "database unavailable", httpErr.Message())
		require.Zero(t, f.backend.refreshCalls.Load())
	})
}

func TestRefreshInterceptor(t *testing.T) {
	ctx := context.Background()

	t.Run("401 refreshes once and replays with the new token", func(t *testing.T) {
		f := setupTestFixture(t, token.Pair{Access: "a-old", Refresh: "r-good"})
		f.backend.rotated = "r-rotated"

		require.NoError(t, f.client.Get(ctx, apiclient.ProfilePath, nil, nil))
		require.EqualValues(t, 1, f.backend.refreshCalls.Load())
		require.EqualValues(t, 2, f.backend.profileCalls.Load())
		require.Equal(t, token.Pair{Access: "a-new", Refresh: "r-rotated"}, f.store.Pair())
		require.Zero(t, f.navigated.Load())
	})

	t.Run("concurrent 401s share a single refresh", func(t *testing.T) {
		f := setupTestFixture(t, token.Pair{Access: "a-old", Refresh: "r-good"})
		f.backend.refreshDelay = 50 * time.Millisecond

		const n = 8
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = f.client.Get(ctx, apiclient.ProfilePath, nil, nil)
			}()
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		require.EqualValues(t, 1, f.backend.refreshCalls.Load())
		require.Equal(t, "a-new", f.store.Pair().Access)
		require.Equal(t, "r-good", f.store.Pair().Refresh)
	})

	t.Run("concurrent 401s all fail when the refresh fails", func(t *testing.T) {
		f := setupTestFixture(t, token.Pair{Access: "a-old", Refresh: "r-bad"})
		f.backend.refreshDelay = 50 * time.Millisecond

		const n = 5
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = f.client.Get(ctx, apiclient.ProfilePath, nil, nil)
			}()
		}
		wg.Wait()

		for _, err := range errs {
			require.ErrorIs(t, err, errors.ErrSessionInvalid)
		}
		require.EqualValues(t, 1, f.backend.refreshCalls.Load())
		require.True(t, f.store.Pair().IsEmpty())
		require.GreaterOrEqual(t, f.navigated.Load(), int32(1))
	})

	t.Run("refresh rejection carries the oauth2 error", func(t *testing.T) {
		f := setupTestFixture(t, token.Pair{Access: "a-old", Refresh: "r-bad"})

		err := f.client.Get(ctx, apiclient.ProfilePath, nil, nil)
		require.ErrorIs(t, err, errors.ErrSessionInvalid)

		var retrieveErr *oauth2.RetrieveError
		require.ErrorAs(t, err, &retrieveErr)
		require.Equal(t, "token_not_valid", retrieveErr.ErrorCode)
		require.Equal(t, http.StatusUnauthorized, retrieveErr.Response.StatusCode)
		require.EqualValues(t, 1, f.navigated.Load())
		require.EqualValues(t, 1, f.store.Clears())
	})

	t.Run("replayed request is never retried twice", func(t *testing.T) {
		f := setupTestFixture(t, token.Pair{Access: "a-old", Refresh: "r-good"})
		f.backend.alwaysDeny = true

		err := f.client.Get(ctx, apiclient.ProfilePath, nil, nil)
		require.ErrorIs(t, err, errors.ErrUnauthorized)
		require.EqualValues(t, 1, f.backend.refreshCalls.Load())
		require.EqualValues(t, 2, f.backend.profileCalls.Load())
		require.Zero(t, f.navigated.Load())
	})

	t.Run("missing refresh token ends the session without a refresh call", func(t *testing.T) {
		f := setupTestFixture(t, token.Pair{Access: "a-old"})

		err := f.client.Get(ctx, apiclient.ProfilePath, nil, nil)
		require.ErrorIs(t, err, errors.ErrSessionInvalid)
		require.ErrorIs(t, err, errors.ErrNoRefreshToken)
		require.Zero(t, f.backend.refreshCalls.Load())
		require.EqualValues(t, 1, f.navigated.Load())
	})

	t.Run("custom refresher is used", func(t *testing.T) {
		var got string
		f := setupTestFixture(t, token.Pair{Access: "a-old", Refresh: "r-custom"},
			apiclient.WithRefresher(apiclient.RefresherFunc(func(_ context.Context, refresh string) (string, error) {
				got = refresh
				return "a-new", nil
			})))

		require.NoError(t, f.client.Get(ctx, apiclient.ProfilePath, nil, nil))
		require.Equal(t, "r-custom", got)
		require.Zero(t, f.backend.refreshCalls.Load())
	})

	t.Run("token endpoints are exempt", func(t *testing.T) {
		f := setupTestFixture(t, token.Pair{Access: "a-old", Refresh: "r-good"})

		_, err := f.client.ObtainPair(ctx, "ana@condo.test", "wrong")
		require.ErrorIs(t, err, errors.ErrAuth)

		_, err = f.client.RefreshPair(ctx, "r-bad")
		require.Error(t, err)
		require.EqualValues(t, 1, f.backend.refreshCalls.Load())
		require.Zero(t, f.navigated.Load())
	})
}

func TestNetworkErrors(t *testing.T) {
	store := tokenfakerepo.NewFakeTokenStore(token.Pair{Access: "a-old", Refresh: "r-good"})
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	var navigated bool
	client, err := apiclient.New(testConfig{baseURL: srv.URL + "/api"}, store,
		apiclient.WithNavigator(apiclient.NavigatorFunc(func(string) { navigated = true })))
	require.NoError(t, err)

	err = client.Get(context.Background(), apiclient.ProfilePath, nil, nil)
	require.ErrorIs(t, err, errors.ErrNetwork)
	require.Zero(t, errors.StatusCode(err))
	require.False(t, navigated)
	require.Equal(t, "a-old", store.Pair().Access)
}

func TestObtainPair(t *testing.T) {
	f := setupTestFixture(t, token.Pair{})

	pair, err := f.client.ObtainPair(context.Background(), "ana@condo.test", "secret")
	require.NoError(t, err)
	require.Equal(t, token.Pair{Access: "a-new", Refresh: "r-good"}, pair)
}
