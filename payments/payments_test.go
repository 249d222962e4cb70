package payments_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DiegoxdGarcia2/smart-condominium/apiclient"
	"github.com/DiegoxdGarcia2/smart-condominium/token"
	tokenfakerepo "github.com/DiegoxdGarcia2/smart-condominium/token/repofake"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	baseURL string
}

func (c testConfig) GetAPIBaseURL() string         { return c.baseURL }
func (c testConfig) GetHTTPTimeout() time.Duration { return 5 * time.Second }
func (c testConfig) GetSignInRoute() string        { return "/sign-in" }
func (c testConfig) GetEnv() string                { return "TEST" }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// setupClient starts a backend serving mux under /api and returns a client
// whose store holds a valid access token.
func setupClient(t *testing.T, mux *http.ServeMux) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := tokenfakerepo.NewFakeTokenStore(token.Pair{Access: "a-valid", Refresh: "r-good"})
	client, err := apiclient.New(testConfig{baseURL: srv.URL + "/api"}, store,
		apiclient.WithNavigator(apiclient.NavigatorFunc(func(string) {})))
	require.NoError(t, err)
	return client
}
