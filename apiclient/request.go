package apiclient

import (
	"net/http"
	"net/url"
	"strings"
)

// Request describes one backend call. Path is relative to the API base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	// Bearer overrides the stored access token for this call.
	Bearer string

	// NoAuth sends the request without an Authorization header. A 401 on such
	// a request is returned as is.
	NoAuth bool
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// attempt carries a request through the refresh path. retried is set once the
// request has been through a refresh so a second 401 is returned as is.
type attempt struct {
	req     Request
	retried bool
	bearer  string // token to send on replay
	sent    string // token actually sent on the last send
}

// isRefreshExempt reports the token endpoints, whose 401s never trigger a refresh.
func isRefreshExempt(path string) bool {
	p := "/" + strings.Trim(path, "/") + "/"
	return p == TokenRefreshPath || p == TokenPath
}
