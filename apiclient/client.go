// Package apiclient is the HTTP client every backend call goes through. It
// attaches the bearer token from the shared token store and recovers from an
// expired access token with a single coordinated refresh.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DiegoxdGarcia2/smart-condominium/internal/errors"
	"github.com/DiegoxdGarcia2/smart-condominium/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Backend endpoints used by the core.
const (
	TokenPath         = "/token/"
	TokenRefreshPath  = "/token/refresh/"
	ProfilePath       = "/administration/users/me/"
	PaymentsPath      = "/administration/payments/"
	InitiatePayPath   = "/administration/payments/initiate_payment/"
	FinancialFeesPath = "/administration/financial-fees/"
	UnitsPath         = "/administration/units/"
)

// Config is the part of the application configuration the client reads.
type Config interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetSignInRoute() string
	GetEnv() string
}

type Client struct {
	baseURL      string
	signInRoute  string
	httpClient   *http.Client
	store        token.Store
	refresher    Refresher
	navigator    Navigator
	interceptors []Interceptor
	logger       zerolog.Logger
	refresh      *refreshCoordinator
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithNavigator(navigator Navigator) Option {
	return func(c *Client) {
		c.navigator = navigator
	}
}

// WithRefresher replaces the built-in refresher, which exchanges the refresh
// token and persists the new pair.
func WithRefresher(refresher Refresher) Option {
	return func(c *Client) {
		c.refresher = refresher
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithInterceptors appends request interceptors after the built-in ones.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(c *Client) {
		c.interceptors = append(c.interceptors, interceptors...)
	}
}

func New(cfg Config, store token.Store, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("[apiclient.New] config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("[apiclient.New] token store is required")
	}
	baseURL := strings.TrimRight(cfg.GetAPIBaseURL(), "/")
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, errors.Wrapf(err, "[apiclient.New] invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL:     baseURL,
		signInRoute: cfg.GetSignInRoute(),
		httpClient:  &http.Client{Timeout: cfg.GetHTTPTimeout()},
		store:       store,
		logger:      log.Logger,
		refresh:     newRefreshCoordinator(),
	}
	c.navigator = logNavigator{client: c}
	c.refresher = storeRefresher{client: c}
	c.interceptors = []Interceptor{RequestIDInterceptor()}
	if cfg.GetEnv() == "DEV" {
		c.interceptors = append(c.interceptors, c.DebugInterceptor())
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Store() token.Store {
	return c.store
}

func (c *Client) SetRefresher(refresher Refresher) {
	c.refresher = refresher
}

// Do sends req and decodes a 2xx JSON body into out (when out is non-nil).
// Non-2xx responses come back as *errors.HTTPError; transport failures wrap
// errors.ErrNetwork and never trigger a refresh.
func (c *Client) Do(ctx context.Context, req Request, out any) (*Response, error) {
	a := &attempt{req: req}

	resp, err := c.send(ctx, a)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !a.retried && !req.NoAuth && !isRefreshExempt(req.Path) {
		a.retried = true

		newAccess, err := c.refresh.do(ctx, func(ctx context.Context) (string, error) {
			return c.currentAccess(ctx, a.sent)
		}, c.runRefresh)
		if err != nil {
			return nil, err
		}

		a.bearer = newAccess
		if resp, err = c.send(ctx, a); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, &errors.HTTPError{
			Method:     req.method(),
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}

	if out != nil && len(bytes.TrimSpace(resp.Body)) > 0 {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return resp, errors.Wrapf(err, "decode %s %s", req.method(), req.Path)
		}
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
	return err
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	_, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
	return err
}

func (c *Client) send(ctx context.Context, a *attempt) (*Response, error) {
	httpReq, err := c.newHTTPRequest(ctx, a)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", errors.ErrNetwork, a.req.method(), a.req.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %w", errors.ErrNetwork, a.req.method(), a.req.Path, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		RequestID:  httpReq.Header.Get(RequestIDHeader),
	}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, a *attempt) (*http.Request, error) {
	var body io.Reader
	if a.req.Body != nil {
		data, err := json.Marshal(a.req.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s %s", a.req.method(), a.req.Path)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + "/" + strings.TrimLeft(a.req.Path, "/")
	if len(a.req.Query) > 0 {
		target += "?" + a.req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, a.req.method(), target, body)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s %s", a.req.method(), a.req.Path)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if !a.req.NoAuth {
		if err := c.attachBearer(ctx, httpReq, a); err != nil {
			return nil, err
		}
	}

	for _, intercept := range c.interceptors {
		if err := intercept(httpReq); err != nil {
			return nil, errors.Wrapf(err, "intercept %s %s", a.req.method(), a.req.Path)
		}
	}
	return httpReq, nil
}

// attachBearer reads the store on every request so a token rotated by another
// caller is picked up immediately.
func (c *Client) attachBearer(ctx context.Context, httpReq *http.Request, a *attempt) error {
	access := a.bearer
	if access == "" {
		access = a.req.Bearer
	}
	if access == "" {
		pair, err := c.store.Load(ctx)
		if err != nil {
			return errors.Wrapf(err, "load token for %s %s", a.req.method(), a.req.Path)
		}
		access = pair.Access
	}
	a.sent = access
	if access == "" {
		return nil
	}
	(&oauth2.Token{AccessToken: access, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	return nil
}

// currentAccess returns the stored access token when it differs from the one
// the failed request carried, meaning a refresh already happened.
func (c *Client) currentAccess(ctx context.Context, sent string) (string, error) {
	pair, err := c.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if pair.Access != "" && pair.Access != sent {
		return pair.Access, nil
	}
	return "", nil
}

// runRefresh performs the one refresh call for the coordinator. Failure is
// terminal for the session: the store is cleared and the app is sent to sign-in.
func (c *Client) runRefresh(ctx context.Context) (string, error) {
	access, err := c.refreshWithStoredToken(ctx)
	if err == nil {
		return access, nil
	}

	c.logger.Warn().Err(err).Msg("token refresh failed, clearing session")
	if clearErr := c.store.Clear(ctx); clearErr != nil {
		c.logger.Err(clearErr).Msg("clearing token store")
	}
	c.navigator.Navigate(c.signInRoute)

	if errors.Is(err, errors.ErrSessionInvalid) {
		return "", err
	}
	return "", fmt.Errorf("%w: %w", errors.ErrSessionInvalid, err)
}

func (c *Client) refreshWithStoredToken(ctx context.Context) (string, error) {
	pair, err := c.store.Load(ctx)
	if err != nil {
		return "", errors.Wrapf(err, "load refresh token")
	}
	if pair.Refresh == "" {
		return "", errors.ErrNoRefreshToken
	}

	access, err := c.refresher.RefreshAccessToken(ctx, pair.Refresh)
	if err != nil {
		return "", err
	}
	if access == "" {
		return "", errors.ErrSessionInvalid
	}
	return access, nil
}
