package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/DiegoxdGarcia2/smart-condominium/apimodel"
	"github.com/DiegoxdGarcia2/smart-condominium/internal/errors"
	"github.com/DiegoxdGarcia2/smart-condominium/token"
	"golang.org/x/oauth2"
)

// ObtainPair exchanges credentials for a token pair at POST /token/. Bad
// credentials and a response without an access token both return errors.ErrAuth.
func (c *Client) ObtainPair(ctx context.Context, email, password string) (token.Pair, error) {
	var pair apimodel.TokenPair
	_, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   TokenPath,
		Body:   apimodel.LoginRequest{Email: email, Password: password},
		NoAuth: true,
	}, &pair)
	if err != nil {
		if status := errors.StatusCode(err); status >= 400 && status < 500 {
			var httpErr *errors.HTTPError
			errors.As(err, &httpErr)
			return token.Pair{}, fmt.Errorf("%w: %s", errors.ErrAuth, httpErr.Message())
		}
		return token.Pair{}, err
	}
	if pair.Access == "" {
		return token.Pair{}, fmt.Errorf("%w: no access token in response", errors.ErrAuth)
	}
	return token.Pair{Access: pair.Access, Refresh: pair.Refresh}, nil
}

// RefreshPair exchanges a refresh token at POST /token/refresh/. The returned
// pair carries the input refresh token when the backend does not rotate it.
// Backend rejections are returned as *oauth2.RetrieveError.
func (c *Client) RefreshPair(ctx context.Context, refreshToken string) (token.Pair, error) {
	if refreshToken == "" {
		return token.Pair{}, errors.ErrNoRefreshToken
	}

	var pair apimodel.TokenPair
	_, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   TokenRefreshPath,
		Body:   apimodel.RefreshRequest{Refresh: refreshToken},
		NoAuth: true,
	}, &pair)
	if err != nil {
		var httpErr *errors.HTTPError
		if errors.As(err, &httpErr) {
			return token.Pair{}, retrieveError(httpErr)
		}
		return token.Pair{}, err
	}
	if pair.Access == "" {
		return token.Pair{}, fmt.Errorf("%w: no access token in refresh response", errors.ErrSessionInvalid)
	}
	return token.Pair{Refresh: refreshToken}.Merge(token.Pair{Access: pair.Access, Refresh: pair.Refresh}), nil
}

func retrieveError(httpErr *errors.HTTPError) *oauth2.RetrieveError {
	var body struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(httpErr.Body, &body)

	return &oauth2.RetrieveError{
		Response: &http.Response{
			StatusCode: httpErr.StatusCode,
			Status:     fmt.Sprintf("%d %s", httpErr.StatusCode, http.StatusText(httpErr.StatusCode)),
		},
		Body:             httpErr.Body,
		ErrorCode:        body.Code,
		ErrorDescription: body.Detail,
	}
}

// storeRefresher is the default Refresher: exchange, then persist the pair.
type storeRefresher struct {
	client *Client
}

func (r storeRefresher) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	pair, err := r.client.RefreshPair(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if err := r.client.store.Save(ctx, pair); err != nil {
		return "", errors.Wrapf(err, "persist refreshed tokens")
	}
	return pair.Access, nil
}
