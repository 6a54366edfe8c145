// Package authapi obtains bearer tokens from the Career Link identity service.
package authapi

import (
	"context"
	"net/http"
	"time"

	"github.com/careerlink/session-gate/internal/config"
	"github.com/careerlink/session-gate/internal/errors"
	"github.com/careerlink/session-gate/token"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Grant is a freshly issued token and how long it stays valid.
type Grant struct {
	AccessToken  string
	RefreshToken string
	TTL          time.Duration
}

type Client struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	defaultTTL time.Duration
	nowFunc    func() time.Time
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(c *Client) {
		c.nowFunc = now
	}
}

// New resolves the token endpoint, through OIDC discovery when an issuer is
// configured, and otherwise from the configured token URL.
func New(ctx context.Context, cfg config.AuthAPIConfig, options ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		defaultTTL: cfg.GetDefaultTokenTTL(),
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}

	tokenURL := cfg.GetAuthTokenURL()
	if issuer := cfg.GetAuthIssuer(); issuer != "" {
		provider, err := oidc.NewProvider(oidc.ClientContext(ctx, c.httpClient), issuer)
		if err != nil {
			return nil, errors.Wrapf(err, "[authapi New] discover %s", issuer)
		}
		tokenURL = provider.Endpoint().TokenURL
		log.Debug().Str("issuer", issuer).Str("token_url", tokenURL).Msg("discovered token endpoint")
	}
	if tokenURL == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[authapi New] no token endpoint configured")
	}

	c.oauth = &oauth2.Config{
		ClientID:     cfg.GetAuthClientID(),
		ClientSecret: cfg.GetAuthClientSecret(),
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return c, nil
}

// TokenURL is the endpoint sign-in requests are sent to.
func (c *Client) TokenURL() string {
	return c.oauth.Endpoint.TokenURL
}

// SignIn exchanges an email and password for a bearer token.
func (c *Client) SignIn(ctx context.Context, email, password string) (Grant, error) {
	if email == "" || password == "" {
		return Grant{}, errors.ErrInvalidCredentials
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return Grant{}, classify(err)
	}

	ttl := c.ttlFor(tok)
	if ttl <= 0 {
		return Grant{}, errors.Wrapf(errors.ErrInvalidTTL, "[SignIn] issued token already expired")
	}

	return Grant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TTL:          ttl,
	}, nil
}

// ttlFor prefers expires_in, then the token's own exp claim, then the
// configured default.
func (c *Client) ttlFor(tok *oauth2.Token) time.Duration {
	now := c.nowFunc()
	if !tok.Expiry.IsZero() {
		return tok.Expiry.Sub(now)
	}
	if expiry, ok := token.Decode(tok.AccessToken).ExpiryTime(); ok {
		return expiry.Sub(now)
	}
	return c.defaultTTL
}

func classify(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorCode == "invalid_grant" {
			return errors.Wrapf(errors.ErrInvalidCredentials, "[SignIn] %s", retrieveErr.ErrorDescription)
		}
		if retrieveErr.Response != nil {
			switch retrieveErr.Response.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized:
				return errors.Wrapf(errors.ErrInvalidCredentials, "[SignIn] status %d", retrieveErr.Response.StatusCode)
			}
		}
	}
	return errors.Join(errors.ErrAuthUnavailable, errors.Wrapf(err, "[SignIn] token request"))
}
