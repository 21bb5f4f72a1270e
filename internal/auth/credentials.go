package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"

	"levelone/internal/common"
	"levelone/internal/mainutil"
)

var (
	ErrRefreshFailed = errors.New("auth: refresh token exchange failed")
	ErrNoAuthCode    = errors.New("auth: no authorization code received")
)

// HTTPError carries the status and response body of a failed token
// endpoint call for diagnosis.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("auth: http status %d: %s", e.Status, e.Body)
}

type Config struct {
	AppKey      string
	SecretKey   string
	CallbackURL string
	AuthURL     string
	TokenURL    string
	TokenFile   string

	// Callback listener for the one-time authorization code capture.
	ListenAddr string
	CertFile   string
	KeyFile    string

	// How long to wait for the user to complete the interactive flow.
	CodeTimeout time.Duration
}

type Options struct {
	Logger     zerolog.Logger
	Stdout     common.Printlnfer
	HTTPClient *http.Client
}

// Credentials owns the OAuth token lifecycle: cached access token, refresh
// exchange, and the interactive authorization-code flow.
type Credentials struct {
	cfg   Config
	opts  Options
	store *Store
}

func New(cfg Config, options ...common.Option) *Credentials {
	opts := Options{
		Logger: zerolog.Nop(),
		Stdout: common.Silent,
	}
	for _, o := range options {
		if err := o(&opts); err != nil {
			panic("auth: unknown error setting options")
		}
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8182"
	}
	if cfg.CodeTimeout == 0 {
		cfg.CodeTimeout = 5 * time.Minute
	}
	return &Credentials{
		cfg:   cfg,
		opts:  opts,
		store: NewStore(cfg.TokenFile, opts.Logger),
	}
}

// AuthorizeURL is the provider URL the user must visit to grant access.
func (c *Credentials) AuthorizeURL() string {
	return fmt.Sprintf("%s?client_id=%s&redirect_uri=%s",
		c.cfg.AuthURL, url.QueryEscape(c.cfg.AppKey), url.QueryEscape(c.cfg.CallbackURL))
}

// Token returns a bearer access token. Cached tokens are used while fresh,
// the refresh token mints a new access token when only the access token has
// expired, and the full interactive flow runs when neither is usable.
// A failed refresh is surfaced, not silently retried or re-authorized.
func (c *Credentials) Token(ctx context.Context) (string, error) {
	data, err := c.store.Load()
	if err != nil {
		return "", err
	}
	now := time.Now()
	if data.RefreshValid(now) {
		if data.AccessValid(now) {
			c.opts.Logger.Debug().Msg("using cached access token")
			return data.AccessToken, nil
		}
		return c.refresh(ctx, data)
	}
	return c.authorize(ctx)
}

func (c *Credentials) refresh(ctx context.Context, data TokenData) (string, error) {
	c.opts.Logger.Info().Msg("refreshing access token")
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", data.RefreshToken)
	form.Set("redirect_uri", c.cfg.CallbackURL)

	status, body, err := c.postToken(ctx, form)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		c.opts.Logger.Error().Int("status", status).Str("body", string(body)).
			Msg("refresh token exchange rejected")
		return "", fmt.Errorf("%w: status %d: %s", ErrRefreshFailed, status, body)
	}
	var parser fastjson.Parser
	v, err := parser.ParseBytes(body)
	if err != nil {
		return "", err
	}
	data.AccessToken = string(v.GetStringBytes("access_token"))
	data.AccessCreated = Minute(time.Now())
	if err := c.store.Save(data); err != nil {
		return "", err
	}
	return data.AccessToken, nil
}

func (c *Credentials) authorize(ctx context.Context) (string, error) {
	listener := newCodeListener(c.cfg.ListenAddr, c.cfg.CertFile, c.cfg.KeyFile, c.opts.Logger)
	if err := listener.Start(); err != nil {
		return "", err
	}
	defer listener.Close()

	c.opts.Stdout.Println(c.AuthorizeURL())
	c.opts.Logger.Info().Str("url", c.AuthorizeURL()).Msg("waiting for authorization")

	code, err := c.waitForCode(ctx, listener)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.CallbackURL)

	status, body, err := c.postToken(ctx, form)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		c.opts.Logger.Error().Int("status", status).Str("body", string(body)).
			Msg("authorization code exchange rejected")
		return "", &HTTPError{Status: status, Body: string(body)}
	}
	var parser fastjson.Parser
	v, err := parser.ParseBytes(body)
	if err != nil {
		return "", err
	}
	now := Minute(time.Now())
	data := TokenData{
		AccessToken:    string(v.GetStringBytes("access_token")),
		AccessCreated:  now,
		RefreshToken:   string(v.GetStringBytes("refresh_token")),
		RefreshCreated: now,
	}
	if err := c.store.Save(data); err != nil {
		return "", err
	}
	return data.AccessToken, nil
}

// waitForCode blocks on the listener's single-slot handoff channel until a
// code arrives, the context is canceled, or the wait times out.
func (c *Credentials) waitForCode(ctx context.Context, listener *codeListener) (string, error) {
	spinner := mainutil.NewSpinner("waiting for authorization code")
	defer spinner.Finish()

	deadline := time.NewTimer(c.cfg.CodeTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case code := <-listener.Codes():
			return code, nil
		case <-tick.C:
			spinner.Add(1)
		case <-deadline.C:
			return "", ErrNoAuthCode
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (c *Credentials) postToken(ctx context.Context, form url.Values) (status int, body []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+c.encodedCredentials())

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func (c *Credentials) encodedCredentials() string {
	return base64.StdEncoding.EncodeToString([]byte(c.cfg.AppKey + ":" + c.cfg.SecretKey))
}
