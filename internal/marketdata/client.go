package marketdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"

	"levelone/internal/common"
)

const (
	defaultBaseURL   = "https://api.schwabapi.com/marketdata/v1"
	defaultTraderURL = "https://api.schwabapi.com/trader/v1"
)

var ErrNoStreamerInfo = errors.New("marketdata: no streamer info")

// HTTPError carries the status and response body of a failed API call.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("marketdata: http status %d: %s", e.Status, e.Body)
}

// Info is the per-account streamer metadata required to open and
// authenticate a streaming session. Immutable once fetched.
type Info struct {
	CustomerID string
	CorrelID   string
	Channel    string
	FunctionID string
	SocketURL  string
}

type Options struct {
	Logger     zerolog.Logger
	HTTPClient *http.Client
	BaseURL    string
	TraderURL  string
}

func OptionBaseURL(u string) common.Option {
	return func(options interface{}) error {
		return common.SetOption(options, "BaseURL", u)
	}
}

func OptionTraderURL(u string) common.Option {
	return func(options interface{}) error {
		return common.SetOption(options, "TraderURL", u)
	}
}

// Client is a bearer-authenticated REST client for the market-data API.
type Client struct {
	token string
	opts  Options
}

func NewClient(token string, options ...common.Option) *Client {
	opts := Options{
		Logger:    zerolog.Nop(),
		BaseURL:   defaultBaseURL,
		TraderURL: defaultTraderURL,
	}
	for _, o := range options {
		if err := o(&opts); err != nil {
			panic("marketdata: unknown error setting options")
		}
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{token: token, opts: opts}
}

// StreamerInfo fetches the streamer connection metadata from the user
// preference endpoint. Fetched once per process run.
func (c *Client) StreamerInfo(ctx context.Context) (Info, error) {
	body, err := c.get(ctx, c.opts.TraderURL+"/userPreference")
	if err != nil {
		return Info{}, err
	}
	var parser fastjson.Parser
	v, err := parser.ParseBytes(body)
	if err != nil {
		return Info{}, err
	}
	list := v.GetArray("streamerInfo")
	if len(list) == 0 {
		return Info{}, ErrNoStreamerInfo
	}
	si := list[0]
	return Info{
		CustomerID: string(si.GetStringBytes("schwabClientCustomerId")),
		CorrelID:   string(si.GetStringBytes("schwabClientCorrelId")),
		Channel:    string(si.GetStringBytes("schwabClientChannel")),
		FunctionID: string(si.GetStringBytes("schwabClientFunctionId")),
		SocketURL:  string(si.GetStringBytes("streamerSocketUrl")),
	}, nil
}

// Quotes fetches a non-streaming quote snapshot for the given symbols.
func (c *Client) Quotes(ctx context.Context, symbols []string) ([]byte, error) {
	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))
	return c.get(ctx, c.opts.BaseURL+"/quotes?"+q.Encode())
}

// HistoryRequest selects a price history window.
type HistoryRequest struct {
	Symbol        string
	PeriodType    string
	Period        int
	FrequencyType string
	Frequency     int
	ExtendedHours bool
	PreviousClose bool
}

// PriceHistory fetches candles for the requested window.
func (c *Client) PriceHistory(ctx context.Context, req HistoryRequest) ([]byte, error) {
	q := url.Values{}
	q.Set("symbol", req.Symbol)
	q.Set("periodType", req.PeriodType)
	q.Set("period", strconv.Itoa(req.Period))
	q.Set("frequencyType", req.FrequencyType)
	q.Set("frequency", strconv.Itoa(req.Frequency))
	if req.ExtendedHours {
		q.Set("needExtendedHoursData", "true")
	}
	if req.PreviousClose {
		q.Set("needPreviousClose", "true")
	}
	return c.get(ctx, c.opts.BaseURL+"/pricehistory?"+q.Encode())
}

// MarketHours fetches hours for one market, keyed by market then symbol
// class.
func (c *Client) MarketHours(ctx context.Context, market string) ([]byte, error) {
	q := url.Values{}
	q.Set("markets", strings.ToLower(market))
	return c.get(ctx, c.opts.BaseURL+"/markets?"+q.Encode())
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		c.opts.Logger.Error().Int("status", resp.StatusCode).Str("url", url).
			Msg("api request rejected")
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
