// Package entsoe fetches day-ahead prices from the ENTSO-E transparency platform.
package entsoe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/icodeforyou/spotprice-go/spot"
)

const (
	DefaultBaseURL   = "https://web-api.tp.entsoe.eu/api"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second, the platform allows 400 per minute

	DocumentTypeDayAhead = "A44"

	timeFormat = "200601021504"
)

// Fetcher performs a GET for a fully formed query URL. Any failure to get a
// response, including a timeout, is reported as spot.ErrNoResponse.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client implements spot.Source for one bidding zone.
type Client struct {
	logger      *slog.Logger
	baseURL     string
	token       string
	area        string
	timeout     time.Duration
	rateLimit   int
	fetcher     Fetcher
	transformer Transformer
	extractor   Extractor
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.rateLimit = requestsPerSecond
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithFetcher replaces the HTTP transport, timeout and rate limit are then up to f.
func WithFetcher(f Fetcher) ClientOption {
	return func(c *Client) {
		c.fetcher = f
	}
}

func WithTransformer(t Transformer) ClientOption {
	return func(c *Client) {
		c.transformer = t
	}
}

func New(token string, area string, ex Extractor, opts ...ClientOption) *Client {
	c := &Client{
		logger:      slog.Default(),
		baseURL:     DefaultBaseURL,
		token:       token,
		area:        area,
		timeout:     DefaultTimeout,
		rateLimit:   DefaultRateLimit,
		transformer: XMLTransformer{},
		extractor:   ex,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With(slog.String("module", "entsoe"))
	if c.fetcher == nil {
		c.fetcher = NewHTTPFetcher(c.timeout, c.rateLimit)
	}

	return c
}

// Prices requests the day-ahead prices covering w and extracts those inside it.
func (c *Client) Prices(ctx context.Context, w spot.Window) (spot.Series, error) {
	periodStart, periodEnd := RequestRange(w)
	c.logger.Info("requesting day-ahead prices",
		slog.String("area", c.area),
		slog.String("periodStart", periodStart),
		slog.String("periodEnd", periodEnd))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.fetcher.Fetch(ctx, c.queryURL(periodStart, periodEnd))
	if err != nil {
		if !errors.Is(err, spot.ErrNoResponse) {
			err = fmt.Errorf("%w: %w", spot.ErrNoResponse, err)
		}
		return spot.Series{}, err
	}

	doc, err := c.transformer.Transform(raw)
	if err != nil {
		if !isTransformFailure(err) {
			err = &TransformError{Payload: raw, Err: err}
		}
		c.logger.Error("can't transform entsoe response", slog.Any("error", err), slog.String("payload", string(raw)))
		return spot.Series{}, err
	}

	return Parse(c.logger, doc, c.extractor, w)
}

func (c *Client) queryURL(periodStart, periodEnd string) string {
	q := url.Values{}
	q.Set("securityToken", c.token)
	q.Set("documentType", DocumentTypeDayAhead)
	q.Set("in_domain", c.area)
	q.Set("out_domain", c.area)
	q.Set("periodStart", periodStart)
	q.Set("periodEnd", periodEnd)
	return c.baseURL + "?" + q.Encode()
}

// RequestRange formats w for the API. Position 1 of a period prices the
// first hour of the following day, so the request starts one calendar day
// before w to include midnight of the first requested day.
func RequestRange(w spot.Window) (periodStart string, periodEnd string) {
	return w.Start.AddDate(0, 0, -1).UTC().Format(timeFormat), w.End.UTC().Format(timeFormat)
}

type httpFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPFetcher(timeout time.Duration, requestsPerSecond int) Fetcher {
	if requestsPerSecond < 1 {
		requestsPerSecond = DefaultRateLimit
	}
	return &httpFetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", spot.ErrNoResponse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", spot.ErrNoResponse, redactURLError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", spot.ErrNoResponse, err)
	}

	// 4xx responses carry an acknowledgement document worth parsing
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: unexpected status code: %d", spot.ErrNoResponse, resp.StatusCode)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body, status code: %d", spot.ErrNoResponse, resp.StatusCode)
	}

	return body, nil
}

// redactURLError drops the URL, it contains the security token.
func redactURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
