package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/SHSHJW/top10-daily/internal/config"
	"github.com/SHSHJW/top10-daily/pkg/utils"
)

// ErrTooManyRedirects is returned once a request exceeds the redirect cap.
var ErrTooManyRedirects = errors.New("too many redirects")

// Request is a single GET issued by the chain.
type Request struct {
	Headers map[string]string
	URL     string
}

// Response carries the raw body of a 2xx reply.
type Response struct {
	Header     http.Header
	URL        string // final URL after redirects
	Body       string
	StatusCode int
	Duration   time.Duration
}

// Doer performs one HTTP attempt. Implementations must not retry.
type Doer interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// Fetcher issues GET requests with a per-request timeout, a redirect cap,
// a response size limit and request pacing.
type Fetcher struct {
	client       *http.Client
	limiter      *rate.Limiter
	bufferSizeKb int
}

// FetcherOptions configures NewFetcher.
type FetcherOptions struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	BufferSizeKb      int
	MaxRedirects      int
}

// NewFetcher creates a fetcher. A zero RequestsPerSecond disables pacing.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}

	if opts.BufferSizeKb <= 0 {
		opts.BufferSizeKb = config.DefaultBufferSizeKb
	}

	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = config.DefaultMaxRedirects
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}

		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	maxRedirects := opts.MaxRedirects

	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("%w: %d", ErrTooManyRedirects, len(via))
				}

				return nil
			},
		},
		limiter:      limiter,
		bufferSizeKb: opts.BufferSizeKb,
	}
}

// NewFetcherWithConfig creates a fetcher from the updater settings.
func NewFetcherWithConfig(cfg *config.Config) *Fetcher {
	return NewFetcher(FetcherOptions{
		Timeout:           cfg.Updater.Retry.GetTimeout(),
		RequestsPerSecond: cfg.Updater.RateLimit.RequestsPerSecond,
		Burst:             cfg.Updater.RateLimit.Burst,
		BufferSizeKb:      cfg.Advanced.BufferSizeKb,
		MaxRedirects:      cfg.Advanced.MaxRedirects,
	})
}

// Fetch performs exactly one GET. Non-2xx replies become HTTPStatusError,
// network failures become TransportError.
func (f *Fetcher) Fetch(ctx context.Context, r Request) (*Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{URL: r.URL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = utils.BuildHeaders(r.Headers)

	startTime := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: r.URL, Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		return nil, &HTTPStatusError{URL: r.URL, Status: resp.StatusCode}
	}

	// bufferSizeKb is in KB, convert to bytes
	limit := int64(f.bufferSizeKb) * 1024

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &TransportError{URL: r.URL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if int64(len(body)) > limit {
		return nil, &BodyTooLargeError{URL: r.URL, Limit: limit}
	}

	return &Response{
		Header:     resp.Header,
		URL:        resp.Request.URL.String(),
		Body:       string(body),
		StatusCode: resp.StatusCode,
		Duration:   time.Since(startTime),
	}, nil
}
