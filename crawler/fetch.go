package crawler

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/liamtostring/schegen/models"
	"github.com/liamtostring/schegen/utils"
)

const (
	DefaultUserAgent = "schegen/1.0"
	DefaultSizeCap   = 10 << 20
)

type FetcherConfig struct {
	Timeout    time.Duration
	UserAgent  string
	RateLimit  float64 // requests per second, 0 = unlimited
	Burst      int
	MaxRetries int
	SizeCap    int64
	Retry      utils.RetryConfig
}

// Fetcher downloads HTML pages with a timeout, a body size cap, rate
// limiting and bounded retries for transient failures.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	sizeCap   int64
	retry     utils.RetryConfig
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.SizeCap <= 0 {
		cfg.SizeCap = DefaultSizeCap
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	retry := cfg.Retry
	if cfg.MaxRetries != 0 {
		retry.MaxRetries = cfg.MaxRetries
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiter:   limiter,
		userAgent: cfg.UserAgent,
		sizeCap:   cfg.SizeCap,
		retry:     retry,
	}
}

// Page is a fetched HTML document decoded to UTF-8.
type Page struct {
	URL         string // after redirects
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
}

// Fetch downloads rawURL. Failures carry the URL via models.TargetError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if !utils.IsValidURL(rawURL) {
		return nil, models.WithTarget(rawURL, fmt.Errorf("%w: invalid url", models.ErrInvalidInput))
	}

	var page *Page
	err := utils.Retry(ctx, f.retry, func(ctx context.Context) error {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}
		p, err := f.fetchOnce(ctx, rawURL)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, models.WithTarget(rawURL, err)
	}
	return page, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*Page, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &utils.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return nil, fmt.Errorf("%w: content type %q is not html", models.ErrUnsupportedType, contentType)
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	raw, err := io.ReadAll(io.LimitReader(body, f.sizeCap+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > f.sizeCap {
		return nil, fmt.Errorf("response body exceeds %d bytes", f.sizeCap)
	}

	return &Page{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        toUTF8(raw, contentType),
		Duration:    time.Since(start),
	}, nil
}

// isHTML allows an empty content type; some servers omit it.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func toUTF8(data []byte, contentType string) []byte {
	enc, name, _ := charset.DetermineEncoding(data, contentType)
	if name == "utf-8" {
		return data
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil && utf8.Valid(data) {
		return data
	}
	if err != nil {
		return bytes.ToValidUTF8(data, []byte("\uFFFD"))
	}
	return decoded
}
