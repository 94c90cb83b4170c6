package webfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/internal/utils"
	"github.com/leofalp/llmstream/providers/tool"
)

const (
	// DefaultTimeout bounds one fetch unless the model asks for another.
	DefaultTimeout = 30 * time.Second
	// MaxTimeout caps Input.TimeoutSeconds.
	MaxTimeout = 300 * time.Second
	// DefaultUserAgent is sent unless the input overrides it.
	DefaultUserAgent = "llmstream-webfetch/1.0"
	// MaxBodySize is the largest response body accepted (10MB).
	MaxBodySize = 10 * 1024 * 1024
	// MaxRedirects is the number of redirects followed before giving up.
	MaxRedirects = 10
)

// ErrEmptyURL is returned when the input holds no URL.
var ErrEmptyURL = errors.New("URL cannot be empty")

// Fetcher downloads pages and converts them to Markdown.
type Fetcher struct {
	client *http.Client
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client. Its redirect policy is
// kept as is.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// NewFetcher returns a Fetcher with a dedicated transport whose dial, TLS
// and header timeouts keep unresponsive servers from blocking a tool call.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				ForceAttemptHTTP2:     true,
			},
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= MaxRedirects {
					return fmt.Errorf("too many redirects (>%d)", MaxRedirects)
				}
				return nil
			},
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// New returns the web fetch [tool.Tool] backed by a default Fetcher.
func New(opts ...Option) *tool.Tool[Input, Output] {
	return tool.New(
		"web_fetch",
		NewFetcher(opts...).Fetch,
		tool.WithDescription("Fetches a web page and returns its content as Markdown. Partial URLs get an https:// prefix. Redirects are followed and the final URL is returned."),
		tool.WithCost(cost.ToolCost{Currency: "USD", Description: "local HTTP request"}),
	)
}

// Fetch retrieves the page at req.URL and converts it to Markdown. Partial
// URLs such as "example.com" are fetched over https. Any status other than
// 200 OK is an error, as is a body larger than MaxBodySize.
func (f *Fetcher) Fetch(ctx context.Context, req Input) (Output, error) {
	url := normalizeURL(req.URL)
	if url == "" {
		return Output{}, ErrEmptyURL
	}

	timeout := DefaultTimeout
	if req.TimeoutSeconds > 0 {
		timeout = min(time.Duration(req.TimeoutSeconds)*time.Second, MaxTimeout)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Output{}, fmt.Errorf("failed to create request: %w", err)
	}
	userAgent := DefaultUserAgent
	if req.UserAgent != "" {
		userAgent = req.UserAgent
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return Output{}, fmt.Errorf("request timeout or canceled: %w", err)
		}
		return Output{}, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer utils.CloseWithLog(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return Output{}, fmt.Errorf("unexpected status code: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return Output{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > MaxBodySize {
		return Output{}, fmt.Errorf("response body exceeds maximum size of %d bytes", MaxBodySize)
	}

	markdown, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return Output{}, fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}

	output := Output{
		URL:      resp.Request.URL.String(),
		Markdown: markdown,
	}
	if req.IncludeHTML {
		output.HTML = string(body)
	}
	return output, nil
}

func normalizeURL(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return url
}

// Input holds the parameters the model passes to the tool.
type Input struct {
	URL            string `json:"url" jsonschema:"description=The URL to fetch (partial URLs like 'example.com' are accepted),required"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" jsonschema:"description=Request timeout in seconds (default 30),minimum=1,maximum=300"`
	UserAgent      string `json:"user_agent,omitempty" jsonschema:"description=Custom User-Agent header"`
	IncludeHTML    bool   `json:"include_html,omitempty" jsonschema:"description=Also return the raw HTML"`
}

// Output is returned to the model. URL is the final URL after redirects.
type Output struct {
	URL      string `json:"url" jsonschema:"description=The final URL after redirects"`
	Markdown string `json:"markdown" jsonschema:"description=The page content as Markdown"`
	HTML     string `json:"html,omitempty" jsonschema:"description=The raw HTML when requested"`
}
