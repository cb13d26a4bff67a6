package tieba

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nao1215/tiebasign/internal/config"
	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"
)

// maxRedirects bounds redirect chains. The passport login bounces through
// a few hosts before landing on the jump page.
const maxRedirects = 10

// Client talks to the passport and forum services.
// It owns a cookie jar, so one Client is one session. It is not meant to be
// shared between accounts or reused across runs.
type Client struct {
	rc        *resty.Client
	endpoints config.Endpoints
	maxPages  int
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	timeout   time.Duration
	userAgent string
	referer   string
	headers   map[string]string
	proxy     string
	maxPages  int
	logger    *slog.Logger
	transport http.RoundTripper
	now       func() time.Time
}

// WithTimeout bounds each exchange.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) { o.userAgent = ua }
}

// WithReferer sets the Referer header.
func WithReferer(ref string) Option {
	return func(o *clientOptions) { o.referer = ref }
}

// WithHeaders adds request headers. They override the built-in set.
func WithHeaders(h map[string]string) Option {
	return func(o *clientOptions) { o.headers = h }
}

// WithProxy routes requests through an http, https or socks5 proxy URL.
func WithProxy(rawURL string) Option {
	return func(o *clientOptions) { o.proxy = rawURL }
}

// WithMaxForumPages limits pagination of the followed-forum list.
func WithMaxForumPages(n int) Option {
	return func(o *clientOptions) { o.maxPages = n }
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithTransport replaces the HTTP transport. Proxy settings are ignored
// when a transport is given.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.transport = rt }
}

// WithClock replaces time.Now for the login timestamp field.
func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) { o.now = now }
}

// New creates a Client for the given endpoints.
func New(endpoints config.Endpoints, opts ...Option) (*Client, error) {
	o := clientOptions{
		timeout:   config.DefaultTimeout,
		userAgent: config.DefaultUserAgent,
		referer:   config.DefaultReferer,
		maxPages:  config.DefaultMaxForumPages,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.maxPages < 1 {
		o.maxPages = 1
	}

	transport := o.transport
	if transport == nil {
		t, err := newTransport(o.proxy)
		if err != nil {
			return nil, err
		}
		transport = t
	}

	// Cookies set on .baidu.com by the passport host must reach
	// tieba.baidu.com, which needs the public suffix list.
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	rc := resty.NewWithClient(&http.Client{Transport: transport, Jar: jar}).
		SetTimeout(o.timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects)).
		SetLogger(newRestyLogger(o.logger)).
		SetHeaders(map[string]string{
			"User-Agent":      o.userAgent,
			"Referer":         o.referer,
			"Accept":          "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
		})
	if len(o.headers) > 0 {
		rc.SetHeaders(o.headers)
	}

	logger := o.logger
	rc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("http exchange",
			"method", resp.Request.Method,
			"url", redactURL(resp.Request.URL),
			"status", resp.StatusCode(),
			"elapsed", resp.Time(),
		)
		return nil
	})
	rc.OnError(func(req *resty.Request, err error) {
		logger.Debug("http exchange failed",
			"method", req.Method,
			"url", redactURL(req.URL),
			"error", err,
		)
	})

	return &Client{
		rc:        rc,
		endpoints: endpoints,
		maxPages:  o.maxPages,
		logger:    o.logger,
		now:       o.now,
	}, nil
}

// NewFromConfig creates a Client from a validated Config.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	return New(cfg.Endpoints,
		WithTimeout(cfg.Timeout),
		WithUserAgent(cfg.UserAgent),
		WithReferer(cfg.Referer),
		WithHeaders(cfg.Headers),
		WithProxy(cfg.Proxy),
		WithMaxForumPages(cfg.MaxForumPages),
		WithLogger(logger),
	)
}

// newTransport builds the HTTP transport, optionally through a proxy.
func newTransport(rawProxy string) (*http.Transport, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("unexpected default transport %T", http.DefaultTransport)
	}
	t := base.Clone()
	t.MaxIdleConnsPerHost = 2
	t.IdleConnTimeout = 30 * time.Second

	if rawProxy == "" {
		return t, nil
	}

	u, err := url.Parse(rawProxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", rawProxy, err)
	}

	switch u.Scheme {
	case "http", "https":
		t.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		d, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		t.Proxy = nil
		if cd, ok := d.(proxy.ContextDialer); ok {
			t.DialContext = cd.DialContext
		} else {
			t.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return d.Dial(network, addr)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	return t, nil
}

// get performs a GET and checks the status.
func (c *Client) get(ctx context.Context, step, target string) (*resty.Response, error) {
	resp, err := c.rc.R().SetContext(ctx).Get(target)
	return checkResponse(step, resp, err)
}

// postForm performs a form POST and checks the status.
func (c *Client) postForm(ctx context.Context, step, target string, form map[string]string) (*resty.Response, error) {
	resp, err := c.rc.R().SetContext(ctx).SetFormData(form).Post(target)
	return checkResponse(step, resp, err)
}

func checkResponse(step string, resp *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return nil, fmt.Errorf("%s: %w", step, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("%s: %w: %s", step, ErrHTTPStatus, resp.Status())
	}
	return resp, nil
}

// decodeJSON decodes body into a generic document.
func decodeJSON(step string, body []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", step, ErrUnexpectedResponse, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%s: %w: empty document", step, ErrUnexpectedResponse)
	}
	return doc, nil
}

// redactURL drops the query string, which carries tokens on some endpoints.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.RawQuery != "" {
		u.RawQuery = "..."
	}
	return u.String()
}
