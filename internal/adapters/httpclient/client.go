// Package httpclient reads and writes remote linked-data documents over HTTP.
package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/randomtoy/linked-chess/internal/obslog"
	"github.com/randomtoy/linked-chess/internal/ports"
	"github.com/randomtoy/linked-chess/internal/rdf"
)

const (
	acceptRDF    = "text/turtle, application/n-triples;q=0.9, */*;q=0.1"
	maxRedirects = 5
	bodyLogLimit = 512
)

// Client implements ports.Fetcher, ports.UpdatePublisher and ports.Notifier.
type Client struct {
	http *fasthttp.Client

	defaultTimeout time.Duration
	userAgent      string
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func New(opts ...Option) *Client {
	c := &Client{
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		userAgent:      "linked-chess",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch GETs a document, following redirects so FinalURL names the
// document that was actually served.
func (c *Client) Fetch(ctx context.Context, target string) (ports.Document, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	current := target
	for hop := 0; ; hop++ {
		req.Reset()
		resp.Reset()
		req.Header.SetMethod(fasthttp.MethodGet)
		req.SetRequestURI(current)
		req.Header.Set(fasthttp.HeaderAccept, acceptRDF)
		req.Header.SetUserAgent(c.userAgent)

		if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
			return ports.Document{}, fmt.Errorf("request failed: %w", err)
		}

		status := resp.StatusCode()
		if !fasthttp.StatusCodeIsRedirect(status) {
			break
		}
		if hop >= maxRedirects {
			return ports.Document{}, fmt.Errorf("%w: too many redirects from %s", ports.ErrUpstream, target)
		}
		next, err := resolveLocation(current, string(resp.Header.Peek(fasthttp.HeaderLocation)))
		if err != nil {
			return ports.Document{}, fmt.Errorf("%w: %v", ports.ErrUpstream, err)
		}
		obslog.L().Debug("fetch_redirect", zap.String("from", current), zap.String("to", next), zap.Int("status", status))
		current = next
	}

	// resp is released on return; the body must be copied out.
	body := append([]byte(nil), resp.Body()...)
	return ports.Document{
		Status:      resp.StatusCode(),
		FinalURL:    current,
		ContentType: string(resp.Header.ContentType()),
		Body:        body,
	}, nil
}

// Publish PATCHes a SPARQL update to a remote document.
func (c *Client) Publish(ctx context.Context, documentURL, update string) error {
	return c.send(ctx, fasthttp.MethodPatch, documentURL, rdf.MediaSPARQLUpdate, []byte(update), nil)
}

// Notify POSTs the notification body to the recipient's inbox.
func (c *Client) Notify(ctx context.Context, n ports.Notification) error {
	if n.Inbox == "" {
		return fmt.Errorf("%w: no inbox for %s", ports.ErrNotFound, n.Recipient)
	}
	headers := map[string]string{"Slug": n.ID}
	return c.send(ctx, fasthttp.MethodPost, n.Inbox, rdf.MediaTurtle, []byte(n.Body), headers)
}

func (c *Client) send(ctx context.Context, method, target, contentType string, body []byte, headers map[string]string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(target)
	req.Header.SetContentType(contentType)
	req.Header.SetUserAgent(c.userAgent)
	for k, v := range headers {
		if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
			req.Header.Set(k, v)
		}
	}
	req.SetBody(body)

	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return fmt.Errorf("%w: %s %s status=%d body=%s", ports.ErrUpstream, method, target, status, truncate(string(resp.Body()), bodyLogLimit))
	}
	return nil
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func resolveLocation(base, location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("redirect from %s without location", base)
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	l, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(l).String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
