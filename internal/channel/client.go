// Package channel is the delivery channel between the notification UI and
// the portal: it turns read, read-all and delete intents into round trips
// against the role's endpoint set and hands back the page props the server
// re-renders afterwards.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nhle/lms-notify/internal/model"
)

const (
	headerInertia         = "X-Inertia"
	headerInertiaVersion  = "X-Inertia-Version"
	headerInertiaLocation = "X-Inertia-Location"
	headerXSRF            = "X-XSRF-TOKEN"
	headerRequestID       = "X-Request-ID"
	cookieXSRF            = "XSRF-TOKEN"
)

// Options configures a Client.
type Options struct {
	// Origin is the portal root URL, e.g. https://absensi.kampus.ac.id.
	Origin string

	// PagePath is the page whose props carry the header notifications.
	// Actions send it as Referer so the server redirects back to it.
	PagePath string

	// Config is the endpoint set to use until the server injects its own.
	Config model.NotificationConfig

	// Token is sent as a Bearer token when non-empty.
	Token string

	Timeout time.Duration

	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper

	Log *logrus.Entry
}

// Client sends notification actions to the portal. It is safe for
// concurrent use; the UI and the background refresher share one.
type Client struct {
	http     *resty.Client
	origin   *url.URL
	pagePath string
	log      *logrus.Entry

	mu      sync.Mutex
	config  model.NotificationConfig
	version string
}

// New creates a Client. It does not contact the server.
func New(opts Options) (*Client, error) {
	origin, err := url.Parse(strings.TrimRight(opts.Origin, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing server url %q", opts.Origin)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, errors.Errorf("server url %q must be absolute", opts.Origin)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "channel")

	rc := resty.New().
		SetLogger(log).
		SetBaseURL(origin.String()).
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("Accept", "text/html, application/xhtml+xml").
		SetHeader(headerInertia, "true").
		SetHeader("X-Requested-With", "XMLHttpRequest")
	if opts.Transport != nil {
		rc.SetTransport(opts.Transport)
	}
	if opts.Token != "" {
		rc.SetAuthToken(opts.Token)
	}

	c := &Client{
		http:     rc,
		origin:   origin,
		pagePath: opts.PagePath,
		log:      log,
		config:   opts.Config,
	}
	rc.OnBeforeRequest(c.decorate)

	return c, nil
}

// decorate stamps per-request headers: request id, page version and the
// CSRF token mirrored from the XSRF-TOKEN cookie.
func (c *Client) decorate(_ *resty.Client, r *resty.Request) error {
	r.SetHeader(headerRequestID, uuid.New().String())

	c.mu.Lock()
	version := c.version
	c.mu.Unlock()
	if version != "" {
		r.SetHeader(headerInertiaVersion, version)
	}

	if token := c.xsrfToken(); token != "" {
		r.SetHeader(headerXSRF, token)
	}
	return nil
}

func (c *Client) xsrfToken() string {
	jar := c.http.GetClient().Jar
	if jar == nil {
		return ""
	}
	for _, ck := range jar.Cookies(c.origin) {
		if ck.Name != cookieXSRF {
			continue
		}
		v, err := url.QueryUnescape(ck.Value)
		if err != nil {
			return ck.Value
		}
		return v
	}
	return ""
}

// Config returns the endpoint set in use.
func (c *Client) Config() model.NotificationConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// SetConfig switches to the endpoint set the server injected.
func (c *Client) SetConfig(nc model.NotificationConfig) {
	if nc.BaseURL == "" {
		return
	}
	c.mu.Lock()
	c.config = nc
	c.mu.Unlock()
}

// ResolveURL turns a server-relative link (action_url, allUrl) into an
// absolute URL on the portal. Absolute links are returned unchanged.
func (c *Client) ResolveURL(link string) (string, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return "", errors.Wrapf(err, "parsing link %q", link)
	}
	return c.origin.ResolveReference(ref).String(), nil
}

// Fetch loads the props page, the equivalent of a navigation.
func (c *Client) Fetch(ctx context.Context) (model.PageProps, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.pagePath)
	return c.pageFrom(ctx, "fetch "+c.pagePath, resp, err, false)
}

// MarkRead posts {base}/{id}/read.
func (c *Client) MarkRead(ctx context.Context, id int64) (model.PageProps, error) {
	path := fmt.Sprintf("%s/%d/read", c.base(), id)
	resp, err := c.action(ctx).Post(path)
	return c.pageFrom(ctx, "mark read "+path, resp, err, true)
}

// MarkAllRead posts {base}/read-all.
func (c *Client) MarkAllRead(ctx context.Context) (model.PageProps, error) {
	path := c.base() + "/read-all"
	resp, err := c.action(ctx).Post(path)
	return c.pageFrom(ctx, "mark all read "+path, resp, err, true)
}

// Delete issues DELETE {base}/{id}.
func (c *Client) Delete(ctx context.Context, id int64) (model.PageProps, error) {
	path := fmt.Sprintf("%s/%d", c.base(), id)
	resp, err := c.action(ctx).Delete(path)
	return c.pageFrom(ctx, "delete "+path, resp, err, true)
}

// FetchAsset downloads a static file from the portal (e.g., the
// notification sound).
func (c *Client) FetchAsset(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "*/*").
		Get(path)
	if err != nil {
		return nil, &TransportError{Op: "fetch asset " + path, Err: err}
	}
	if resp.IsError() {
		return nil, statusError("fetch asset "+path, resp.StatusCode(), nil)
	}
	return resp.Body(), nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.Config().BaseURL, "/")
}

func (c *Client) action(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx)
	if c.pagePath != "" {
		r.SetHeader("Referer", c.origin.String()+c.pagePath)
	}
	return r
}

// pageFrom decodes the page the server rendered after a visit. Actions
// answer with a redirect back to the referer which the HTTP client follows;
// when the final response is not a page object a fresh Fetch stands in.
func (c *Client) pageFrom(
	ctx context.Context,
	op string,
	resp *resty.Response,
	err error,
	refetch bool,
) (model.PageProps, error) {
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.PageProps{}, &TransportError{Op: op, Err: ctxErr}
		}
		return model.PageProps{}, &TransportError{Op: op, Err: err}
	}

	status := resp.StatusCode()
	c.log.WithFields(logrus.Fields{
		"op":      op,
		"status":  status,
		"elapsed": resp.Time(),
	}).Debug("round trip")

	if status == http.StatusConflict {
		if loc := resp.Header().Get(headerInertiaLocation); loc != "" {
			c.mu.Lock()
			c.version = ""
			c.mu.Unlock()
			return model.PageProps{}, &TransportError{
				Op:     op,
				Status: status,
				Err:    errors.Wrap(ErrVersionConflict, loc),
			}
		}
	}

	if resp.IsError() || status < 200 || status >= 300 {
		return model.PageProps{}, statusError(op, status, resp.Body())
	}

	if resp.Header().Get(headerInertia) == "true" {
		var page model.Page
		if err := json.Unmarshal(resp.Body(), &page); err != nil {
			return model.PageProps{}, &TransportError{
				Op:     op,
				Status: status,
				Err:    errors.Wrap(err, "decoding page"),
			}
		}
		c.observe(page)
		return page.Props, nil
	}

	if refetch {
		return c.Fetch(ctx)
	}

	return model.PageProps{}, &TransportError{
		Op:     op,
		Status: status,
		Err:    errors.New("response is not a page object"),
	}
}

func (c *Client) observe(page model.Page) {
	c.mu.Lock()
	c.version = page.Version
	if nc := page.Props.NotificationConfig; nc != nil && nc.BaseURL != "" {
		c.config = *nc
	}
	c.mu.Unlock()
}
