package offline

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// maxBodyBytes bounds a single fetched body.
const maxBodyBytes = 32 << 20

// Network performs the real fetch on a cache miss.
type Network interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// HTTPNetwork fetches from a remote origin. Non-2xx responses are returned,
// not treated as errors; only transport failures are.
type HTTPNetwork struct {
	origin *url.URL
	client *http.Client
}

// NewHTTPNetwork parses origin, e.g. "https://www.riverside-academy.edu".
func NewHTTPNetwork(origin string) (*HTTPNetwork, error) {
	u, err := url.Parse(strings.TrimRight(origin, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "offline: parse origin")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("offline: origin %q must be http or https", origin)
	}
	return &HTTPNetwork{
		origin: u,
		client: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// forwardHeaders are passed through to the origin.
var forwardHeaders = []string{"Accept", "Accept-Language", "User-Agent"}

func (n *HTTPNetwork) Fetch(ctx context.Context, req Request) (*Response, error) {
	ref, err := url.Parse(req.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "offline: bad request url %q", req.URL)
	}
	target := n.origin.ResolveReference(ref)

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	hreq, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return nil, err
	}
	for _, h := range forwardHeaders {
		if v := req.Header.Get(h); v != "" {
			hreq.Header.Set(h, v)
		}
	}

	resp, err := n.client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "offline: read %s", req.URL)
	}
	header := resp.Header.Clone()
	header.Del("Content-Length")
	return &Response{Status: resp.StatusCode, Header: header, Body: body}, nil
}

// HandlerNetwork serves fetches from an in-process handler, e.g. the
// embedded static site when no origin is configured.
type HandlerNetwork struct {
	Handler http.Handler
}

func (n HandlerNetwork) Fetch(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	hreq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "offline: bad request url %q", req.URL)
	}
	if req.Header != nil {
		hreq.Header = req.Header.Clone()
	}

	rec := &bufferedWriter{header: http.Header{}}
	n.Handler.ServeHTTP(rec, hreq)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	return &Response{Status: rec.status, Header: rec.header, Body: rec.body.Bytes()}, nil
}

// bufferedWriter collects a handler's response in memory.
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (w *bufferedWriter) Header() http.Header {
	return w.header
}

func (w *bufferedWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}
