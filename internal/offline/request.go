package offline

import (
	"net/http"
	"strings"
)

// Request is the part of an HTTP request the cache policy looks at.
type Request struct {
	Method string
	// URL is the root-relative path plus query, e.g. "/about.html".
	URL    string
	Header http.Header
	// Navigate marks page loads (document requests); only these get the
	// offline fallback page.
	Navigate bool
}

// NewRequest derives a Request from an incoming HTTP request. A request is
// a navigation when the browser says so (Sec-Fetch-Mode / Sec-Fetch-Dest)
// or, lacking those headers, when it is a GET that accepts HTML.
func NewRequest(r *http.Request) Request {
	req := Request{
		Method: r.Method,
		URL:    r.URL.RequestURI(),
		Header: r.Header.Clone(),
	}

	mode := r.Header.Get("Sec-Fetch-Mode")
	dest := r.Header.Get("Sec-Fetch-Dest")
	switch {
	case mode == "navigate" || dest == "document":
		req.Navigate = true
	case mode == "" && dest == "":
		req.Navigate = r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
	}
	return req
}

// Key is the cache key for the request.
func (r Request) Key() string {
	return r.URL
}

// Cacheable reports whether the request may be answered from cache.
func (r Request) Cacheable() bool {
	return r.Method == "" || r.Method == http.MethodGet
}

// Response is a stored or fetched response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Write copies the response to w.
func (r *Response) Write(w http.ResponseWriter) error {
	for k, vs := range r.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, err := w.Write(r.Body)
	return err
}

// Entry is one keyed response for Cache.PutAll.
type Entry struct {
	Key      string
	Response *Response
}
