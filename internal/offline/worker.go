package offline

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/pkg/errors"

	appLog "riverside/internal/log"
)

// DefaultVersion names the cache of the default manifest.
const DefaultVersion = "riverside-academy-v1"

// Manifest is the versioned list of URLs pre-cached at install time. The
// version is also the cache name.
type Manifest struct {
	Version string
	URLs    []string
}

// DefaultManifest returns the site pages, script, stylesheet and logo.
func DefaultManifest() Manifest {
	return Manifest{
		Version: DefaultVersion,
		URLs: []string{
			"/",
			"/index.html",
			"/about.html",
			"/admissions.html",
			"/contact.html",
			"/events.html",
			"/gallery.html",
			"/login.html",
			"/css/styles.css",
			"/js/main.js",
			"/assets/logos/logo.svg",
		},
	}
}

// Equal reports whether m and o describe the same cache contents.
func (m Manifest) Equal(o Manifest) bool {
	if m.Version != o.Version || len(m.URLs) != len(o.URLs) {
		return false
	}
	for i := range m.URLs {
		if m.URLs[i] != o.URLs[i] {
			return false
		}
	}
	return true
}

// fallbackKeys are tried in order for offline navigations.
var fallbackKeys = []string{"/", "/index.html"}

type State int

const (
	StateParsed State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActivated
	StateRedundant
)

func (s State) String() string {
	switch s {
	case StateParsed:
		return "parsed"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActivated:
		return "activated"
	case StateRedundant:
		return "redundant"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for c := StateParsed; c <= StateRedundant; c++ {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}
	return errors.Errorf("offline: unknown worker state %q", text)
}

// ErrNotActive is returned by Fetch on a worker that has not activated.
var ErrNotActive = errors.New("offline: worker is not active")

// Worker is one version of the offline cache: it installs a manifest into
// its named cache, evicts other caches on activation, and then answers
// fetches cache-first.
type Worker struct {
	manifest Manifest
	storage  Storage
	network  Network

	mu    sync.RWMutex
	state State
}

func NewWorker(m Manifest, storage Storage, network Network) *Worker {
	return &Worker{manifest: m, storage: storage, network: network}
}

func (w *Worker) Manifest() Manifest {
	return w.manifest
}

func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Install fetches every manifest URL and stores them as one unit. If any
// URL fails (transport error or non-2xx) nothing is stored, a cache created
// by this attempt is removed, and the worker becomes redundant.
func (w *Worker) Install(ctx context.Context) error {
	w.setState(StateInstalling)
	name := w.manifest.Version

	err := w.install(ctx)
	if err == nil {
		w.setState(StateInstalled)
		appLog.Info("offline cache installed", "cache", name, "urls", len(w.manifest.URLs))
		return nil
	}

	appLog.Error("offline install failed", err, "cache", name)
	w.setState(StateRedundant)
	return err
}

func (w *Worker) install(ctx context.Context) error {
	name := w.manifest.Version
	if name == "" {
		return errors.New("offline: manifest version is empty")
	}

	// Fetch everything before touching storage.
	entries := make([]Entry, 0, len(w.manifest.URLs))
	for _, u := range w.manifest.URLs {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := w.network.Fetch(ctx, Request{Method: http.MethodGet, URL: u, Header: http.Header{}})
		if err != nil {
			return errors.Wrapf(err, "offline: precache %s", u)
		}
		if !resp.OK() {
			return errors.Errorf("offline: precache %s: status %d", u, resp.Status)
		}
		entries = append(entries, Entry{Key: u, Response: resp})
	}

	existed, err := w.storage.Has(name)
	if err != nil {
		return err
	}
	cache, err := w.storage.Open(name)
	if err != nil {
		return err
	}
	if err := cache.PutAll(entries); err != nil {
		if !existed {
			if _, derr := w.storage.Delete(name); derr != nil {
				appLog.Warn("offline: drop partial cache failed", "cache", name, "err", derr)
			}
		}
		return errors.Wrapf(err, "offline: store %s", name)
	}
	return nil
}

// Activate deletes every cache not named for this version. Running it again
// with nothing to delete changes nothing.
func (w *Worker) Activate(ctx context.Context) error {
	w.setState(StateActivating)

	names, err := w.storage.Keys()
	if err != nil {
		return errors.Wrap(err, "offline: list caches")
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if name == w.manifest.Version {
			continue
		}
		if _, err := w.storage.Delete(name); err != nil {
			return errors.Wrapf(err, "offline: delete cache %s", name)
		}
		appLog.Info("offline cache evicted", "cache", name)
	}

	w.setState(StateActivated)
	return nil
}

// Fetch answers req cache-first. On a miss it goes to the network. If the
// network fails for a navigation, the cached root document is served;
// other failures are returned.
func (w *Worker) Fetch(ctx context.Context, req Request) (*Response, error) {
	if w.State() != StateActivated {
		return nil, ErrNotActive
	}

	cache, err := w.storage.Open(w.manifest.Version)
	if err != nil {
		return nil, err
	}

	if req.Cacheable() {
		resp, ok, err := cache.Match(req.Key())
		if err != nil {
			appLog.Warn("offline cache read failed", "key", req.Key(), "err", err)
		} else if ok {
			appLog.Debug("offline cache hit", "key", req.Key())
			return resp, nil
		}
	}

	resp, netErr := w.network.Fetch(ctx, req)
	if netErr == nil {
		return resp, nil
	}
	if !req.Navigate {
		return nil, errors.Wrapf(netErr, "offline: fetch %s", req.URL)
	}

	for _, key := range fallbackKeys {
		resp, ok, err := cache.Match(key)
		if err == nil && ok {
			appLog.Info("offline fallback served", "url", req.URL, "fallback", key)
			return resp, nil
		}
	}
	return nil, errors.Wrapf(netErr, "offline: fetch %s (no offline page)", req.URL)
}
