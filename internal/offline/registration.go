package offline

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"

	appLog "riverside/internal/log"
)

// Status is a snapshot of a Registration.
type Status struct {
	Active          string   `json:"active,omitempty"`
	ActiveState     State    `json:"active_state"`
	Waiting         string   `json:"waiting,omitempty"`
	UpdateAvailable bool     `json:"update_available"`
	Caches          []string `json:"caches"`
}

// ErrNoWaiting is returned by ActivateWaiting when no worker is waiting.
var ErrNoWaiting = errors.New("offline: no waiting worker")

// Registration tracks the active worker and at most one waiting worker.
// The first worker activates right away. A later one installs while the
// current worker keeps serving, then waits until ActivateWaiting is called;
// listeners registered with OnUpdate hear about it.
type Registration struct {
	storage Storage
	network Network

	// mu is held for writing while a worker activates, so no fetch is
	// answered from a cache that activation is evicting.
	mu        sync.RWMutex
	active    *Worker
	waiting   *Worker
	listeners []func(Manifest)
}

func NewRegistration(storage Storage, network Network) *Registration {
	return &Registration{storage: storage, network: network}
}

// OnUpdate adds a listener called when a new version is installed and
// waiting.
func (r *Registration) OnUpdate(fn func(Manifest)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Register installs m as a new worker. Registering the manifest that is
// already active or waiting does nothing. An install failure leaves the
// current worker in control and is returned.
func (r *Registration) Register(ctx context.Context, m Manifest) error {
	r.mu.RLock()
	same := (r.active != nil && r.active.Manifest().Equal(m)) ||
		(r.waiting != nil && r.waiting.Manifest().Equal(m))
	r.mu.RUnlock()
	if same {
		appLog.Debug("offline register: manifest unchanged", "version", m.Version)
		return nil
	}

	w := NewWorker(m, r.storage, r.network)
	if err := w.Install(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	if r.active == nil {
		defer r.mu.Unlock()
		if err := w.Activate(ctx); err != nil {
			return err
		}
		r.active = w
		appLog.Info("offline worker activated", "version", m.Version)
		return nil
	}

	if r.waiting != nil {
		r.waiting.setState(StateRedundant)
	}
	r.waiting = w
	listeners := append([]func(Manifest){}, r.listeners...)
	r.mu.Unlock()

	appLog.Info("offline update available", "version", m.Version, "active", r.activeVersion())
	for _, fn := range listeners {
		fn(m)
	}
	return nil
}

// ActivateWaiting promotes the waiting worker, evicting every other cache.
func (r *Registration) ActivateWaiting(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.waiting == nil {
		return ErrNoWaiting
	}
	w := r.waiting
	if err := w.Activate(ctx); err != nil {
		return err
	}
	if r.active != nil {
		r.active.setState(StateRedundant)
	}
	r.active = w
	r.waiting = nil
	appLog.Info("offline worker activated", "version", w.Manifest().Version)
	return nil
}

// UpdateAvailable reports whether a newer worker is waiting.
func (r *Registration) UpdateAvailable() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.waiting != nil
}

func (r *Registration) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := Status{UpdateAvailable: r.waiting != nil}
	if r.active != nil {
		st.Active = r.active.Manifest().Version
		st.ActiveState = r.active.State()
	}
	if r.waiting != nil {
		st.Waiting = r.waiting.Manifest().Version
	}
	names, err := r.storage.Keys()
	if err != nil {
		appLog.Warn("offline status: list caches failed", "err", err)
	}
	st.Caches = names
	if st.Caches == nil {
		st.Caches = []string{}
	}
	return st
}

// Fetch routes req through the active worker, or straight to the network
// when nothing is active yet.
func (r *Registration) Fetch(ctx context.Context, req Request) (*Response, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.active == nil {
		return r.network.Fetch(ctx, req)
	}
	return r.active.Fetch(ctx, req)
}

// ServeHTTP is the fetch interceptor. Failures that the worker could not
// recover become 502 responses.
func (r *Registration) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, err := r.Fetch(req.Context(), NewRequest(req))
	if err != nil {
		appLog.Warn("offline fetch failed", "url", req.URL.RequestURI(), "err", err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	if err := resp.Write(w); err != nil {
		appLog.Debug("offline write response failed", "err", err)
	}
}

func (r *Registration) activeVersion() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == nil {
		return ""
	}
	return r.active.Manifest().Version
}
