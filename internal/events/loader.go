package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"riverside/internal/feed"
	appLog "riverside/internal/log"
	"riverside/internal/model"
)

// Origins reported in LoadResult.Origin.
const (
	OriginJSON   = "json"
	OriginSample = "sample"
)

// Loader assembles the event list from the JSON feed and any ICS feeds.
type Loader struct {
	Fetcher *feed.Fetcher

	// EventsURL serves [{id, date, title, time, description}]. Empty means
	// the built-in sample set is used.
	EventsURL string

	// ICS feeds are appended after the JSON/sample events.
	ICS []feed.Source

	// Location dates ICS events and "today" for the sample set.
	Location *time.Location

	// Now is overridable for tests.
	Now func() time.Time
}

// LoadResult is the outcome of a Load.
type LoadResult struct {
	Events []model.Event
	Origin string // OriginJSON or OriginSample
	// FallbackReason is set when the JSON feed was configured but unusable.
	FallbackReason error
}

// Load never fails: a missing, unreachable, non-2xx or undecodable JSON feed
// is replaced by Sample, and failing ICS feeds are skipped.
func (l *Loader) Load(ctx context.Context) LoadResult {
	var res LoadResult

	if l.EventsURL == "" {
		res.Events = l.sample()
		res.Origin = OriginSample
	} else if evs, err := l.loadJSON(ctx); err != nil {
		appLog.Warn("could not load events feed, using sample data", "err", err)
		res.Events = l.sample()
		res.Origin = OriginSample
		res.FallbackReason = err
	} else {
		res.Events = evs
		res.Origin = OriginJSON
	}

	if len(l.ICS) > 0 {
		results, _ := l.fetcher().FetchAll(ctx, l.ICS)
		for _, r := range results {
			evs, err := feed.ParseICS(r.Source, r.Body, l.location())
			if err != nil {
				continue
			}
			res.Events = append(res.Events, evs...)
		}
	}

	appLog.Info("events loaded", "origin", res.Origin, "count", len(res.Events), "ics_sources", len(l.ICS))
	return res
}

// Refresh loads and swaps the store contents.
func (l *Loader) Refresh(ctx context.Context, store *Store) LoadResult {
	res := l.Load(ctx)
	store.Replace(res.Events)
	return res
}

func (l *Loader) loadJSON(ctx context.Context) ([]model.Event, error) {
	r, err := l.fetcher().FetchOne(ctx, feed.Source{ID: "events-json", URL: l.EventsURL})
	if err != nil {
		return nil, errors.Wrap(err, "fetch events feed")
	}

	var evs []model.Event
	if err := json.Unmarshal(r.Body, &evs); err != nil {
		return nil, errors.Wrap(err, "decode events feed")
	}
	for i := range evs {
		if evs[i].Source == "" {
			evs[i].Source = OriginJSON
		}
	}
	return evs, nil
}

func (l *Loader) sample() []model.Event {
	evs := Sample(model.DateOf(l.now().In(l.location())))
	for i := range evs {
		evs[i].Source = OriginSample
	}
	return evs
}

func (l *Loader) fetcher() *feed.Fetcher {
	if l.Fetcher == nil {
		l.Fetcher = feed.NewFetcher("")
	}
	return l.Fetcher
}

func (l *Loader) location() *time.Location {
	if l.Location == nil {
		return time.Local
	}
	return l.Location
}

func (l *Loader) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}
