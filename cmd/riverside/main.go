package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"riverside/internal/capture"
	"riverside/internal/config"
	"riverside/internal/events"
	"riverside/internal/feed"
	appLog "riverside/internal/log"
	"riverside/internal/offline"
	"riverside/internal/sched"
	"riverside/internal/watch"
	"riverside/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	envPath    string
	listen     string
	once       bool
	snapshot   string
	debug      bool
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		os.Exit(hashPassword(os.Args[2:]))
	}

	flags := parseFlags()
	appLog.Info("riverside starting", "version", version)

	if err := config.LoadDotEnv(flags.envPath); err != nil {
		appLog.Warn("failed to load env file", "path", flags.envPath, "err", err)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	conf.ApplyEnv(os.Getenv)

	// CLI --listen overrides config file and environment.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	applyLogLevel(conf.LogLevel, flags.debug)

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"events_url", conf.Events.URL,
		"ics_count", len(conf.Events.ICS),
		"refresh", conf.Events.RefreshCron,
		"offline_version", conf.Offline.Version,
		"offline_origin", conf.Offline.Origin,
		"snapshot", conf.Snapshot.Enabled,
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, conf, flags); err != nil {
		appLog.Error("riverside failed", err)
		os.Exit(1)
	}
	appLog.Info("riverside exiting")
}

func run(ctx context.Context, conf *config.Config, flags flagConfig) error {
	loc := conf.Location()

	// Events: JSON feed (or sample set) plus ICS subscriptions.
	store := events.NewStore(nil)
	loader := newLoader(conf, loc)
	res := loader.Refresh(ctx, store)
	if res.FallbackReason != nil {
		appLog.Warn("events feed unavailable, using sample events", "err", res.FallbackReason)
	}

	if flags.once && flags.snapshot == "" {
		appLog.Info("single refresh complete", "origin", res.Origin, "events", len(res.Events))
		return nil
	}

	reg, err := newRegistration(conf)
	if err != nil {
		return err
	}
	reg.OnUpdate(func(m offline.Manifest) {
		appLog.Info("offline update waiting", "version", m.Version)
	})
	if err := reg.Register(ctx, manifestFromConfig(conf)); err != nil {
		// The site still works without a cache; requests go to the network.
		appLog.Error("offline install failed", err, "version", conf.Offline.Version)
	}

	snapshots := capture.NewSnapshotter(nil, capture.Options{
		URL:    "http://" + conf.Listen + "/calendar",
		Width:  conf.Snapshot.Width,
		Height: conf.Snapshot.Height,
	}, conf.Snapshot.Output)

	server := web.NewServer(web.Deps{
		Config:    conf,
		Events:    store,
		Loader:    loader,
		Offline:   reg,
		Outbox:    offline.NewOutbox(0),
		Snapshots: snapshots,
	})

	if flags.snapshot != "" {
		return snapshotOnce(ctx, server, conf, flags.snapshot)
	}

	scheduler := sched.New(loc)
	if err := scheduler.Add("events-refresh", conf.Events.RefreshCron, func(ctx context.Context) error {
		r := loader.Refresh(ctx, store)
		if r.FallbackReason != nil {
			return errors.Wrap(r.FallbackReason, "events feed")
		}
		return nil
	}); err != nil {
		return err
	}
	if conf.Snapshot.Enabled {
		if err := scheduler.Add("snapshot", conf.Snapshot.Cron, snapshots.Refresh); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer func() {
		stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		scheduler.Stop(stopCtx)
	}()
	for name, next := range scheduler.Next() {
		appLog.Info("job scheduled", "job", name, "next", next.Format(time.RFC3339))
	}

	if fw, err := watch.NewFile(flags.configPath, watch.DefaultDebounce, func() {
		reloadOffline(ctx, flags.configPath, reg)
	}); err != nil {
		appLog.Warn("config watch disabled", "path", flags.configPath, "err", err)
	} else {
		go fw.Run(ctx)
	}

	return server.StartServer(ctx, conf.Listen)
}

func newLoader(conf *config.Config, loc *time.Location) *events.Loader {
	sources := make([]feed.Source, 0, len(conf.Events.ICS))
	for _, ic := range conf.Events.ICS {
		sources = append(sources, feed.Source{ID: ic.ID, URL: ic.URL})
	}
	return &events.Loader{
		Fetcher:   feed.NewFetcher(conf.Events.CacheDir),
		EventsURL: conf.Events.URL,
		ICS:       sources,
		Location:  loc,
	}
}

func newRegistration(conf *config.Config) (*offline.Registration, error) {
	var storage offline.Storage = offline.NewMemoryStorage()
	if conf.Offline.StorageDir != "" {
		disk, err := offline.NewDiskStorage(conf.Offline.StorageDir)
		if err != nil {
			return nil, errors.Wrap(err, "offline storage")
		}
		storage = disk
	}

	var network offline.Network = offline.HandlerNetwork{Handler: web.StaticHandler()}
	if conf.Offline.Origin != "" {
		hn, err := offline.NewHTTPNetwork(conf.Offline.Origin)
		if err != nil {
			return nil, errors.Wrap(err, "offline origin")
		}
		network = hn
	}
	return offline.NewRegistration(storage, network), nil
}

func manifestFromConfig(conf *config.Config) offline.Manifest {
	return offline.Manifest{
		Version: conf.Offline.Version,
		URLs:    append([]string(nil), conf.Offline.Manifest...),
	}
}

// reloadOffline re-reads the config file after it changes on disk and
// installs a new cache version if the manifest changed. Other settings
// take effect on restart.
func reloadOffline(ctx context.Context, path string, reg *offline.Registration) {
	conf, err := config.Load(path)
	if err != nil {
		appLog.Error("config reload failed", err, "path", path)
		return
	}
	conf.ApplyEnv(os.Getenv)
	appLog.Info("config changed", "path", path, "offline_version", conf.Offline.Version)
	if err := reg.Register(ctx, manifestFromConfig(conf)); err != nil {
		appLog.Error("offline update install failed", err, "version", conf.Offline.Version)
	}
}

// snapshotOnce serves the calendar just long enough to capture it to path.
func snapshotOnce(ctx context.Context, server *web.Server, conf *config.Config, path string) error {
	srvCtx, stop := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- server.StartServer(srvCtx, conf.Listen) }()

	// Give the listener a moment to come up.
	select {
	case err := <-errCh:
		stop()
		return errors.Wrap(err, "start server for snapshot")
	case <-time.After(200 * time.Millisecond):
	}

	err := capture.WriteFile(ctx, capture.CapturePage, capture.Options{
		URL:    "http://" + conf.Listen + "/calendar",
		Width:  conf.Snapshot.Width,
		Height: conf.Snapshot.Height,
	}, path)
	stop()
	if serr := <-errCh; serr != nil && err == nil {
		err = serr
	}
	if err != nil {
		return err
	}
	appLog.Info("snapshot written", "path", path)
	return nil
}

func applyLogLevel(s string, debug bool) {
	if debug {
		appLog.SetLevel(appLog.LevelDebug)
		return
	}
	lvl, ok := appLog.ParseLevel(s)
	if !ok {
		appLog.Warn("unknown log level, using info", "log_level", s)
	}
	appLog.SetLevel(lvl)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file (created with defaults if missing)")
	flag.StringVar(&cfg.envPath, "env", ".env", "Path to an optional .env file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Refresh events once and exit")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "Capture the calendar page to this PNG file and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n       %s hash-password [-user NAME]\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	return cfg
}
