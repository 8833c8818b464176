package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/BraxtonElmer/paimom/internal/config"
	"github.com/BraxtonElmer/paimom/internal/gametime"
	"github.com/BraxtonElmer/paimom/internal/notify"
	"github.com/BraxtonElmer/paimom/internal/region"
	"github.com/BraxtonElmer/paimom/internal/reminder"
	"github.com/BraxtonElmer/paimom/internal/resin"
	"github.com/BraxtonElmer/paimom/internal/store"
)

// App owns the process: the Discord session, the store, the cron jobs
// and the healthz listener.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	session *discordgo.Session
	httpSrv *http.Server
	repo    store.Repo
}

// New prepares the application without touching the network.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, session: session, httpSrv: srv}, nil
}

// Run opens all resources, starts the periodic jobs, and blocks until a
// shutdown signal arrives.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting paimom",
		zap.String("db", a.cfg.DBPath),
		zap.String("http", a.cfg.HTTPAddr))

	catalog, err := region.Load()
	if err != nil {
		a.log.Error("load region catalog failed", zap.Error(err))
		return err
	}

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	if err := a.session.Open(); err != nil {
		a.log.Error("open discord session failed", zap.Error(err))
		return err
	}
	defer func() { _ = a.session.Close() }()

	clock := gametime.NewClock(catalog)
	meter := resin.NewMeter(a.cfg.ResinRegenMinutes, a.cfg.ResinCapacity)
	sender := notify.NewDiscordSender(a.session, repo, a.log)
	sched := reminder.NewScheduler(repo, clock, sender, meter, a.log)

	jobs := cron.New()
	if _, err := jobs.AddFunc(a.cfg.DispatchSpec, func() {
		sched.DispatchDue(ctx, time.Now().UTC())
	}); err != nil {
		a.log.Error("bad dispatch cron spec", zap.String("spec", a.cfg.DispatchSpec), zap.Error(err))
		return err
	}
	if _, err := jobs.AddFunc(a.cfg.ScheduleSpec, func() {
		sched.ScheduleAll(ctx, time.Now().UTC())
	}); err != nil {
		a.log.Error("bad schedule cron spec", zap.String("spec", a.cfg.ScheduleSpec), zap.Error(err))
		return err
	}

	// Cover resets due before the first hourly tick.
	sched.ScheduleAll(ctx, time.Now().UTC())
	jobs.Start()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	a.log.Info("shutdown signal received")

	// Let an in-flight dispatch finish before closing the store.
	<-jobs.Stop().Done()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}
	if a.repo != nil {
		_ = a.repo.Close()
	}
	return nil
}
