// Package serve runs the development server: it builds the site into a
// scratch directory, serves it with livereload, watches the docs tree and
// the config file, and optionally exposes an admin listener with health,
// status and metrics endpoints.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkpages/mkpages/internal/config"
	serrors "github.com/mkpages/mkpages/internal/errors"
	"github.com/mkpages/mkpages/internal/eventstore"
	"github.com/mkpages/mkpages/internal/linkcheck"
	"github.com/mkpages/mkpages/internal/logfields"
	"github.com/mkpages/mkpages/internal/markdown"
	"github.com/mkpages/mkpages/internal/metrics"
	"github.com/mkpages/mkpages/internal/pages"
	"github.com/mkpages/mkpages/internal/site"
)

const shutdownTimeout = 5 * time.Second

// Server is the dev server daemon.
type Server struct {
	logger   *slog.Logger
	recorder *metrics.PrometheusRecorder

	listen     string
	livereload bool

	hub    *LiveReloadHub
	status *buildStatus
	store  *eventstore.Store

	siteDir string
	tempDir string

	mu         sync.Mutex
	cfg        *config.Config
	configPath string
	builder    *site.Builder
	lastReport *site.Report
	startTime  time.Time

	rebuildReq chan string // buffered channel of rebuild triggers
	runningMu  sync.Mutex
	running    bool
	pending    bool
}

// ServerOption adjusts a Server before it starts.
type ServerOption func(*Server)

// WithListen overrides serve.listen from the config.
func WithListen(addr string) ServerOption {
	return func(s *Server) {
		if addr != "" {
			s.listen = addr
		}
	}
}

// WithoutLiveReload disables the SSE hub and script injection.
func WithoutLiveReload() ServerOption {
	return func(s *Server) { s.livereload = false }
}

// New prepares a dev server for the given loaded configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...ServerOption) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:     logger,
		recorder:   metrics.NewPrometheusRecorder(nil),
		listen:     cfg.Serve.Listen,
		livereload: cfg.Serve.LiveReloadEnabled(),
		status:     &buildStatus{},
		cfg:        cfg,
		configPath: cfg.SourcePath(),
		startTime:  time.Now(),
		rebuildReq: make(chan string, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewLiveReloadHub(logger, s.recorder)

	tempDir, err := os.MkdirTemp("", "mkpages-serve-*")
	if err != nil {
		return nil, serrors.ServeFailed("create scratch site dir", err)
	}
	s.tempDir = tempDir
	s.siteDir = tempDir

	builder, err := site.New(cfg, logger,
		site.WithRecorder(s.recorder), site.WithSiteDir(s.siteDir))
	if err != nil {
		return nil, err
	}
	s.builder = builder

	if path := cfg.Validation.HistoryDB; path != "" {
		store, err := eventstore.Open(s.resolvePath(path))
		if err != nil {
			logger.Warn("history db unavailable", logfields.Error(err))
		} else {
			s.store = store
		}
	}
	return s, nil
}

// resolvePath resolves a config-relative path.
func (s *Server) resolvePath(p string) string {
	if filepath.IsAbs(p) || s.configPath == "" {
		return p
	}
	return filepath.Join(filepath.Dir(s.configPath), p)
}

// Run builds once and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	defer s.cleanup()

	s.build(ctx, "initial")

	mux := http.NewServeMux()
	if s.livereload {
		mux.Handle(livereloadPath, s.hub)
	}
	mux.Handle("/", &siteHandler{siteDir: s.siteDir, status: s.status, inject: s.livereload})

	srv := &http.Server{
		Addr:              s.listen,
		Handler:           chain(s.logger, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 2)
	go func() {
		s.logger.Info("dev server listening",
			logfields.Listen(s.listen),
			logfields.URL("http://"+s.listen+"/"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var adminSrv *http.Server
	if addr := s.cfg.Serve.AdminListen; addr != "" {
		adminSrv = &http.Server{
			Addr:              addr,
			Handler:           s.adminMux(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			s.logger.Info("admin listener up", logfields.Listen(addr))
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	stop := make(chan struct{})
	watcher, err := s.startWatcher(stop)
	if err != nil {
		close(stop)
		return err
	}

	var scheduler *Scheduler
	if spec := s.cfg.Serve.RebuildSchedule; spec != "" {
		scheduler, err = NewScheduler(s.logger)
		if err != nil {
			return err
		}
		if err := scheduler.Schedule(spec, func() { s.requestRebuild("schedule") }); err != nil {
			return err
		}
		scheduler.Start()
	}

	go watcher.Run(stop)
	go s.rebuildLoop(ctx)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		s.logger.Error("server error", logfields.Error(runErr))
	}

	close(stop)
	_ = watcher.Close()
	if scheduler != nil {
		_ = scheduler.Stop()
	}
	s.hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("server shutdown", logfields.Error(err))
	}
	if adminSrv != nil {
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("admin shutdown", logfields.Error(err))
		}
	}
	if runErr != nil {
		return serrors.ServeFailed("dev server", runErr)
	}
	return nil
}

func (s *Server) cleanup() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.tempDir != "" {
		if err := os.RemoveAll(s.tempDir); err != nil {
			s.logger.Warn("scratch dir cleanup failed",
				logfields.Path(s.tempDir), logfields.Error(err))
		}
	}
}

// startWatcher watches docs, extra watch dirs and the config file.
func (s *Server) startWatcher(stop <-chan struct{}) (*Watcher, error) {
	s.mu.Lock()
	cfg := s.cfg
	builder := s.builder
	s.mu.Unlock()

	dirs := []string{builder.DocsDir()}
	for _, extra := range cfg.Serve.Watch {
		dirs = append(dirs, s.resolvePath(extra))
	}
	debounce, err := time.ParseDuration(cfg.Serve.RebuildDebounce)
	if err != nil || debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	w, err := NewWatcher(dirs, s.configPath, debounce, s.logger)
	if err != nil {
		return nil, serrors.ServeFailed("start file watcher", err)
	}
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-w.ConfigChange:
				s.reloadConfig()
			case <-w.Rebuild:
				s.requestRebuild("watch")
			}
		}
	}()
	return w, nil
}

// requestRebuild queues a rebuild; concurrent requests coalesce into one
// pending run.
func (s *Server) requestRebuild(trigger string) {
	s.runningMu.Lock()
	if s.running {
		s.pending = true
		s.runningMu.Unlock()
		return
	}
	s.runningMu.Unlock()
	select {
	case s.rebuildReq <- trigger:
	default:
	}
}

func (s *Server) rebuildLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-s.rebuildReq:
			s.runningMu.Lock()
			s.running = true
			s.runningMu.Unlock()

			s.recorder.IncRebuild(trigger)
			s.build(ctx, trigger)
			if trigger == "schedule" {
				s.verifySweep(ctx)
			}

			s.runningMu.Lock()
			s.running = false
			again := s.pending
			s.pending = false
			s.runningMu.Unlock()
			if again {
				s.requestRebuild(trigger)
			}
		}
	}
}

// build runs one build and updates status, livereload and history.
func (s *Server) build(ctx context.Context, trigger string) {
	s.mu.Lock()
	builder := s.builder
	s.mu.Unlock()

	s.logger.Info("rebuilding site", slog.String("trigger", trigger))
	report, err := builder.Build(ctx)

	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()

	if err != nil {
		s.status.setError(err)
		s.logger.Error("build failed", logfields.Error(err))
		s.recordBuild(ctx, report, eventstore.TypeBuildFailed, err)
		// reload connected browsers so the error page shows up
		s.hub.Broadcast("error-" + strconv.FormatInt(time.Now().UnixNano(), 10))
		return
	}
	s.status.setSuccess()
	s.recordBuild(ctx, report, eventstore.TypeBuildCompleted, nil)
	s.hub.Broadcast(strconv.FormatInt(time.Now().UnixNano(), 10))
}

func (s *Server) recordBuild(ctx context.Context, report *site.Report, eventType string, buildErr error) {
	if s.store == nil || report == nil {
		return
	}
	payload := eventstore.BuildPayload{
		Outcome:       string(report.Outcome),
		PagesRendered: report.PagesRendered,
		PagesSkipped:  report.PagesSkipped,
		DurationMS:    report.Duration().Milliseconds(),
		Warnings:      len(report.Warnings),
	}
	if buildErr != nil {
		payload.Error = buildErr.Error()
	}
	if err := s.store.AppendJSON(ctx, report.BuildID, eventType, payload); err != nil {
		s.logger.Warn("history append failed", logfields.Error(err))
	}
}

// verifySweep runs a source link check after a scheduled rebuild and
// records the outcome in the history store.
func (s *Server) verifySweep(ctx context.Context) {
	s.mu.Lock()
	cfg := s.cfg
	builder := s.builder
	s.mu.Unlock()
	if !cfg.Validation.Enabled {
		return
	}

	renderer, err := markdown.Build(cfg.MarkdownExtensions)
	if err != nil {
		s.logger.Warn("verify sweep skipped", logfields.Error(err))
		return
	}
	col, err := pages.Collect(builder.DocsDir())
	if err != nil {
		s.logger.Warn("verify sweep skipped", logfields.Error(err))
		return
	}
	siteModel, err := pages.Resolve(cfg, col)
	if err != nil {
		s.logger.Warn("verify sweep skipped", logfields.Error(err))
		return
	}
	result, _, err := linkcheck.NewSourceChecker(renderer, siteModel, s.logger).Check()
	if err != nil {
		s.logger.Warn("verify sweep failed", logfields.Error(err))
		return
	}
	s.logger.Info("verify sweep finished",
		slog.Int("links_checked", result.LinksChecked),
		slog.Int("broken", len(result.Findings)))

	if s.store != nil {
		payload := eventstore.VerifyPayload{
			LinksChecked: result.LinksChecked,
			Broken:       len(result.Findings),
			DurationMS:   result.Duration.Milliseconds(),
		}
		if err := s.store.AppendJSON(ctx, uuid.NewString(), eventstore.TypeVerifyCompleted, payload); err != nil {
			s.logger.Warn("history append failed", logfields.Error(err))
		}
	}
}

// reloadConfig re-reads the config file. On error the previous
// configuration stays active.
func (s *Server) reloadConfig() {
	if s.configPath == "" {
		return
	}
	s.logger.Info("configuration changed, reloading", logfields.Path(s.configPath))

	cfg, warnings, err := config.Load(s.configPath)
	if err != nil {
		s.logger.Error("config reload failed, keeping previous configuration",
			logfields.Error(err))
		return
	}
	for _, warn := range warnings {
		s.logger.Warn("config warning", slog.String("message", warn.Message))
	}

	builder, err := site.New(cfg, s.logger,
		site.WithRecorder(s.recorder), site.WithSiteDir(s.siteDir))
	if err != nil {
		s.logger.Error("config reload failed, keeping previous configuration",
			logfields.Error(err))
		return
	}

	s.mu.Lock()
	s.cfg = cfg
	s.builder = builder
	s.mu.Unlock()
	s.requestRebuild("config")
}

// adminMux exposes health, status and metrics.
func (s *Server) adminMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.Handle("/metrics", s.recorder.Handler())
	return chain(s.logger, mux)
}

// statusPayload is the /api/status response document.
type statusPayload struct {
	Status            string       `json:"status"`
	UptimeSeconds     int64        `json:"uptime_seconds"`
	Listen            string       `json:"listen"`
	LivereloadClients int          `json:"livereload_clients"`
	RebuildRunning    bool         `json:"rebuild_running"`
	RebuildPending    bool         `json:"rebuild_pending"`
	LastBuild         *buildDigest `json:"last_build,omitempty"`
}

type buildDigest struct {
	ID            string `json:"id"`
	Outcome       string `json:"outcome"`
	PagesRendered int    `json:"pages_rendered"`
	PagesSkipped  int    `json:"pages_skipped"`
	DurationMS    int64  `json:"duration_ms"`
	Warnings      int    `json:"warnings"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.runningMu.Lock()
	running, pending := s.running, s.pending
	s.runningMu.Unlock()

	payload := statusPayload{
		Status:            "running",
		UptimeSeconds:     int64(time.Since(s.startTime).Seconds()),
		Listen:            s.listen,
		LivereloadClients: s.hub.Clients(),
		RebuildRunning:    running,
		RebuildPending:    pending,
	}
	s.mu.Lock()
	if r := s.lastReport; r != nil {
		payload.LastBuild = &buildDigest{
			ID:            r.BuildID,
			Outcome:       string(r.Outcome),
			PagesRendered: r.PagesRendered,
			PagesSkipped:  r.PagesSkipped,
			DurationMS:    r.Duration().Milliseconds(),
			Warnings:      len(r.Warnings),
		}
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("status encode failed", logfields.Error(err))
	}
}
