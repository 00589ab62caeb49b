package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/klabast/wb-services/garden-planner/internal/frost"
	"github.com/klabast/wb-services/garden-planner/internal/garden"
	"github.com/klabast/wb-services/garden-planner/internal/schedule"
)

const shutdownTimeout = 10 * time.Second

// Server is the planner web application
type Server struct {
	cfg       Config
	log       zerolog.Logger
	catalog   *garden.Catalog
	estimator schedule.Estimator
	planner   *schedule.Planner
	sessions  *SessionStore
	auth      *Auth
	indexHTML []byte
	now       func() time.Time
}

// Options wires a Server. Zero fields fall back to defaults: the built-in
// catalog, the fixed frost date, no auth and the wall clock.
type Options struct {
	Config    Config
	Logger    zerolog.Logger
	Catalog   *garden.Catalog
	Estimator schedule.Estimator
	Auth      *Auth
	IndexHTML []byte
	Now       func() time.Time
}

// NewServer creates a Server from opts
func NewServer(opts Options) (*Server, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Catalog == nil {
		c, err := garden.DefaultCatalog()
		if err != nil {
			return nil, err
		}
		opts.Catalog = c
	}
	if opts.Estimator == nil {
		opts.Estimator = frost.NewEstimator(nil, frost.WithClock(opts.Now), frost.WithLogger(opts.Logger))
	}
	if opts.Auth == nil {
		opts.Auth = &Auth{}
	}

	return &Server{
		cfg:       opts.Config,
		log:       opts.Logger,
		catalog:   opts.Catalog,
		estimator: opts.Estimator,
		planner:   schedule.NewPlanner(opts.Catalog, opts.Estimator),
		sessions:  NewSessionStore(opts.Config.Session, opts.Config.Layout, opts.Now),
		auth:      opts.Auth,
		indexHTML: opts.IndexHTML,
		now:       opts.Now,
	}, nil
}

// NewServerFromConfig loads the catalog, frost source and auth file named by
// cfg and creates a Server
func NewServerFromConfig(cfg Config, log zerolog.Logger, indexHTML []byte) (*Server, error) {
	var (
		catalog *garden.Catalog
		err     error
	)
	if cfg.Garden.CatalogFile != "" {
		catalog, err = garden.LoadCatalogFile(cfg.Garden.CatalogFile)
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", cfg.Garden.CatalogFile).Msg("loaded variety catalog")
	}

	var source frost.Source
	if cfg.Weather.APIKey != "" {
		source = frost.NewWeatherAPI(cfg.Weather.WeatherAPIConfig())
		log.Info().Str("base_url", cfg.Weather.BaseURL).Msg("frost dates from weather forecast")
	} else {
		log.Info().Msg("no weather API key, using the default frost date")
	}

	authFile, err := AuthFilePath(cfg.Server.AuthFile)
	if err != nil {
		return nil, err
	}
	auth, err := LoadAuth(authFile, log)
	if err != nil {
		return nil, err
	}

	return NewServer(Options{
		Config:    cfg,
		Logger:    log,
		Catalog:   catalog,
		Estimator: frost.NewEstimator(source, frost.WithLogger(log)),
		Auth:      auth,
		IndexHTML: indexHTML,
	})
}

// Handler returns the routed and logged handler. Everything except the
// calendar subscription requires auth.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.ServeIndex)
	mux.HandleFunc("/api/config", s.GetConfig)
	mux.HandleFunc("/api/varieties", s.HandleVarieties)
	mux.HandleFunc("/api/variety", s.HandleVariety)
	mux.HandleFunc("/api/containers", s.HandleContainers)
	mux.HandleFunc("/api/highlights", s.HandleHighlights)
	mux.HandleFunc("/api/zone", s.HandleZone)
	mux.HandleFunc("/api/schedule", s.HandleSchedule)

	mux.HandleFunc("/api/layout", s.HandleLayout)
	mux.HandleFunc("/api/layout/select", s.HandleSelect)
	mux.HandleFunc("/api/layout/place", s.HandlePlace)
	mux.HandleFunc("/api/layout/clear", s.HandleClear)

	mux.HandleFunc("/api/download/layout", s.HandleLayoutDownload)
	mux.HandleFunc("/api/download/varieties", s.HandleVarietyDownload)
	mux.HandleFunc("/api/download/tasks", s.HandleTaskDownload)

	// Calendar apps subscribing via the QR code cannot send credentials
	root := http.NewServeMux()
	root.HandleFunc("/api/subscribe/tasks", s.HandleTaskSubscribe)
	root.Handle("/", s.auth.Require(mux))

	return AccessLog(s.log, root)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().
			Str("addr", fmt.Sprintf("http://localhost:%d", s.cfg.Server.Port)).
			Bool("auth", s.auth.Enabled()).
			Msg("starting garden planner")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
