// Package app wires configuration, providers and servers into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-service/internal/config"
	"ai-interview-service/internal/events"
	apihttp "ai-interview-service/internal/http"
	"ai-interview-service/internal/observability"
	"ai-interview-service/internal/observability/logging"
	"ai-interview-service/internal/observability/metrics"
	"ai-interview-service/internal/service/audio"
	"ai-interview-service/internal/service/dialogue"
	"ai-interview-service/internal/service/dialogue/dialogflow"
	dialoguemock "ai-interview-service/internal/service/dialogue/mock"
	"ai-interview-service/internal/service/interview"
	"ai-interview-service/internal/service/scoring"
	scoringmock "ai-interview-service/internal/service/scoring/mock"
	"ai-interview-service/internal/service/stt"
	"ai-interview-service/internal/service/stt/google"
	sttmock "ai-interview-service/internal/service/stt/mock"
	"ai-interview-service/internal/store"
	firestorestore "ai-interview-service/internal/store/firestore"
	"ai-interview-service/internal/store/memory"
	mongostore "ai-interview-service/internal/store/mongo"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Store       store.Store
	Dialogue    dialogue.Adapter
	Transcriber stt.Transcriber
	Publisher   *events.Publisher
	Interviews  *interview.Manager
	Scorer      *scoring.Scorer

	server *http.Server
	obs    *observability.Server
}

// New constructs an Application from cfg. Cloud clients are created here, so
// misconfigured providers fail at startup rather than on the first request.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	a := &Application{
		Cfg: cfg,
		Logger: logging.WithComponent("application").With().
			Str("service", cfg.Service.Principal).
			Logger(),
	}

	if cfg.Service.InterviewConfig != "" {
		ic, err := config.LoadInterview(cfg.Service.InterviewConfig)
		if err != nil {
			return nil, err
		}
		cfg.Interview = ic
	}

	var err error
	if a.Store, err = NewStore(cfg); err != nil {
		return nil, err
	}
	if a.Dialogue, err = newDialogue(ctx, cfg); err != nil {
		a.Store.Close()
		return nil, err
	}
	if a.Transcriber, err = newTranscriber(ctx, cfg); err != nil {
		a.Dialogue.Close()
		a.Store.Close()
		return nil, err
	}

	a.Publisher = events.New(&events.Config{
		Enabled:        cfg.Kafka.Enabled,
		Brokers:        cfg.Kafka.Brokers,
		TopicTurns:     cfg.Kafka.TopicTurns,
		TopicLifecycle: cfg.Kafka.TopicLifecycle,
		Principal:      cfg.Kafka.Principal,
	})

	limits := audio.Limits{MaxBytes: cfg.Audio.MaxBytes}
	a.Interviews = interview.NewManager(a.Dialogue, a.Store, interview.Options{
		Interview:       cfg.Interview,
		Limits:          limits,
		Transcriber:     a.Transcriber,
		TranscriberName: cfg.STT.Provider,
		Publisher:       a.Publisher,
	})
	a.Scorer = scoring.NewScorer(a.Store, a.newGenerator(ctx), a.Publisher)

	handler := apihttp.NewHandler(a.Interviews, a.Scorer, a.Store, limits)
	a.server = &http.Server{
		Addr: ":" + cfg.Service.Port,
		Handler: apihttp.NewRouter(handler, apihttp.RouterOptions{
			CORSOrigins: cfg.Service.CORSOrigins,
			Metrics:     metrics.DefaultMetrics,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.obs = observability.NewServer(":" + cfg.Observability.MetricsPort)

	a.Logger.Info().
		Str("environment", cfg.Service.Environment).
		Bool("debug", cfg.Service.Debug).
		Str("store", cfg.Store.Backend).
		Str("dialogue", cfg.Dialogflow.Provider).
		Str("stt", cfg.STT.Provider).
		Str("scorer", cfg.Gemini.Provider).
		Bool("kafka", cfg.Kafka.Enabled).
		Msg("AI interview service application created")
	return a, nil
}

// Handler returns the API handler.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

// Start begins serving the API and observability endpoints. Serve errors
// other than a clean shutdown are delivered on the returned channel.
func (a *Application) Start() <-chan error {
	a.StartupTime = time.Now().UTC()
	errc := make(chan error, 1)

	a.obs.Start()
	go func() {
		a.Logger.Info().
			Str("addr", a.server.Addr).
			Time("startupTime", a.StartupTime).
			Msg("AI interview service started")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http serve: %w", err)
		}
	}()
	a.obs.SetReady(true)

	return errc
}

// Shutdown drains in-flight requests and releases provider clients.
func (a *Application) Shutdown(ctx context.Context) {
	a.Logger.Info().Msg("AI interview service shutting down")
	a.obs.SetReady(false)

	if err := a.server.Shutdown(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("HTTP server shutdown incomplete")
	}
	if a.Transcriber != nil {
		if err := a.Transcriber.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close transcriber")
		}
	}
	if err := a.Dialogue.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close dialogue client")
	}
	if err := a.Publisher.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close event publisher")
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close store")
	}
	if err := a.obs.Shutdown(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Observability server shutdown incomplete")
	}
}

// NewStore returns the configured store backend.
func NewStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return memory.New(), nil
	case "firestore":
		return firestorestore.New(firestorestore.Config{
			ProjectID:   cfg.Store.FirestoreProjectID,
			Collection:  cfg.Store.FirestoreCollection,
			Credentials: cfg.Dialogflow.Credentials,
		}), nil
	case "mongo", "mongodb":
		if cfg.Store.MongoURI == "" {
			return nil, fmt.Errorf("store backend mongo requires MONGODB_URI")
		}
		return mongostore.New(mongostore.Config{
			URI:        cfg.Store.MongoURI,
			Database:   cfg.Store.MongoDatabase,
			Collection: cfg.Store.MongoCollection,
		}), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func newDialogue(ctx context.Context, cfg *config.Config) (dialogue.Adapter, error) {
	switch cfg.Dialogflow.Provider {
	case "mock":
		return dialoguemock.New(), nil
	case "dialogflow":
		dc := dialogflow.DefaultConfig()
		dc.ProjectID = cfg.Dialogflow.ProjectID
		dc.AgentID = cfg.Dialogflow.AgentID
		dc.Credentials = cfg.Dialogflow.Credentials
		if cfg.Dialogflow.LocationID != "" {
			dc.LocationID = cfg.Dialogflow.LocationID
		}
		if cfg.Dialogflow.LanguageCode != "" {
			dc.LanguageCode = cfg.Dialogflow.LanguageCode
		}
		if cfg.Interview.VoiceName != "" {
			dc.VoiceName = cfg.Interview.VoiceName
		}
		return dialogflow.New(ctx, dc)
	default:
		return nil, fmt.Errorf("unknown dialogue provider %q", cfg.Dialogflow.Provider)
	}
}

// newTranscriber returns nil when the dialogue platform recognizes speech itself.
func newTranscriber(ctx context.Context, cfg *config.Config) (stt.Transcriber, error) {
	switch cfg.STT.Provider {
	case "", "dialogflow", "native":
		return nil, nil
	case "mock":
		return sttmock.New(), nil
	case "google":
		gc := google.DefaultConfig()
		gc.Credentials = cfg.Dialogflow.Credentials
		if cfg.STT.LanguageCode != "" {
			gc.LanguageCode = cfg.STT.LanguageCode
		}
		return google.New(ctx, gc)
	default:
		return nil, fmt.Errorf("unknown STT provider %q", cfg.STT.Provider)
	}
}

// newGenerator returns nil when no model is configured; scoring requests then
// fail with scoring.ErrGeneratorUnavailable while the rest of the service runs.
func (a *Application) newGenerator(ctx context.Context) scoring.Generator {
	cfg := a.Cfg.Gemini
	switch cfg.Provider {
	case "mock":
		return scoringmock.New()
	case "gemini":
		g, err := scoring.NewGemini(ctx, scoring.GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: float32(cfg.Temperature),
		})
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Scoring disabled")
			return nil
		}
		return g
	default:
		a.Logger.Warn().Str("provider", cfg.Provider).Msg("Unknown scorer provider, scoring disabled")
		return nil
	}
}
