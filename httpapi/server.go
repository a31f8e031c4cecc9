// Package httpapi exposes the twin engine over HTTP and WebSocket: session
// lifecycle, chat turns, consent, backend administration, and voice
// synthesis/cloning.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/mirrorlabs/twinengine/config"
	"github.com/mirrorlabs/twinengine/metrics"
	"github.com/mirrorlabs/twinengine/providers"
	"github.com/mirrorlabs/twinengine/sessionstore"
	"github.com/mirrorlabs/twinengine/tts"
	"github.com/mirrorlabs/twinengine/twin"
)

const readHeaderTimeout = 10 * time.Second

// Server wires the engine and its collaborators into HTTP handlers.
type Server struct {
	cfg      config.Config
	engine   *twin.Engine
	store    *sessionstore.MemoryStore
	runtime  *providers.Runtime
	exporter *metrics.Exporter

	voice  tts.Service
	cloner tts.Cloner

	httpServer *http.Server
}

// NewServer assembles the API server. The voice service and cloner are
// derived from the configured voice provider; the browser provider
// synthesizes client-side, so both stay nil.
func NewServer(cfg config.Config, engine *twin.Engine, store *sessionstore.MemoryStore, runtime *providers.Runtime, exporter *metrics.Exporter) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		store:    store,
		runtime:  runtime,
		exporter: exporter,
	}

	switch cfg.VoiceProvider {
	case tts.ProviderElevenLabs:
		svc := tts.NewElevenLabs(cfg.ElevenLabsAPIKey, tts.WithElevenLabsModel(cfg.ElevenLabsModelID))
		s.voice, s.cloner = svc, svc
	case tts.ProviderCartesia:
		svc := tts.NewCartesia(cfg.CartesiaAPIKey,
			tts.WithCartesiaModel(cfg.CartesiaModelID),
			tts.WithCartesiaCloneMode(cfg.CartesiaCloneMode),
		)
		s.voice, s.cloner = svc, svc
	}

	return s
}

// Router builds the full route table.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/session", s.handleCreateSession)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/consent", s.handleConsent)
	mux.HandleFunc("POST /api/session-mode", s.handleSessionMode)
	mux.HandleFunc("DELETE /api/session/{sessionId}", s.handleDeleteSession)

	mux.HandleFunc("POST /api/ai-config", s.handleAIConfig)
	mux.HandleFunc("POST /api/ai-probe", s.handleAIProbe)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/privacy-proof", s.handlePrivacyProof)
	mux.HandleFunc("GET /api/retention", s.handleRetention)

	mux.HandleFunc("POST /api/voice/speak", s.handleVoiceSpeak)
	mux.HandleFunc("POST /api/voice/clone", s.handleVoiceClone)
	mux.HandleFunc("GET /ws/voice", s.handleVoiceSocket)

	if s.exporter != nil {
		mux.Handle("GET /metrics", s.exporter.Handler())
	}

	return withRequestLogging(mux)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
