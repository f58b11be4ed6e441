package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/17hemanthkumar/pm/internal/encoder"
	"github.com/17hemanthkumar/pm/internal/facematch"
	"github.com/17hemanthkumar/pm/internal/preprocess"
	"github.com/17hemanthkumar/pm/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	pre := preprocess.NewPreprocessor(s.config)
	enc := encoder.NewClient(s.config)
	engine := facematch.NewEngine(s.config, nil, s.recorder, s.log)

	configHandler := handlers.NewConfigHandler(s.config)
	qualityHandler := handlers.NewQualityHandler(engine)
	matchHandler := handlers.NewMatchHandler(engine, s.store, enc, pre)
	galleryHandler := handlers.NewGalleryHandler(s.store, enc, pre, s.recorder)

	// Health check and metrics live outside the versioned API.
	s.router.Get("/healthz", handlers.HealthCheck)
	s.router.Method(http.MethodGet, "/metrics", s.recorder.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", configHandler.Get)
		r.Post("/quality", qualityHandler.Assess)
		r.Post("/match", matchHandler.Match)

		r.Route("/gallery", func(r chi.Router) {
			r.Get("/people", galleryHandler.List)
			r.Post("/people", galleryHandler.Enroll)
			r.Delete("/people/{id}", galleryHandler.Remove)
			r.Get("/nearest", galleryHandler.Nearest)
		})
	})
}
