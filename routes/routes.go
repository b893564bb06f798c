package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/faculty-league/docs"
	"github.com/Dosada05/faculty-league/handlers"
	"github.com/Dosada05/faculty-league/metrics"
	"github.com/Dosada05/faculty-league/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Portal    *handlers.PortalHandler
	Matches   *handlers.MatchHandler
	Faculties *handlers.FacultyHandler
	Seasons   *handlers.SeasonHandler
	Activity  *handlers.ActivityHandler
	WebSocket *handlers.WebSocketHandler
}

type Options struct {
	Tokens         middleware.TokenParser
	Metrics        *metrics.Manager
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.Metrics(opts.Metrics))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.Identify(opts.Tokens))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	router.Get("/swagger/doc.json", docs.Handler)
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// websocket connections outlive any request timeout
	router.Get("/ws/live/{room}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
		}

		r.Route("/auth", func(r chi.Router) {
			r.Get("/google/login", h.Auth.GoogleLogin)
			r.Get("/google/callback", h.Auth.GoogleCallback)
			r.Post("/login", h.Auth.Login)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/me", h.Auth.Me)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/portal/home", h.Portal.Home)
			r.Get("/standings", h.Portal.Standings)
			r.Get("/fixtures", h.Portal.Fixtures)
			r.Get("/matches/{matchID}", h.Matches.GetMatch)
			r.Get("/faculties", h.Faculties.ListFaculties)
			r.Get("/faculties/{facultyID}", h.Faculties.GetFaculty)
			r.Get("/seasons", h.Seasons.ListSeasons)
			r.Get("/seasons/{seasonID}/standings", h.Seasons.GetSeasonStandings)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Post("/matches", h.Matches.CreateMatch)
				r.Post("/matches/generate", h.Matches.GenerateFixtures)
				r.Patch("/matches/{matchID}", h.Matches.UpdateMatch)
				r.Put("/matches/{matchID}/score", h.Matches.UpdateScore)
				r.Post("/matches/{matchID}/archive", h.Matches.ArchiveMatch)
				r.Delete("/matches/{matchID}/archive", h.Matches.UnarchiveMatch)

				r.Post("/faculties", h.Faculties.CreateFaculty)
				r.Put("/faculties/{facultyID}", h.Faculties.UpdateFaculty)
				r.Post("/faculties/{facultyID}/crest", h.Faculties.UploadCrest)

				r.Post("/seasons", h.Seasons.StartSeason)
				r.Post("/seasons/{seasonID}/end", h.Seasons.EndSeason)

				r.Get("/activity", h.Activity.ListRecent)
			})
		})
	})
}
