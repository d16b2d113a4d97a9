package api

import (
	"net/http"
	"time"

	"github.com/devfork/arena/internal/api/handler"
	custommiddleware "github.com/devfork/arena/internal/api/middleware"
	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/common/security"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authHandler *handler.AuthHandler,
	challengeHandler *handler.ChallengeHandler,
	agentHandler *handler.AgentHandler,
	competitionHandler *handler.CompetitionHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)

		// Public reads. Identity is picked up when a token is sent, so admins
		// see hidden test cases on the same routes.
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(security.TokenAuth))
			r.Use(custommiddleware.MaybeAuthenticator)

			r.Get("/challenges", challengeHandler.List)
			r.Get("/challenges/{id}", challengeHandler.Get)
			r.Get("/challenges/slug/{slug}", challengeHandler.GetBySlug)

			r.Get("/agents", agentHandler.List)
			r.Get("/agents/{id}", agentHandler.Get)

			r.Get("/competitions/stats", competitionHandler.Stats)
			r.Get("/competitions/{id}/status", competitionHandler.Status)
			r.Get("/competitions/{id}/results", competitionHandler.Results)
			r.Get("/competitions/{id}/leaderboard", competitionHandler.Leaderboard)
			r.Get("/competitions/{id}/submissions", competitionHandler.Submissions)
		})

		// Authenticated writes.
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(security.TokenAuth))
			r.Use(custommiddleware.Authenticator)

			r.Post("/competitions", competitionHandler.Create)
			r.Post("/competitions/{id}/start", competitionHandler.Start)
			r.Delete("/competitions/{id}", competitionHandler.Cancel)

			// Admin-only resource management.
			r.Group(func(r chi.Router) {
				r.Use(custommiddleware.AdminOnly)

				r.Post("/challenges", challengeHandler.Create)
				r.Post("/agents", agentHandler.Create)
			})
		})
	})

	return r
}
