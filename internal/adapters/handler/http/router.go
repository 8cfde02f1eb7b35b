package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// VoteRateLimit is votes per second per user; zero disables the limit.
	VoteRateLimit rate.Limit
	VoteRateBurst int
}

func NewHandler(
	pollHandler *PollHandler,
	voteHandler *VoteHandler,
	liveHandler *LiveHandler,
	verifier ports.IdentityVerifier,
	cfg RouterConfig,
) http.Handler {
	SetLogger(cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(CORSMiddleware(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	vote := http.HandlerFunc(voteHandler.VoteOnPoll)
	var voteRoute http.Handler = vote
	if cfg.VoteRateLimit > 0 {
		burst := cfg.VoteRateBurst
		if burst <= 0 {
			burst = 1
		}
		voteRoute = RateLimitVotes(cfg.VoteRateLimit, burst)(vote)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("welcome"))
		})

		r.Route("/polls", func(r chi.Router) {
			r.Get("/", pollHandler.ListPolls)
			r.Get("/{id}", pollHandler.GetPoll)
			r.Get("/{id}/results", pollHandler.Results)
			r.Get("/{id}/live", liveHandler.Stream)
			r.Get("/{id}/ws", liveHandler.WebSocket)

			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(verifier))

				r.Post("/", pollHandler.CreatePoll)
				r.Get("/{id}/voted", pollHandler.HasVoted)
				r.Method(http.MethodPost, "/{id}/vote", voteRoute)
				r.Post("/{id}/close", pollHandler.ClosePoll)
				r.Post("/{id}/reset", pollHandler.ResetPoll)
			})
		})
	})

	return r
}
