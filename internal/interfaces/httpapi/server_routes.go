package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("GET /v1/players/{playerID}", handler.GetPlayer)
	mux.HandleFunc("GET /v1/seasons", handler.ListSeasons)
	mux.HandleFunc("GET /v1/seasons/active", handler.GetActiveSeason)
	mux.HandleFunc("GET /v1/seasons/{seasonID}", handler.GetSeason)
	mux.HandleFunc("GET /v1/seasons/{seasonID}/players", handler.ListSeasonPlayers)
	mux.HandleFunc("GET /v1/seasons/{seasonID}/available-players", handler.ListAvailablePlayers)
	mux.HandleFunc("GET /v1/seasons/{seasonID}/leaderboard", handler.GetLeaderboard)
	mux.HandleFunc("GET /v1/matches", handler.ListMatches)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("GET /v1/elo-configs", handler.ListConfigs)
	mux.HandleFunc("GET /v1/jobs", handler.ListJobs)
	mux.HandleFunc("GET /v1/jobs/{jobID}", handler.GetJob)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	admin := func(h http.HandlerFunc) http.Handler {
		return RequireAdminToken(adminToken, h)
	}

	mux.Handle("POST /v1/players", admin(handler.CreatePlayer))
	mux.Handle("PATCH /v1/players/{playerID}", admin(handler.UpdatePlayer))
	mux.Handle("POST /v1/matches", admin(handler.SubmitMatch))
	mux.Handle("DELETE /v1/matches/{matchID}", admin(handler.DeleteMatch))
	mux.Handle("POST /v1/seasons", admin(handler.CreateSeason))
	mux.Handle("POST /v1/seasons/{seasonID}/activate", admin(handler.ActivateSeason))
	mux.Handle("DELETE /v1/seasons/{seasonID}", admin(handler.DeleteSeason))
	mux.Handle("POST /v1/seasons/{seasonID}/recalculate", admin(handler.RecalculateSeason))
	mux.Handle("POST /v1/seasons/{seasonID}/players", admin(handler.IncludeSeasonPlayer))
	mux.Handle("DELETE /v1/seasons/{seasonID}/players/{playerID}", admin(handler.ExcludeSeasonPlayer))
	mux.Handle("PUT /v1/seasons/{seasonID}/elo-version", admin(handler.UpdateSeasonEloVersion))
	mux.Handle("POST /v1/elo-configs", admin(handler.CreateConfig))
	mux.Handle("POST /v1/elo-configs/{configID}/activate", admin(handler.ActivateConfig))
}
