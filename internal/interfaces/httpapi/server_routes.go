package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerTournamentRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/tournaments", handler.ListTournaments)
	mux.HandleFunc("POST /v1/tournaments", handler.CreateTournament)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}", handler.GetTournament)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}/teams", handler.ListTeams)
	mux.HandleFunc("POST /v1/tournaments/{tournamentID}/teams", handler.RegisterTeam)
	mux.HandleFunc("POST /v1/tournaments/{tournamentID}/start", handler.StartTournament)
	mux.HandleFunc("POST /v1/tournaments/{tournamentID}/advance", handler.AdvanceRound)
	mux.HandleFunc("POST /v1/tournaments/{tournamentID}/simulate-round", handler.SimulateRound)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}/matches", handler.ListMatches)
}

func registerTeamRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeam)
	mux.HandleFunc("PUT /v1/teams/{teamID}/starting-eleven", handler.SetStartingEleven)
	mux.HandleFunc("PUT /v1/teams/{teamID}/captain", handler.SetCaptain)
	mux.HandleFunc("POST /v1/teams/{teamID}/refresh-squad", handler.RefreshSquad)
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("GET /v1/matches/{matchID}/events", handler.GetTimeline)
	mux.HandleFunc("GET /v1/matches/{matchID}/replay", handler.ReplayMatch)
	mux.HandleFunc("POST /v1/matches/{matchID}/simulate", handler.SimulateMatch)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.Handle("POST /v1/admin/matches/{matchID}/regenerate-events", RequireAdminToken(adminToken, http.HandlerFunc(handler.RegenerateEvents)))
	mux.Handle("POST /v1/admin/matches/{matchID}/invalidate", RequireAdminToken(adminToken, http.HandlerFunc(handler.InvalidateMatch)))
	mux.Handle("POST /v1/admin/tournaments/{tournamentID}/regenerate-events", RequireAdminToken(adminToken, http.HandlerFunc(handler.RegenerateAllEvents)))
}
