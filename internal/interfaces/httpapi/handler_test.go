package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/nations-cup/internal/domain/bracket"
	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/infrastructure/repository/memory"
	idgen "github.com/riskibarqy/nations-cup/internal/platform/id"
	"github.com/riskibarqy/nations-cup/internal/platform/logging"
	"github.com/riskibarqy/nations-cup/internal/platform/random"
	"github.com/riskibarqy/nations-cup/internal/usecase"
)

const testAdminToken = "admin-secret"

type envelope[T any] struct {
	APIVersion string           `json:"apiVersion"`
	Data       T                `json:"data"`
	Error      *googleErrorBody `json:"error"`
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	tournamentRepo := memory.NewTournamentRepository(nil)
	teamRepo := memory.NewTeamRepository(nil)
	matchRepo := memory.NewMatchRepository()
	ids := idgen.NewUUIDGenerator()
	source := random.NewSource(7)
	locks := usecase.NewTournamentLocks()
	logger := logging.NewNop()

	teams := usecase.NewTeamService(tournamentRepo, teamRepo, ids, source, locks, logger)
	tournaments := usecase.NewTournamentService(tournamentRepo, teamRepo, matchRepo, ids, locks, logger)
	matches := usecase.NewMatchService(tournamentRepo, teamRepo, matchRepo, nil, source, nil, tournaments, locks, usecase.MatchServiceConfig{}, logger)

	handler := NewHandler(teams, tournaments, matches, ReplayConfig{}, logger)
	return NewRouter(handler, logger, RouterConfig{
		CORSAllowedOrigins: []string{"*"},
		AdminToken:         testAdminToken,
	})
}

func doJSON[T any](t *testing.T, router http.Handler, method, path, body string, headers map[string]string) (int, envelope[T]) {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out envelope[T]
	if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: decode body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, out
}

// startedTournament registers the seed nations and starts the bracket.
func startedTournament(t *testing.T, router http.Handler) tournamentDTO {
	t.Helper()

	code, created := doJSON[tournamentDTO](t, router, http.MethodPost, "/v1/tournaments", `{"name":"Nations Cup"}`, nil)
	if code != http.StatusCreated {
		t.Fatalf("create tournament: status=%d error=%+v", code, created.Error)
	}

	for _, nation := range memory.SeedNations() {
		body := `{"country":"` + nation.Country + `","manager":"` + nation.Manager + `"}`
		code, res := doJSON[teamDTO](t, router, http.MethodPost, "/v1/tournaments/"+created.Data.ID+"/teams", body, nil)
		if code != http.StatusCreated {
			t.Fatalf("register %s: status=%d error=%+v", nation.Country, code, res.Error)
		}
	}

	code, started := doJSON[tournamentDTO](t, router, http.MethodPost, "/v1/tournaments/"+created.Data.ID+"/start", "", nil)
	if code != http.StatusOK {
		t.Fatalf("start tournament: status=%d error=%+v", code, started.Error)
	}
	return started.Data
}

func TestHandler_FullTournament(t *testing.T) {
	router := newTestRouter(t)
	item := startedTournament(t, router)

	if item.Stage != bracket.StageQuarterFinals {
		t.Fatalf("unexpected stage after start: %s", item.Stage)
	}

	for _, want := range []int{4, 2, 1} {
		code, played := doJSON[[]matchDTO](t, router, http.MethodPost, "/v1/tournaments/"+item.ID+"/simulate-round", `{"mode":"simulated"}`, nil)
		if code != http.StatusOK || len(played.Data) != want {
			t.Fatalf("simulate round: status=%d matches=%d error=%+v", code, len(played.Data), played.Error)
		}
		code, advanced := doJSON[tournamentDTO](t, router, http.MethodPost, "/v1/tournaments/"+item.ID+"/advance", "", nil)
		if code != http.StatusOK {
			t.Fatalf("advance: status=%d error=%+v", code, advanced.Error)
		}
	}

	code, got := doJSON[tournamentDTO](t, router, http.MethodGet, "/v1/tournaments/"+item.ID, "", nil)
	if code != http.StatusOK {
		t.Fatalf("get tournament: status=%d", code)
	}
	if got.Data.Stage != bracket.StageCompleted || got.Data.ChampionID == "" {
		t.Fatalf("tournament not completed: %+v", got.Data)
	}

	code, finals := doJSON[[]matchDTO](t, router, http.MethodGet, "/v1/tournaments/"+item.ID+"/matches?round=final", "", nil)
	if code != http.StatusOK || len(finals.Data) != 1 {
		t.Fatalf("list final: status=%d matches=%d", code, len(finals.Data))
	}
	final := finals.Data[0]
	if final.Result == nil || final.Result.WinnerID != got.Data.ChampionID {
		t.Fatalf("champion does not match final winner: %+v", final.Result)
	}

	code, events := doJSON[[]match.Event](t, router, http.MethodGet, "/v1/matches/"+final.ID+"/events", "", nil)
	if code != http.StatusOK || len(events.Data) != final.EventCount || len(events.Data) == 0 {
		t.Fatalf("get events: status=%d events=%d want=%d", code, len(events.Data), final.EventCount)
	}
	if events.Data[0].Type != match.EventKickoff || events.Data[len(events.Data)-1].Type != match.EventFinal {
		t.Fatalf("timeline must run from kickoff to final whistle: %s..%s", events.Data[0].Type, events.Data[len(events.Data)-1].Type)
	}
}

func TestHandler_RequestErrors(t *testing.T) {
	router := newTestRouter(t)
	item := startedTournament(t, router)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantReason string
	}{
		{
			name:       "missing tournament name",
			method:     http.MethodPost,
			path:       "/v1/tournaments",
			body:       `{"name":""}`,
			wantStatus: http.StatusBadRequest,
			wantReason: "invalidInput",
		},
		{
			name:       "unknown field",
			method:     http.MethodPost,
			path:       "/v1/tournaments",
			body:       `{"name":"Cup","hosts":"Qatar"}`,
			wantStatus: http.StatusBadRequest,
			wantReason: "invalidInput",
		},
		{
			name:       "registration closed",
			method:     http.MethodPost,
			path:       "/v1/tournaments/" + item.ID + "/teams",
			body:       `{"country":"Portugal"}`,
			wantStatus: http.StatusConflict,
			wantReason: "conflict",
		},
		{
			name:       "advance before the round is played",
			method:     http.MethodPost,
			path:       "/v1/tournaments/" + item.ID + "/advance",
			wantStatus: http.StatusConflict,
			wantReason: "notReady",
		},
		{
			name:       "short starting eleven",
			method:     http.MethodPut,
			path:       "/v1/teams/" + item.Bracket.QuarterFinals[0].Team1ID + "/starting-eleven",
			body:       `{"playerIds":["a","b"]}`,
			wantStatus: http.StatusBadRequest,
			wantReason: "invalidInput",
		},
		{
			name:       "unknown simulation mode",
			method:     http.MethodPost,
			path:       "/v1/matches/" + item.Bracket.QuarterFinals[0].MatchID + "/simulate",
			body:       `{"mode":"replayed"}`,
			wantStatus: http.StatusBadRequest,
			wantReason: "invalidInput",
		},
		{
			name:       "missing match",
			method:     http.MethodGet,
			path:       "/v1/matches/missing",
			wantStatus: http.StatusNotFound,
			wantReason: "notFound",
		},
		{
			name:       "unknown round filter",
			method:     http.MethodGet,
			path:       "/v1/tournaments/" + item.ID + "/matches?round=groupStage",
			wantStatus: http.StatusBadRequest,
			wantReason: "invalidInput",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, res := doJSON[any](t, router, tc.method, tc.path, tc.body, nil)
			if code != tc.wantStatus {
				t.Fatalf("unexpected status: got=%d want=%d error=%+v", code, tc.wantStatus, res.Error)
			}
			if res.Error == nil || len(res.Error.Errors) == 0 || res.Error.Errors[0].Reason != tc.wantReason {
				t.Fatalf("unexpected error body: %+v", res.Error)
			}
		})
	}
}

func TestHandler_SetStartingEleven_InvalidComposition(t *testing.T) {
	router := newTestRouter(t)
	item := startedTournament(t, router)
	teamID := item.Bracket.QuarterFinals[0].Team1ID

	code, got := doJSON[teamDTO](t, router, http.MethodGet, "/v1/teams/"+teamID, "", nil)
	if code != http.StatusOK {
		t.Fatalf("get team: status=%d", code)
	}

	ids := make([]string, 0, 11)
	for _, p := range got.Data.Squad {
		if p.Position == "GK" && len(ids) < 2 {
			ids = append(ids, p.ID)
		}
	}
	for _, p := range got.Data.Squad {
		if p.Position != "GK" && len(ids) < 11 {
			ids = append(ids, p.ID)
		}
	}

	body, _ := sonic.Marshal(startingElevenRequest{PlayerIDs: ids})
	code, res := doJSON[any](t, router, http.MethodPut, "/v1/teams/"+teamID+"/starting-eleven", string(body), nil)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for two goalkeepers, got %d (%+v)", code, res.Error)
	}
}

func TestHandler_AdminRoutes(t *testing.T) {
	router := newTestRouter(t)
	item := startedTournament(t, router)
	matchID := item.Bracket.QuarterFinals[0].MatchID

	if code, res := doJSON[matchDTO](t, router, http.MethodPost, "/v1/matches/"+matchID+"/simulate", "", nil); code != http.StatusOK {
		t.Fatalf("simulate match: status=%d error=%+v", code, res.Error)
	}

	code, _ := doJSON[any](t, router, http.MethodPost, "/v1/admin/matches/"+matchID+"/invalidate", "", map[string]string{adminTokenHeader: "wrong"})
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad admin token, got %d", code)
	}

	admin := map[string]string{adminTokenHeader: testAdminToken}
	code, summary := doJSON[regenerateSummaryDTO](t, router, http.MethodPost, "/v1/admin/tournaments/"+item.ID+"/regenerate-events", "", admin)
	if code != http.StatusOK || summary.Data.Total != 1 || summary.Data.Regenerated != 1 {
		t.Fatalf("regenerate all: status=%d summary=%+v", code, summary.Data)
	}

	code, invalidated := doJSON[invalidationDTO](t, router, http.MethodPost, "/v1/admin/matches/"+matchID+"/invalidate", "", admin)
	if code != http.StatusOK {
		t.Fatalf("invalidate: status=%d error=%+v", code, invalidated.Error)
	}
	if invalidated.Data.Match.Status != match.StatusScheduled || invalidated.Data.Match.Result != nil {
		t.Fatalf("match not reset: %+v", invalidated.Data.Match)
	}
}

func TestHandler_ReplayMatch(t *testing.T) {
	router := newTestRouter(t)
	item := startedTournament(t, router)
	matchID := item.Bracket.QuarterFinals[1].MatchID

	code, played := doJSON[matchDTO](t, router, http.MethodPost, "/v1/matches/"+matchID+"/simulate", "", nil)
	if code != http.StatusOK {
		t.Fatalf("simulate match: status=%d", code)
	}

	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/matches/" + matchID + "/replay?speed=6000"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial replay: %v", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	events := 0
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read replay message after %d events: %v", events, err)
		}
		var msg replayMessage
		if err := sonic.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode replay message: %v", err)
		}
		if msg.Type == "end" {
			if msg.Total != events {
				t.Fatalf("end message total %d does not match %d streamed events", msg.Total, events)
			}
			break
		}
		if msg.Type != "event" || msg.Event == nil || msg.Index != events {
			t.Fatalf("unexpected replay message: %+v", msg)
		}
		events++
	}
	if events != played.Data.EventCount {
		t.Fatalf("replayed %d events, match has %d", events, played.Data.EventCount)
	}
}

func TestHandler_ReplayMatch_RejectsBadSpeed(t *testing.T) {
	router := newTestRouter(t)

	code, res := doJSON[any](t, router, http.MethodGet, "/v1/matches/any/replay?speed=0", "", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero speed, got %d (%+v)", code, res.Error)
	}
}
