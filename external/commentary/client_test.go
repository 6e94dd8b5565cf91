package commentary

import (
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/nations-cup/internal/domain/match"
	"github.com/riskibarqy/nations-cup/internal/domain/player"
	"github.com/riskibarqy/nations-cup/internal/domain/team"
	"github.com/riskibarqy/nations-cup/internal/platform/logging"
	"github.com/riskibarqy/nations-cup/internal/platform/resilience"
	"github.com/riskibarqy/nations-cup/internal/usecase"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler, cfg ClientConfig) *Client {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		_ = fasthttp.Serve(ln, handler)
	}()

	cfg.BaseURL = "http://commentary.test/"
	cfg.Logger = logging.NewNop()
	cfg.Dial = func(string) (net.Conn, error) { return ln.Dial() }
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	return NewClient(cfg)
}

func writeCompletion(ctx *fasthttp.RequestCtx, content string) {
	body, _ := sonic.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func sampleRequest() usecase.CommentaryRequest {
	home := team.Team{
		ID:            "t1",
		Country:       "Japan",
		Manager:       "Hajime Moriyasu",
		OverallRating: 78.4,
		Squad: []player.Player{
			{ID: "p1", TeamID: "t1", Name: "Kaoru Mitoma", Position: player.PositionAttacker, IsCaptain: true},
		},
	}
	away := team.Team{ID: "t2", Country: "Brazil", OverallRating: 81.2}
	res := match.Result{
		Team1Score:      1,
		Team2Score:      1,
		WinnerID:        "t1",
		WentToExtraTime: true,
		WentToPenalties: true,
		PenaltyShootout: &match.PenaltyShootout{Team1Score: 4, Team2Score: 3},
	}

	return usecase.CommentaryRequest{
		Match: match.Match{
			ID:          "m1",
			Round:       match.RoundQuarterFinal,
			Team1ID:     "t1",
			Team2ID:     "t2",
			Team1Lineup: []string{"p1"},
		},
		Home:   home,
		Away:   away,
		Result: res,
		Events: []match.Event{
			{Minute: 0, Type: match.EventKickoff, Description: "Kick off"},
			{Minute: 33, Type: match.EventGoal, TeamID: "t1", PlayerID: "p1", PlayerName: "Kaoru Mitoma", Description: "Goal"},
		},
	}
}

func TestClient_Comment_ReturnsLines(t *testing.T) {
	var auth, path atomic.Value
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		auth.Store(string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
		path.Store(string(ctx.Path()))

		var req chatRequest
		if err := sonic.Unmarshal(ctx.PostBody(), &req); err != nil || len(req.Messages) != 2 {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			return
		}
		writeCompletion(ctx, "- Kick off in the quarter final!\n\n* Mitoma curls it in.\n")
	}, ClientConfig{Token: "secret", Model: "test-model"})

	lines, err := client.Comment(t.Context(), sampleRequest())
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if len(lines) != 2 || lines[0] != "Kick off in the quarter final!" || lines[1] != "Mitoma curls it in." {
		t.Fatalf("unexpected lines: %q", lines)
	}
	if got := auth.Load(); got != "Bearer secret" {
		t.Fatalf("unexpected authorization header: %v", got)
	}
	if got := path.Load(); got != completionsPath {
		t.Fatalf("unexpected path: %v", got)
	}
}

func TestClient_Comment_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retries   int
		wantCalls int32
	}{
		{name: "server error is retried", status: fasthttp.StatusServiceUnavailable, retries: 1, wantCalls: 2},
		{name: "client error is permanent", status: fasthttp.StatusBadRequest, retries: 2, wantCalls: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
				calls.Add(1)
				ctx.SetStatusCode(tc.status)
				ctx.SetBodyString(`{"error":"nope"}`)
			}, ClientConfig{
				MaxRetries:     tc.retries,
				CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
			})

			_, err := client.Comment(t.Context(), sampleRequest())
			if !errors.Is(err, usecase.ErrDependencyUnavailable) {
				t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
			}
			if got := calls.Load(); got != tc.wantCalls {
				t.Fatalf("unexpected calls: got=%d want=%d", got, tc.wantCalls)
			}
		})
	}
}

func TestClient_Comment_CircuitOpens(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	}, ClientConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	if _, err := client.Comment(t.Context(), sampleRequest()); err == nil {
		t.Fatalf("expected first call to fail")
	}
	_, err := client.Comment(t.Context(), sampleRequest())
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("open circuit still reached the server: calls=%d", got)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(sampleRequest())

	for _, want := range []string{
		"Round: quarterFinal",
		"Japan, manager Hajime Moriyasu, rating 78.4, XI: Kaoru Mitoma (c)",
		"Japan 1-1 Brazil after extra time, penalties 4-3",
		"33' goal (Kaoru Mitoma): Goal",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt is missing %q:\n%s", want, prompt)
		}
	}
}
