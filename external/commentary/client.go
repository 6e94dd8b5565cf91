package commentary

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/nations-cup/internal/platform/logging"
	"github.com/riskibarqy/nations-cup/internal/platform/resilience"
	"github.com/riskibarqy/nations-cup/internal/usecase"
	"github.com/valyala/fasthttp"
)

const (
	defaultModel      = "gpt-4o-mini"
	completionsPath   = "/v1/chat/completions"
	maxCommentLines   = 60
	maxErrorBodyBytes = 512
)

var errCommentaryTransient = crerr.New("commentary transient failure")

type ClientConfig struct {
	BaseURL        string
	Token          string
	Model          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	// Dial overrides the transport dialer, mostly for in-memory tests.
	Dial fasthttp.DialFunc
}

// Client asks an OpenAI compatible chat completion endpoint for match commentary.
type Client struct {
	http           *fasthttp.Client
	endpoint       string
	token          string
	model          string
	timeout        time.Duration
	retry          resilience.RetryConfig
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	retry := resilience.DefaultRetryConfig()
	retry.Attempts = max(cfg.MaxRetries, 0) + 1
	breakerCfg := cfg.CircuitBreaker.Normalize()

	return &Client{
		http: &fasthttp.Client{
			Name:                "nations-cup-commentary",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
			Dial:                cfg.Dial,
		},
		endpoint:       strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/") + completionsPath,
		token:          strings.TrimSpace(cfg.Token),
		model:          model,
		timeout:        timeout,
		retry:          retry,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Comment implements usecase.Commentator. Every failure wraps
// usecase.ErrDependencyUnavailable so callers can degrade.
func (c *Client) Comment(ctx context.Context, req usecase.CommentaryRequest) ([]string, error) {
	body, err := sonic.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(req)},
		},
		Temperature: 0.8,
	})
	if err != nil {
		return nil, crerr.Wrap(err, "marshal commentary request")
	}

	var lines []string
	err = resilience.Retry(ctx, c.retry, func(ctx context.Context) error {
		if err := c.allow(); err != nil {
			return err
		}
		content, err := c.post(ctx, body)
		c.recordCircuitResult(err)
		if err != nil {
			return err
		}
		lines = splitLines(content)
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "commentary request failed",
			"match_id", req.Match.ID,
			"circuit_state", c.breaker.State(),
			"error", err,
		)
		return nil, fmt.Errorf("%w: commentary for match %s: %w", usecase.ErrDependencyUnavailable, req.Match.ID, err)
	}

	c.logger.InfoContext(ctx, "commentary generated", "match_id", req.Match.ID, "lines", len(lines))
	return lines, nil
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	request := fasthttp.AcquireRequest()
	response := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(request)
	defer fasthttp.ReleaseResponse(response)

	request.SetRequestURI(c.endpoint)
	request.Header.SetMethod(fasthttp.MethodPost)
	request.Header.SetContentType("application/json")
	if c.token != "" {
		request.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.token)
	}
	request.SetBody(body)

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.http.DoDeadline(request, response, deadline); err != nil {
		return "", crerr.Wrapf(errCommentaryTransient, "post %s: %v", c.endpoint, err)
	}

	status := response.StatusCode()
	if status/100 != 2 {
		preview := truncate(strings.TrimSpace(string(response.Body())), maxErrorBodyBytes)
		if isRetryableStatus(status) {
			return "", crerr.Wrapf(errCommentaryTransient, "commentary status=%d body=%s", status, preview)
		}
		return "", crerr.Wrapf(resilience.ErrPermanent, "commentary status=%d body=%s", status, preview)
	}

	// The response body is recycled on release.
	raw := append([]byte(nil), response.Body()...)
	var decoded chatResponse
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return "", crerr.Wrapf(resilience.ErrPermanent, "decode commentary response: %v", err)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", crerr.Wrap(resilience.ErrPermanent, "commentary response has no content")
	}

	return decoded.Choices[0].Message.Content, nil
}

func (c *Client) allow() error {
	if !c.circuitEnabled {
		return nil
	}
	return c.breaker.Allow()
}

// recordCircuitResult only counts transient failures against the breaker.
func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled {
		return
	}
	if err != nil && stderrors.Is(err, errCommentaryTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusRequestTimeout ||
		status == fasthttp.StatusTooManyRequests ||
		status >= fasthttp.StatusInternalServerError
}

func splitLines(content string) []string {
	out := make([]string, 0, 16)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == maxCommentLines {
			break
		}
	}
	return out
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "...(truncated)"
}
