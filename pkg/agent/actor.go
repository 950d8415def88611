package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/api"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/decode"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/observability"
)

// Actor performs a single canister call against the gateway. reply, when
// non-nil, receives the decoded wire payload.
type Actor interface {
	Call(ctx context.Context, method string, args any, reply any) error
}

// Backend verification budget: five attempts per five-minute window. The
// actor enforces the same budget locally so most violations never leave
// the client.
const (
	verifyAttemptsPerWindow = 5
	verifyWindow            = 5 * time.Minute
)

const (
	defaultSessionTTL = 15 * time.Minute
	rateLimitMessage  = "Rate limit exceeded. Try again later."
)

// HTTPActor calls canister methods through the HTTP gateway. Query calls
// are retried with capped backoff; update calls run exactly once.
type HTTPActor struct {
	baseURL   string
	serviceID string
	identity  *Identity

	http          *http.Client
	log           *slog.Logger
	breaker       *circuitBreaker
	retry         RetryPolicy
	verifyLimiter *rate.Limiter
	sessionTTL    time.Duration

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// ActorOption configures an HTTPActor.
type ActorOption func(*HTTPActor)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ActorOption {
	return func(a *HTTPActor) { a.http = c }
}

// WithLogger routes actor logging through log.
func WithLogger(log *slog.Logger) ActorOption {
	return func(a *HTTPActor) { a.log = log }
}

// WithRetryPolicy replaces the query retry schedule.
func WithRetryPolicy(p RetryPolicy) ActorOption {
	return func(a *HTTPActor) { a.retry = p }
}

// WithSessionTTL sets the lifetime of minted session tokens.
func WithSessionTTL(d time.Duration) ActorOption {
	return func(a *HTTPActor) { a.sessionTTL = d }
}

// WithBreaker replaces the circuit breaker thresholds.
func WithBreaker(threshold int, reset time.Duration) ActorOption {
	return func(a *HTTPActor) { a.breaker = newCircuitBreaker("gateway", threshold, reset) }
}

// NewHTTPActor builds an actor for the given gateway and canister acting
// as id. A nil id acts anonymously.
func NewHTTPActor(baseURL, serviceID string, id *Identity, opts ...ActorOption) *HTTPActor {
	if id == nil {
		id = AnonymousIdentity()
	}
	a := &HTTPActor{
		baseURL:       strings.TrimRight(baseURL, "/"),
		serviceID:     serviceID,
		identity:      id,
		http:          &http.Client{Timeout: 30 * time.Second},
		log:           slog.Default(),
		breaker:       newCircuitBreaker("gateway", 5, 10*time.Second),
		retry:         DefaultRetryPolicy,
		verifyLimiter: rate.NewLimiter(rate.Every(verifyWindow/verifyAttemptsPerWindow), verifyAttemptsPerWindow),
		sessionTTL:    defaultSessionTTL,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Identity returns the identity the actor signs calls with.
func (a *HTTPActor) Identity() *Identity {
	return a.identity
}

// Call posts a canister method invocation and decodes the reply. Every
// error it returns is a *decode.Failure, so callers see one taxonomy for
// wire, transport, and local failures alike. When the context carries a
// trace span, the call is recorded on it.
func (a *HTTPActor) Call(ctx context.Context, method string, args any, reply any) (err error) {
	kind, known := api.MethodKind(method)
	if !known {
		kind = api.CallUpdate
	}
	requestID := uuid.NewString()

	observability.AddSpanEvent(ctx, "gateway.call",
		observability.CallOperation(method, kind.String(), requestID)...)
	defer func() { observability.SetSpanStatus(ctx, err) }()

	if isVerifyMethod(method) && !a.verifyLimiter.Allow() {
		a.log.Warn("verification budget exhausted locally", "method", method, "request_id", requestID)
		return &decode.Failure{
			Kind:      api.KindInvalidInput,
			Message:   rateLimitMessage,
			Method:    method,
			RequestID: requestID,
		}
	}

	if !a.breaker.Allow() {
		return decode.NewTransportFailure(method, requestID,
			fmt.Errorf("gateway circuit open, retry after %s", a.breaker.resetTimeout))
	}

	token, err := a.sessionToken()
	if err != nil {
		return decode.NewTransportFailure(method, requestID, fmt.Errorf("mint session token: %w", err))
	}

	var body []byte
	if args != nil {
		body, err = json.Marshal(args)
		if err != nil {
			return decode.NewMalformedFailure(method, requestID, fmt.Errorf("encode arguments: %w", err))
		}
	}

	attempts := 1
	if kind == api.CallQuery && a.retry.MaxAttempts > 1 {
		attempts = a.retry.MaxAttempts
	}

	a.log.Debug("gateway call", "method", method, "kind", kind.String(), "request_id", requestID)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := retryDelay(method, requestID, attempt-1, a.retry)
			a.log.Warn("retrying gateway query",
				"method", method,
				"request_id", requestID,
				"attempt", attempt,
				"delay", delay,
				"error", lastErr)
			select {
			case <-ctx.Done():
				return decode.NewTransportFailure(method, requestID, ctx.Err())
			case <-time.After(delay):
			}
		}

		raw, status, rerr := a.roundTrip(ctx, kind, method, requestID, token, body)
		if rerr != nil {
			lastErr = rerr
			a.breaker.Failure()
			if ctx.Err() != nil {
				return decode.NewTransportFailure(method, requestID, ctx.Err())
			}
			continue
		}
		if status >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("gateway returned status %d", status)
			a.breaker.Failure()
			continue
		}

		a.breaker.Success()
		if status >= http.StatusBadRequest {
			return decode.NewTransportFailure(method, requestID,
				fmt.Errorf("gateway returned status %d: %s", status, trimBody(raw)))
		}
		return a.decodeReply(method, requestID, raw, reply)
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("gateway unavailable")
	}
	return decode.NewTransportFailure(method, requestID, lastErr)
}

func (a *HTTPActor) roundTrip(ctx context.Context, kind api.CallKind, method, requestID, token string, body []byte) ([]byte, int, error) {
	url := fmt.Sprintf("%s/api/v1/canister/%s/%s/%s", a.baseURL, a.serviceID, kind.String(), method)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}
	return raw, resp.StatusCode, nil
}

// sessionToken returns a cached bearer token, minting a fresh one when the
// cached token is within a minute of expiry. Anonymous actors send none.
func (a *HTTPActor) sessionToken() (string, error) {
	if a.identity.Anonymous() {
		return "", nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != "" && time.Now().Before(a.tokenExp) {
		return a.token, nil
	}

	token, err := a.identity.SessionToken(a.sessionTTL)
	if err != nil {
		return "", err
	}
	a.token = token
	a.tokenExp = time.Now().Add(a.sessionTTL - time.Minute)
	return token, nil
}

func (a *HTTPActor) decodeReply(method, requestID string, raw []byte, reply any) error {
	if reply == nil {
		return nil
	}
	if api.IsEnveloped(method) {
		if err := api.ValidateEnvelope(raw); err != nil {
			return decode.NewMalformedFailure(method, requestID, err)
		}
	}
	if err := json.Unmarshal(raw, reply); err != nil {
		return decode.NewMalformedFailure(method, requestID, err)
	}
	return nil
}

func isVerifyMethod(method string) bool {
	return method == api.MethodVerifyProduct || method == api.MethodRedeemProductReward
}

// trimBody shortens an error body for log and message use.
func trimBody(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 256 {
		s = s[:256] + "..."
	}
	return s
}
