/*
Package transport performs single logical HTTP calls against the workflow
service: URL resolution, header merging, body encoding, per-attempt timeouts,
outcome classification and retries with exponential backoff.
*/
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	errs "github.com/theapemachine/taskflow-go/pkg/errors"
	"github.com/theapemachine/taskflow-go/pkg/metrics"
	"github.com/theapemachine/taskflow-go/pkg/retry"
)

const (
	Version             = "0.1.0"
	DefaultAPIKeyHeader = "X-API-Key"
	HeaderRequestID     = "X-Request-Id"
)

/*
HTTPDoer is the HTTP implementation used to issue requests. *http.Client
satisfies it; tests substitute deterministic fakes.
*/
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

/*
Config holds everything a Transport needs. It is copied by New and never
mutated afterwards, so one Transport is safe to share across goroutines.
*/
type Config struct {
	BaseURL         string
	APIKey          string
	APIKeyHeader    string
	Headers         map[string]string
	UserAgentSuffix string
	Timeout         time.Duration
	Retry           retry.Policy
	HTTPClient      HTTPDoer
	Logger          *log.Logger
	Metrics         *metrics.RequestMetrics
}

/*
Request describes one logical call. Timeout and Retry override the transport
defaults when set.
*/
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    any
	Timeout time.Duration
	Retry   *retry.Policy
}

type Transport struct {
	cfg Config
}

/*
New resolves the defaults of cfg once. A nil HTTPClient selects a plain
*http.Client; timeouts are enforced per attempt through the request context.
*/
func New(cfg Config) *Transport {
	cfg.Headers = maps.Clone(cfg.Headers)

	if cfg.Retry.RetryOnStatuses != nil {
		cfg.Retry.RetryOnStatuses = append([]int(nil), cfg.Retry.RetryOnStatuses...)
	}

	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = DefaultAPIKeyHeader
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	return &Transport{cfg: cfg}
}

func (transport *Transport) BaseURL() string {
	return transport.cfg.BaseURL
}

func (transport *Transport) RetryPolicy() retry.Policy {
	return transport.cfg.Retry
}

func (transport *Transport) Metrics() *metrics.RequestMetrics {
	return transport.cfg.Metrics
}

func (transport *Transport) Logger() *log.Logger {
	return transport.cfg.Logger
}

/*
UserAgent identifies the client, optionally suffixed by configuration.
*/
func (transport *Transport) UserAgent() string {
	agent := "taskflow-go/" + Version
	if suffix := strings.TrimSpace(transport.cfg.UserAgentSuffix); suffix != "" {
		agent += " " + suffix
	}
	return agent
}

/*
Do executes req, retrying transient failures according to the effective
retry policy. It returns the parsed success response, a ValidationError for
requests that could not be built, the caller's context error when ctx ends,
or an OperationError describing the final failure.
*/
func (transport *Transport) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	target, err := transport.resolve(req.Path, req.Query)
	if err != nil {
		return nil, errs.NewValidationError("path", err)
	}

	payload, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	headers := transport.headers(req.Headers, contentType)
	info := errs.RequestInfo{
		Method: method,
		URL:    target,
		Body:   snapshot(req.Body, payload),
	}

	policy := transport.cfg.Retry
	if req.Retry != nil {
		policy = *req.Retry
	}

	timeout := transport.cfg.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	var response *Response

	err = retry.Do(ctx, policy, func(ctx context.Context, attempt int) (bool, error) {
		transport.cfg.Logger.Debug("sending request",
			"method", method,
			"url", target,
			"attempt", attempt,
			"requestID", headers.Get(HeaderRequestID),
		)

		resp, retryable, err := transport.attempt(
			ctx, method, target, headers, payload, timeout, info, policy,
		)
		if err == nil {
			response = resp
		}
		return retryable, err
	}, func(attempt int, delay time.Duration, err error) {
		transport.cfg.Metrics.RecordRetry()
		transport.cfg.Logger.Debug("retrying request",
			"method", method,
			"url", target,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
	})

	transport.cfg.Metrics.RecordRequest(err == nil)

	if err != nil {
		return nil, err
	}

	return response, nil
}

func (transport *Transport) attempt(
	ctx context.Context,
	method, target string,
	headers http.Header,
	payload []byte,
	timeout time.Duration,
	info errs.RequestInfo,
	policy retry.Policy,
) (*Response, bool, error) {
	attemptCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, target, body)
	if err != nil {
		return nil, false, errs.NewNetworkError(info, err)
	}
	httpReq.Header = headers.Clone()

	start := time.Now()

	resp, err := transport.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		transport.cfg.Metrics.RecordAttempt(false, time.Since(start))
		retryable, err := transport.failure(ctx, attemptCtx, timeout, info, err)
		return nil, retryable, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		transport.cfg.Metrics.RecordAttempt(false, time.Since(start))
		retryable, err := transport.failure(ctx, attemptCtx, timeout, info, err)
		return nil, retryable, err
	}

	transport.cfg.Metrics.RecordAttempt(isSuccess(resp.StatusCode), time.Since(start))

	return classify(resp, raw, info, policy)
}

/*
failure turns an error raised before a complete response was read into the
caller's context error, or a network OperationError. An expired attempt
timeout is reported as ErrRequestTimeout so it stays retryable.
*/
func (transport *Transport) failure(
	ctx, attemptCtx context.Context,
	timeout time.Duration,
	info errs.RequestInfo,
	err error,
) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}

	cause := err
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		cause = fmt.Errorf("%w after %s", errs.ErrRequestTimeout, timeout)
	}

	return retry.IsTransient(cause), errs.NewNetworkError(info, cause)
}

func (transport *Transport) resolve(path string, query url.Values) (string, error) {
	target := path

	if parsed, err := url.Parse(path); err != nil || !parsed.IsAbs() {
		target = strings.TrimRight(transport.cfg.BaseURL, "/") +
			"/" + strings.TrimLeft(path, "/")
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", err
	}

	if len(query) > 0 {
		values := parsed.Query()
		for key, list := range query {
			for _, value := range list {
				values.Add(key, value)
			}
		}
		parsed.RawQuery = values.Encode()
	}

	return parsed.String(), nil
}

/*
headers merges built-in defaults, client-wide headers and per-call headers,
later sources winning. Keys are canonicalized, so collisions are
case-insensitive.
*/
func (transport *Transport) headers(extra map[string]string, contentType string) http.Header {
	merged := http.Header{}

	merged.Set("Accept", "application/json")
	merged.Set("User-Agent", transport.UserAgent())

	if transport.cfg.APIKey != "" {
		merged.Set(transport.cfg.APIKeyHeader, transport.cfg.APIKey)
	}

	for key, value := range transport.cfg.Headers {
		merged.Set(key, value)
	}

	for key, value := range extra {
		merged.Set(key, value)
	}

	if contentType != "" && merged.Get("Content-Type") == "" {
		merged.Set("Content-Type", contentType)
	}

	if merged.Get(HeaderRequestID) == "" {
		merged.Set(HeaderRequestID, uuid.NewString())
	}

	return merged
}
