/*
Package client is the workflow orchestration layer. It validates caller
input, issues the trigger, status and continue calls through the transport,
and drives polling until a task settles or pauses for approval.
*/
package client

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cohesivestack/valgo"
	errs "github.com/theapemachine/taskflow-go/pkg/errors"
	"github.com/theapemachine/taskflow-go/pkg/metrics"
	"github.com/theapemachine/taskflow-go/pkg/retry"
	"github.com/theapemachine/taskflow-go/pkg/transport"
)

const (
	DefaultBaseURL      = "https://api.taskflow.run"
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 2 * time.Second
	DefaultMaxWait      = 10 * time.Minute

	triggerPath  = "/api/v1"
	statusPath   = "/api/v1/status"
	continuePath = "/api/v1/continue"
)

/*
Config is the caller facing configuration of a Client. Zero values select
the defaults above; a nil Retry selects retry.DefaultPolicy.
*/
type Config struct {
	BaseURL         string
	APIKey          string
	APIKeyHeader    string
	Headers         map[string]string
	UserAgentSuffix string
	Timeout         time.Duration
	Retry           *retry.Policy
	PollInterval    time.Duration
	MaxWait         time.Duration
	HTTPClient      transport.HTTPDoer
	Logger          *log.Logger
	Metrics         *metrics.RequestMetrics
}

/*
Client talks to one workflow service account. It holds no mutable state and
may be shared freely between goroutines.
*/
type Client struct {
	transport    *transport.Transport
	logger       *log.Logger
	metrics      *metrics.RequestMetrics
	pollInterval time.Duration
	maxWait      time.Duration
}

/*
NewClient validates cfg and resolves its defaults once. The API key is the
only required value.
*/
func NewClient(cfg Config) (*Client, error) {
	val := valgo.Is(valgo.String(cfg.APIKey, "apiKey").Not().Blank())
	if !val.Valid() {
		return nil, errs.NewValidationError("apiKey", errs.ErrAPIKeyRequired, val.Error())
	}

	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	policy := retry.DefaultPolicy()
	if cfg.Retry != nil {
		policy = *cfg.Retry
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}

	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	return &Client{
		transport: transport.New(transport.Config{
			BaseURL:         cfg.BaseURL,
			APIKey:          cfg.APIKey,
			APIKeyHeader:    cfg.APIKeyHeader,
			Headers:         cfg.Headers,
			UserAgentSuffix: cfg.UserAgentSuffix,
			Timeout:         cfg.Timeout,
			Retry:           policy,
			HTTPClient:      cfg.HTTPClient,
			Logger:          cfg.Logger,
			Metrics:         cfg.Metrics,
		}),
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
	}, nil
}

func (client *Client) BaseURL() string {
	return client.transport.BaseURL()
}

/*
Metrics returns the counters shared with the transport, or nil when the
client was built without them.
*/
func (client *Client) Metrics() *metrics.RequestMetrics {
	return client.metrics
}

/*
Do issues an arbitrary call through the client's transport, for endpoints
the typed operations do not cover.
*/
func (client *Client) Do(ctx context.Context, req transport.Request) (*transport.Response, error) {
	return client.transport.Do(ctx, req)
}
