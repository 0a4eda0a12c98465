package client

import (
	"github.com/cohesivestack/valgo"
	"github.com/spf13/viper"
	errs "github.com/theapemachine/taskflow-go/pkg/errors"
	"github.com/theapemachine/taskflow-go/pkg/retry"
)

/*
LoadConfig reads a Config from v. Keys that are not set keep the library
defaults. The API key is not checked here; NewClient does that.
*/
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		BaseURL:         v.GetString("api.base_url"),
		APIKey:          v.GetString("api.key"),
		APIKeyHeader:    v.GetString("api.key_header"),
		Headers:         v.GetStringMapString("api.headers"),
		UserAgentSuffix: v.GetString("api.user_agent_suffix"),
		Timeout:         v.GetDuration("api.timeout"),
		PollInterval:    v.GetDuration("wait.poll_interval"),
		MaxWait:         v.GetDuration("wait.max_wait"),
	}

	policy := retry.DefaultPolicy()

	if v.IsSet("retry.max_attempts") {
		policy.MaxAttempts = v.GetInt("retry.max_attempts")
	}

	if v.IsSet("retry.initial_delay") {
		policy.InitialDelay = v.GetDuration("retry.initial_delay")
	}

	if v.IsSet("retry.backoff_factor") {
		policy.BackoffFactor = v.GetFloat64("retry.backoff_factor")
	}

	if v.IsSet("retry.max_delay") {
		policy.MaxDelay = v.GetDuration("retry.max_delay")
	}

	if statuses := v.GetIntSlice("retry.statuses"); len(statuses) > 0 {
		policy.RetryOnStatuses = statuses
	}

	val := valgo.Is(
		valgo.Int(policy.MaxAttempts, "retry.max_attempts").GreaterOrEqualTo(1),
		valgo.Float64(policy.BackoffFactor, "retry.backoff_factor").GreaterOrEqualTo(1),
		valgo.Int64(int64(policy.InitialDelay), "retry.initial_delay").GreaterOrEqualTo(0),
		valgo.Int64(int64(policy.MaxDelay), "retry.max_delay").GreaterOrEqualTo(int64(policy.InitialDelay)),
	)

	if !val.Valid() {
		return Config{}, errs.NewValidationError("retry", val.Error())
	}

	cfg.Retry = &policy

	return cfg, nil
}
