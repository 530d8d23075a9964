package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	bferrors "brandforge/internal/errors"
	"brandforge/internal/logging"
)

// breakers shares one circuit breaker per model name across all
// capability wrappers, so a text client and a vision client pointed
// at the same model trip together.
var breakers = bferrors.NewCircuitBreakerManager(bferrors.DefaultCircuitBreakerConfig())

func breakerFor(modelName string) *bferrors.CircuitBreaker {
	return breakers.Get("model-" + modelName)
}

// retryCall runs fn under the retry policy and the model's circuit
// breaker, classifying raw provider errors first so retry decisions
// see Transient/Permanent wrappers.
func retryCall[T any](
	ctx context.Context,
	cfg bferrors.RetryConfig,
	breaker *bferrors.CircuitBreaker,
	logger logging.Logger,
	fn func(ctx context.Context) (*T, error),
) (*T, error) {
	return bferrors.RetryWithResultAndLog(ctx, cfg, func(ctx context.Context) (*T, error) {
		return bferrors.ExecuteFunc(breaker, ctx, func(ctx context.Context) (*T, error) {
			out, err := fn(ctx)
			if err != nil {
				return nil, classifyModelError(err)
			}
			return out, nil
		})
	}, logger)
}

type retryTextClient struct {
	underlying TextClient
	cfg        bferrors.RetryConfig
	breaker    *bferrors.CircuitBreaker
	logger     logging.Logger
}

// WithRetry wraps a text client with retry, backoff, and the model's
// shared circuit breaker.
func WithRetry(client TextClient, cfg bferrors.RetryConfig) TextClient {
	return &retryTextClient{
		underlying: client,
		cfg:        cfg,
		breaker:    breakerFor(client.Model()),
		logger:     logging.NewComponentLogger("model-retry"),
	}
}

func (c *retryTextClient) Model() string { return c.underlying.Model() }

func (c *retryTextClient) Complete(ctx context.Context, req TextRequest) (*TextResponse, error) {
	return retryCall(ctx, c.cfg, c.breaker, c.logger, func(ctx context.Context) (*TextResponse, error) {
		return c.underlying.Complete(ctx, req)
	})
}

type retryVisionClient struct {
	underlying VisionClient
	cfg        bferrors.RetryConfig
	breaker    *bferrors.CircuitBreaker
	logger     logging.Logger
}

// WithVisionRetry wraps a vision client the same way.
func WithVisionRetry(client VisionClient, cfg bferrors.RetryConfig) VisionClient {
	return &retryVisionClient{
		underlying: client,
		cfg:        cfg,
		breaker:    breakerFor(client.Model()),
		logger:     logging.NewComponentLogger("model-retry"),
	}
}

func (c *retryVisionClient) Model() string { return c.underlying.Model() }

func (c *retryVisionClient) Analyze(ctx context.Context, req VisionRequest) (*TextResponse, error) {
	return retryCall(ctx, c.cfg, c.breaker, c.logger, func(ctx context.Context) (*TextResponse, error) {
		return c.underlying.Analyze(ctx, req)
	})
}

type retryImageClient struct {
	underlying ImageClient
	cfg        bferrors.RetryConfig
	breaker    *bferrors.CircuitBreaker
	logger     logging.Logger
}

// WithImageRetry wraps an image client the same way. Ladder rungs are
// each wrapped individually so a tripped breaker on one model does
// not block its fallbacks.
func WithImageRetry(client ImageClient, cfg bferrors.RetryConfig) ImageClient {
	return &retryImageClient{
		underlying: client,
		cfg:        cfg,
		breaker:    breakerFor(client.Model()),
		logger:     logging.NewComponentLogger("model-retry"),
	}
}

func (c *retryImageClient) Model() string { return c.underlying.Model() }

func (c *retryImageClient) Generate(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	return retryCall(ctx, c.cfg, c.breaker, c.logger, func(ctx context.Context) (*ImageResponse, error) {
		return c.underlying.Generate(ctx, req)
	})
}

// classifyModelError wraps raw provider errors so IsTransient and
// IsPermanent classify them correctly. Errors already carrying a
// classification pass through untouched.
func classifyModelError(err error) error {
	if err == nil {
		return nil
	}
	var (
		transient *bferrors.TransientError
		permanent *bferrors.PermanentError
		degraded  *bferrors.DegradedError
		stage     *bferrors.StageError
	)
	if errors.As(err, &transient) || errors.As(err, &permanent) ||
		errors.As(err, &degraded) || errors.As(err, &stage) {
		return err
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit") || strings.Contains(lower, "resource_exhausted"):
		return bferrors.NewTransientError(err, "API rate limit reached. Retrying with exponential backoff.")
	case strings.Contains(lower, "500") || strings.Contains(lower, "internal server error"):
		return bferrors.NewTransientError(err, "Server error (500). Retrying request.")
	case strings.Contains(lower, "502") || strings.Contains(lower, "bad gateway"):
		return bferrors.NewTransientError(err, "Bad gateway (502). Retrying request.")
	case strings.Contains(lower, "503") || strings.Contains(lower, "service unavailable") || strings.Contains(lower, "overloaded"):
		return bferrors.NewTransientError(err, "Service unavailable (503). Retrying request.")
	case strings.Contains(lower, "504") || strings.Contains(lower, "gateway timeout"):
		return bferrors.NewTransientError(err, "Gateway timeout (504). Retrying request.")
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") || strings.Contains(lower, "broken pipe"):
		return bferrors.NewTransientError(err, "Connection failed. Retrying request.")
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return bferrors.NewTransientError(err, "Request timed out. Retrying with backoff.")
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized"):
		return bferrors.NewPermanentError(err, "Authentication failed. Check GEMINI_API_KEY.")
	case strings.Contains(lower, "403") || strings.Contains(lower, "forbidden"):
		return bferrors.NewPermanentError(err, "Permission denied for this model or resource.")
	case strings.Contains(lower, "404") || strings.Contains(lower, "not found"):
		return bferrors.NewPermanentError(err, "Model or endpoint not found. Verify the model name.")
	case strings.Contains(lower, "400") || strings.Contains(lower, "bad request") || strings.Contains(lower, "invalid argument"):
		return bferrors.NewPermanentError(err, "Invalid request. Check the parameters.")
	default:
		return err
	}
}

// FormatExhausted builds the operator-facing message after retries
// run out, with remediation guidance attached.
func FormatExhausted(err error) string {
	return fmt.Sprintf("%v\n%s", err, bferrors.Remediation(err))
}
