package model

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bferrors "brandforge/internal/errors"
)

// Breakers are shared per model name across the process, so every test
// here uses a model name nothing else touches.
func fastRetry(attempts int) bferrors.RetryConfig {
	return bferrors.RetryConfig{
		MaxAttempts:  attempts,
		BaseDelay:    time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		JitterFactor: 0,
	}
}

func TestWithRetryRecoversFromTransientFailure(t *testing.T) {
	t.Parallel()

	mock := &MockTextClient{
		ModelName: "retry-recovers",
		Errs:      []error{fmt.Errorf("429 too many requests")},
		Responses: []string{"ok"},
	}
	client := WithRetry(mock, fastRetry(3))

	resp, err := client.Complete(context.Background(), TextRequest{UserPrompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 2, mock.CallCount())
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	t.Parallel()

	mock := &MockTextClient{
		ModelName: "retry-permanent",
		Errs:      []error{fmt.Errorf("401 unauthorized: api key rejected")},
		Responses: []string{"never reached"},
	}
	client := WithRetry(mock, fastRetry(3))

	_, err := client.Complete(context.Background(), TextRequest{UserPrompt: "p"})
	require.Error(t, err)
	assert.True(t, bferrors.IsPermanent(err))
	assert.Equal(t, 1, mock.CallCount(), "auth failures must not burn retry budget")
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	t.Parallel()

	mock := &MockTextClient{
		ModelName: "retry-exhausted",
		Errs: []error{
			fmt.Errorf("503 service unavailable"),
			fmt.Errorf("503 service unavailable"),
			fmt.Errorf("503 service unavailable"),
		},
	}
	client := WithRetry(mock, fastRetry(3))

	_, err := client.Complete(context.Background(), TextRequest{UserPrompt: "p"})
	require.Error(t, err)
	assert.Equal(t, 3, mock.CallCount())
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.True(t, bferrors.IsTransient(err), "exhaustion keeps the transient classification")
}

func TestWithRetryPassesClassifiedErrorsThrough(t *testing.T) {
	t.Parallel()

	scripted := bferrors.NewStageError(bferrors.KindModelSchemaViolation, "direct", fmt.Errorf("bad json"))
	mock := &MockTextClient{
		ModelName: "retry-classified",
		Errs:      []error{scripted},
	}
	client := WithRetry(mock, fastRetry(3))

	_, err := client.Complete(context.Background(), TextRequest{UserPrompt: "p"})
	require.Error(t, err)
	assert.Equal(t, bferrors.KindModelSchemaViolation, bferrors.KindOf(err))
	assert.Equal(t, 1, mock.CallCount())
}

func TestWithRetryBreakerOpensAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	transientErr := fmt.Errorf("503 service unavailable")
	mock := &MockTextClient{
		ModelName: "retry-breaker",
		Errs:      []error{transientErr, transientErr, transientErr, transientErr, transientErr},
	}
	client := WithRetry(mock, fastRetry(5))

	_, err := client.Complete(context.Background(), TextRequest{UserPrompt: "p"})
	require.Error(t, err)
	require.Equal(t, 5, mock.CallCount())

	// Five consecutive failures tripped the breaker, so the next call
	// fails fast without touching the endpoint.
	_, err = client.Complete(context.Background(), TextRequest{UserPrompt: "p"})
	require.Error(t, err)
	assert.True(t, bferrors.IsDegraded(err))
	assert.Equal(t, 5, mock.CallCount())
}

func TestWithVisionRetryPreservesResponse(t *testing.T) {
	t.Parallel()

	mock := &MockVisionClient{ModelName: "vision-retry", Responses: []string{"a warm serif wordmark"}}
	client := WithVisionRetry(mock, fastRetry(2))

	resp, err := client.Analyze(context.Background(), VisionRequest{Prompt: "describe"})
	require.NoError(t, err)
	assert.Equal(t, "a warm serif wordmark", resp.Text)
	assert.Equal(t, "vision-retry", client.Model())
}

func TestWithImageRetryRetriesGeneration(t *testing.T) {
	t.Parallel()

	mock := &MockImageClient{
		ModelName: "image-retry",
		Errs:      []error{fmt.Errorf("connection reset by peer")},
	}
	client := WithImageRetry(mock, fastRetry(2))

	resp, err := client.Generate(context.Background(), ImageRequest{Prompt: "a mark"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Data)
	assert.Equal(t, 2, mock.CallCount())
}

func TestClassifyModelError(t *testing.T) {
	t.Parallel()

	transientMsgs := []string{
		"429 resource_exhausted",
		"rate limit hit",
		"500 internal server error",
		"502 bad gateway",
		"503 model overloaded",
		"504 gateway timeout",
		"connection refused",
		"request timeout",
	}
	for _, msg := range transientMsgs {
		err := classifyModelError(fmt.Errorf("%s", msg))
		assert.True(t, bferrors.IsTransient(err), "%q should classify transient", msg)
	}

	permanentMsgs := []string{
		"401 unauthorized",
		"403 forbidden",
		"404 model not found",
		"400 invalid argument",
	}
	for _, msg := range permanentMsgs {
		err := classifyModelError(fmt.Errorf("%s", msg))
		assert.True(t, bferrors.IsPermanent(err), "%q should classify permanent", msg)
	}

	// Errors already carrying a classification pass through untouched.
	pre := bferrors.NewPermanentError(fmt.Errorf("429 looks transient but is not"), "")
	assert.Same(t, pre, classifyModelError(pre))

	assert.NoError(t, classifyModelError(nil))
}
