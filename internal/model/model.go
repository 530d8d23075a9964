// Package model defines the capability contracts the pipeline stages
// call models through, plus the decorators that make those calls
// production-grade: retry with a circuit breaker, an image fallback
// ladder, structured-output parsing with schema repair, and per-call
// instrumentation. Stages never talk to a provider directly.
package model

import (
	"context"
	"encoding/json"
)

// TextRequest is a single text completion call.
type TextRequest struct {
	SystemPrompt string
	UserPrompt   string

	// Temperature of 0 leaves the provider default in place.
	Temperature float64
	MaxTokens   int

	// JSONOutput asks the provider for a JSON response body. Schema
	// additionally constrains it server-side when supported.
	JSONOutput bool
	Schema     json.RawMessage
}

// TextResponse carries the completion text and accounting.
type TextResponse struct {
	Text  string
	Model string
	Usage Usage
}

// Usage is the token accounting a provider reports.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ImageRef points at an image to attach to a call. Data takes
// precedence; otherwise Path is read from disk at send time.
type ImageRef struct {
	Path string
	MIME string
	Data []byte
}

// VisionRequest is an image-understanding call.
type VisionRequest struct {
	Prompt     string
	Images     []ImageRef
	JSONOutput bool
	MaxTokens  int
}

// ImageRequest is an image-generation call. Reference images condition
// the generation and are optional.
type ImageRequest struct {
	Prompt string
	Images []ImageRef
}

// ImageResponse carries the generated image bytes.
type ImageResponse struct {
	Data  []byte
	MIME  string
	Model string
}

// TextClient is the text completion capability.
type TextClient interface {
	Complete(ctx context.Context, req TextRequest) (*TextResponse, error)
	Model() string
}

// VisionClient is the image-understanding capability.
type VisionClient interface {
	Analyze(ctx context.Context, req VisionRequest) (*TextResponse, error)
	Model() string
}

// ImageClient is the image-generation capability.
type ImageClient interface {
	Generate(ctx context.Context, req ImageRequest) (*ImageResponse, error)
	Model() string
}
