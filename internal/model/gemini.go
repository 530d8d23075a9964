package model

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	bferrors "brandforge/internal/errors"
	"brandforge/internal/httpclient"
	"brandforge/internal/logging"
)

const (
	defaultGeminiBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	defaultAttemptTimeout = 120 * time.Second

	// Generated images arrive base64-inline; cap well above the
	// largest observed payloads.
	maxResponseBytes = 32 << 20
)

// GeminiConfig configures the REST client. Zero values fall back to
// production defaults.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// GeminiClient speaks the generateContent REST endpoint for a single
// model. It implements all three capabilities; decorators pick the
// ones they need.
type GeminiClient struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

func NewGeminiClient(model string, cfg GeminiConfig) *GeminiClient {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	logger := logging.NewComponentLogger("gemini")
	return &GeminiClient{
		model:      model,
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpclient.New(timeout, logger),
		logger:     logger,
	}
}

// Model returns the model name this client calls.
func (c *GeminiClient) Model() string {
	return c.model
}

// Wire types for the generateContent endpoint. Requests and responses
// both use the camelCase REST form.
type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature        *float64        `json:"temperature,omitempty"`
	MaxOutputTokens    int             `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType   string          `json:"responseMimeType,omitempty"`
	ResponseSchema     json.RawMessage `json:"responseSchema,omitempty"`
	ResponseModalities []string        `json:"responseModalities,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string            `json:"text"`
				InlineData *geminiInlineData `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (r *geminiResponse) joinedText() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}

func (r *geminiResponse) usage() Usage {
	return Usage{
		PromptTokens:     r.UsageMetadata.PromptTokenCount,
		CompletionTokens: r.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      r.UsageMetadata.TotalTokenCount,
	}
}

// Complete implements TextClient.
func (c *GeminiClient) Complete(ctx context.Context, req TextRequest) (*TextResponse, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.UserPrompt}}}},
	}
	if req.SystemPrompt != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}
	gc := &geminiGenerationConfig{MaxOutputTokens: req.MaxTokens}
	if req.Temperature > 0 {
		t := req.Temperature
		gc.Temperature = &t
	}
	if req.JSONOutput || len(req.Schema) > 0 {
		gc.ResponseMIMEType = "application/json"
		gc.ResponseSchema = req.Schema
	}
	if gc.Temperature != nil || gc.MaxOutputTokens > 0 || gc.ResponseMIMEType != "" {
		payload.GenerationConfig = gc
	}

	resp, err := c.generate(ctx, payload)
	if err != nil {
		return nil, err
	}
	text := resp.joinedText()
	if text == "" {
		return nil, bferrors.NewTransientError(
			fmt.Errorf("model %s returned no text", c.model),
			"Model returned an empty response. Retrying.")
	}
	return &TextResponse{Text: StripFences(text), Model: c.model, Usage: resp.usage()}, nil
}

// Analyze implements VisionClient.
func (c *GeminiClient) Analyze(ctx context.Context, req VisionRequest) (*TextResponse, error) {
	parts := []geminiPart{{Text: req.Prompt}}
	for _, ref := range req.Images {
		part, err := inlinePart(ref)
		if err != nil {
			return nil, fmt.Errorf("attach image: %w", err)
		}
		parts = append(parts, part)
	}
	payload := geminiRequest{Contents: []geminiContent{{Role: "user", Parts: parts}}}
	if req.JSONOutput || req.MaxTokens > 0 {
		gc := &geminiGenerationConfig{MaxOutputTokens: req.MaxTokens}
		if req.JSONOutput {
			gc.ResponseMIMEType = "application/json"
		}
		payload.GenerationConfig = gc
	}

	resp, err := c.generate(ctx, payload)
	if err != nil {
		return nil, err
	}
	text := resp.joinedText()
	if text == "" {
		return nil, bferrors.NewTransientError(
			fmt.Errorf("model %s returned no text", c.model),
			"Model returned an empty response. Retrying.")
	}
	return &TextResponse{Text: StripFences(text), Model: c.model, Usage: resp.usage()}, nil
}

// Generate implements ImageClient.
func (c *GeminiClient) Generate(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	parts := []geminiPart{{Text: req.Prompt}}
	for _, ref := range req.Images {
		part, err := inlinePart(ref)
		if err != nil {
			return nil, fmt.Errorf("attach image: %w", err)
		}
		parts = append(parts, part)
	}
	payload := geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	}

	resp, err := c.generate(ctx, payload)
	if err != nil {
		return nil, err
	}
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode image data: %w", err)
			}
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return &ImageResponse{Data: data, MIME: mime, Model: c.model}, nil
		}
	}
	return nil, bferrors.NewTransientError(
		fmt.Errorf("model %s returned no image", c.model),
		"Model returned no image data. Retrying.")
}

func (c *GeminiClient) generate(ctx context.Context, payload geminiRequest) (*geminiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-goog-api-key", c.apiKey)
	}

	c.logger.Debug("=== Model Request ===")
	c.logger.Debug("URL: POST %s", endpoint)
	c.logger.Debug("Model: %s, body: %d bytes", c.model, len(body))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := httpclient.ReadAllWithLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("=== Model Response ===")
	c.logger.Debug("Status: %d, body: %d bytes", resp.StatusCode, len(raw))

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp.StatusCode, raw)
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return nil, bferrors.NewPermanentError(
			fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason),
			"The prompt was blocked by the provider's safety system. Adjust the brief wording and rerun.")
	}
	if len(out.Candidates) == 0 {
		return nil, bferrors.NewTransientError(
			fmt.Errorf("model %s returned no candidates", c.model),
			"Model returned no candidates. Retrying.")
	}
	return &out, nil
}

func (c *GeminiClient) statusError(status int, body []byte) error {
	excerpt := strings.TrimSpace(string(body))
	if len(excerpt) > 512 {
		excerpt = excerpt[:512]
	}
	err := fmt.Errorf("gemini API status %d: %s", status, excerpt)

	switch {
	case status == http.StatusTooManyRequests:
		return &bferrors.TransientError{Err: err, StatusCode: status,
			Message: "API rate limit reached. Retrying with exponential backoff."}
	case status >= 500:
		return &bferrors.TransientError{Err: err, StatusCode: status,
			Message: "Provider server error. Retrying."}
	case status == http.StatusUnauthorized:
		return &bferrors.PermanentError{Err: err, StatusCode: status,
			Message: "Authentication failed. Check GEMINI_API_KEY."}
	case status == http.StatusForbidden:
		return &bferrors.PermanentError{Err: err, StatusCode: status,
			Message: "Permission denied for this model or project."}
	case status == http.StatusNotFound:
		return &bferrors.PermanentError{Err: err, StatusCode: status,
			Message: fmt.Sprintf("Model %q not found. Verify the model name.", c.model)}
	default:
		return &bferrors.PermanentError{Err: err, StatusCode: status,
			Message: "Provider rejected the request."}
	}
}

func inlinePart(ref ImageRef) (geminiPart, error) {
	data := ref.Data
	if len(data) == 0 {
		b, err := os.ReadFile(ref.Path)
		if err != nil {
			return geminiPart{}, err
		}
		data = b
	}
	mime := ref.MIME
	if mime == "" {
		mime = MIMEForPath(ref.Path)
	}
	return geminiPart{InlineData: &geminiInlineData{
		MIMEType: mime,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}, nil
}

// MIMEForPath guesses an image MIME type from the file extension.
func MIMEForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}
