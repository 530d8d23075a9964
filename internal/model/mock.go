package model

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
)

// MockTextClient implements TextClient for tests. Responses are
// consumed in order; the last one repeats. Errs align by call index
// and win over responses. Fn overrides everything when set.
type MockTextClient struct {
	ModelName string
	Responses []string
	Errs      []error
	Fn        func(ctx context.Context, req TextRequest) (*TextResponse, error)

	mu    sync.Mutex
	calls []TextRequest
}

func (m *MockTextClient) Model() string {
	if m.ModelName == "" {
		return "mock-text"
	}
	return m.ModelName
}

func (m *MockTextClient) Complete(ctx context.Context, req TextRequest) (*TextResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	idx := len(m.calls)
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Fn != nil {
		return m.Fn(ctx, req)
	}
	if idx < len(m.Errs) && m.Errs[idx] != nil {
		return nil, m.Errs[idx]
	}
	if len(m.Responses) == 0 {
		return nil, fmt.Errorf("mock text client has no scripted responses")
	}
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return &TextResponse{Text: m.Responses[idx], Model: m.Model()}, nil
}

// Calls returns a copy of every request seen so far.
func (m *MockTextClient) Calls() []TextRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TextRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount reports how many times Complete ran.
func (m *MockTextClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// MockVisionClient implements VisionClient for tests.
type MockVisionClient struct {
	ModelName string
	Responses []string
	Errs      []error
	Fn        func(ctx context.Context, req VisionRequest) (*TextResponse, error)

	mu    sync.Mutex
	calls []VisionRequest
}

func (m *MockVisionClient) Model() string {
	if m.ModelName == "" {
		return "mock-vision"
	}
	return m.ModelName
}

func (m *MockVisionClient) Analyze(ctx context.Context, req VisionRequest) (*TextResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	idx := len(m.calls)
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Fn != nil {
		return m.Fn(ctx, req)
	}
	if idx < len(m.Errs) && m.Errs[idx] != nil {
		return nil, m.Errs[idx]
	}
	if len(m.Responses) == 0 {
		return nil, fmt.Errorf("mock vision client has no scripted responses")
	}
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return &TextResponse{Text: m.Responses[idx], Model: m.Model()}, nil
}

func (m *MockVisionClient) Calls() []VisionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]VisionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockVisionClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// MockImageClient implements ImageClient for tests. By default every
// call succeeds with a small solid-color PNG.
type MockImageClient struct {
	ModelName string
	Errs      []error
	Fn        func(ctx context.Context, req ImageRequest) (*ImageResponse, error)

	mu    sync.Mutex
	calls []ImageRequest
}

func (m *MockImageClient) Model() string {
	if m.ModelName == "" {
		return "mock-image"
	}
	return m.ModelName
}

func (m *MockImageClient) Generate(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	idx := len(m.calls)
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Fn != nil {
		return m.Fn(ctx, req)
	}
	if idx < len(m.Errs) && m.Errs[idx] != nil {
		return nil, m.Errs[idx]
	}
	return &ImageResponse{Data: TestPNG(8, 8, color.RGBA{R: 0x42, G: 0x42, B: 0x42, A: 0xFF}), MIME: "image/png", Model: m.Model()}, nil
}

func (m *MockImageClient) Calls() []ImageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ImageRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockImageClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// TestPNG encodes a solid-color PNG for tests that need decodable
// image bytes.
func TestPNG(w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// TestPNGGradient encodes a small gradient PNG. A solid fill
// compresses to a few dozen bytes; fixtures that must clear the
// minimum-size gate on asset files need these instead.
func TestPNGGradient(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 41),
				G: uint8(y * 29),
				B: uint8((x + 3) * (y + 7)),
				A: 0xFF,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
