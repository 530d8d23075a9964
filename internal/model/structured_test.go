package model

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bferrors "brandforge/internal/errors"
)

type namedThing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func textCall(mock *MockTextClient) func(ctx context.Context, prompt string) (*TextResponse, error) {
	return func(ctx context.Context, prompt string) (*TextResponse, error) {
		return mock.Complete(ctx, TextRequest{UserPrompt: prompt})
	}
}

func TestStructuredParsesFencedJSON(t *testing.T) {
	t.Parallel()

	mock := &MockTextClient{Responses: []string{"```json\n{\"name\":\"mark\",\"count\":3}\n```"}}
	out, err := Structured[namedThing](context.Background(), textCall(mock), "give me a thing", StructuredOptions{}, nil)

	require.NoError(t, err)
	assert.Equal(t, "mark", out.Name)
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, 1, mock.CallCount())
}

func TestStructuredRepairsMalformedJSON(t *testing.T) {
	t.Parallel()

	// Trailing comma and single quotes, the classic model output.
	mock := &MockTextClient{Responses: []string{"{'name': 'mark', 'count': 2,}"}}
	out, err := Structured[namedThing](context.Background(), textCall(mock), "p", StructuredOptions{}, nil)

	require.NoError(t, err)
	assert.Equal(t, "mark", out.Name)
	assert.Equal(t, 1, mock.CallCount(), "mechanical repair should not spend a re-ask")
}

func TestStructuredReasksWithRejectionReason(t *testing.T) {
	t.Parallel()

	mock := &MockTextClient{Responses: []string{
		`{"name":"","count":1}`,
		`{"name":"mark","count":1}`,
	}}
	validate := func(v *namedThing) error {
		if v.Name == "" {
			return fmt.Errorf("name must not be empty")
		}
		return nil
	}

	out, err := Structured[namedThing](context.Background(), textCall(mock), "base prompt", StructuredOptions{}, validate)

	require.NoError(t, err)
	assert.Equal(t, "mark", out.Name)
	require.Equal(t, 2, mock.CallCount())

	calls := mock.Calls()
	assert.Equal(t, "base prompt", calls[0].UserPrompt)
	assert.Contains(t, calls[1].UserPrompt, "base prompt")
	assert.Contains(t, calls[1].UserPrompt, "Your previous response could not be used: name must not be empty")
	assert.Contains(t, calls[1].UserPrompt, "ONLY corrected JSON")
}

func TestStructuredReaskKeepsOriginalPromptOnly(t *testing.T) {
	t.Parallel()

	// Each re-ask appends to the original prompt, not to the previous
	// re-ask, so the correction suffix never stacks up.
	mock := &MockTextClient{Responses: []string{"not json at all", "still not json", `{"name":"x","count":0}`}}
	_, err := Structured[namedThing](context.Background(), textCall(mock), "base", StructuredOptions{}, nil)

	require.NoError(t, err)
	calls := mock.Calls()
	require.Equal(t, 3, mock.CallCount())
	assert.Equal(t, 1, strings.Count(calls[2].UserPrompt, "could not be used"))
}

func TestStructuredExhaustsRepairBudget(t *testing.T) {
	t.Parallel()

	mock := &MockTextClient{Responses: []string{"garbage every time"}}
	_, err := Structured[namedThing](context.Background(), textCall(mock), "p", StructuredOptions{RepairAttempts: 2}, nil)

	require.Error(t, err)
	assert.Equal(t, bferrors.KindModelSchemaViolation, bferrors.KindOf(err))
	assert.Equal(t, 3, mock.CallCount(), "initial call plus two repairs")
	assert.Contains(t, err.Error(), "still invalid after 2 repair attempts")
}

func TestStructuredZeroAttemptsMeansDefault(t *testing.T) {
	t.Parallel()

	mock := &MockTextClient{Responses: []string{"garbage"}}
	_, err := Structured[namedThing](context.Background(), textCall(mock), "p", StructuredOptions{}, nil)

	require.Error(t, err)
	assert.Equal(t, 1+defaultRepairAttempts, mock.CallCount())
}

func TestStructuredStopsOnCallError(t *testing.T) {
	t.Parallel()

	boom := fmt.Errorf("upstream exploded")
	mock := &MockTextClient{Errs: []error{boom}}
	_, err := Structured[namedThing](context.Background(), textCall(mock), "p", StructuredOptions{}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, mock.CallCount(), "transport errors are the retry layer's job, not the repair loop's")
}

func TestStructuredRespectsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &MockTextClient{Responses: []string{`{"name":"x","count":0}`}}
	_, err := Structured[namedThing](ctx, textCall(mock), "p", StructuredOptions{}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, mock.CallCount())
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"```json\n{\"a\":1}\n```":        `{"a":1}`,
		"```\n{\"a\":1}\n```":            `{"a":1}`,
		"  {\"a\":1}  ":                  `{"a":1}`,
		"```json{\"a\":1}```":            `{"a":1}`,
		"prose with ```code``` embedded": "prose with ```code``` embedded",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripFences(in), "input %q", in)
	}
}
