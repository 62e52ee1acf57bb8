package gemini

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wrenhall/warbler-api/internal/transcriber"
	"google.golang.org/genai"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewTranscriberValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("fails with nil logger", func(t *testing.T) {
		_, err := NewTranscriber(ctx, nil, Config{APIKey: "key", ModelName: "model"})
		assert.Error(t, err)
	})

	t.Run("fails with empty API key", func(t *testing.T) {
		_, err := NewTranscriber(ctx, testLogger(), Config{ModelName: "model"})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("fails with empty model name", func(t *testing.T) {
		_, err := NewTranscriber(ctx, testLogger(), Config{APIKey: "key"})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestSubmitRejectsEmptyMedia(t *testing.T) {
	t.Parallel()

	tr := &Transcriber{logger: testLogger(), config: Config{ModelName: "model"}}

	_, err := tr.Submit(context.Background(), transcriber.Request{Prompt: "p"})
	assert.ErrorIs(t, err, transcriber.ErrRejected)
}

func TestClassifySubmitError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr := &Transcriber{logger: testLogger()}

	t.Run("4xx responses are rejections", func(t *testing.T) {
		err := tr.classifySubmitError(ctx, genai.APIError{Code: 400, Message: "bad payload"})
		assert.ErrorIs(t, err, transcriber.ErrRejected)
		assert.Contains(t, err.Error(), "bad payload")
	})

	t.Run("rate limits are transient", func(t *testing.T) {
		err := tr.classifySubmitError(ctx, genai.APIError{Code: 429, Message: "quota"})
		assert.ErrorIs(t, err, transcriber.ErrUnavailable)
	})

	t.Run("5xx responses are transient", func(t *testing.T) {
		err := tr.classifySubmitError(ctx, genai.APIError{Code: 503, Message: "overloaded"})
		assert.ErrorIs(t, err, transcriber.ErrUnavailable)
	})

	t.Run("plain errors are transient", func(t *testing.T) {
		err := tr.classifySubmitError(ctx, errors.New("dial tcp: timeout"))
		assert.ErrorIs(t, err, transcriber.ErrUnavailable)
	})
}

func TestExtractText(t *testing.T) {
	t.Parallel()

	t.Run("fails when no responses were produced", func(t *testing.T) {
		_, err := extractText(&genai.BatchJob{})
		require.Error(t, err)
	})

	t.Run("fails when the response carries an error", func(t *testing.T) {
		batch := &genai.BatchJob{
			Dest: &genai.BatchJobDestination{
				InlinedResponses: []*genai.InlinedResponse{{
					Error: &genai.JobError{Message: "content blocked"},
				}},
			},
		}
		_, err := extractText(batch)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "content blocked")
	})

	t.Run("returns the response text", func(t *testing.T) {
		batch := &genai.BatchJob{
			Dest: &genai.BatchJobDestination{
				InlinedResponses: []*genai.InlinedResponse{{
					Response: &genai.GenerateContentResponse{
						Candidates: []*genai.Candidate{{
							Content: &genai.Content{
								Parts: []*genai.Part{{Text: "A distant loon call."}},
							},
						}},
					},
				}},
			},
		}
		text, err := extractText(batch)
		require.NoError(t, err)
		assert.Equal(t, "A distant loon call.", text)
	})
}
