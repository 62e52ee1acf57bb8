package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wrenhall/warbler-api/internal/transcriber"
	"google.golang.org/genai"
)

// Config contains the Gemini-specific settings.
type Config struct {
	// APIKey authenticates against the Gemini API.
	APIKey string

	// ModelName selects the model batch jobs run against.
	ModelName string

	// Temperature and MaxOutputTokens are passed through as generation
	// parameters on every submission.
	Temperature     float32
	MaxOutputTokens int32
}

// ErrInvalidConfig is returned when the transcriber configuration is
// incomplete.
var ErrInvalidConfig = errors.New("invalid gemini configuration")

// Transcriber implements transcriber.Transcriber using the Gemini Batch
// API. Submit creates a batch job carrying the prompt and media bytes
// and returns the batch resource name as the opaque handle; Status reads
// the batch back and maps its job state onto the internal vocabulary.
type Transcriber struct {
	logger *slog.Logger
	config Config
	client *genai.Client
}

// NewTranscriber creates a Transcriber with the provided dependencies.
func NewTranscriber(ctx context.Context, logger *slog.Logger, config Config) (*Transcriber, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: API key cannot be empty", ErrInvalidConfig)
	}
	if config.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return &Transcriber{
		logger: logger.With("component", "gemini_transcriber"),
		config: config,
		client: client,
	}, nil
}

var _ transcriber.Transcriber = (*Transcriber)(nil)

// Submit implements transcriber.Transcriber.
func (t *Transcriber) Submit(ctx context.Context, req transcriber.Request) (string, error) {
	if len(req.Media) == 0 {
		return "", fmt.Errorf("%w: empty media payload", transcriber.ErrRejected)
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: req.Prompt},
			{InlineData: &genai.Blob{MIMEType: req.MIMEType, Data: req.Media}},
		},
	}}

	src := &genai.BatchJobSource{
		InlinedRequests: []*genai.InlinedRequest{{
			Contents: contents,
			Config: &genai.GenerateContentConfig{
				Temperature:     genai.Ptr(t.config.Temperature),
				MaxOutputTokens: t.config.MaxOutputTokens,
			},
		}},
	}

	batch, err := t.client.Batches.Create(ctx, t.config.ModelName, src, nil)
	if err != nil {
		return "", t.classifySubmitError(ctx, err)
	}
	if batch == nil || batch.Name == "" {
		return "", fmt.Errorf("%w: batch created without a name", transcriber.ErrUnavailable)
	}

	t.logger.InfoContext(ctx, "batch job created",
		"batch_name", batch.Name,
		"state", batch.State)
	return batch.Name, nil
}

// Status implements transcriber.Transcriber.
func (t *Transcriber) Status(ctx context.Context, handle string) (*transcriber.Result, error) {
	batch, err := t.client.Batches.Get(ctx, handle, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transcriber.ErrUnavailable, err)
	}

	switch batch.State {
	case genai.JobStatePending, genai.JobStateRunning:
		return &transcriber.Result{State: transcriber.StateRunning}, nil

	case genai.JobStateSucceeded:
		text, err := extractText(batch)
		if err != nil {
			// The remote job finished but produced nothing usable;
			// surface that as an external failure, not a transient one.
			return &transcriber.Result{
				State:       transcriber.StateFailed,
				ErrorDetail: err.Error(),
			}, nil
		}
		return &transcriber.Result{State: transcriber.StateSucceeded, Text: text}, nil

	case genai.JobStateFailed, genai.JobStateCancelled, genai.JobStateExpired:
		detail := fmt.Sprintf("batch ended in state %s", batch.State)
		if batch.Error != nil && batch.Error.Message != "" {
			detail = batch.Error.Message
		}
		return &transcriber.Result{State: transcriber.StateFailed, ErrorDetail: detail}, nil

	default:
		t.logger.WarnContext(ctx, "unrecognized batch state",
			"batch_name", handle,
			"state", batch.State)
		return &transcriber.Result{State: transcriber.JobState(batch.State)}, nil
	}
}

// extractText pulls the transcript text out of a succeeded batch.
func extractText(batch *genai.BatchJob) (string, error) {
	if batch.Dest == nil || len(batch.Dest.InlinedResponses) == 0 {
		return "", errors.New("succeeded batch carries no responses")
	}

	inlined := batch.Dest.InlinedResponses[0]
	if inlined.Error != nil {
		return "", fmt.Errorf("batch response error: %s", inlined.Error.Message)
	}
	if inlined.Response == nil {
		return "", errors.New("batch response is empty")
	}
	return inlined.Response.Text(), nil
}

// classifySubmitError maps API errors onto the transcriber taxonomy:
// 4xx responses are rejections the retry loop must not chew on, anything
// else is treated as transient.
func (t *Transcriber) classifySubmitError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != 429 {
			t.logger.WarnContext(ctx, "batch creation rejected",
				"code", apiErr.Code,
				"message", apiErr.Message)
			return fmt.Errorf("%w: %s", transcriber.ErrRejected, apiErr.Message)
		}
	}

	t.logger.WarnContext(ctx, "batch creation failed transiently", "error", err)
	return fmt.Errorf("%w: %v", transcriber.ErrUnavailable, err)
}
