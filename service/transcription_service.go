package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"voicevault-backend/metrics"

	"github.com/google/generative-ai-go/genai"
)

const (
	maxRetries     = 3
	initialBackoff = 2 * time.Second

	// Gemini accepts inline request payloads up to 20MB
	defaultMaxTranscriptionBytes = 20 << 20

	transcriptionPrompt = "Transcribe this audio recording verbatim. Return only the transcript as plain text without timestamps or speaker labels."
)

// AudioModel turns recorded audio into text
type AudioModel interface {
	Transcribe(ctx context.Context, mimeType string, audio []byte) (string, error)
}

// GeminiAudioModel transcribes audio with a Gemini model
type GeminiAudioModel struct {
	client  *genai.Client
	model   string
	backoff time.Duration
}

// NewGeminiAudioModel creates a Gemini-backed audio model
func NewGeminiAudioModel(client *genai.Client, model string) *GeminiAudioModel {
	return &GeminiAudioModel{
		client:  client,
		model:   model,
		backoff: initialBackoff,
	}
}

// Transcribe sends the audio inline with the transcription prompt, retrying with backoff
func (m *GeminiAudioModel) Transcribe(ctx context.Context, mimeType string, audio []byte) (string, error) {
	if m.client == nil {
		return "", ErrTranscriptionUnavailable
	}

	model := m.client.GenerativeModel(m.model)
	model.SetTemperature(0)

	var lastErr error
	backoff := m.backoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		resp, err := model.GenerateContent(ctx, genai.Blob{MIMEType: mimeType, Data: audio}, genai.Text(transcriptionPrompt))
		if err != nil {
			lastErr = err
			continue
		}

		if text := responseText(resp); text != "" {
			return text, nil
		}
		lastErr = errors.New("empty transcription response")
	}

	return "", fmt.Errorf("failed to transcribe after %d attempts: %w", maxRetries, lastErr)
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String())
}

// TranscriptionService sends a user's stored recordings to an audio model
type TranscriptionService struct {
	files    *FileService
	model    AudioModel
	maxBytes int64
	logger   *slog.Logger
}

// TranscriptionServiceOption is a functional option for TranscriptionService
type TranscriptionServiceOption func(*TranscriptionService)

// TranscribeWithFileService sets the file service used to resolve recordings
func TranscribeWithFileService(files *FileService) TranscriptionServiceOption {
	return func(s *TranscriptionService) {
		s.files = files
	}
}

// TranscribeWithAudioModel sets the audio model
func TranscribeWithAudioModel(model AudioModel) TranscriptionServiceOption {
	return func(s *TranscriptionService) {
		s.model = model
	}
}

// TranscribeWithMaxBytes limits the size of audio sent to the model
func TranscribeWithMaxBytes(n int64) TranscriptionServiceOption {
	return func(s *TranscriptionService) {
		s.maxBytes = n
	}
}

// TranscribeWithLogger sets the logger
func TranscribeWithLogger(logger *slog.Logger) TranscriptionServiceOption {
	return func(s *TranscriptionService) {
		s.logger = logger
	}
}

// NewTranscriptionService creates a new transcription service
func NewTranscriptionService(opts ...TranscriptionServiceOption) *TranscriptionService {
	s := &TranscriptionService{
		maxBytes: defaultMaxTranscriptionBytes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TranscribeRequest represents a request to transcribe a stored file
type TranscribeRequest struct {
	FileID      int64
	RequesterID int64
}

// TranscribeResult represents the transcript of a file
type TranscribeResult struct {
	FileID int64
	Text   string
}

// Transcribe reads the requester's recording and returns its transcript.
// The file record is not modified.
func (s *TranscriptionService) Transcribe(ctx context.Context, req TranscribeRequest) (result *TranscribeResult, err error) {
	if s.files == nil {
		return nil, errors.New("file service not set")
	}
	if s.model == nil {
		return nil, ErrTranscriptionUnavailable
	}
	defer func() { metrics.ObserveOperation(metrics.OpTranscribe, err) }()

	record, err := s.files.GetFile(ctx, req.FileID)
	if err != nil {
		return nil, err
	}
	if record.OwnerID != req.RequesterID {
		return nil, ErrPermissionDenied
	}

	blob, err := s.files.OpenBlob(ctx, record.StorageKey())
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer blob.Body.Close()

	audio, err := io.ReadAll(io.LimitReader(blob.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	if int64(len(audio)) > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	text, err := s.model.Transcribe(ctx, blob.ContentType, audio)
	if err != nil {
		return nil, err
	}

	s.logger.Info("File transcribed",
		slog.Int64("file_id", record.ID),
		slog.Int("chars", len(text)),
	)

	return &TranscribeResult{FileID: record.ID, Text: text}, nil
}
