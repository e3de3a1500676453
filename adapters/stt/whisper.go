package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// WhisperClient implements SpeechToText against a whisper-compatible HTTP
// transcription endpoint. The audio file is uploaded as multipart form data
// and the response body is `{"text": "..."}`.
type WhisperClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWhisperClient creates an HTTP transcription backend.
func NewWhisperClient(endpoint string, timeout time.Duration, logger *zap.Logger) *WhisperClient {
	return &WhisperClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type whisperResponse struct {
	Text string `json:"text"`
}

// TranscribeAudio uploads the staged file and returns the transcribed text.
func (w *WhisperClient) TranscribeAudio(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open staged audio: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcription endpoint returned %d", resp.StatusCode)
	}

	var parsed whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}

	w.logger.Debug("Whisper transcription finished", zap.Int("textBytes", len(parsed.Text)))
	return parsed.Text, nil
}
