package stt

import (
	"context"
	"os"

	"go.uber.org/zap"
)

// MockSpeechToText is a placeholder backend for running the relay without
// recognition credentials. It answers with canned text sized to the staged
// audio, and empty text for very small blobs (silence).
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text backend.
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{logger: logger}
}

// TranscribeAudio returns canned text based on the staged file size.
func (m *MockSpeechToText) TranscribeAudio(ctx context.Context, audioPath string) (string, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return "", err
	}

	m.logger.Info("Mock transcription", zap.Int64("audioBytes", info.Size()))

	switch {
	case info.Size() > 100000:
		return "hello there, this is a longer mock transcription of the audio segment", nil
	case info.Size() > 10000:
		return "hello there, how are you", nil
	default:
		return "", nil
	}
}
