package stt

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
)

// GoogleSpeechToText implements SpeechToText using Google Cloud Speech batch
// recognition. Credentials come from the environment (GOOGLE_APPLICATION_CREDENTIALS).
type GoogleSpeechToText struct {
	sampleRate int
	encoding   string
	language   string
	logger     *zap.Logger
}

// NewGoogleSpeechToText creates a Google Cloud Speech backend.
func NewGoogleSpeechToText(sampleRate int, encoding, language string, logger *zap.Logger) *GoogleSpeechToText {
	return &GoogleSpeechToText{
		sampleRate: sampleRate,
		encoding:   encoding,
		language:   language,
		logger:     logger,
	}
}

// TranscribeAudio reads the staged audio file and runs one synchronous
// recognition request against it.
func (g *GoogleSpeechToText) TranscribeAudio(ctx context.Context, audioPath string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("read staged audio: %w", err)
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create speech client: %w", err)
	}
	defer client.Close()

	encoding, err := getAudioEncoding(g.encoding)
	if err != nil {
		return "", err
	}

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        encoding,
			SampleRateHertz: int32(g.sampleRate),
			LanguageCode:    g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	var sb strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			sb.WriteString(result.Alternatives[0].Transcript)
		}
	}

	text := strings.TrimSpace(sb.String())
	g.logger.Debug("Google recognition finished",
		zap.Int("audioBytes", len(data)),
		zap.Int("textBytes", len(text)))
	return text, nil
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
