package repositories

import "context"

// SpeechToText abstracts speech recognition backends.
type SpeechToText interface {
	// TranscribeAudio converts staged audio at audioPath to text. Empty text
	// means silence or a recognition failure; callers treat both the same.
	// May take seconds and must be invoked off the connection read loop.
	TranscribeAudio(ctx context.Context, audioPath string) (string, error)
}
