package entities

// SegmentHeader describes the binary audio frame that follows it on a sender
// connection. A connection carries at most one unpaired header at a time; a
// newer header replaces the pending one.
type SegmentHeader struct {
	Type      string  `json:"type"`
	SessionID string  `json:"session_id"`
	CaptureTs float64 `json:"capture_ts"`
	AudioSize uint32  `json:"audio_size"`
}

// AudioSegment is one reassembled capture unit: a header paired with the raw
// audio bytes that followed it. It lives only for the duration of one pipeline
// invocation; the raw bytes are never persisted.
type AudioSegment struct {
	SessionID string
	CaptureTs float64
	Audio     []byte
}

// EnrichedResult is the output of the processing pipeline for one segment.
// Immutable after assembly; broadcast to every receiver and persisted once.
type EnrichedResult struct {
	SessionID    string         `json:"session_id"`
	Text         string         `json:"text"`
	Sentiment    SentimentLabel `json:"sentiment"`
	Polarity     float64        `json:"polarity"`
	Priority     int            `json:"priority"`
	CaptureTs    float64        `json:"capture_ts"`
	TranscribeTs float64        `json:"transcribe_ts"`
	ForwardTs    float64        `json:"forward_ts"`
	AudioBytes   uint32         `json:"audio_bytes"`
	TextBytes    uint32         `json:"text_bytes"`
}

// LogRecord is the append-only persisted projection of an EnrichedResult.
type LogRecord struct {
	ID           int64
	SessionID    string
	CaptureTs    float64
	TranscribeTs float64
	ForwardTs    float64
	AudioBytes   uint32
	TextBytes    uint32
	Text         string
	Polarity     float64
	Priority     int
}

// RecordOf projects an EnrichedResult into a LogRecord. The ID is assigned by
// the store on append.
func RecordOf(r *EnrichedResult) *LogRecord {
	return &LogRecord{
		SessionID:    r.SessionID,
		CaptureTs:    r.CaptureTs,
		TranscribeTs: r.TranscribeTs,
		ForwardTs:    r.ForwardTs,
		AudioBytes:   r.AudioBytes,
		TextBytes:    r.TextBytes,
		Text:         r.Text,
		Polarity:     r.Polarity,
		Priority:     r.Priority,
	}
}

// PriorityOverride is an operator-set priority for a session. One row per
// session, last write wins.
type PriorityOverride struct {
	SessionID string  `json:"session_id"`
	Priority  int     `json:"priority"`
	Ts        float64 `json:"ts"`
}
