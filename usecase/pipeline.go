package usecase

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/satriahrh/voxrelay/domain/entities"
	"github.com/satriahrh/voxrelay/domain/repositories"
	"github.com/satriahrh/voxrelay/internal/metrics"
)

// Broadcaster fans one enriched result out to all registered receivers.
type Broadcaster interface {
	Broadcast(result *entities.EnrichedResult)
}

// Pipeline enriches reassembled audio segments: transcription, sentiment,
// priority classification, durable logging, dashboard forward and broadcast.
// Each segment runs on its own goroutine; the transcription step acquires a
// weighted semaphore so at most TranscribeWorkers transcriptions run at once
// system-wide. Waiting segments queue on the semaphore without bound, which
// matches the accelerator-constrained deployment this was built for.
type Pipeline struct {
	stt         repositories.SpeechToText
	scorer      repositories.SentimentScorer
	overrides   repositories.OverrideRepository
	logs        repositories.LogRepository
	forwarder   repositories.Forwarder
	broadcaster Broadcaster

	workers         *semaphore.Weighted
	minSpeechLength int
	transcribeTO    time.Duration
	forwardTO       time.Duration

	metrics *metrics.Metrics
	logger  *zap.Logger

	wg sync.WaitGroup
}

// Options configures a Pipeline.
type Options struct {
	TranscribeWorkers int
	MinSpeechLength   int
	TranscribeTimeout time.Duration
	ForwardTimeout    time.Duration
}

// NewPipeline creates the processing pipeline.
func NewPipeline(
	stt repositories.SpeechToText,
	scorer repositories.SentimentScorer,
	overrides repositories.OverrideRepository,
	logs repositories.LogRepository,
	forwarder repositories.Forwarder,
	broadcaster Broadcaster,
	opts Options,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		stt:             stt,
		scorer:          scorer,
		overrides:       overrides,
		logs:            logs,
		forwarder:       forwarder,
		broadcaster:     broadcaster,
		workers:         semaphore.NewWeighted(int64(opts.TranscribeWorkers)),
		minSpeechLength: opts.MinSpeechLength,
		transcribeTO:    opts.TranscribeTimeout,
		forwardTO:       opts.ForwardTimeout,
		metrics:         m,
		logger:          logger,
	}
}

// Dispatch accepts a segment from a connection's read loop and processes it
// asynchronously. Never blocks the caller.
func (p *Pipeline) Dispatch(segment entities.AudioSegment) {
	p.metrics.SegmentsReceived.Inc()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.process(context.Background(), segment)
	}()
}

// Close waits for all in-flight segments to finish.
func (p *Pipeline) Close() {
	p.wg.Wait()
}

// process runs the full enrichment for one segment. Failures in individual
// steps degrade or are logged; none of them crash the invocation.
func (p *Pipeline) process(ctx context.Context, segment entities.AudioSegment) {
	staged, err := p.stage(segment)
	if err != nil {
		p.logger.Error("Failed to stage segment",
			zap.String("sessionID", segment.SessionID), zap.Error(err))
		return
	}
	defer func() {
		if err := os.Remove(staged); err != nil {
			p.logger.Warn("Failed to remove staged audio",
				zap.String("path", staged), zap.Error(err))
		}
	}()

	text := p.transcribe(ctx, staged)
	transcribeTs := unixNow()

	if len(text) < p.minSpeechLength {
		p.metrics.SegmentsDropped.Inc()
		p.logger.Info("No meaningful speech detected, dropping segment",
			zap.String("sessionID", segment.SessionID),
			zap.Int("audioBytes", len(segment.Audio)))
		return
	}

	polarity, err := p.scorer.Score(ctx, text)
	if err != nil {
		p.logger.Warn("Sentiment scoring failed, using zero polarity",
			zap.String("sessionID", segment.SessionID), zap.Error(err))
		polarity = 0
	}

	priority := p.resolvePriority(ctx, segment.SessionID, text, polarity)

	result := &entities.EnrichedResult{
		SessionID:    segment.SessionID,
		Text:         text,
		Sentiment:    entities.LabelFor(polarity),
		Polarity:     polarity,
		Priority:     priority,
		CaptureTs:    segment.CaptureTs,
		TranscribeTs: transcribeTs,
		ForwardTs:    unixNow(),
		AudioBytes:   uint32(len(segment.Audio)),
		TextBytes:    uint32(len(text)),
	}

	if err := p.logs.Append(ctx, entities.RecordOf(result)); err != nil {
		p.metrics.LogFailures.Inc()
		p.logger.Error("Failed to append log record",
			zap.String("sessionID", segment.SessionID), zap.Error(err))
	}

	fctx, cancel := context.WithTimeout(ctx, p.forwardTO)
	if err := p.forwarder.Forward(fctx, result); err != nil {
		p.metrics.ForwardFailures.Inc()
		p.logger.Debug("Dashboard forward failed",
			zap.String("sessionID", segment.SessionID), zap.Error(err))
	}
	cancel()

	p.broadcaster.Broadcast(result)
	p.metrics.SegmentsProcessed.Inc()
}

// stage writes the segment's audio to a transient file for the transcription
// backend. The caller removes it on every exit path.
func (p *Pipeline) stage(segment entities.AudioSegment) (string, error) {
	tmp, err := os.CreateTemp("", "voxrelay-*.wav")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(segment.Audio); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// transcribe runs the backend under the worker semaphore. Any failure
// degrades to empty text, which the drop policy then discards.
func (p *Pipeline) transcribe(ctx context.Context, staged string) string {
	if err := p.workers.Acquire(ctx, 1); err != nil {
		return ""
	}
	defer p.workers.Release(1)

	tctx, cancel := context.WithTimeout(ctx, p.transcribeTO)
	defer cancel()

	start := time.Now()
	text, err := p.stt.TranscribeAudio(tctx, staged)
	p.metrics.TranscriptionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.TranscriptionFailures.Inc()
		p.logger.Warn("Transcription failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(text)
}

// resolvePriority applies the stateful override when one exists and falls
// back to heuristic classification otherwise.
func (p *Pipeline) resolvePriority(ctx context.Context, sessionID, text string, polarity float64) int {
	priority, found, err := p.overrides.GetPriority(ctx, sessionID)
	if err != nil {
		p.logger.Warn("Override lookup failed, using heuristic",
			zap.String("sessionID", sessionID), zap.Error(err))
	} else if found {
		return priority
	}
	return entities.HeuristicPriority(text, polarity)
}

func unixNow() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
