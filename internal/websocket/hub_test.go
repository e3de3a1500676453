package websocket

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/satriahrh/voxrelay/domain/entities"
	"github.com/satriahrh/voxrelay/internal/metrics"
)

// recordingProcessor captures dispatched segments.
type recordingProcessor struct {
	mu       sync.Mutex
	segments []entities.AudioSegment
}

func (p *recordingProcessor) Dispatch(segment entities.AudioSegment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.segments = append(p.segments, segment)
}

func (p *recordingProcessor) all() []entities.AudioSegment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entities.AudioSegment(nil), p.segments...)
}

func setupTestHub(t *testing.T) (*Hub, *recordingProcessor) {
	t.Helper()

	hub := NewHub(4<<20, metrics.NewMetrics(prometheus.NewRegistry()), zap.NewNop())
	processor := &recordingProcessor{}
	hub.SetProcessor(processor)
	return hub, processor
}

func newTestClient(hub *Hub, role Role, sessionID string) *Client {
	return &Client{
		hub:       hub,
		send:      make(chan WriteData, 8),
		id:        sessionID + "-" + string(role),
		role:      role,
		sessionID: sessionID,
		logger:    zap.NewNop(),
	}
}

func TestRegisterPartitionsByRole(t *testing.T) {
	hub, _ := setupTestHub(t)

	sender := newTestClient(hub, RoleSender, "call1")
	receiver := newTestClient(hub, RoleReceiver, "monitor")
	hub.Register(sender)
	hub.Register(receiver)

	if len(hub.ReceiversSnapshot()) != 1 {
		t.Errorf("receivers = %d, want 1", len(hub.ReceiversSnapshot()))
	}

	hub.mu.RLock()
	senderCount := len(hub.senders)
	hub.mu.RUnlock()
	if senderCount != 1 {
		t.Errorf("senders = %d, want 1", senderCount)
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub, _ := setupTestHub(t)

	receiver := newTestClient(hub, RoleReceiver, "monitor")
	hub.Register(receiver)

	hub.Unregister(receiver)
	hub.Unregister(receiver) // second call must be a no-op

	if len(hub.ReceiversSnapshot()) != 0 {
		t.Error("receiver still registered after unregister")
	}

	// Unregistering a client that never registered must not panic.
	hub.Unregister(newTestClient(hub, RoleSender, "ghost"))
}

func TestUnregisterClearsPendingHeader(t *testing.T) {
	hub, processor := setupTestHub(t)

	sender := newTestClient(hub, RoleSender, "call1")
	hub.Register(sender)

	hub.handleText(sender, []byte(`{"type":"audio_chunk","capture_ts":1000.0,"audio_size":32000}`))
	hub.Unregister(sender)

	hub.mu.RLock()
	_, pending := hub.pending[sender]
	hub.mu.RUnlock()
	if pending {
		t.Error("pending header survived unregister")
	}
	if len(processor.all()) != 0 {
		t.Error("no segment should have been dispatched")
	}
}

func TestHeaderBinaryPairing(t *testing.T) {
	hub, processor := setupTestHub(t)

	sender := newTestClient(hub, RoleSender, "call1")
	hub.Register(sender)

	hub.handleText(sender, []byte(`{"type":"audio_chunk","capture_ts":1000.0,"audio_size":32000}`))
	audio := make([]byte, 32000)
	hub.handleBinary(sender, audio)

	segments := processor.all()
	if len(segments) != 1 {
		t.Fatalf("dispatched segments = %d, want 1", len(segments))
	}
	seg := segments[0]
	if seg.SessionID != "call1" {
		t.Errorf("session = %q, want call1 (filled from connection identity)", seg.SessionID)
	}
	if seg.CaptureTs != 1000.0 {
		t.Errorf("capture_ts = %v, want 1000.0", seg.CaptureTs)
	}
	if len(seg.Audio) != 32000 {
		t.Errorf("audio bytes = %d, want 32000", len(seg.Audio))
	}
}

func TestHeaderSessionIDFromFrameWins(t *testing.T) {
	hub, processor := setupTestHub(t)

	sender := newTestClient(hub, RoleSender, "conn-session")
	hub.Register(sender)

	hub.handleText(sender, []byte(`{"type":"audio_chunk","session_id":"frame-session","capture_ts":5.0}`))
	hub.handleBinary(sender, []byte{1})

	segments := processor.all()
	if len(segments) != 1 || segments[0].SessionID != "frame-session" {
		t.Errorf("expected frame session id to win, got %+v", segments)
	}
}

func TestBinaryWithoutHeaderSynthesizes(t *testing.T) {
	hub, processor := setupTestHub(t)

	sender := newTestClient(hub, RoleSender, "call1")
	hub.Register(sender)

	hub.handleBinary(sender, []byte{1, 2, 3})

	segments := processor.all()
	if len(segments) != 1 {
		t.Fatalf("dispatched segments = %d, want 1", len(segments))
	}
	if segments[0].SessionID != "call1" {
		t.Errorf("session = %q, want connection identity", segments[0].SessionID)
	}
	if segments[0].CaptureTs == 0 {
		t.Error("synthesized header should carry current time")
	}
}

// A second header before the binary frame replaces the first. The first
// header's segment is lost; this mirrors the transport contract where a
// sender always alternates header and binary frames.
func TestBackToBackHeadersOverwrite(t *testing.T) {
	hub, processor := setupTestHub(t)

	sender := newTestClient(hub, RoleSender, "call1")
	hub.Register(sender)

	hub.handleText(sender, []byte(`{"type":"audio_chunk","capture_ts":1.0}`))
	hub.handleText(sender, []byte(`{"type":"audio_chunk","capture_ts":2.0}`))
	hub.handleBinary(sender, []byte{1})

	segments := processor.all()
	if len(segments) != 1 {
		t.Fatalf("dispatched segments = %d, want 1", len(segments))
	}
	if segments[0].CaptureTs != 2.0 {
		t.Errorf("capture_ts = %v, want 2.0 (second header wins)", segments[0].CaptureTs)
	}
}

func TestMalformedTextFramesIgnored(t *testing.T) {
	hub, processor := setupTestHub(t)

	sender := newTestClient(hub, RoleSender, "call1")
	hub.Register(sender)

	hub.handleText(sender, []byte(`{not json`))
	hub.handleText(sender, []byte(`{"type":"something_else"}`))

	hub.mu.RLock()
	_, pending := hub.pending[sender]
	hub.mu.RUnlock()
	if pending {
		t.Error("ignored frames must not create pending state")
	}
	if len(processor.all()) != 0 {
		t.Error("ignored frames must not dispatch segments")
	}
}

func TestBroadcastDeliversToAllReceivers(t *testing.T) {
	hub, _ := setupTestHub(t)

	receivers := make([]*Client, 3)
	for i := range receivers {
		receivers[i] = newTestClient(hub, RoleReceiver, "monitor")
		hub.Register(receivers[i])
	}

	result := &entities.EnrichedResult{SessionID: "call3", Text: "there is a fire, help!", Priority: 10}
	hub.Broadcast(result)

	for i, rc := range receivers {
		select {
		case frame := <-rc.send:
			var msg SemanticMessage
			if err := json.Unmarshal(frame.Payload, &msg); err != nil {
				t.Fatalf("receiver %d: bad frame: %v", i, err)
			}
			if msg.Type != MessageTypeSemantic {
				t.Errorf("receiver %d: type = %q, want semantic", i, msg.Type)
			}
			if msg.Payload.Priority != 10 || msg.Payload.SessionID != "call3" {
				t.Errorf("receiver %d: unexpected payload %+v", i, msg.Payload)
			}
		default:
			t.Errorf("receiver %d: no frame delivered", i)
		}
	}
}

func TestBroadcastIsolatesDeadReceiver(t *testing.T) {
	hub, _ := setupTestHub(t)

	alive1 := newTestClient(hub, RoleReceiver, "monitor")
	dead := newTestClient(hub, RoleReceiver, "monitor")
	alive2 := newTestClient(hub, RoleReceiver, "monitor")
	hub.Register(alive1)
	hub.Register(dead)
	hub.Register(alive2)

	// Simulate a connection that dropped before the broadcast.
	dead.close()

	hub.Broadcast(&entities.EnrichedResult{SessionID: "call1", Text: "hello there"})

	if got := len(hub.ReceiversSnapshot()); got != 2 {
		t.Errorf("receivers after broadcast = %d, want 2 (dead one removed)", got)
	}

	for i, rc := range []*Client{alive1, alive2} {
		select {
		case <-rc.send:
		default:
			t.Errorf("live receiver %d did not get the frame", i)
		}
	}
}

func TestBroadcastWithNoReceivers(t *testing.T) {
	hub, _ := setupTestHub(t)
	// Must not panic or block.
	hub.Broadcast(&entities.EnrichedResult{SessionID: "call1"})
}
