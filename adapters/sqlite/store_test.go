package sqlite

import (
	"context"
	"testing"

	"github.com/satriahrh/voxrelay/domain/entities"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAssignsIncrementingIDs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := &entities.LogRecord{
		SessionID:    "call1",
		CaptureTs:    1000.0,
		TranscribeTs: 1002.5,
		ForwardTs:    1002.6,
		AudioBytes:   32000,
		TextBytes:    12,
		Text:         "hello there",
		Polarity:     0.3,
		Priority:     1,
	}
	if err := store.Append(ctx, first); err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.ID != 1 {
		t.Errorf("first record ID = %d, want 1", first.ID)
	}

	second := &entities.LogRecord{SessionID: "call2", Text: "more text", Priority: 7}
	if err := store.Append(ctx, second); err != nil {
		t.Fatalf("append: %v", err)
	}
	if second.ID != 2 {
		t.Errorf("second record ID = %d, want 2", second.ID)
	}

	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM logs`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("log rows = %d, want 2", count)
	}
}

func TestAppendRoundTripsFields(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record := &entities.LogRecord{
		SessionID:    "call3",
		CaptureTs:    1234.5,
		TranscribeTs: 1236.0,
		ForwardTs:    1236.1,
		AudioBytes:   64000,
		TextBytes:    21,
		Text:         "there is a fire, help!",
		Polarity:     -0.4,
		Priority:     10,
	}
	if err := store.Append(ctx, record); err != nil {
		t.Fatalf("append: %v", err)
	}

	var got entities.LogRecord
	row := store.db.QueryRow(`
		SELECT id, session_id, capture_ts, transcribe_ts, forward_ts,
			audio_bytes, text_bytes, text, sentiment, priority
		FROM logs WHERE id = ?`, record.ID)
	if err := row.Scan(&got.ID, &got.SessionID, &got.CaptureTs, &got.TranscribeTs,
		&got.ForwardTs, &got.AudioBytes, &got.TextBytes, &got.Text,
		&got.Polarity, &got.Priority); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if got != *record {
		t.Errorf("stored record = %+v, want %+v", got, *record)
	}
}

func TestOverrideUpsertLastWriteWins(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, found, err := store.GetPriority(ctx, "call2"); err != nil || found {
		t.Fatalf("GetPriority on empty store = found=%v err=%v, want absent", found, err)
	}

	if err := store.SetPriority(ctx, "call2", 5, 1000.0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.SetPriority(ctx, "call2", 9, 1001.0); err != nil {
		t.Fatalf("set again: %v", err)
	}

	priority, found, err := store.GetPriority(ctx, "call2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || priority != 9 {
		t.Errorf("GetPriority = (%d, %v), want (9, true)", priority, found)
	}
}

func TestListOverrides(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SetPriority(ctx, "b-session", 3, 10.0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.SetPriority(ctx, "a-session", 8, 20.0); err != nil {
		t.Fatalf("set: %v", err)
	}

	overrides, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(overrides) != 2 {
		t.Fatalf("len = %d, want 2", len(overrides))
	}
	if overrides[0].SessionID != "a-session" || overrides[0].Priority != 8 {
		t.Errorf("unexpected first override: %+v", overrides[0])
	}
	if overrides[1].SessionID != "b-session" || overrides[1].Ts != 10.0 {
		t.Errorf("unexpected second override: %+v", overrides[1])
	}
}
