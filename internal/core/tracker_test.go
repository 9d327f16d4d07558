package core

import (
	"context"
	"errors"
	"testing"

	"github.com/mingle-im/mingle-server/internal/store"
)

func TestTrackerTypingDirect(t *testing.T) {
	ms := newMemStore()
	router := NewRouter()
	tr := NewTracker(ms, router, &nopLogger)

	bobConn := NewClient("b", 8)
	router.Subscribe(bobConn, UserChannel(2))

	if err := tr.Typing(nil, 1, i64(2), nil, true); err != nil {
		t.Fatalf("typing: %v", err)
	}

	ev := mustEvent(t, bobConn.Events, EventTypingStatus)
	got := ev.Data.(TypingPayload)
	if got.SenderID != 1 || !got.IsTyping || got.GroupID != nil {
		t.Fatalf("unexpected typing payload: %+v", got)
	}
}

func TestTrackerTypingGroupExcludesSender(t *testing.T) {
	ms := newMemStore()
	router := NewRouter()
	tr := NewTracker(ms, router, &nopLogger)

	senderConn := NewClient("s", 8)
	peerConn := NewClient("p", 8)
	router.Subscribe(senderConn, GroupChannel(5))
	router.Subscribe(peerConn, GroupChannel(5))

	if err := tr.Typing(senderConn, 1, nil, i64(5), true); err != nil {
		t.Fatalf("typing: %v", err)
	}

	mustEvent(t, peerConn.Events, EventTypingStatus)
	mustNoEvent(t, senderConn.Events)
}

func TestTrackerTypingRejectsBadTarget(t *testing.T) {
	ms := newMemStore()
	tr := NewTracker(ms, NewRouter(), &nopLogger)

	if err := tr.Typing(nil, 1, nil, nil, true); !errors.Is(err, ErrBadEnvelope) {
		t.Fatalf("expected ErrBadEnvelope for no target, got %v", err)
	}
	if err := tr.Typing(nil, 1, i64(2), i64(3), true); !errors.Is(err, ErrBadEnvelope) {
		t.Fatalf("expected ErrBadEnvelope for two targets, got %v", err)
	}
}

func TestTrackerMarkReadFlipsFlagsAndNotifies(t *testing.T) {
	ms := newMemStore()
	router := NewRouter()
	tr := NewTracker(ms, router, &nopLogger)

	msg := &store.Message{SenderID: 1, ReceiverID: i64(2), Content: "unread", Type: store.MessageTypeText}
	if err := ms.InsertMessage(context.Background(), msg); err != nil {
		t.Fatalf("insert: %v", err)
	}

	senderConn := NewClient("s", 8)
	router.Subscribe(senderConn, UserChannel(1))

	// User 2 reads user 1's messages.
	if err := tr.MarkRead(context.Background(), 2, 1); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	ev := mustEvent(t, senderConn.Events, EventMessagesRead)
	if got := ev.Data.(ReadReceiptPayload); got.ReaderID != 2 {
		t.Fatalf("unexpected receipt: %+v", got)
	}

	stored, _ := ms.GetMessage(context.Background(), msg.ID)
	if !stored.IsRead {
		t.Fatal("message should be marked read")
	}

	// Redundant call is harmless and still notifies.
	if err := tr.MarkRead(context.Background(), 2, 1); err != nil {
		t.Fatalf("redundant mark read: %v", err)
	}
	mustEvent(t, senderConn.Events, EventMessagesRead)
}

func TestTrackerHistoryCleared(t *testing.T) {
	ms := newMemStore()
	router := NewRouter()
	tr := NewTracker(ms, router, &nopLogger)

	peerConn := NewClient("p", 8)
	router.Subscribe(peerConn, UserChannel(2))

	tr.HistoryCleared(1, 2)

	ev := mustEvent(t, peerConn.Events, EventHistoryCleared)
	if got := ev.Data.(HistoryClearedPayload); got.ClearedBy != 1 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}
