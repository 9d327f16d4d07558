package core

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var nopLogger = zerolog.Nop()

func mustEvent(t *testing.T, ch <-chan Event, name string) Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev.Name == name {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event %q not received", name)
	return Event{}
}

func i64(v int64) *int64 { return &v }

func mustNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got %q", ev.Name)
	default:
	}
}
