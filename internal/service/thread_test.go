package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/adjutant-ai/adjutant/internal/domain"
	"github.com/adjutant-ai/adjutant/internal/domain/thread"
)

func TestAppendAssignsGaplessSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	th, err := f.threads.StartSession(ctx, "a1")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	for i := 0; i < 5; i++ {
		msg, err := f.threads.Append(ctx, th.ID, thread.RoleUser, fmt.Sprintf("m%d", i), nil)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if msg.SequenceNumber != i+1 {
			t.Fatalf("expected seq %d, got %d", i+1, msg.SequenceNumber)
		}
	}
}

func TestShouldCompactThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, _ := f.threads.StartSession(ctx, "a1")

	for i := 0; i < 3; i++ {
		if _, err := f.threads.Append(ctx, th.ID, thread.RoleUser, "m", nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	should, err := f.threads.ShouldCompact(ctx, th.ID, 3)
	if err != nil {
		t.Fatalf("should compact: %v", err)
	}
	if should {
		t.Fatal("count == threshold must not trigger compaction")
	}

	if _, err := f.threads.Append(ctx, th.ID, thread.RoleUser, "m", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	should, err = f.threads.ShouldCompact(ctx, th.ID, 3)
	if err != nil {
		t.Fatalf("should compact: %v", err)
	}
	if !should {
		t.Fatal("count > threshold must trigger compaction")
	}
}

func TestCompactKeepsRecentAndRenumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, _ := f.threads.StartSession(ctx, "a1")

	for i := 1; i <= 10; i++ {
		if _, err := f.threads.Append(ctx, th.ID, thread.RoleUser, fmt.Sprintf("m%d", i), nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := f.threads.CompactWithSummary(ctx, th.ID, "what happened so far", 3); err != nil {
		t.Fatalf("compact: %v", err)
	}

	msgs, err := f.threads.BuildContext(ctx, th.ID)
	if err != nil {
		t.Fatalf("build context: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("expected summary + 3 recents, got %d messages", len(msgs))
	}
	if msgs[0].Role != thread.RoleSystem || msgs[0].Content != "what happened so far" {
		t.Fatalf("expected summary first, got %+v", msgs[0])
	}
	for i, msg := range msgs {
		if msg.SequenceNumber != i+1 {
			t.Fatalf("sequence gap at %d: got %d", i, msg.SequenceNumber)
		}
	}
	// Most recent originals survive in order.
	for i, want := range []string{"m8", "m9", "m10"} {
		if msgs[i+1].Content != want {
			t.Fatalf("expected %s at position %d, got %s", want, i+1, msgs[i+1].Content)
		}
	}
}

func TestCompactNoOpWhenTooShort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, _ := f.threads.StartSession(ctx, "a1")

	for i := 0; i < 3; i++ {
		if _, err := f.threads.Append(ctx, th.ID, thread.RoleUser, "m", nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := f.threads.CompactWithSummary(ctx, th.ID, "summary", 10); err != nil {
		t.Fatalf("compact: %v", err)
	}
	msgs, _ := f.threads.BuildContext(ctx, th.ID)
	if len(msgs) != 3 {
		t.Fatalf("expected untouched thread, got %d messages", len(msgs))
	}
}

func TestAppendContinuesAfterCompaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, _ := f.threads.StartSession(ctx, "a1")

	for i := 0; i < 6; i++ {
		if _, err := f.threads.Append(ctx, th.ID, thread.RoleUser, "m", nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := f.threads.CompactWithSummary(ctx, th.ID, "sum", 2); err != nil {
		t.Fatalf("compact: %v", err)
	}

	msg, err := f.threads.Append(ctx, th.ID, thread.RoleAssistant, "after", nil)
	if err != nil {
		t.Fatalf("append after compaction: %v", err)
	}
	if msg.SequenceNumber != 4 {
		t.Fatalf("expected seq 4 after summary + 2 recents, got %d", msg.SequenceNumber)
	}
}

func TestCompactCompletedThreadConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	th, _ := f.threads.StartSession(ctx, "a1")

	for i := 0; i < 6; i++ {
		if _, err := f.threads.Append(ctx, th.ID, thread.RoleUser, "m", nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := f.threads.EndSession(ctx, th.ID); err != nil {
		t.Fatalf("end session: %v", err)
	}

	err := f.threads.CompactWithSummary(ctx, th.ID, "too late", 2)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict compacting a completed thread, got %v", err)
	}
}

func TestStartSessionAlwaysFreshThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, _ := f.threads.StartSession(ctx, "a1")
	if err := f.threads.EndSession(ctx, first.ID); err != nil {
		t.Fatalf("end session: %v", err)
	}
	second, _ := f.threads.StartSession(ctx, "a1")

	if first.ID == second.ID {
		t.Fatal("expected a fresh thread per session")
	}
	if second.Status != thread.StatusActive {
		t.Fatalf("expected active, got %q", second.Status)
	}
}
