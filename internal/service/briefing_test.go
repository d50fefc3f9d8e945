package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/adjutant-ai/adjutant/internal/domain/agent"
	"github.com/adjutant-ai/adjutant/internal/domain/briefing"
	"github.com/adjutant-ai/adjutant/internal/domain/owner"
	"github.com/adjutant-ai/adjutant/internal/domain/roster"
	"github.com/adjutant-ai/adjutant/internal/domain/thread"
	"github.com/adjutant-ai/adjutant/internal/port/llm"
	"github.com/adjutant-ai/adjutant/internal/port/messagequeue"
)

// seedThread creates a fresh session thread with the given assistant
// findings already appended.
func (f *fixture) seedThread(t *testing.T, a *agent.Agent, findings ...string) *thread.Thread {
	t.Helper()
	ctx := context.Background()
	th, err := f.threads.StartSession(ctx, a.ID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	for _, content := range findings {
		if _, err := f.threads.Append(ctx, th.ID, thread.RoleAssistant, content, nil); err != nil {
			t.Fatalf("append finding: %v", err)
		}
	}
	return th
}

func acceptDecision(title, summary, message string) func(llm.GenerateRequest, any) error {
	return func(_ llm.GenerateRequest, out any) error {
		if d, ok := out.(*briefing.Decision); ok {
			*d = briefing.Decision{ShouldBrief: true, Title: title, Summary: summary, Message: message}
		}
		return nil
	}
}

func TestDecideAndPublishSkipsSubordinate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead, _ := f.seedTeamLead(t, "u1")
	sub := f.seedSubordinate(t, lead, "worker")
	th := f.seedThread(t, sub, "found something")

	b, err := f.briefings.DecideAndPublish(ctx, sub, th.ID)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if b != nil {
		t.Fatalf("subordinate session produced a briefing: %+v", b)
	}
	if len(f.llm.objectCalls) != 0 {
		t.Fatalf("classifier was consulted for a subordinate")
	}
}

func TestDecideAndPublishSkipsEmptyFindings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead, _ := f.seedTeamLead(t, "u1")
	th := f.seedThread(t, lead)
	// Tool noise only, nothing assistant-authored.
	if _, err := f.threads.Append(ctx, th.ID, thread.RoleSystem, "tool team_status: []", nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	b, err := f.briefings.DecideAndPublish(ctx, lead, th.ID)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if b != nil || len(f.llm.objectCalls) != 0 {
		t.Fatalf("empty session should not reach the classifier")
	}
}

func TestDecideAndPublishDeclinedDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead, _ := f.seedTeamLead(t, "u1")
	th := f.seedThread(t, lead, "routine maintenance, nothing notable")

	f.llm.objectFn = func(_ llm.GenerateRequest, out any) error {
		return json.Unmarshal([]byte(`{"should_brief":false}`), out)
	}

	b, err := f.briefings.DecideAndPublish(ctx, lead, th.ID)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if b != nil {
		t.Fatalf("declined decision still published: %+v", b)
	}
	if len(f.store.briefings) != 0 || len(f.store.inbox) != 0 {
		t.Fatalf("declined decision left rows behind")
	}
}

func TestDecideAndPublishAcceptedDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead, _ := f.seedTeamLead(t, "u1")
	th := f.seedThread(t, lead, "shipped the migration tool")

	f.llm.objectFn = acceptDecision("Migration tool done", "Shipped it.", "The migration tool is live, details inside.")

	b, err := f.briefings.DecideAndPublish(ctx, lead, th.ID)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if b == nil {
		t.Fatal("expected a briefing")
	}
	if b.UserID != "u1" {
		t.Fatalf("user = %q, want u1", b.UserID)
	}
	if b.ThreadID != th.ID {
		t.Fatalf("thread = %q, want %q", b.ThreadID, th.ID)
	}

	items, err := f.briefings.ListInbox(ctx, "u1")
	if err != nil {
		t.Fatalf("list inbox: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("inbox items = %d, want 1", len(items))
	}
	if items[0].BriefingID != b.ID || items[0].Title != "Migration tool done" {
		t.Fatalf("inbox item not linked to briefing: %+v", items[0])
	}
	if items[0].Read {
		t.Fatal("new inbox item should be unread")
	}

	// Full message lands in the foreground conversation.
	conv, err := f.store.GetConversationByAgent(ctx, lead.ID)
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	msgs, _ := f.store.ListConversationMessages(ctx, conv.ID)
	if len(msgs) != 1 || msgs[0].Content != "The migration tool is live, details inside." {
		t.Fatalf("conversation messages = %+v", msgs)
	}

	// And it is announced on both transports.
	found := false
	for _, p := range f.queue.published {
		if p.subject == messagequeue.SubjectBriefingPublished {
			found = true
		}
	}
	if !found {
		t.Fatal("briefing event not published to the queue")
	}
	if got := f.hub.eventTypes(); len(got) == 0 || got[len(got)-1] != "briefing.published" {
		t.Fatalf("hub events = %v, want trailing briefing.published", got)
	}
}

func TestDecideAndPublishRejectsIncompleteDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead, _ := f.seedTeamLead(t, "u1")
	th := f.seedThread(t, lead, "did a thing")

	// Positive decision missing its message.
	f.llm.objectFn = func(_ llm.GenerateRequest, out any) error {
		return json.Unmarshal([]byte(`{"should_brief":true,"title":"t","summary":"s"}`), out)
	}

	if _, err := f.briefings.DecideAndPublish(ctx, lead, th.ID); err == nil {
		t.Fatal("expected validation error for incomplete decision")
	}
	if len(f.store.briefings) != 0 {
		t.Fatal("incomplete decision still persisted")
	}
}

func TestPublishResolvesAideUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	aide, err := f.store.CreateAide(ctx, roster.CreateAideRequest{UserID: "u9", Name: "scribe", Purpose: "keep notes"})
	if err != nil {
		t.Fatalf("create aide: %v", err)
	}
	a := &agent.Agent{Owner: owner.ForAide(aide.ID), Name: "aide-lead", RolePrompt: "You assist."}
	if err := f.store.CreateAgent(ctx, a); err != nil {
		t.Fatalf("create agent: %v", err)
	}
	if _, err := f.store.CreateConversation(ctx, a.ID); err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	b, err := f.briefings.Publish(ctx, a, "", briefing.Decision{
		ShouldBrief: true, Title: "t", Summary: "s", Message: "m",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if b.UserID != "u9" {
		t.Fatalf("user = %q, want u9", b.UserID)
	}
}

func TestMarkInboxRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead, _ := f.seedTeamLead(t, "u1")

	f.llm.objectFn = acceptDecision("t", "s", "m")
	th := f.seedThread(t, lead, "finding")
	if _, err := f.briefings.DecideAndPublish(ctx, lead, th.ID); err != nil {
		t.Fatalf("decide: %v", err)
	}

	items, _ := f.briefings.ListInbox(ctx, "u1")
	if err := f.briefings.MarkRead(ctx, items[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	items, _ = f.briefings.ListInbox(ctx, "u1")
	if !items[0].Read {
		t.Fatal("inbox item still unread after MarkRead")
	}
}
