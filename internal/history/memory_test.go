package history

import (
	"context"
	"testing"

	"github.com/agentcore/chatcore/pkg/models"
)

func testSession(t *testing.T) models.Session {
	s, err := models.NewSession("chat1", "topicA")
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

func TestMemoryStoreAppendAndMessages(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	sess := testSession(t)

	m1, err := models.NewUserMessage("hello", "")
	if err != nil {
		t.Fatalf("NewUserMessage() error = %v", err)
	}
	if err := st.Append(ctx, sess, m1); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	m2 := models.NewAssistantMessage("hi!", models.FinishStop)
	if err := st.Append(ctx, sess, m2); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	msgs, err := st.Messages(ctx, sess, 0)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	if msgs[0].Content != "hello" {
		t.Fatalf("msgs[0].Content = %q, want %q", msgs[0].Content, "hello")
	}
	if msgs[1].Content != "hi!" {
		t.Fatalf("msgs[1].Content = %q, want %q", msgs[1].Content, "hi!")
	}
}

func TestMemoryStoreMessagesIsolatesMutation(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	sess := testSession(t)

	m1, _ := models.NewUserMessage("hello", "")
	if err := st.Append(ctx, sess, m1); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	msgs, err := st.Messages(ctx, sess, 0)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	msgs[0].Content = "mutated"

	again, err := st.Messages(ctx, sess, 0)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if again[0].Content != "hello" {
		t.Fatalf("again[0].Content = %q, want %q", again[0].Content, "hello")
	}
}

func TestMemoryStoreSummary(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	sess := testSession(t)

	sum, err := st.Summary(ctx, sess)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum != nil {
		t.Fatalf("Summary() = %v, want nil", sum)
	}

	if err := st.SetSummary(ctx, sess, models.NewSummaryMessage("earlier conversation")); err != nil {
		t.Fatalf("SetSummary() error = %v", err)
	}
	sum, err = st.Summary(ctx, sess)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.Content != "earlier conversation" {
		t.Fatalf("sum.Content = %q, want %q", sum.Content, "earlier conversation")
	}

	// SetSummary replaces, never appends a second summary
	if err := st.SetSummary(ctx, sess, models.NewSummaryMessage("updated")); err != nil {
		t.Fatalf("SetSummary() error = %v", err)
	}
	sum, err = st.Summary(ctx, sess)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.Content != "updated" {
		t.Fatalf("sum.Content = %q, want %q", sum.Content, "updated")
	}
}

func TestMemoryStoreDeleteRemovesSingleMessage(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	sess := testSession(t)

	m1, _ := models.NewUserMessage("hello", "")
	m2, _ := models.NewUserMessage("world", "")
	if err := st.Append(ctx, sess, m1); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := st.Append(ctx, sess, m2); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := st.Delete(ctx, sess, m1.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	msgs, err := st.Messages(ctx, sess, 0)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %d, want 1", len(msgs))
	}
	if msgs[0].Content != "world" {
		t.Fatalf("msgs[0].Content = %q, want %q", msgs[0].Content, "world")
	}
}

func TestMemoryStoreClearKeepsSessionUsable(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	sess := testSession(t)

	m1, _ := models.NewUserMessage("hello", "")
	if err := st.Append(ctx, sess, m1); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := st.SetSummary(ctx, sess, models.NewSummaryMessage("s")); err != nil {
		t.Fatalf("SetSummary() error = %v", err)
	}

	if err := st.Clear(ctx, sess); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	msgs, err := st.Messages(ctx, sess, 0)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("len(msgs) = %d, want 0", len(msgs))
	}

	sum, err := st.Summary(ctx, sess)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum != nil {
		t.Fatalf("Summary() = %v, want nil", sum)
	}

	// Session remains usable after clear (clear wipes content, not identity).
	m2, _ := models.NewUserMessage("again", "")
	if err := st.Append(ctx, sess, m2); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	msgs, err = st.Messages(ctx, sess, 0)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %d, want 1", len(msgs))
	}
}

func TestMemoryStoreLimit(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	sess := testSession(t)

	for i := 0; i < 5; i++ {
		m, _ := models.NewUserMessage("m", "")
		if err := st.Append(ctx, sess, m); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	msgs, err := st.Messages(ctx, sess, 2)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
}
