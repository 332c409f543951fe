package conversations

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/model"
	"github.com/Kaztic/foodiespot-reservation-agent/internal/agent/repo"
)

func newManager(maxTurns int) (*MessagesManager, model.ConversationRepository) {
	r := repo.NewMemoryConversationRepository()
	cfg := model.ConversationConfig{MaxTurns: maxTurns}
	return NewMessagesManager(r, cfg), r
}

func TestBuildResponseContext_SystemPromptFirst(t *testing.T) {
	ctx := context.Background()
	cm, _ := newManager(20)

	if err := cm.AppendUserMessage(ctx, "c1", "hello"); err != nil {
		t.Fatal(err)
	}
	if err := cm.SaveResponse(ctx, "c1", "hi there"); err != nil {
		t.Fatal(err)
	}

	msgs, err := cm.BuildResponseContext(ctx, "c1", "sys")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != schema.System || msgs[0].Content != "sys" {
		t.Errorf("first message should be the system prompt, got %+v", msgs[0])
	}
	if msgs[1].Role != schema.User || msgs[2].Role != schema.Assistant {
		t.Errorf("history out of order: %v %v", msgs[1].Role, msgs[2].Role)
	}
}

func TestBuildResponseContext_WindowsHistory(t *testing.T) {
	ctx := context.Background()
	cm, _ := newManager(4)

	for i := 0; i < 10; i++ {
		if err := cm.AppendUserMessage(ctx, "c1", "q"); err != nil {
			t.Fatal(err)
		}
		if err := cm.SaveResponse(ctx, "c1", "a"); err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := cm.BuildResponseContext(ctx, "c1", "sys")
	if err != nil {
		t.Fatal(err)
	}
	// system prompt + the 4 most recent turns
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}
}

func TestReset_NextContextIsEmpty(t *testing.T) {
	ctx := context.Background()
	cm, _ := newManager(20)

	if err := cm.AppendUserMessage(ctx, "c1", "remember this"); err != nil {
		t.Fatal(err)
	}
	if err := cm.Reset(ctx, "c1"); err != nil {
		t.Fatal(err)
	}

	msgs, err := cm.BuildResponseContext(ctx, "c1", "sys")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected only the system prompt after reset, got %d messages", len(msgs))
	}
}

func TestReset_DoesNotTouchOtherConversations(t *testing.T) {
	ctx := context.Background()
	cm, _ := newManager(20)

	if err := cm.AppendUserMessage(ctx, "a", "one"); err != nil {
		t.Fatal(err)
	}
	if err := cm.AppendUserMessage(ctx, "b", "two"); err != nil {
		t.Fatal(err)
	}
	if err := cm.Reset(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	msgs, err := cm.BuildResponseContext(ctx, "b", "sys")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("conversation b should be untouched, got %d messages", len(msgs))
	}
}
