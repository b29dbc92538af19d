package assistant

import (
	"fmt"
	"strings"
	"testing"
)

func TestBuildChatMessages(t *testing.T) {
	t.Run("system first, user last", func(t *testing.T) {
		messages := BuildChatMessages("Sam", "CLIENT: Alice", "", nil, "How is Alice?")
		if len(messages) != 2 {
			t.Fatalf("got %d messages, want 2", len(messages))
		}
		if messages[0].Role != "system" {
			t.Errorf("first role = %q", messages[0].Role)
		}
		if !strings.Contains(messages[0].Content, "Sam") {
			t.Errorf("system prompt does not name the coach:\n%s", messages[0].Content)
		}
		if !strings.Contains(messages[0].Content, "CLIENT: Alice") {
			t.Errorf("system prompt missing context document")
		}
		if messages[1].Role != "user" || messages[1].Content != "How is Alice?" {
			t.Errorf("last message = %+v", messages[1])
		}
	})

	t.Run("knowledge block only when non-empty", func(t *testing.T) {
		without := BuildChatMessages("Sam", "ctx", "", nil, "q")
		if strings.Contains(without[0].Content, "RELEVANT KNOWLEDGE") {
			t.Error("knowledge block present with empty knowledge")
		}
		with := BuildChatMessages("Sam", "ctx", "protein timing matters less than totals", nil, "q")
		if !strings.Contains(with[0].Content, "RELEVANT KNOWLEDGE") {
			t.Error("knowledge block missing")
		}
	})

	t.Run("history trimmed to last 10, order preserved", func(t *testing.T) {
		var history []Message
		for i := 0; i < 15; i++ {
			role := "user"
			if i%2 == 1 {
				role = "assistant"
			}
			history = append(history, Message{Role: role, Content: fmt.Sprintf("turn %d", i)})
		}

		messages := BuildChatMessages("Sam", "ctx", "", history, "new question")
		// system + 10 history + new user message
		if len(messages) != 12 {
			t.Fatalf("got %d messages, want 12", len(messages))
		}
		if messages[1].Content != "turn 5" {
			t.Errorf("oldest kept turn = %q, want turn 5", messages[1].Content)
		}
		if messages[10].Content != "turn 14" {
			t.Errorf("newest history turn = %q, want turn 14", messages[10].Content)
		}
		if messages[11].Content != "new question" {
			t.Errorf("last = %q", messages[11].Content)
		}
	})
}
