package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexxia-ai/tabular/ai"
)

func TestHistoryAppendPreservesOrder(t *testing.T) {
	h := NewHistory()
	h.Append(ai.UserMessage{Role: ai.UserRole, Content: "first"})
	h.Append(
		ai.AIMessage{Role: ai.AssistantRole, Content: "second"},
		ai.ToolMessage{Role: ai.ToolRole, Content: "third", ToolCallID: "c1"},
	)

	msgs := h.Messages()
	require.Len(t, msgs, 3)
	for i, want := range []string{"first", "second", "third"} {
		_, content := msgs[i].Value()
		assert.Equal(t, want, content)
	}
	assert.Equal(t, 3, h.Len())
}

func TestHistoryMessagesReturnsCopy(t *testing.T) {
	h := NewHistory()
	h.Append(ai.UserMessage{Role: ai.UserRole, Content: "original"})

	msgs := h.Messages()
	msgs[0] = ai.UserMessage{Role: ai.UserRole, Content: "mutated"}

	_, content := h.Messages()[0].Value()
	assert.Equal(t, "original", content)
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Messages())
}
