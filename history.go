package tabular

import "github.com/nexxia-ai/tabular/ai"

// History is the ordered conversation record owned by one agent instance.
// It is append-only within a session and discarded with the agent.
//
// Entries are committed in accepted order only: the user message, then the
// assistant message together with its tool result, then any closing
// narrative. A retried execution attempt appends only its own entries, so
// the history passed to the model on turn N always reflects exactly the
// accepted state after turn N-1.
//
// History is exclusively owned by its agent (or, under a router, shared
// between delegates that never run concurrently), so no lock is taken.
type History struct {
	messages []ai.Message
}

func NewHistory() *History {
	return &History{messages: make([]ai.Message, 0)}
}

// Append commits messages to the history.
func (h *History) Append(msgs ...ai.Message) {
	h.messages = append(h.messages, msgs...)
}

// Messages returns a copy of the history in chronological order.
func (h *History) Messages() []ai.Message {
	result := make([]ai.Message, len(h.messages))
	copy(result, h.messages)
	return result
}

func (h *History) Len() int {
	return len(h.messages)
}
