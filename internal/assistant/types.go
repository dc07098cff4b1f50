package assistant

import "strings"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Run status values reported by the assistant service.
const (
	RunStatusQueued         = "queued"
	RunStatusInProgress     = "in_progress"
	RunStatusRequiresAction = "requires_action"
	RunStatusCancelling     = "cancelling"
	RunStatusCancelled      = "cancelled"
	RunStatusFailed         = "failed"
	RunStatusCompleted      = "completed"
	RunStatusIncomplete     = "incomplete"
	RunStatusExpired        = "expired"
)

// Assistant describes the remote assistant configuration.
type Assistant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Model       string `json:"model"`
	Tools       []Tool `json:"tools"`
	CreatedAt   int64  `json:"created_at"`
}

// Tool is a capability attached to the assistant.
type Tool struct {
	Type string `json:"type"`
}

// Thread is a server-side conversation container.
type Thread struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	CreatedAt int64  `json:"created_at"`
}

// ThreadDeleted acknowledges a thread deletion.
type ThreadDeleted struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

// Message is a single entry in a thread.
type Message struct {
	ID        string           `json:"id"`
	Object    string           `json:"object"`
	ThreadID  string           `json:"thread_id"`
	Role      string           `json:"role"`
	Content   []MessageContent `json:"content"`
	RunID     string           `json:"run_id,omitempty"`
	CreatedAt int64            `json:"created_at"`
}

// MessageContent is one content block of a message.
type MessageContent struct {
	Type string       `json:"type"`
	Text *MessageText `json:"text,omitempty"`
}

// MessageText holds the text value of a content block.
type MessageText struct {
	Value string `json:"value"`
}

// Text returns the concatenated text content of the message.
func (m *Message) Text() string {
	var b strings.Builder
	for _, part := range m.Content {
		if part.Type == "text" && part.Text != nil {
			b.WriteString(part.Text.Value)
		}
	}
	return b.String()
}

// MessageList is a page of thread messages, newest first.
type MessageList struct {
	Object  string    `json:"object"`
	Data    []Message `json:"data"`
	FirstID string    `json:"first_id"`
	LastID  string    `json:"last_id"`
	HasMore bool      `json:"has_more"`
}

// Run is one assistant execution over a thread.
type Run struct {
	ID          string    `json:"id"`
	Object      string    `json:"object"`
	ThreadID    string    `json:"thread_id"`
	AssistantID string    `json:"assistant_id"`
	Status      string    `json:"status"`
	LastError   *RunError `json:"last_error,omitempty"`
	CreatedAt   int64     `json:"created_at"`
}

// RunError carries the service's failure detail for a run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Terminal reports whether the run has reached a state it cannot leave.
// The gateway never submits tool outputs, so requires_action is terminal
// from its point of view.
func (r *Run) Terminal() bool {
	switch r.Status {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled,
		RunStatusExpired, RunStatusIncomplete, RunStatusRequiresAction:
		return true
	}
	return false
}

// TurnResult is the outcome of one non-streaming conversation turn.
type TurnResult struct {
	Reply     string
	ThreadID  string
	RunID     string
	RunStatus string
}

// MessageDelta is the payload of a thread.message.delta stream event.
type MessageDelta struct {
	ID     string `json:"id"`
	Object string `json:"object"`
	Delta  struct {
		Content []DeltaContent `json:"content"`
	} `json:"delta"`
}

// DeltaContent is one incremental content block of a streamed message.
type DeltaContent struct {
	Index int          `json:"index"`
	Type  string       `json:"type"`
	Text  *MessageText `json:"text,omitempty"`
}

// Request payloads.

type createMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type createRunRequest struct {
	AssistantID string `json:"assistant_id"`
}

type createThreadAndRunRequest struct {
	AssistantID string         `json:"assistant_id"`
	Thread      *threadPayload `json:"thread,omitempty"`
	Stream      bool           `json:"stream,omitempty"`
}

type threadPayload struct {
	Messages []createMessageRequest `json:"messages,omitempty"`
}

// apiErrorEnvelope is the service's error response body.
type apiErrorEnvelope struct {
	Error apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}
