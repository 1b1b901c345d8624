package domain

// Role identifies the author of a message or history entry.
type Role string

// Message and history roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "ai"
)

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// Message is one turn of a generation request.
type Message struct {
	// Role is the author of the message.
	Role Role

	// Text is the message content.
	Text string
}

// GenerationRequest is the fully-formed request handed to a generation backend.
// Building one never contacts the backend.
type GenerationRequest struct {
	// SystemInstruction constrains the model to the supplied context.
	SystemInstruction string

	// Messages holds the user turn containing context and question.
	Messages []Message

	// ModelID names the generation model.
	ModelID string

	// Question is the literal user question.
	Question string

	// Context is the rendered context block embedded in the user turn.
	Context string

	// Sources are the retrieved chunks the context was rendered from, most relevant first.
	Sources RetrievalResult
}

// UserText returns the content of the last user message, or "" if there is none.
func (r *GenerationRequest) UserText() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Text
		}
	}
	return ""
}
