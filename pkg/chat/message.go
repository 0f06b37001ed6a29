package chat

// Role identifies who produced a message.
type Role string

const (
	// RoleUser marks a message typed by the human.
	RoleUser Role = "user"

	// RoleAssistant marks a message produced by an agent.
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
