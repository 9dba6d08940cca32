package models

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry in the append-only message log. Text is mutable
// only while the reveal scheduler is streaming the latest assistant reply.
type ChatMessage struct {
	Role  Role   `json:"role"`
	Text  string `json:"text"`
	Image string `json:"image,omitempty"` // photo URL captured at send time
}
