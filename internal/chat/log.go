package chat

import (
	"sync"

	"github.com/pulsemaps/pulsemap/internal/models"
)

// Log is the append-only message sequence for the active session. Entries
// are never deleted; only the most recent assistant message may be mutated,
// and only while the reveal scheduler is streaming it.
type Log struct {
	mu       sync.RWMutex
	messages []models.ChatMessage
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Append(msg models.ChatMessage) {
	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.mu.Unlock()
}

// SetLastAssistantText replaces the text of the most recent assistant
// message. A no-op when no assistant message exists.
func (l *Log) SetLastAssistantText(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].Role == models.RoleAssistant {
			l.messages[i].Text = text
			return
		}
	}
}

// Messages returns a copy of the log.
func (l *Log) Messages() []models.ChatMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}
