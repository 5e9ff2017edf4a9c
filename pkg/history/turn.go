// Package history holds the durable, session-spanning conversation log.
package history

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	// roleLegacyAI is how older logs recorded assistant turns.
	roleLegacyAI Role = "ai"
)

// Turn is a single message in the conversation. Turns are values and are
// never modified after they are appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn returns a user-authored turn.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn returns an assistant-authored turn.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

func normalizeRole(r Role) Role {
	if r == roleLegacyAI {
		return RoleAssistant
	}
	return r
}
