package session

import (
	"strings"
	"time"
)

// Role tags a message or transcript line with its speaker.
type Role string

const (
	RoleSystem    Role = "system"
	RoleCaller    Role = "caller"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of the running LLM context.
type Message struct {
	Role Role
	Text string
}

// Line is one speaker-tagged transcript entry, in chronological order.
type Line struct {
	Speaker Role
	Text    string
}

// Session is the conversation state for one active phone call.
// History[0] is always the system instruction; later entries alternate
// caller/assistant and are only ever appended in complete pairs.
type Session struct {
	CallID     string
	StartedAt  time.Time
	Transcript []Line
	History    []Message
}

// New creates a session seeded with the system instruction.
func New(callID, systemInstruction string) *Session {
	return &Session{
		CallID:    callID,
		StartedAt: time.Now().UTC(),
		History:   []Message{{Role: RoleSystem, Text: systemInstruction}},
	}
}

// Record appends a speaker-tagged line to the transcript.
func (s *Session) Record(speaker Role, text string) {
	s.Transcript = append(s.Transcript, Line{Speaker: speaker, Text: text})
}

// CommitExchange appends a completed caller/assistant pair to the history.
func (s *Session) CommitExchange(callerText, assistantText string) {
	s.History = append(s.History,
		Message{Role: RoleCaller, Text: callerText},
		Message{Role: RoleAssistant, Text: assistantText},
	)
}

// TranscriptText joins the transcript into one speaker-labeled text block.
func (s *Session) TranscriptText() string {
	var sb strings.Builder
	for _, line := range s.Transcript {
		speaker := "Caller"
		if line.Speaker == RoleAssistant {
			speaker = "Assistant"
		}
		sb.WriteString(speaker)
		sb.WriteString(": ")
		sb.WriteString(line.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
