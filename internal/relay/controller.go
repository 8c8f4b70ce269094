// Package relay owns the call lifecycle: session creation, turn processing,
// and the single termination path that summarizes, notifies, and removes a
// session.
package relay

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voiceline/callrelay/internal/calllog"
	"github.com/voiceline/callrelay/internal/feed"
	"github.com/voiceline/callrelay/internal/llm"
	"github.com/voiceline/callrelay/internal/mail"
	"github.com/voiceline/callrelay/internal/metrics"
	"github.com/voiceline/callrelay/internal/prompts"
	"github.com/voiceline/callrelay/internal/session"
)

// Config holds the controller's collaborators. LLM may be nil (degraded
// acknowledge-and-hang-up path); Log and Feed may be nil.
type Config struct {
	Sessions     *session.Registry
	LLM          llm.Client
	Mail         mail.Notifier
	Log          *calllog.Store
	Feed         *feed.Hub
	SystemPrompt string
}

// Controller is the single authority over the session registry. It borrows
// one locked session per webhook and never retains it across requests.
type Controller struct {
	sessions     *session.Registry
	llm          llm.Client
	mail         mail.Notifier
	log          *calllog.Store
	feed         *feed.Hub
	systemPrompt string
}

// New creates a controller.
func New(cfg Config) *Controller {
	return &Controller{
		sessions:     cfg.Sessions,
		llm:          cfg.LLM,
		mail:         cfg.Mail,
		log:          cfg.Log,
		feed:         cfg.Feed,
		systemPrompt: prompts.ForSession(cfg.SystemPrompt),
	}
}

// TerminalStatus reports whether a provider call status means the call has
// ended.
func TerminalStatus(status string) bool {
	switch status {
	case "completed", "busy", "no-answer", "failed":
		return true
	}
	return false
}

// BeginCall creates the session for callID if absent and returns the fixed
// greeting. Re-delivered start events return the same greeting without
// resetting state.
func (c *Controller) BeginCall(ctx context.Context, callID string) string {
	h, created := c.sessions.Obtain(callID, func() *session.Session {
		return session.New(callID, c.systemPrompt)
	})
	defer h.Release()

	if created {
		h.Session().Record(session.RoleAssistant, prompts.Greeting)
		metrics.CallsTotal.Inc()
		metrics.CallsActive.Inc()
		slog.Info("call started", "call_id", callID)
	}
	return prompts.Greeting
}

// ProcessSpeech handles one gathered utterance. The returned flag reports
// whether the provider should keep listening; false means this was the
// call's terminal transition.
func (c *Controller) ProcessSpeech(ctx context.Context, callID, speech string) (string, bool) {
	h := c.sessions.Lookup(callID)
	if h == nil {
		metrics.Errors.WithLabelValues("gather", "unknown_call").Inc()
		slog.Warn("speech for unknown call", "call_id", callID)
		return prompts.UnknownCall, false
	}
	s := h.Session()

	speech = strings.TrimSpace(speech)
	if speech == "" {
		slog.Info("caller silent, ending call", "call_id", callID)
		c.finalize(ctx, h, "caller-silent")
		return prompts.Farewell, false
	}

	if c.llm == nil {
		// Degraded mode: no assistant, but the caller's words still reach
		// the summary mail through the transcript.
		s.Record(session.RoleCaller, speech)
		c.finalize(ctx, h, "acknowledged")
		return prompts.Acknowledged, false
	}

	s.Record(session.RoleCaller, speech)

	history := make([]session.Message, len(s.History), len(s.History)+1)
	copy(history, s.History)
	history = append(history, session.Message{Role: session.RoleCaller, Text: speech})

	reply, err := c.llm.ChatTurn(ctx, history)
	if err != nil {
		// The transcript keeps the caller's line; the history stays free of
		// the unanswered turn.
		slog.Error("llm chat turn", "call_id", callID, "error", err)
		c.finalize(ctx, h, "llm-error")
		return prompts.TroubleApology, false
	}

	s.CommitExchange(speech, reply)
	s.Record(session.RoleAssistant, reply)
	h.Release()
	return reply, true
}

// EndCall handles a terminal status callback. Unknown ids and repeated
// terminal events are no-ops: only the first terminal transition for a call
// is honored.
func (c *Controller) EndCall(ctx context.Context, callID, status string) {
	if !TerminalStatus(status) {
		return
	}
	h := c.sessions.Lookup(callID)
	if h == nil {
		slog.Debug("terminal status for untracked call", "call_id", callID, "status", status)
		return
	}
	c.finalize(ctx, h, status)
}

// finalize is the only code path that removes a session. The handle's
// per-call lock is held throughout, so a concurrent terminal event finds
// the session already absent and no second summary is ever sent.
func (c *Controller) finalize(ctx context.Context, h *session.Handle, status string) {
	s := h.Session()
	transcript := s.TranscriptText()
	summary := c.summarize(ctx, transcript)

	if err := c.mail.SendSummary(ctx, s.CallID, summary); err != nil {
		slog.Error("summary mail", "call_id", s.CallID, "error", err)
	}

	rec := calllog.Summary{
		ID:         uuid.NewString(),
		CallID:     s.CallID,
		Status:     status,
		Summary:    summary,
		Transcript: transcript,
		StartedAt:  s.StartedAt,
		EndedAt:    time.Now().UTC(),
	}
	if c.log != nil {
		c.log.InsertAsync(rec)
	}
	if c.feed != nil {
		c.feed.Broadcast(rec)
	}

	metrics.CallsActive.Dec()
	h.Remove()
	slog.Info("call ended", "call_id", s.CallID, "status", status, "turns", len(s.Transcript))
}

// summarize produces the mail body, falling back to the labeled raw
// transcript when the LLM is absent or fails.
func (c *Controller) summarize(ctx context.Context, transcript string) string {
	if transcript == "" {
		return "No transcript was captured for this call."
	}
	if c.llm == nil {
		return fallbackSummary(transcript)
	}
	summary, err := c.llm.Summarize(ctx, transcript)
	if err != nil {
		slog.Error("llm summarize", "error", err)
		return fallbackSummary(transcript)
	}
	return summary
}

func fallbackSummary(transcript string) string {
	return "Summary unavailable; raw transcript follows.\n\n" + transcript
}
