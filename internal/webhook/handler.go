// Package webhook is the thin HTTP surface between the telephony provider
// and the call controller: provider form posts in, TwiML out.
package webhook

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/voiceline/callrelay/internal/metrics"
	"github.com/voiceline/callrelay/internal/relay"
	"github.com/voiceline/callrelay/internal/telephony"
	"github.com/voiceline/callrelay/internal/twiml"
)

// Controller is the slice of the call controller the endpoints drive.
type Controller interface {
	BeginCall(ctx context.Context, callID string) string
	ProcessSpeech(ctx context.Context, callID, speech string) (string, bool)
	EndCall(ctx context.Context, callID, status string)
}

// Handler serves the three provider webhooks.
type Handler struct {
	ctrl      Controller
	validator *telephony.Validator // nil disables signature checks
}

// NewHandler creates a webhook handler. validator may be nil.
func NewHandler(ctrl Controller, validator *telephony.Validator) *Handler {
	return &Handler{ctrl: ctrl, validator: validator}
}

// Register wires the webhook endpoints to the shared mux.
func (h *Handler) Register(mux *http.ServeMux) {
	// The provider may deliver the initial call webhook as GET or POST.
	mux.HandleFunc("/voice", h.handleVoice)
	mux.HandleFunc("POST /gather", h.handleGather)
	mux.HandleFunc("POST /status", h.handleStatus)
}

// handleVoice answers a call-start event: speak the greeting, then gather
// speech into /gather. A silent caller falls through the Gather to the
// Redirect, which reaches /gather with an empty SpeechResult.
func (h *Handler) handleVoice(w http.ResponseWriter, r *http.Request) {
	metrics.Webhooks.WithLabelValues("voice").Inc()
	if !h.authorized(w, r) {
		return
	}
	callID := r.FormValue("CallSid")
	if callID == "" {
		http.Error(w, "missing CallSid", http.StatusBadRequest)
		return
	}

	greeting := h.ctrl.BeginCall(r.Context(), callID)

	writeTwiML(w, &twiml.Response{Verbs: []any{
		twiml.Speak(greeting),
		twiml.GatherSpeech("/gather"),
		twiml.Redirect{Method: "POST", URL: "/gather"},
	}})
}

// handleGather processes a speech-gathered event: speak the reply, then
// either gather again or end the call.
func (h *Handler) handleGather(w http.ResponseWriter, r *http.Request) {
	metrics.Webhooks.WithLabelValues("gather").Inc()
	if !h.authorized(w, r) {
		return
	}
	callID := r.FormValue("CallSid")
	if callID == "" {
		http.Error(w, "missing CallSid", http.StatusBadRequest)
		return
	}

	reply, keepListening := h.ctrl.ProcessSpeech(r.Context(), callID, r.FormValue("SpeechResult"))

	verbs := []any{twiml.Speak(reply)}
	if keepListening {
		verbs = append(verbs,
			twiml.GatherSpeech("/gather"),
			twiml.Redirect{Method: "POST", URL: "/gather"},
		)
	} else {
		verbs = append(verbs, twiml.Hangup{})
	}
	writeTwiML(w, &twiml.Response{Verbs: verbs})
}

// handleStatus processes a call-status change. The provider only needs an
// acknowledgment, so the response is 200 regardless of internal outcome.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	metrics.Webhooks.WithLabelValues("status").Inc()
	if !h.authorized(w, r) {
		return
	}
	callID := r.FormValue("CallSid")
	status := r.FormValue("CallStatus")

	if callID != "" && relay.TerminalStatus(status) {
		h.ctrl.EndCall(r.Context(), callID, status)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) authorized(w http.ResponseWriter, r *http.Request) bool {
	if h.validator == nil {
		return true
	}
	if h.validator.Validate(r) {
		return true
	}
	slog.Warn("webhook signature rejected", "path", r.URL.Path, "remote", r.RemoteAddr)
	http.Error(w, "invalid signature", http.StatusForbidden)
	return false
}

func writeTwiML(w http.ResponseWriter, doc *twiml.Response) {
	body, err := doc.Render()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	w.Write(body)
}
