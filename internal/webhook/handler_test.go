package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voiceline/callrelay/internal/telephony"
)

type stubController struct {
	begun     []string
	processed []string
	ended     []string

	reply         string
	keepListening bool
}

func (s *stubController) BeginCall(_ context.Context, callID string) string {
	s.begun = append(s.begun, callID)
	return "Hello, thank you for calling."
}

func (s *stubController) ProcessSpeech(_ context.Context, callID, speech string) (string, bool) {
	s.processed = append(s.processed, callID+"|"+speech)
	return s.reply, s.keepListening
}

func (s *stubController) EndCall(_ context.Context, callID, status string) {
	s.ended = append(s.ended, callID+"|"+status)
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func TestVoiceReturnsGreetingTwiML(t *testing.T) {
	ctrl := &stubController{}
	mux := newMux(NewHandler(ctrl, nil))

	rec := postForm(t, mux, "/voice", url.Values{"CallSid": {"CA1"}})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	require.Equal(t, []string{"CA1"}, ctrl.begun)

	body := rec.Body.String()
	require.Contains(t, body, "Hello, thank you for calling.")
	require.Contains(t, body, `<Gather input="speech" action="/gather"`)
	require.Contains(t, body, "<Redirect")
}

func TestVoiceAcceptsGET(t *testing.T) {
	ctrl := &stubController{}
	mux := newMux(NewHandler(ctrl, nil))

	req := httptest.NewRequest("GET", "/voice?CallSid=CA1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"CA1"}, ctrl.begun)
}

func TestVoiceMissingCallSid(t *testing.T) {
	ctrl := &stubController{}
	mux := newMux(NewHandler(ctrl, nil))

	rec := postForm(t, mux, "/voice", url.Values{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, ctrl.begun)
}

func TestGatherKeepsListening(t *testing.T) {
	ctrl := &stubController{reply: "Sure, go on.", keepListening: true}
	mux := newMux(NewHandler(ctrl, nil))

	rec := postForm(t, mux, "/gather", url.Values{
		"CallSid":      {"CA1"},
		"SpeechResult": {"I have a question"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"CA1|I have a question"}, ctrl.processed)

	body := rec.Body.String()
	require.Contains(t, body, "Sure, go on.")
	require.Contains(t, body, "<Gather")
	require.NotContains(t, body, "<Hangup")
}

func TestGatherEndsCall(t *testing.T) {
	ctrl := &stubController{reply: "Goodbye.", keepListening: false}
	mux := newMux(NewHandler(ctrl, nil))

	rec := postForm(t, mux, "/gather", url.Values{"CallSid": {"CA1"}, "SpeechResult": {""}})

	body := rec.Body.String()
	require.Contains(t, body, "Goodbye.")
	require.Contains(t, body, "<Hangup")
	require.NotContains(t, body, "<Gather")
}

func TestGatherMissingCallSid(t *testing.T) {
	ctrl := &stubController{}
	mux := newMux(NewHandler(ctrl, nil))

	rec := postForm(t, mux, "/gather", url.Values{"SpeechResult": {"hello"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, ctrl.processed)
}

func TestStatusTerminalEndsCall(t *testing.T) {
	ctrl := &stubController{}
	mux := newMux(NewHandler(ctrl, nil))

	rec := postForm(t, mux, "/status", url.Values{
		"CallSid":    {"CA1"},
		"CallStatus": {"completed"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
	require.Equal(t, []string{"CA1|completed"}, ctrl.ended)
}

func TestStatusNonTerminalIsAcknowledgedOnly(t *testing.T) {
	ctrl := &stubController{}
	mux := newMux(NewHandler(ctrl, nil))

	rec := postForm(t, mux, "/status", url.Values{
		"CallSid":    {"CA1"},
		"CallStatus": {"ringing"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, ctrl.ended)
}

// sign reproduces the provider's signature scheme: HMAC-SHA1 over the full
// URL plus the sorted form parameters.
func sign(authToken, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := fullURL
	for _, k := range keys {
		payload += k + form.Get(k)
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestSignatureValidationRejectsUnsigned(t *testing.T) {
	ctrl := &stubController{}
	validator := telephony.NewValidator("secret-token", "https://relay.example.com")
	mux := newMux(NewHandler(ctrl, validator))

	rec := postForm(t, mux, "/voice", url.Values{"CallSid": {"CA1"}})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, ctrl.begun)
}

func TestSignatureValidationRejectsBadSignature(t *testing.T) {
	ctrl := &stubController{}
	validator := telephony.NewValidator("secret-token", "https://relay.example.com")
	mux := newMux(NewHandler(ctrl, validator))

	form := url.Values{"CallSid": {"CA1"}}
	req := httptest.NewRequest("POST", "/voice", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", "bm90LXRoZS1yaWdodC1zaWduYXR1cmU=")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, ctrl.begun)
}

func TestSignatureValidationAcceptsSigned(t *testing.T) {
	ctrl := &stubController{}
	validator := telephony.NewValidator("secret-token", "https://relay.example.com")
	mux := newMux(NewHandler(ctrl, validator))

	form := url.Values{"CallSid": {"CA1"}}
	req := httptest.NewRequest("POST", "/voice", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", sign("secret-token", "https://relay.example.com/voice", form))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"CA1"}, ctrl.begun)
}
