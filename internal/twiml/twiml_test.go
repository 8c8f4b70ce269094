package twiml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderGreetingDocument(t *testing.T) {
	doc := &Response{Verbs: []any{
		Speak("Hello, thank you for calling."),
		GatherSpeech("/gather"),
		Redirect{Method: "POST", URL: "/gather"},
	}}

	out, err := doc.Render()
	require.NoError(t, err)
	body := string(out)

	require.True(t, strings.HasPrefix(body, "<?xml"))
	require.Contains(t, body, `<Say voice="Polly.Joanna">Hello, thank you for calling.</Say>`)
	require.Contains(t, body, `<Gather input="speech" action="/gather" method="POST" speechTimeout="auto">`)
	require.Contains(t, body, `<Redirect method="POST">/gather</Redirect>`)

	// Verbs must keep their construction order.
	require.Less(t, strings.Index(body, "<Say"), strings.Index(body, "<Gather"))
	require.Less(t, strings.Index(body, "<Gather"), strings.Index(body, "<Redirect"))
}

func TestRenderHangupDocument(t *testing.T) {
	doc := &Response{Verbs: []any{
		Speak("Goodbye."),
		Hangup{},
	}}

	out, err := doc.Render()
	require.NoError(t, err)
	body := string(out)

	require.Contains(t, body, "<Hangup>")
	require.NotContains(t, body, "<Gather")
}

func TestSayEscapesText(t *testing.T) {
	doc := &Response{Verbs: []any{Speak("Tom & Jerry <callers>")}}

	out, err := doc.Render()
	require.NoError(t, err)
	require.Contains(t, string(out), "Tom &amp; Jerry &lt;callers&gt;")
}

func TestGatherWithNestedSay(t *testing.T) {
	g := GatherSpeech("/gather")
	say := Speak("Anything else?")
	g.Say = &say

	doc := &Response{Verbs: []any{g}}
	out, err := doc.Render()
	require.NoError(t, err)

	body := string(out)
	require.Contains(t, body, "Anything else?")
	require.Less(t, strings.Index(body, "<Gather"), strings.Index(body, "<Say"))
}
