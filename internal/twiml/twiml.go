// Package twiml renders the provider's voice response markup. Only the
// verbs the relay speaks are modeled.
package twiml

import "encoding/xml"

// DefaultVoice is the TTS voice used for every spoken verb.
const DefaultVoice = "Polly.Joanna"

// Response is a TwiML document. Verbs render in order.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

// Say speaks text to the caller.
type Say struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

// Gather captures caller speech and posts the transcription to Action.
type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Say           *Say
}

// Pause waits for Length seconds.
type Pause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

// Redirect transfers control to another webhook URL.
type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Speak builds a Say verb with the default voice.
func Speak(text string) Say {
	return Say{Voice: DefaultVoice, Text: text}
}

// GatherSpeech builds a speech Gather posting to action.
func GatherSpeech(action string) Gather {
	return Gather{
		Input:         "speech",
		Action:        action,
		Method:        "POST",
		SpeechTimeout: "auto",
	}
}

// Render marshals the document with the XML declaration.
func (r *Response) Render() ([]byte, error) {
	body, err := xml.MarshalIndent(r, "", "    ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
