package twilio

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// Minimal TwiML response builder - only the verbs the signaling endpoint needs,
// no provider SDK dependency

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlConnect struct {
	XMLName xml.Name     `xml:"Connect"`
	Stream  *twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL        string          `xml:"url,attr"`
	Track      string          `xml:"track,attr,omitempty"`
	Parameters []twimlParameter `xml:"Parameter"`
}

type twimlParameter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// ConnectStreamTwiML instructs the provider to open the media stream into the relay
func ConnectStreamTwiML(streamURL, callID string) (string, error) {
	if streamURL == "" {
		return "", fmt.Errorf("no stream URL")
	}
	return render(&twimlResponse{Verbs: []any{twimlConnect{Stream: &twimlStream{
		URL: streamURL, Track: "both_tracks",
		Parameters: []twimlParameter{{Name: "callId", Value: callID}}}}}})
}

// ApologyTwiML announces a spoken apology and ends the call.
// The signaling endpoint must never leave the caller's phone silently connected
func ApologyTwiML() string {
	res, err := render(&twimlResponse{Verbs: []any{
		twimlSay{Text: "We're sorry, but we're experiencing technical difficulties. Please try again later."},
		twimlHangup{}}})
	if err != nil { // static content, can't happen
		return xml.Header + "<Response><Hangup/></Response>"
	}
	return res
}

func render(r *twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", fmt.Errorf("can't encode twiml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return "", fmt.Errorf("can't flush twiml: %w", err)
	}
	return buf.String(), nil
}
