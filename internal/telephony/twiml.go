package telephony

import (
	"encoding/xml"
	"strings"
)

const (
	twimlHeader = `<?xml version="1.0" encoding="UTF-8"?>`
	sayVoice    = "Polly.Amy"

	welcomePrompt  = "Welcome to IM Solutions. How can I help you today?"
	retryPrompt    = "I didn't catch that. Please try again."
	followUpPrompt = "Is there anything else I can help you with?"
)

// twimlBuilder accumulates TwiML verbs into a <Response> document.
// Twilio parses the body as XML, so all spoken text is escaped.
type twimlBuilder struct {
	sb strings.Builder
}

func newTwiML() *twimlBuilder {
	b := &twimlBuilder{}
	b.sb.WriteString(twimlHeader)
	b.sb.WriteString("<Response>")
	return b
}

func (b *twimlBuilder) say(text string) *twimlBuilder {
	b.sb.WriteString(`<Say voice="` + sayVoice + `">`)
	b.sb.WriteString(escapeXML(text))
	b.sb.WriteString("</Say>")
	return b
}

// gather opens a speech Gather that posts the result to action, speaking
// prompt inside it so the caller can barge in.
func (b *twimlBuilder) gather(action, prompt string) *twimlBuilder {
	b.sb.WriteString(`<Gather input="speech" action="` + escapeXML(action) + `" method="POST">`)
	b.sb.WriteString(`<Say voice="` + sayVoice + `">`)
	b.sb.WriteString(escapeXML(prompt))
	b.sb.WriteString("</Say></Gather>")
	return b
}

func (b *twimlBuilder) redirect(target string) *twimlBuilder {
	b.sb.WriteString("<Redirect>")
	b.sb.WriteString(escapeXML(target))
	b.sb.WriteString("</Redirect>")
	return b
}

func (b *twimlBuilder) String() string {
	return b.sb.String() + "</Response>"
}

func escapeXML(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

// welcomeTwiML greets the caller and gathers their first utterance.
// If nothing is said, the prompt repeats via the redirect.
func welcomeTwiML(inputPath, voicePath string) string {
	return newTwiML().
		gather(inputPath, welcomePrompt).
		say(retryPrompt).
		redirect(voicePath).
		String()
}

// replyTwiML speaks the assistant's reply and re-gathers.
func replyTwiML(reply, inputPath string) string {
	return newTwiML().
		say(reply).
		gather(inputPath, followUpPrompt).
		String()
}

// retryTwiML is returned when speech recognition produced nothing.
func retryTwiML(voicePath string) string {
	return newTwiML().
		say(retryPrompt).
		redirect(voicePath).
		String()
}
