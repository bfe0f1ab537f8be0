package telephony

import (
	"encoding/xml"
	"fmt"
)

// TwiML verb structs. Marshaling through encoding/xml keeps untrusted input
// (the customer's phone number) confined to character data; it can never
// alter the document structure.

type sayVerb struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type numberNoun struct {
	XMLName xml.Name `xml:"Number"`
	Value   string   `xml:",chardata"`
}

type dialVerb struct {
	XMLName  xml.Name `xml:"Dial"`
	Timeout  int      `xml:"timeout,attr,omitempty"`
	CallerID string   `xml:"callerId,attr,omitempty"`
	Number   numberNoun
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

// DialStep is one attempt in a dial plan: ring this number for this long.
type DialStep struct {
	Number         string
	TimeoutSeconds int
	CallerID       string
}

// DialPlan is the unified bridge script: a greeting, an ordered list of dial
// attempts, and an optional message when nobody answers. Both bridging shapes
// (staff-to-customer and primary/fallback on-call) are instances of this one
// state machine.
type DialPlan struct {
	Greeting        string
	Voice           string
	Language        string
	Steps           []DialStep
	NoAnswerMessage string
}

// defaultVoice is the text-to-speech voice used for both languages.
const defaultVoice = "Polly.Joanna"

// languageTag maps a site locale to the provider's speech language tag.
func languageTag(locale string) string {
	if locale == "es" {
		return "es-US"
	}
	return "en-US"
}

// CustomerBridgePlan builds the script run on the staff member's phone when
// they answer a callback-request call: announce, then dial the customer.
func CustomerBridgePlan(customerPhone, locale, callerID string) DialPlan {
	greeting := "New customer waiting. Connecting now."
	noAnswer := "Customer unavailable."
	if locale == "es" {
		greeting = "Nuevo cliente esperando. Conectando ahora."
		noAnswer = "El cliente no está disponible."
	}
	return DialPlan{
		Greeting: greeting,
		Voice:    defaultVoice,
		Language: languageTag(locale),
		Steps: []DialStep{
			{Number: customerPhone, TimeoutSeconds: 30, CallerID: callerID},
		},
		NoAnswerMessage: noAnswer,
	}
}

// OnCallBridgePlan builds the technician-fallback script: try the primary
// on-call number, then the fallback, whichever answers first wins.
func OnCallBridgePlan(primary, fallback string) DialPlan {
	steps := []DialStep{{Number: primary, TimeoutSeconds: 20}}
	if fallback != "" {
		steps = append(steps, DialStep{Number: fallback, TimeoutSeconds: 20})
	}
	return DialPlan{
		Greeting: "Connecting you now.",
		Voice:    defaultVoice,
		Language: languageTag("en"),
		Steps:    steps,
	}
}

// Render serializes the plan to a TwiML document.
func (p DialPlan) Render() (string, error) {
	resp := twimlResponse{}
	if p.Greeting != "" {
		resp.Verbs = append(resp.Verbs, sayVerb{Voice: p.Voice, Language: p.Language, Text: p.Greeting})
	}
	for _, step := range p.Steps {
		resp.Verbs = append(resp.Verbs, dialVerb{
			Timeout:  step.TimeoutSeconds,
			CallerID: step.CallerID,
			Number:   numberNoun{Value: step.Number},
		})
	}
	if p.NoAnswerMessage != "" {
		resp.Verbs = append(resp.Verbs, sayVerb{Voice: p.Voice, Language: p.Language, Text: p.NoAnswerMessage})
	}

	out, err := xml.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("telephony: render twiml: %w", err)
	}
	return xml.Header + string(out), nil
}
