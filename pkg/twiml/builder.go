// Package twiml builds and validates the XML call-control documents consumed
// by the telephony provider. Every dynamic string is escaped before it is
// embedded; every document is validated before it leaves the process.
package twiml

import (
	"fmt"
	"strconv"
	"strings"
)

// Declaration must be the literal first bytes of every document. The
// provider rejects documents with anything before it.
const Declaration = `<?xml version="1.0" encoding="UTF-8"?>`

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape replaces the five XML metacharacters in dynamic text.
func Escape(text string) string {
	if text == "" {
		return ""
	}
	return escaper.Replace(text)
}

// SayOptions controls voice rendering for a Say verb.
type SayOptions struct {
	Voice    string
	Language string
	Loop     int
}

// Say builds a text-to-speech fragment. The text is escaped here; callers
// pass raw strings.
func Say(text string, opts ...SayOptions) string {
	opt := SayOptions{}
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.Voice == "" {
		opt.Voice = "alice"
	}
	if opt.Language == "" {
		opt.Language = "en-US"
	}
	if opt.Loop == 0 {
		opt.Loop = 1
	}

	return fmt.Sprintf(`<Say voice="%s" language="%s" loop="%d">%s</Say>`,
		Escape(opt.Voice), Escape(opt.Language), opt.Loop, Escape(text))
}

// Pause builds a silence fragment of the given length in seconds.
func Pause(seconds float64) string {
	return fmt.Sprintf(`<Pause length="%s"/>`, strconv.FormatFloat(seconds, 'f', -1, 64))
}

// GatherOptions configures an input-gather directive.
type GatherOptions struct {
	Action        string
	Method        string
	Timeout       int
	SpeechTimeout int
	SpeechModel   string
	Input         string
	Hints         string
	NumDigits     int
	Voice         string
}

// Gather builds an input-collection fragment with a spoken prompt nested
// inside it. Both the prompt and every attribute value are escaped.
func Gather(promptText string, opts GatherOptions) string {
	if opts.Method == "" {
		opts.Method = "POST"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 7
	}
	if opts.SpeechTimeout == 0 {
		opts.SpeechTimeout = 5
	}
	if opts.SpeechModel == "" {
		opts.SpeechModel = "phone_call"
	}
	if opts.Input == "" {
		opts.Input = "dtmf speech"
	}
	if opts.Voice == "" {
		opts.Voice = "alice"
	}

	var attrs strings.Builder
	fmt.Fprintf(&attrs, `input="%s" timeout="%d" speechTimeout="%d" speechModel="%s" action="%s" method="%s"`,
		opts.Input, opts.Timeout, opts.SpeechTimeout, opts.SpeechModel, Escape(opts.Action), opts.Method)
	if opts.Hints != "" {
		fmt.Fprintf(&attrs, ` hints="%s"`, Escape(opts.Hints))
	}
	if opts.NumDigits > 0 {
		fmt.Fprintf(&attrs, ` numDigits="%d"`, opts.NumDigits)
	}

	return fmt.Sprintf(`<Gather %s><Say voice="%s">%s</Say></Gather>`,
		attrs.String(), Escape(opts.Voice), Escape(promptText))
}

// Document wraps fragments in the root element and prepends the declaration.
func Document(inner string) string {
	return Declaration + "<Response>" + inner + "</Response>"
}

// SafeFallback is the minimal hardcoded document substituted whenever a
// generated document fails validation or a turn panics. It must never be
// derived from dynamic input.
func SafeFallback() string {
	return Document(
		Say("I'm sorry, there was a problem with our system. Please try again later.") +
			Pause(1) +
			Say("Thank you for your understanding. Goodbye."))
}
