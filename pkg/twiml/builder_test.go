package twiml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscape_AllMetacharacters(t *testing.T) {
	escaped := Escape(`Tom & Jerry's <"best"> show`)
	assert.Equal(t, "Tom &amp; Jerry&apos;s &lt;&quot;best&quot;&gt; show", escaped)

	assert.NotContains(t, escaped, "<")
	assert.NotContains(t, escaped, ">")
	assert.NotContains(t, escaped, `"`)
	assert.NotContains(t, escaped, "'")
}

func TestEscape_Empty(t *testing.T) {
	assert.Equal(t, "", Escape(""))
}

func TestSay_Defaults(t *testing.T) {
	fragment := Say("Hello there")
	assert.Equal(t, `<Say voice="alice" language="en-US" loop="1">Hello there</Say>`, fragment)
}

func TestSay_EscapesText(t *testing.T) {
	fragment := Say(`O'Brien & Sons <Bagels>`)
	assert.Contains(t, fragment, "O&apos;Brien &amp; Sons &lt;Bagels&gt;")
	assert.NotContains(t, fragment, "<Bagels>")
}

func TestPause_Formatting(t *testing.T) {
	assert.Equal(t, `<Pause length="1"/>`, Pause(1))
	assert.Equal(t, `<Pause length="0.5"/>`, Pause(0.5))
}

func TestGather_DefaultsAndHints(t *testing.T) {
	fragment := Gather("Say yes or no.", GatherOptions{
		Action: "http://example.com/api/call-response",
		Hints:  "yes,no",
	})

	assert.Contains(t, fragment, `input="dtmf speech"`)
	assert.Contains(t, fragment, `timeout="7"`)
	assert.Contains(t, fragment, `speechTimeout="5"`)
	assert.Contains(t, fragment, `speechModel="phone_call"`)
	assert.Contains(t, fragment, `action="http://example.com/api/call-response"`)
	assert.Contains(t, fragment, `method="POST"`)
	assert.Contains(t, fragment, `hints="yes,no"`)
	assert.Contains(t, fragment, `>Say yes or no.</Say></Gather>`)
	assert.NotContains(t, fragment, "numDigits")
}

func TestGather_NumDigits(t *testing.T) {
	fragment := Gather("Enter a digit.", GatherOptions{Action: "/a", NumDigits: 1})
	assert.Contains(t, fragment, `numDigits="1"`)
}

func TestGather_EscapesActionURL(t *testing.T) {
	fragment := Gather("Prompt", GatherOptions{Action: "http://example.com/cb?a=1&b=2"})
	assert.Contains(t, fragment, "a=1&amp;b=2")
}

func TestDocument_DeclarationFirst(t *testing.T) {
	doc := Document(Say("hi"))
	require.True(t, strings.HasPrefix(doc, Declaration))
	assert.True(t, strings.HasSuffix(doc, "</Response>"))
	assert.NoError(t, Validate(doc))
}

func TestSafeFallback_AlwaysValid(t *testing.T) {
	doc := SafeFallback()
	assert.NoError(t, Validate(doc))
	assert.Contains(t, doc, "sorry")
}
