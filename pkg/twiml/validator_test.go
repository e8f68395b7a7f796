package twiml

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_AcceptsGeneratedDocuments(t *testing.T) {
	docs := []string{
		Document(Say("Hello")),
		Document(Say("One") + Pause(0.5) + Say("Two")),
		Document(Gather("Say yes or no.", GatherOptions{Action: "/api/call-response"})),
		SafeFallback(),
	}
	for _, doc := range docs {
		assert.NoError(t, Validate(doc), doc)
	}
}

func TestValidate_Empty(t *testing.T) {
	assert.EqualError(t, Validate(""), "document is empty")
}

func TestValidate_MissingDeclaration(t *testing.T) {
	err := Validate("<Response><Say>hi</Say></Response>")
	assert.ErrorContains(t, err, "XML declaration")
}

func TestValidate_DeclarationNotFirst(t *testing.T) {
	err := Validate(" " + Document(Say("hi")))
	assert.ErrorContains(t, err, "XML declaration")
}

func TestValidate_MissingResponseRoot(t *testing.T) {
	err := Validate(Declaration + "<Say>hi</Say>")
	assert.ErrorContains(t, err, "Response root")
}

func TestValidate_UnclosedTag(t *testing.T) {
	err := Validate(Declaration + "<Response><Say>hi</Response>")
	assert.Error(t, err)
}

func TestValidate_MismatchedTags(t *testing.T) {
	err := Validate(Declaration + "<Response><Say>hi</Gather></Response>")
	assert.ErrorContains(t, err, "mismatched tags")
}

func TestValidate_StrayClosingTag(t *testing.T) {
	err := Validate(Declaration + "</Say><Response><Say>hi</Say></Response>")
	assert.ErrorContains(t, err, "no matching open tag")
}

func TestValidate_SelfClosingTagsIgnored(t *testing.T) {
	assert.NoError(t, Validate(Document(Pause(1)+Pause(2))))
}
