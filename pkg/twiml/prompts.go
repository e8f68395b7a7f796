package twiml

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/models"
)

// SessionPatch carries the session mutations a response builder wants
// applied. Builders are pure: they return the patch instead of writing the
// session themselves, and the orchestrator applies it inside the store's
// guarded update.
type SessionPatch struct {
	LastPromptType models.PromptType
}

// Apply writes the non-zero patch fields onto a session.
func (p SessionPatch) Apply(s *models.Session) {
	if p.LastPromptType != "" {
		s.LastPromptType = p.LastPromptType
	}
}

const noResponseGoodbye = "We didn't receive your response. Thank you for your time. Goodbye."

// BuildInitialPrompt builds the opening greeting, the product
// recommendation, and the yes/no gather for a freshly initiated call.
func BuildInitialPrompt(pc models.ProductContext, actionURL string) (string, SessionPatch) {
	var inner strings.Builder

	inner.WriteString(Say(fmt.Sprintf("Hello %s, this is ArrayLink AI calling for %s.", pc.ManagerName, pc.HotelName)))
	inner.WriteString(Pause(1))
	inner.WriteString(Say(fmt.Sprintf("We noticed you've been ordering %s regularly. We'd like to recommend trying our %s.",
		pc.LastProduct, pc.RecommendedProduct)))
	inner.WriteString(Pause(1))
	inner.WriteString(Gather("Would you be interested in adding this to your next order?", GatherOptions{
		Action: actionURL,
		Hints:  "yes,no,maybe,tell me more,what is the difference,why,how,details",
	}))
	inner.WriteString(Say(noResponseGoodbye))

	return Document(inner.String()), SessionPatch{LastPromptType: models.PromptYesNo}
}

// BuildIntentResponse builds the canned fast-path reply for a classified
// intent. REPEAT reissues the original greeting unchanged.
func BuildIntentResponse(it models.Intent, session *models.Session, actionURL string) (string, SessionPatch) {
	product := session.ProductContext.RecommendedProduct
	if product == "" {
		product = "our product"
	}

	var inner strings.Builder

	switch it.Tag {
	case models.IntentConfirm:
		inner.WriteString(Say(fmt.Sprintf("Great! I'll add %s to your next order.", product)))
		inner.WriteString(Pause(1))
		inner.WriteString(Say("Thank you for your business. Have a wonderful day!"))

	case models.IntentDecline:
		inner.WriteString(Say("No problem at all. We appreciate your consideration."))
		inner.WriteString(Pause(1))
		inner.WriteString(Say("Is there anything else you'd like to know about our products?"))
		inner.WriteString(Gather("You can say yes for more information or no to end this call.", GatherOptions{
			Action: actionURL,
			Hints:  "yes,no,tell me more",
		}))
		inner.WriteString(Say("Thank you for your time. Goodbye."))

	case models.IntentRepeat:
		return BuildInitialPrompt(session.ProductContext, actionURL)

	case models.IntentSchedule:
		inner.WriteString(Say("I understand you'd like to discuss this later."))
		inner.WriteString(Pause(1))
		inner.WriteString(Say("We'll call you back at a more convenient time. Thank you and have a great day!"))

	default:
		inner.WriteString(Say("I understand. Thank you for your feedback."))
		inner.WriteString(Pause(1))
		inner.WriteString(Say("Have a wonderful day!"))
	}

	return Document(inner.String()), SessionPatch{}
}

// BuildLLMResponse paces a generative answer sentence by sentence with short
// pauses, then asks the follow-up yes/no question.
func BuildLLMResponse(answer, actionURL string) (string, SessionPatch) {
	var inner strings.Builder

	sentences := SplitSentences(answer)
	for i, sentence := range sentences {
		inner.WriteString(Say(sentence))
		if i < len(sentences)-1 {
			inner.WriteString(Pause(0.5))
		}
	}

	inner.WriteString(Pause(1))
	inner.WriteString(Gather("Would you like to add this product to your next order?", GatherOptions{
		Action: actionURL,
		Hints:  "yes,no,maybe,tell me more",
	}))
	inner.WriteString(Say(noResponseGoodbye))

	return Document(inner.String()), SessionPatch{LastPromptType: models.PromptLLMResponse}
}

// BuildContextAwareFallback picks re-prompt wording from what the last turn
// asked for. It reads the session but never changes it, so repeated calls
// with an unchanged session produce identical documents.
func BuildContextAwareFallback(session *models.Session, actionURL string) (string, SessionPatch) {
	var message string

	switch {
	case session.LastIntent == "":
		message = "I'm sorry, I didn't catch that. Would you like to hear about our recommended product for your hotel?"
	case session.LastIntent == models.IntentQuestion:
		product := session.ProductContext.RecommendedProduct
		if product == "" {
			product = "our product"
		}
		message = fmt.Sprintf("I'm sorry, I didn't understand your question. Would you like me to tell you more about %s?", product)
	case session.LastPromptType == models.PromptYesNo:
		message = "I'm sorry, I didn't catch that. Please say yes if you're interested, or no if you're not."
	default:
		message = "I'm sorry, I didn't catch that. Would you like me to repeat the product recommendation or answer a question about it?"
	}

	var inner strings.Builder
	inner.WriteString(Say(message))
	inner.WriteString(Gather("Please try again.", GatherOptions{
		Action: actionURL,
		Hints:  "yes,no,repeat,tell me more",
	}))
	inner.WriteString(Say(noResponseGoodbye))

	return Document(inner.String()), SessionPatch{}
}

// SplitSentences splits text after terminal punctuation followed by
// whitespace, keeping the punctuation with its sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') &&
			(i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
