// Package intent implements the phrase-based fast-path classifier. It routes
// common caller responses without a generative round trip.
package intent

import (
	"math"
	"sort"
	"strings"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/models"
)

// Confidence thresholds for the two detection modes. Multi-intent detection
// uses a lower floor so compound statements still surface secondary intents.
const (
	SingleIntentThreshold = 0.7
	MultiIntentThreshold  = 0.6
)

// Phrases maps each intent tag to its representative phrase set.
var Phrases = map[models.IntentTag][]string{
	models.IntentConfirm: {
		"yes", "yeah", "yep", "sure", "okay", "ok", "sounds good",
		"ill take it", "definitely", "absolutely", "correct", "right",
		"that works", "fine", "good", "great", "perfect", "alright",
	},
	models.IntentDecline: {
		"no", "nope", "not interested", "maybe later", "no thanks",
		"pass", "decline", "negative", "not now", "not today",
		"i dont think so", "not really", "no way",
	},
	models.IntentRepeat: {
		"repeat", "say that again", "what did you say", "come again",
		"i didnt hear", "pardon", "sorry", "what was that",
		"can you repeat", "one more time", "again please",
	},
	models.IntentSchedule: {
		"call me later", "call back", "schedule", "another time",
		"later", "not now", "reschedule", "tomorrow", "next week",
		"can we talk later", "better time",
	},
	models.IntentQuestion: {
		"what", "why", "how", "when", "where", "which", "who",
		"difference", "tell me", "explain", "more", "about",
		"details", "information", "compare", "versus", "vs",
	},
}

// intentOrder fixes the tag evaluation order. A few phrases appear in more
// than one set ("not now" is both a decline and a scheduling cue); the
// earlier tag wins the tie, so classification must not depend on map
// iteration order.
var intentOrder = []models.IntentTag{
	models.IntentConfirm,
	models.IntentDecline,
	models.IntentRepeat,
	models.IntentSchedule,
	models.IntentQuestion,
}

// priorities rank intents when several are present in one utterance.
// Questions trump everything; confirmations rank lowest because they are
// often the lead-in of a compound statement.
var priorities = map[models.IntentTag]int{
	models.IntentQuestion: 10,
	models.IntentRepeat:   8,
	models.IntentSchedule: 6,
	models.IntentDecline:  4,
	models.IntentConfirm:  2,
}

// DetectIntent classifies a caller utterance into a single intent, or nil if
// nothing matches with confidence at or above SingleIntentThreshold.
func DetectIntent(input string) *models.Intent {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return nil
	}

	var best *models.Intent

	for _, tag := range intentOrder {
		for _, phrase := range Phrases[tag] {
			if normalized == phrase {
				return &models.Intent{
					Tag:           tag,
					Confidence:    1.0,
					MatchedPhrase: phrase,
				}
			}

			if strings.Contains(normalized, phrase) {
				// Coverage of the phrase within the input scales
				// confidence from 0.7 up to 1.0.
				coverage := float64(len(phrase)) / float64(len(normalized))
				confidence := 0.7 + coverage*0.3

				if best == nil || confidence > best.Confidence {
					best = &models.Intent{
						Tag:           tag,
						Confidence:    confidence,
						MatchedPhrase: phrase,
					}
				}
			}
		}
	}

	if best != nil && best.Confidence >= SingleIntentThreshold {
		return best
	}
	return nil
}

// DetectMultipleIntents finds every intent present in an utterance, handling
// compound responses like "yes, but what about the price". The result is
// ordered by priority, then by how early the phrase occurs, then confidence.
func DetectMultipleIntents(input string) []models.Intent {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return nil
	}

	var matches []models.Intent

	for _, tag := range intentOrder {
		for _, phrase := range Phrases[tag] {
			idx := strings.Index(normalized, phrase)
			if idx < 0 {
				continue
			}

			coverage := float64(len(phrase)) / float64(len(normalized))
			confidence := 0.6 + coverage*0.4
			if confidence < MultiIntentThreshold {
				continue
			}

			position := float64(idx) / float64(len(normalized))

			matches = append(matches, models.Intent{
				Tag:           tag,
				Confidence:    confidence,
				MatchedPhrase: phrase,
				Priority:      priorities[tag],
				PositionScore: 1 - position,
			})
		}
	}

	// "Yes, but what about..." - the question is what the caller actually
	// wants answered, so it outranks the confirmation.
	hasConfirm := hasTag(matches, models.IntentConfirm)
	hasQuestion := hasTag(matches, models.IntentQuestion)
	if hasConfirm && hasQuestion {
		for i := range matches {
			if matches[i].Tag == models.IntentQuestion {
				matches[i].Priority += 5
				matches[i].Confidence = math.Min(matches[i].Confidence+0.1, 1.0)
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.PositionScore != b.PositionScore {
			return a.PositionScore > b.PositionScore
		}
		return a.Confidence > b.Confidence
	})

	return matches
}

// llmIndicators flag inputs that need free-text generation rather than a
// canned reply, independent of the classifier.
var llmIndicators = []string{
	"what", "why", "how", "when", "where", "which", "who", "can you", "could you",
	"difference", "tell me", "explain", "more", "about", "details", "information",
	"compare", "versus", "vs", "better", "best", "recommend", "suggestion",
}

// NeedsLLMProcessing reports whether an utterance contains interrogative or
// comparison markers that warrant the generative path.
func NeedsLLMProcessing(input string) bool {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return false
	}

	for _, indicator := range llmIndicators {
		if strings.Contains(normalized, indicator) {
			return true
		}
	}
	return false
}

func hasTag(intents []models.Intent, tag models.IntentTag) bool {
	for _, it := range intents {
		if it.Tag == tag {
			return true
		}
	}
	return false
}
