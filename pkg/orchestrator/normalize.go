package orchestrator

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/constants"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/models"
)

// NormalizedInput is the fixed-shape record extracted from a webhook
// payload. Text is lowercased with punctuation stripped for matching; Raw is
// the trimmed original for anything spoken back to the caller.
type NormalizedInput struct {
	Text       string
	Raw        string
	Modality   models.Modality
	Confidence float64
}

// Provider API revisions have shipped the transcript under different field
// names.
var speechFields = []string{"SpeechResult", "Speech", "RecognizedSpeech", "SpeechText"}

var nonWordPattern = regexp.MustCompile(`[^\w\s]`)

// NormalizeWebhookInput extracts caller input from form-encoded webhook
// fields. A speech transcript is trusted only when non-empty after trimming
// and its reported confidence exceeds the threshold; otherwise keypad digits
// are used; otherwise the turn carries no input.
func NormalizeWebhookInput(form url.Values) NormalizedInput {
	var speech string
	for _, field := range speechFields {
		if v := strings.TrimSpace(form.Get(field)); v != "" {
			speech = v
			break
		}
	}

	confidence, _ := strconv.ParseFloat(form.Get("Confidence"), 64)

	if speech != "" && confidence > constants.SpeechConfidenceThreshold {
		return NormalizedInput{
			Text:       normalizeForMatching(speech),
			Raw:        speech,
			Modality:   models.ModalitySpeech,
			Confidence: confidence,
		}
	}

	if digits := strings.TrimSpace(form.Get("Digits")); digits != "" {
		return NormalizedInput{
			Text:     normalizeForMatching(digits),
			Raw:      digits,
			Modality: models.ModalityDTMF,
		}
	}

	return NormalizedInput{Modality: models.ModalityNone}
}

func normalizeForMatching(input string) string {
	lowered := strings.ToLower(strings.TrimSpace(input))
	return strings.TrimSpace(nonWordPattern.ReplaceAllString(lowered, ""))
}
