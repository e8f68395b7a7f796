package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gowebpki/jcs"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/constants"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/models"
)

// Prompt-injection patterns replaced before caller text reaches the model.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore previous instructions`),
	regexp.MustCompile(`(?i)ignore all instructions`),
	regexp.MustCompile(`(?i)system prompt`),
	regexp.MustCompile(`(?i)as an AI`),
	regexp.MustCompile(`(?i)you are a`),
	regexp.MustCompile(`(?i)reset the system`),
	regexp.MustCompile(`(?i)delete all`),
	regexp.MustCompile(`(?i)exploit|admin|token`),
	regexp.MustCompile(`(?i)override|bypass|hack`),
	regexp.MustCompile(`(?i)change (your|the) (role|behavior|instructions)`),
}

var (
	codeFencePattern   = regexp.MustCompile("```[\\s\\S]*?```")
	placeholderPattern = regexp.MustCompile(`\[[^\]]*\]`)
)

// SanitizeUserInput bounds and defangs caller speech before it is embedded
// in a prompt. Bracketed placeholders are stripped before the filter markers
// are inserted so the markers themselves survive.
func SanitizeUserInput(input string) string {
	if input == "" {
		return ""
	}

	runes := []rune(input)
	if len(runes) > constants.MaxSanitizedInputLength {
		runes = runes[:constants.MaxSanitizedInputLength]
	}
	sanitized := string(runes)

	sanitized = placeholderPattern.ReplaceAllString(sanitized, "")
	sanitized = codeFencePattern.ReplaceAllString(sanitized, "[CODE REMOVED]")
	for _, pattern := range injectionPatterns {
		sanitized = pattern.ReplaceAllString(sanitized, "[FILTERED]")
	}

	return strings.TrimSpace(sanitized)
}

// BuildPrompt embeds an already-sanitized query and the campaign product
// context in a rule-constrained prompt. Nothing else from the session
// crosses into the model. Callers sanitize exactly once; re-sanitizing would
// strip the filter markers.
func BuildPrompt(sanitizedQuery string, pc models.ProductContext) string {
	lastProduct := pc.LastProduct
	if lastProduct == "" {
		lastProduct = "N/A"
	}
	recommended := pc.RecommendedProduct
	if recommended == "" {
		recommended = "N/A"
	}

	return fmt.Sprintf(`You are a friendly voice assistant for hotel supply customers.

RULES:
- Only answer questions about food products
- Keep responses under 3 sentences
- Never mention anything outside the hotel supply context
- If unsure, recommend the product but don't make up information
- Be conversational and friendly, but concise

PRODUCT CONTEXT:
- Last purchased product: %s
- Recommended product: %s

USER QUERY: "%s"

Your short, helpful response:`, lastProduct, recommended, sanitizedQuery)
}

// CacheKey derives the per-session cache key for a sanitized query. The
// product-context part is canonicalized (RFC 8785) so key equality does not
// depend on map ordering or encoder quirks.
func CacheKey(sanitizedInput string, pc models.ProductContext) string {
	raw, err := json.Marshal(struct {
		LastProduct        string `json:"last_product"`
		RecommendedProduct string `json:"recommended_product"`
	}{pc.LastProduct, pc.RecommendedProduct})
	if err != nil {
		return sanitizedInput
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		canonical = raw
	}

	return sanitizedInput + "_" + string(canonical)
}
