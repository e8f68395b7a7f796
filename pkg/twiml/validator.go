package twiml

import (
	"fmt"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`</?([a-zA-Z]+)[^>]*>`)

// Validate checks that a document is well formed enough for the telephony
// provider: exact declaration first, a single balanced Response root, and no
// mismatched or unclosed tags. Self-closing tags are excluded from the
// balance check.
func Validate(doc string) error {
	if doc == "" {
		return fmt.Errorf("document is empty")
	}

	if !strings.HasPrefix(doc, Declaration) {
		return fmt.Errorf("document does not start with the XML declaration")
	}

	if !strings.Contains(doc, "<Response>") || !strings.Contains(doc, "</Response>") {
		return fmt.Errorf("missing Response root element")
	}

	var open []string
	for _, match := range tagPattern.FindAllStringSubmatch(doc, -1) {
		full, name := match[0], match[1]

		if strings.HasPrefix(full, "</") {
			if len(open) == 0 {
				return fmt.Errorf("closing tag </%s> with no matching open tag", name)
			}
			last := open[len(open)-1]
			open = open[:len(open)-1]
			if last != name {
				return fmt.Errorf("mismatched tags: expected </%s>, found </%s>", last, name)
			}
			continue
		}

		if strings.HasSuffix(full, "/>") {
			continue
		}
		open = append(open, name)
	}

	if len(open) > 0 {
		return fmt.Errorf("unclosed tag <%s>", open[len(open)-1])
	}

	return nil
}
