// internal/dialogue/extract.go
package dialogue

import (
	"regexp"
	"strings"
	"unicode"
)

// ticketIDPattern recovers ServiceNow record numbers the resolver is not
// trained to tag. All four record types carry at least five digits.
var ticketIDPattern = regexp.MustCompile(`(?i)\b(?:INC|REQ|TASK|RITM)\d{5,}\b`)

// ExtractTicketIDs returns every ticket id in text, in first-seen order.
// Matches are reported verbatim; no de-duplication beyond exact equality.
func ExtractTicketIDs(text string) []string {
	return ticketIDPattern.FindAllString(text, -1)
}

// Affirmative token sets for confirmation slots. ASCII tokens are matched
// on word boundaries so that "y" does not fire inside unrelated words;
// the Chinese tokens are matched by substring since Chinese text has no
// word boundaries.
var (
	affirmativeTokens = map[string]struct{}{
		"yes": {}, "y": {}, "yeah": {}, "sure": {}, "ok": {},
		"okay": {}, "yep": {}, "confirm": {},
	}
	affirmativeSubstrings = []string{"是", "确认"}
)

// IsAffirmative reports whether the turn text confirms a pending action.
func IsAffirmative(text string) bool {
	lower := strings.ToLower(text)
	for _, token := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if _, ok := affirmativeTokens[token]; ok {
			return true
		}
	}
	for _, sub := range affirmativeSubstrings {
		if strings.Contains(text, sub) {
			return true
		}
	}
	return false
}
