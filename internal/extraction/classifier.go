package extraction

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"
)

// classifierSampleLimit caps how much statement text the identification
// prompt carries. The issuer name appears in the letterhead, so the head of
// the first page is enough.
const classifierSampleLimit = 2000

const classifierPrompt = `You are looking at the first page of a bank statement. Identify the bank that issued it.

Respond with ONLY the bank's name, nothing else. If you cannot tell which bank issued the statement, respond with exactly: unknown

Statement text:
`

// issuerAliases maps substrings of the model's answer to canonical issuer
// identifiers. Matching is case-insensitive, first hit wins.
var issuerAliases = []struct {
	substr string
	issuer string
}{
	{"ICICI", "ICICI"},
	{"HDFC", "HDFC"},
	{"STATE BANK", "SBI"},
	{"SBI", "SBI"},
	{"AXIS", "AXIS"},
	{"KOTAK", "KOTAK"},
	{"CITI", "CITI"},
	{"HSBC", "HSBC"},
}

// ClassifyIssuer asks the model which bank issued the statement, based on
// the first page's text. The result is advisory: any failure — transport,
// an over-long answer, or "unknown" — yields the empty string and the run
// proceeds with the default prompt.
func ClassifyIssuer(ctx context.Context, completer TextCompleter, firstPage string) string {
	sample := truncateRunes(firstPage, classifierSampleLimit)
	if strings.TrimSpace(sample) == "" {
		return ""
	}

	answer, err := completer.Complete(ctx, classifierPrompt+sample)
	if err != nil {
		log.Printf("[classifier] issuer identification failed: %v", err)
		return ""
	}

	answer = strings.TrimSpace(answer)
	if answer == "" || len(answer) > 50 {
		log.Printf("[classifier] discarding implausible issuer answer (%d chars)", len(answer))
		return ""
	}
	if strings.EqualFold(answer, "unknown") {
		return ""
	}

	upper := strings.ToUpper(answer)
	for _, a := range issuerAliases {
		if strings.Contains(upper, a.substr) {
			return a.issuer
		}
	}

	// An unrecognized but plausible name still keys prompt lookup; it just
	// won't match a stored override unless one was registered verbatim.
	return upper
}

// truncateRunes cuts s to at most limit bytes without splitting a rune;
// statement text carries currency symbols that span multiple bytes.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
