package extraction

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

// fakeCompleter returns scripted responses, in order, and records prompts.
type fakeCompleter struct {
	responses []string
	errs      []error
	prompts   []string
	calls     int
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", fmt.Errorf("fakeCompleter: unscripted call %d", i)
}

func TestClassifyIssuer_CanonicalAlias(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"ICICI Bank Limited"}}

	got := ClassifyIssuer(context.Background(), fc, "statement text")

	assert.Equal(t, "ICICI", got)
}

func TestClassifyIssuer_StateBankAlias(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"State Bank of India"}}

	assert.Equal(t, "SBI", ClassifyIssuer(context.Background(), fc, "statement text"))
}

func TestClassifyIssuer_Unknown(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"Unknown"}}

	assert.Equal(t, "", ClassifyIssuer(context.Background(), fc, "statement text"))
}

func TestClassifyIssuer_OverlongAnswerDiscarded(t *testing.T) {
	fc := &fakeCompleter{responses: []string{strings.Repeat("x", 51)}}

	assert.Equal(t, "", ClassifyIssuer(context.Background(), fc, "statement text"))
}

func TestClassifyIssuer_TransportFailureIsAdvisory(t *testing.T) {
	fc := &fakeCompleter{errs: []error{fmt.Errorf("connection refused")}}

	assert.Equal(t, "", ClassifyIssuer(context.Background(), fc, "statement text"))
}

func TestClassifyIssuer_EmptyPage(t *testing.T) {
	fc := &fakeCompleter{}

	assert.Equal(t, "", ClassifyIssuer(context.Background(), fc, "   "))
	assert.Equal(t, 0, fc.calls, "no LLM call for an empty page")
}

func TestClassifyIssuer_TruncationKeepsValidUTF8(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"HDFC Bank"}}
	// A rupee sign straddles the sample limit: bytes 1999..2001.
	page := strings.Repeat("a", 1999) + "₹" + strings.Repeat("b", 100)

	ClassifyIssuer(context.Background(), fc, page)

	sent := fc.prompts[0]
	assert.True(t, utf8.ValidString(sent))
	assert.True(t, strings.HasSuffix(sent, "a"), "partial rune must be dropped, not split")
}

func TestClassifyIssuer_TruncatesSample(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"HDFC Bank"}}
	page := strings.Repeat("a", 5000)

	ClassifyIssuer(context.Background(), fc, page)

	assert.LessOrEqual(t, len(fc.prompts[0]), len(classifierPrompt)+classifierSampleLimit)
}

func TestClassifyIssuer_UnlistedBankPassesThrough(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"Deutsche Bank"}}

	assert.Equal(t, "DEUTSCHE BANK", ClassifyIssuer(context.Background(), fc, "statement text"))
}
