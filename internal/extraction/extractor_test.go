package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactions_BareArray(t *testing.T) {
	rows, perr := ParseTransactions(`[{"Date":"01/04/2024","Balance":"100"}]`)

	require.Nil(t, perr)
	require.Len(t, rows, 1)
	assert.Equal(t, "01/04/2024", rows[0]["Date"])
}

func TestParseTransactions_FencedMarkdown(t *testing.T) {
	text := "```json\n[{\"Date\":\"01/04/2024\"}]\n```"

	rows, perr := ParseTransactions(text)

	require.Nil(t, perr)
	require.Len(t, rows, 1)
}

func TestParseTransactions_TransactionsObject(t *testing.T) {
	rows, perr := ParseTransactions(`{"transactions":[{"Date":"01/04/2024"},{"Date":"02/04/2024"}]}`)

	require.Nil(t, perr)
	assert.Len(t, rows, 2)
}

func TestParseTransactions_RepairsTrailingComma(t *testing.T) {
	rows, perr := ParseTransactions(`[{"Date":"01/04/2024","Balance":"100"},]`)

	require.Nil(t, perr)
	require.Len(t, rows, 1)
	assert.Equal(t, "100", rows[0]["Balance"])
}

func TestParseTransactions_EmptyArray(t *testing.T) {
	rows, perr := ParseTransactions(`[]`)

	require.Nil(t, perr)
	assert.Empty(t, rows)
}

func TestParseTransactions_EmptyText(t *testing.T) {
	_, perr := ParseTransactions("   ")

	require.NotNil(t, perr)
	assert.Equal(t, ErrLlmResponseUnparseable, perr.Code)
}

func TestParseTransactions_NonObjectElement(t *testing.T) {
	_, perr := ParseTransactions(`[{"Date":"01/04/2024"}, "stray string"]`)

	require.NotNil(t, perr)
	assert.Equal(t, ErrLlmResponseShapeInvalid, perr.Code)
}

func TestParseTransactions_ObjectWithoutTransactionsKey(t *testing.T) {
	_, perr := ParseTransactions(`{"rows":[]}`)

	require.NotNil(t, perr)
	assert.Equal(t, ErrLlmResponseShapeInvalid, perr.Code)
}

func TestParseTransactions_ScalarTopLevel(t *testing.T) {
	_, perr := ParseTransactions(`42`)

	require.NotNil(t, perr)
	assert.Equal(t, ErrLlmResponseShapeInvalid, perr.Code)
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n[]\n```": "[]",
		"```\n[]\n```":     "[]",
		"[]":               "[]",
		"  []  ":           "[]",
	}
	for in, want := range cases {
		assert.Equal(t, want, stripCodeFences(in))
	}
}
