package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRow_KeyAliasing(t *testing.T) {
	raw := RawRow{
		"Transaction Date": "10/Apr/2024",
		"Narration":        "X",
		"Debit":            "1,500.50",
		"Balance":          "25,000.75",
	}

	got, ok := NormalizeRow(raw)

	require.True(t, ok)
	assert.Equal(t, "10/Apr/2024", got.Date)
	assert.Equal(t, "X", got.Description)
	require.NotNil(t, got.Amount)
	assert.Equal(t, 1500.50, *got.Amount)
	require.NotNil(t, got.Type)
	assert.Equal(t, TypeDebit, *got.Type)
	require.NotNil(t, got.RunningBalance)
	assert.Equal(t, 25000.75, *got.RunningBalance)
}

func TestNormalizeRow_KeysWithEmbeddedNewlines(t *testing.T) {
	// PDF column headers often break across lines.
	raw := RawRow{
		"Transaction\nDate":     "02/04/2024",
		"Transaction\n Remarks": "UPI payment",
		"Deposit(Cr)":           "500",
		"Balance":               "1500",
	}

	got, ok := NormalizeRow(raw)

	require.True(t, ok)
	assert.Equal(t, "02/04/2024", got.Date)
	assert.Equal(t, "UPI payment", got.Description)
	require.NotNil(t, got.Type)
	assert.Equal(t, TypeCredit, *got.Type)
}

func TestNormalizeRow_CanonicalFieldsPassThrough(t *testing.T) {
	// Rows resubmitted through feedback already carry canonical keys.
	raw := RawRow{
		"date":            "01/04/2024",
		"description":     "Groceries",
		"amount":          120.0,
		"type":            "debit",
		"running_balance": 1380.0,
	}

	got, ok := NormalizeRow(raw)

	require.True(t, ok)
	require.NotNil(t, got.Amount)
	assert.Equal(t, 120.0, *got.Amount)
	require.NotNil(t, got.Type)
	assert.Equal(t, TypeDebit, *got.Type)
}

func TestNormalizeRow_NegativeCanonicalAmountStoredUnsigned(t *testing.T) {
	raw := RawRow{
		"date":            "01/04/2024",
		"amount":          -120.0,
		"type":            "debit",
		"running_balance": 1380.0,
	}

	got, ok := NormalizeRow(raw)

	require.True(t, ok)
	assert.Equal(t, 120.0, *got.Amount)
}

func TestNormalizeRow_OpeningBalance(t *testing.T) {
	raw := RawRow{
		"Transaction Date": "01/04/2024",
		"Narration":        "B/F Opening Balance",
		"Balance":          "1,000.00",
	}

	got, ok := NormalizeRow(raw)

	require.True(t, ok)
	require.NotNil(t, got.Amount)
	assert.Equal(t, 0.0, *got.Amount)
	assert.Nil(t, got.Type)
	assert.True(t, got.IsOpeningBalance())
}

func TestNormalizeRow_MissingRequiredFields(t *testing.T) {
	cases := map[string]RawRow{
		"no date":    {"Narration": "X", "Debit": "10", "Balance": "100"},
		"no balance": {"Transaction Date": "01/04/2024", "Debit": "10"},
		"no amount and not opening": {
			"Transaction Date": "01/04/2024",
			"Narration":        "mystery line",
			"Balance":          "100",
		},
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := NormalizeRow(raw)
			assert.False(t, ok)
		})
	}
}

func TestNormalizeRow_MissingDescriptionAdmittedEmpty(t *testing.T) {
	raw := RawRow{
		"Transaction Date": "01/04/2024",
		"Debit":            "10",
		"Balance":          "90",
	}

	got, ok := NormalizeRow(raw)

	require.True(t, ok)
	assert.Equal(t, "", got.Description)
}

func TestNormalize_DropsUnadmittedRows(t *testing.T) {
	raws := []RawRow{
		{"Transaction Date": "01/04/2024", "Debit": "10", "Balance": "90"},
		{"Narration": "header noise"},
		{"Transaction Date": "02/04/2024", "Deposit(Cr)": "50", "Balance": "140"},
	}

	rows := Normalize(raws)

	require.Len(t, rows, 2)
	assert.Equal(t, "01/04/2024", rows[0].Date)
	assert.Equal(t, "02/04/2024", rows[1].Date)
}

func TestCleanKeys_FirstValueWinsOnCollision(t *testing.T) {
	raw := RawRow{"Balance": "100"}
	cleaned := CleanKeys(raw)
	assert.Equal(t, "100", cleaned["Balance"])
}
