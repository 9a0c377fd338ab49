package ledger

import (
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Candidate source keys per canonical field, in priority order. Keys are
// matched after whitespace cleaning, so a PDF column header broken across
// lines ("Transaction\nDate") resolves the same as the single-line form.
var (
	dateKeys        = []string{"date", "Transaction Date", "Value Date", "Date"}
	descriptionKeys = []string{"description", "Transaction Remarks", "Narration", "Transaction details"}
	balanceKeys     = []string{"running_balance", "Balance"}
	debitKeys       = []string{"Debit", "Withdrawal (Dr)"}
	creditKeys      = []string{"Credit", "Deposit(Cr)"}
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// cleanKey collapses any run of whitespace (spaces, tabs, embedded newlines)
// to a single space and trims the result.
func cleanKey(k string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(k, " "))
}

// CleanKeys returns a copy of the raw row with every key whitespace-cleaned.
// When cleaning collapses two keys into one, the first value seen wins.
func CleanKeys(raw RawRow) RawRow {
	cleaned := make(RawRow, len(raw))
	for k, v := range raw {
		ck := cleanKey(k)
		if _, ok := cleaned[ck]; !ok {
			cleaned[ck] = v
		}
	}
	return cleaned
}

// valueText renders a raw cell as a trimmed string; nil becomes "".
func valueText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return formatFloat(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// valueNumber parses a raw cell as a decimal. String values have thousands
// separators stripped before parsing. Returns ok=false for empty, null or
// non-numeric cells.
func valueNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// firstText returns the first non-empty textual value among the candidate
// keys, and whether any candidate key was present at all.
func firstText(row RawRow, keys []string) (string, bool) {
	present := false
	for _, k := range keys {
		v, ok := row[k]
		if !ok {
			continue
		}
		present = true
		if s := valueText(v); s != "" {
			return s, true
		}
	}
	return "", present
}

// firstNumber returns the first parseable numeric value among the candidate
// keys.
func firstNumber(row RawRow, keys []string) (float64, bool) {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			if f, ok := valueNumber(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

// collapseText folds embedded newlines in a value into single spaces.
func collapseText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// NormalizeRow maps one raw issuer-shaped row onto the canonical schema.
// It returns ok=false when the row cannot be admitted: missing date or
// balance, or no way to resolve an amount and direction.
func NormalizeRow(raw RawRow) (Row, bool) {
	row := CleanKeys(raw)

	date, _ := firstText(row, dateKeys)
	desc, _ := firstText(row, descriptionKeys)
	desc = collapseText(desc)

	balance, haveBalance := firstNumber(row, balanceKeys)

	var amount *float64
	var txType *TxType

	// Rows re-submitted through the feedback loop already carry canonical
	// amount/type fields; take them as-is (amounts are stored unsigned).
	if a, ok := valueNumber(row["amount"]); ok {
		switch valueText(row["type"]) {
		case string(TypeCredit):
			abs := math.Abs(a)
			amount, txType = &abs, typePtr(TypeCredit)
		case string(TypeDebit):
			abs := math.Abs(a)
			amount, txType = &abs, typePtr(TypeDebit)
		}
	}

	if amount == nil {
		debit, _ := firstNumber(row, debitKeys)
		credit, _ := firstNumber(row, creditKeys)
		switch {
		case debit > 0:
			amount, txType = &debit, typePtr(TypeDebit)
		case credit > 0:
			amount, txType = &credit, typePtr(TypeCredit)
		case IsOpeningBalanceDescription(desc):
			zero := 0.0
			amount = &zero
		}
	}

	if date == "" || !haveBalance || amount == nil {
		return Row{}, false
	}

	return Row{
		Date:           date,
		Description:    desc,
		Amount:         amount,
		Type:           txType,
		RunningBalance: &balance,
	}, true
}

// Normalize converts raw model output into canonical rows, dropping rows
// that cannot be admitted. Dropped rows are logged, never silently kept.
func Normalize(raws []RawRow) []Row {
	rows := make([]Row, 0, len(raws))
	for i, raw := range raws {
		row, ok := NormalizeRow(raw)
		if !ok {
			log.Printf("[normalize] dropping row %d: cannot resolve required fields (keys=%v)", i, rawKeys(raw))
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func rawKeys(raw RawRow) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, cleanKey(k))
	}
	return keys
}

func typePtr(t TxType) *TxType { return &t }
