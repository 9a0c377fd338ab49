package ledger

import "math"

// Reconcile validates every row's running balance against the most recent
// structurally valid row before it, repairing single-row direction errors
// where the arithmetic allows it.
//
// The only repair ever attempted is a type flip: if the stated balance does
// not follow from the previous balance and the row's signed amount, but does
// follow with the opposite sign, the row's type was mis-read and is flipped
// in place (TypeCorrected). A flip cannot mask a genuine error because the
// balance equation must still hold. Anything else is flagged
// BalanceMismatch and left for the user. Multi-row repairs are refused:
// they would let consecutive extraction errors cancel each other out.
//
// Reconcile returns a new slice; the input is not modified. Running it on
// its own output yields identical results.
func Reconcile(rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)

	first := -1
	for i := range out {
		if isStructurallyValid(out[i]) {
			first = i
			break
		}
		out[i].InvalidStructure = true
		out[i].BalanceMismatch = true
	}
	if first < 0 {
		return out
	}

	// The anchor row has nothing before it to check against.
	out[first].BalanceMismatch = false
	out[first].InvalidStructure = false

	prev := first
	for i := first + 1; i < len(out); i++ {
		if !isStructurallyValid(out[i]) {
			out[i].InvalidStructure = true
			out[i].BalanceMismatch = true
			continue
		}
		out[i].InvalidStructure = false

		if out[i].IsOpeningBalance() {
			// Carries only a balance; no arithmetic applies.
			out[i].BalanceMismatch = false
			prev = i
			continue
		}

		prevBalance := *out[prev].RunningBalance
		actual := *out[i].RunningBalance
		amount := *out[i].Amount

		// A row whose type was already flipped on a previous pass satisfies
		// this check directly, so re-reconciling keeps its flags intact.
		expected := prevBalance + signed(*out[i].Type)*amount
		if math.Abs(actual-expected) <= BalanceTolerance {
			out[i].BalanceMismatch = false
			prev = i
			continue
		}

		flippedType := flip(*out[i].Type)
		expectedFlipped := prevBalance + signed(flippedType)*amount
		if math.Abs(actual-expectedFlipped) <= BalanceTolerance {
			out[i].Type = &flippedType
			out[i].TypeCorrected = true
			out[i].BalanceMismatch = false
			prev = i
			continue
		}

		out[i].BalanceMismatch = true
		prev = i
	}

	return out
}

// isStructurallyValid is the reconciler's admission predicate: a dated row
// with a finite balance that either carries a typed finite amount or is an
// opening-balance row.
func isStructurallyValid(r Row) bool {
	if r.Date == "" || r.RunningBalance == nil || !isFinite(*r.RunningBalance) {
		return false
	}
	if r.Amount != nil && isFinite(*r.Amount) && r.Type != nil &&
		(*r.Type == TypeCredit || *r.Type == TypeDebit) {
		return true
	}
	return r.IsOpeningBalance()
}

func signed(t TxType) float64 {
	if t == TypeCredit {
		return 1
	}
	return -1
}

func flip(t TxType) TxType {
	if t == TypeCredit {
		return TypeDebit
	}
	return TypeCredit
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
