package prompt

// DefaultExtractionPrompt is seeded into the default slot on first boot so
// a fresh deployment can process statements before any issuer-specific
// prompt has been registered.
const DefaultExtractionPrompt = `You are a bank statement parser. The text below was extracted from one page of a bank statement PDF.

Extract every transaction row on the page into a JSON array. Each transaction becomes one JSON object whose keys are the statement's own column headers, exactly as they appear (for example "Transaction Date", "Narration", "Withdrawal (Dr)", "Deposit(Cr)", "Balance"). Keep amounts as they are printed, including thousands separators. Include opening balance lines as rows too.

Rules:
- Output ONLY the JSON array, no commentary and no markdown fences.
- Do not invent rows; skip headers, footers, page numbers and summary totals.
- Use null for cells that are empty on the statement.
- If the page contains no transactions, output [].

Statement page text:
${textContent}`

// DefaultPrompt builds the seed row for the default slot.
func DefaultPrompt(id string) *Prompt {
	return &Prompt{
		ID:        id,
		IssuerTag: "",
		Text:      DefaultExtractionPrompt,
		Version:   1,
		IsActive:  true,
		IsDefault: true,
	}
}
