package openai

// receiptVisionPrompt asks for exactly the fields an expense draft needs.
const receiptVisionPrompt = `Carefully examine this receipt image and extract the expense information.

REQUIRED FIELDS:
- amount: The total amount paid, including tax. A number without currency symbols.
- currency_code: ISO 4217 code of the currency on the receipt (e.g. "USD", "EUR", "INR").
- category: One of: travel, meals, accommodation, office_supplies, software, entertainment, other.
- expense_date: The transaction date in YYYY-MM-DD format.
- description: A short human-readable summary of what was purchased (merchant plus purpose).
- remarks: Any other notable detail on the receipt (payment method, attendees, trip reference). Empty string if none.

Return a JSON object with this exact structure:
{
  "amount": number,
  "currency_code": "string",
  "category": "string",
  "expense_date": "YYYY-MM-DD",
  "description": "string",
  "remarks": "string"
}

IMPORTANT:
- Extract EXACTLY what you see. Do not guess or make up values.
- If the currency is ambiguous, infer it from the merchant's country.
- If a field is not visible or unclear, use empty string "" or 0.`
